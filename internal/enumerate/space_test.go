package enumerate

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpace(t *testing.T) {
	space := NewSpace()

	contains := func(word string) bool {
		i := sort.SearchStrings(space.words, word)
		return i < len(space.words) && space.words[i] == word
	}

	t.Run("contains the expected pattern families", func(t *testing.T) {
		assert.True(t, contains("zova"), "CVCV")
		assert.True(t, contains("birak"), "CVCVC")
		assert.True(t, contains("crivo"), "CCVCV")
		assert.True(t, contains("bolta"), "CVCCV")
		assert.True(t, contains("zenova"), "CVCVCV")
		assert.True(t, contains("brivos"), "CCVCVC")
	})

	t.Run("rejects out-of-alphabet and unpronounceable words", func(t *testing.T) {
		assert.False(t, contains("qova"), "q is not in the alphabet")
		assert.False(t, contains("xile"), "x is not in the alphabet")
		assert.False(t, contains("bvate"), "bv is a bad digraph")
	})

	t.Run("sorted and deduplicated", func(t *testing.T) {
		require.True(t, sort.StringsAreSorted(space.words))
		for i := 1; i < len(space.words); i++ {
			require.NotEqual(t, space.words[i-1], space.words[i])
		}
	})

	t.Run("indexable with stable bounds", func(t *testing.T) {
		require.Greater(t, space.Len(), 0)

		first, ok := space.At(0)
		require.True(t, ok)
		assert.NotEmpty(t, first)

		_, ok = space.At(space.Len())
		assert.False(t, ok)
		_, ok = space.At(-1)
		assert.False(t, ok)
	})

	t.Run("identical across constructions", func(t *testing.T) {
		other := NewSpace()
		require.Equal(t, space.Len(), other.Len())
		for _, i := range []int{0, space.Len() / 2, space.Len() - 1} {
			a, _ := space.At(i)
			b, _ := other.At(i)
			assert.Equal(t, a, b, "index %d", i)
		}
	})
}

func TestIsPronounceable(t *testing.T) {
	assert.True(t, isPronounceable("zova"))
	assert.True(t, isPronounceable("blaze"))
	assert.False(t, isPronounceable("bvola"), "bad digraph")
	assert.False(t, isPronounceable("bstro"), "triple consonant run")
	assert.False(t, isPronounceable("baaie"), "triple vowel run")
}
