package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainscout/internal/availability"
)

var fixedTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func TestPrimary(t *testing.T) {
	t.Run("missing api key is a configuration error", func(t *testing.T) {
		_, err := NewPrimary("", nil)
		require.Error(t, err)
		assert.Equal(t, CategoryConfiguration, CategoryOf(err))
	})

	t.Run("inactive summary maps to available", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "zevo.ai", r.URL.Query().Get("domain"))
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(statusResponse{Status: []statusEntry{
				{Domain: "zevo.ai", Zone: "ai", Summary: "inactive"},
			}})
		}))
		defer srv.Close()

		p, err := NewPrimary("test-key", srv.Client(), WithPrimaryBaseURL(srv.URL), WithPrimaryClock(fixedClock))
		require.NoError(t, err)

		rec, err := p.Check(context.Background(), "zevo.ai")
		require.NoError(t, err)
		assert.True(t, rec.Available)
		assert.Equal(t, availability.ConfidencePrimary, rec.Confidence)
		assert.Equal(t, availability.SourcePrimary, rec.Source)
		assert.Equal(t, fixedTime, rec.ObservedAt)
	})

	t.Run("every other summary maps to unavailable", func(t *testing.T) {
		for _, summary := range []string{"active", "reserved", "premium", "unknown", "garbage"} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(statusResponse{Status: []statusEntry{
					{Domain: "zevo.ai", Summary: summary},
				}})
			}))
			p, err := NewPrimary("test-key", srv.Client(), WithPrimaryBaseURL(srv.URL))
			require.NoError(t, err)

			rec, err := p.Check(context.Background(), "zevo.ai")
			srv.Close()
			require.NoError(t, err, "summary %q", summary)
			assert.False(t, rec.Available, "summary %q must not be available", summary)
		}
	})

	t.Run("premium price is carried on the record", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(statusResponse{Status: []statusEntry{
				{Domain: "zevo.ai", Summary: "premium", Price: "2499.00", Currency: "USD"},
			}})
		}))
		defer srv.Close()

		p, err := NewPrimary("test-key", srv.Client(), WithPrimaryBaseURL(srv.URL))
		require.NoError(t, err)

		rec, err := p.Check(context.Background(), "zevo.ai")
		require.NoError(t, err)
		require.NotNil(t, rec.Price)
		assert.Equal(t, "2499", rec.Price.String())
		assert.Equal(t, "USD", rec.Currency)
		assert.False(t, rec.Available)
	})

	t.Run("empty status list is a protocol error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(statusResponse{})
		}))
		defer srv.Close()

		p, err := NewPrimary("test-key", srv.Client(), WithPrimaryBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = p.Check(context.Background(), "zevo.ai")
		require.Error(t, err)
		assert.Equal(t, CategoryProtocol, CategoryOf(err))
	})

	t.Run("mismatched domain in response is a protocol error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(statusResponse{Status: []statusEntry{
				{Domain: "other.ai", Summary: "inactive"},
			}})
		}))
		defer srv.Close()

		p, err := NewPrimary("test-key", srv.Client(), WithPrimaryBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = p.Check(context.Background(), "zevo.ai")
		require.Error(t, err)
		assert.Equal(t, CategoryProtocol, CategoryOf(err))
	})

	t.Run("upstream 500 is a protocol error not a guess", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		p, err := NewPrimary("test-key", srv.Client(), WithPrimaryBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = p.Check(context.Background(), "zevo.ai")
		require.Error(t, err)
	})
}

func TestRDAP(t *testing.T) {
	newServer := func(status int, body any) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			if body != nil {
				_ = json.NewEncoder(w).Encode(body)
			}
		}))
	}

	t.Run("404 means available with endpoint-table confidence", func(t *testing.T) {
		srv := newServer(http.StatusNotFound, nil)
		defer srv.Close()

		r := NewRDAP(srv.Client(),
			WithRDAPEndpoints(map[string]string{"ai": srv.URL + "/"}),
			WithRDAPClock(fixedClock))

		rec, err := r.Check(context.Background(), "zevo.ai")
		require.NoError(t, err)
		assert.True(t, rec.Available)
		assert.Equal(t, availability.ConfidenceFallbackTLD, rec.Confidence)
		assert.Equal(t, availability.SourceFallback, rec.Source)
	})

	t.Run("bootstrap endpoint lowers confidence", func(t *testing.T) {
		srv := newServer(http.StatusNotFound, nil)
		defer srv.Close()

		r := NewRDAP(srv.Client(),
			WithRDAPEndpoints(map[string]string{}),
			WithRDAPBootstrapURL(srv.URL+"/"))

		rec, err := r.Check(context.Background(), "zevo.dev")
		require.NoError(t, err)
		assert.True(t, rec.Available)
		assert.Equal(t, availability.ConfidenceFallbackBootstrap, rec.Confidence)
	})

	t.Run("200 with a domain object means taken", func(t *testing.T) {
		srv := newServer(http.StatusOK, rdapDomain{ObjectClassName: "domain", LDHName: "zevo.ai"})
		defer srv.Close()

		r := NewRDAP(srv.Client(), WithRDAPEndpoints(map[string]string{"ai": srv.URL + "/"}))

		rec, err := r.Check(context.Background(), "zevo.ai")
		require.NoError(t, err)
		assert.False(t, rec.Available)
		assert.Equal(t, availability.ConfidenceFallbackTLD, rec.Confidence)
	})

	t.Run("200 with a malformed body fails closed", func(t *testing.T) {
		srv := newServer(http.StatusOK, map[string]string{"objectClassName": "entity"})
		defer srv.Close()

		r := NewRDAP(srv.Client(), WithRDAPEndpoints(map[string]string{"ai": srv.URL + "/"}))

		_, err := r.Check(context.Background(), "zevo.ai")
		require.Error(t, err)
		assert.Equal(t, CategoryProtocol, CategoryOf(err))
	})

	t.Run("unexpected status is an error", func(t *testing.T) {
		srv := newServer(http.StatusBadGateway, nil)
		defer srv.Close()

		r := NewRDAP(srv.Client(), WithRDAPEndpoints(map[string]string{"ai": srv.URL + "/"}))

		_, err := r.Check(context.Background(), "zevo.ai")
		require.Error(t, err)
	})
}

func TestBulk(t *testing.T) {
	t.Run("missing credentials is a configuration error", func(t *testing.T) {
		_, err := NewBulk("", "", nil)
		require.Error(t, err)
		assert.Equal(t, CategoryConfiguration, CategoryOf(err))
	})

	t.Run("answers every domain in input order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req bulkRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			resp := bulkResponse{}
			for i, d := range req.Domains {
				resp.Results = append(resp.Results, bulkResult{Domain: d, Available: i%2 == 0})
			}
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		b, err := NewBulk("user", "key", srv.Client(), WithBulkBaseURL(srv.URL), WithBulkClock(fixedClock))
		require.NoError(t, err)

		domains := []string{"a.ai", "b.ai", "c.ai"}
		recs, err := b.CheckBatch(context.Background(), domains)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for i, rec := range recs {
			assert.Equal(t, domains[i], rec.Domain)
			assert.Equal(t, availability.ConfidenceBulk, rec.Confidence)
			assert.Equal(t, availability.SourceBulk, rec.Source)
		}
		assert.True(t, recs[0].Available)
		assert.False(t, recs[1].Available)
	})

	t.Run("failed call yields conservative records and an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		b, err := NewBulk("user", "key", srv.Client(), WithBulkBaseURL(srv.URL))
		require.NoError(t, err)

		recs, err := b.CheckBatch(context.Background(), []string{"a.ai", "b.ai"})
		require.Error(t, err)
		require.Len(t, recs, 2)
		for _, rec := range recs {
			assert.False(t, rec.Available)
			assert.Equal(t, availability.ConfidenceDenied, rec.Confidence)
		}
	})

	t.Run("response missing a requested domain fails the chunk closed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(bulkResponse{Results: []bulkResult{
				{Domain: "a.ai", Available: true},
			}})
		}))
		defer srv.Close()

		b, err := NewBulk("user", "key", srv.Client(), WithBulkBaseURL(srv.URL))
		require.NoError(t, err)

		recs, err := b.CheckBatch(context.Background(), []string{"a.ai", "b.ai"})
		require.Error(t, err)
		require.Len(t, recs, 2)
		assert.False(t, recs[0].Available)
		assert.False(t, recs[1].Available)
	})
}

func TestSplitDomain(t *testing.T) {
	word, tld := splitDomain("zevo.ai")
	assert.Equal(t, "zevo", word)
	assert.Equal(t, "ai", tld)

	word, tld = splitDomain("bare")
	assert.Equal(t, "bare", word)
	assert.Equal(t, "", tld)
}
