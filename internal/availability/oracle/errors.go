package oracle

import (
	"errors"
	"fmt"
)

// Category normalizes oracle failures. At the resolver boundary every
// category collapses into the same behavior: fall through to the next
// trusted source.
type Category string

const (
	// CategoryTransport covers network failures and timeouts.
	CategoryTransport Category = "transport"

	// CategoryProtocol covers malformed or unexpected responses.
	CategoryProtocol Category = "protocol"

	// CategoryConfiguration covers missing credentials or endpoints.
	CategoryConfiguration Category = "configuration"

	// CategoryRateLimited covers upstream throttling responses.
	CategoryRateLimited Category = "rate_limited"
)

// Error wraps an oracle failure with its normalized category.
type Error struct {
	Category   Category
	Oracle     string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("oracle %s [%s]: %s: %v", e.Oracle, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("oracle %s [%s]: %s", e.Oracle, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError constructs a categorized oracle error.
func NewError(category Category, oracle, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Oracle:     oracle,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category from an error chain.
func CategoryOf(err error) Category {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Category
	}
	return CategoryTransport
}
