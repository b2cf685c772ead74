package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"domainscout/internal/availability"
)

const primaryName = "primary"

// DefaultPrimaryBaseURL points at the hosted status API.
const DefaultPrimaryBaseURL = "https://api.domainstatus.dev"

// Primary is the authoritative third-party status oracle. It accepts only
// the single unambiguous "inactive" summary as available; active, reserved,
// premium, unknown and anything unrecognized are all unavailable. Errors are
// propagated untouched so the resolver can decide the fallback.
type Primary struct {
	baseURL string
	apiKey  string
	client  *http.Client
	clock   func() time.Time
}

// PrimaryOption configures a Primary oracle.
type PrimaryOption func(*Primary)

// WithPrimaryBaseURL overrides the API endpoint, mainly for tests.
func WithPrimaryBaseURL(baseURL string) PrimaryOption {
	return func(p *Primary) { p.baseURL = baseURL }
}

// WithPrimaryClock sets the clock function for testability.
func WithPrimaryClock(clock func() time.Time) PrimaryOption {
	return func(p *Primary) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewPrimary constructs the primary oracle. A missing API key is a
// configuration error caught here, at startup, not per call.
func NewPrimary(apiKey string, client *http.Client, opts ...PrimaryOption) (*Primary, error) {
	if apiKey == "" {
		return nil, NewError(CategoryConfiguration, primaryName, "api key is required", nil)
	}
	if client == nil {
		client = NewHTTPClient()
	}
	p := &Primary{
		baseURL: DefaultPrimaryBaseURL,
		apiKey:  apiKey,
		client:  client,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Primary) Name() string { return primaryName }

// statusResponse is the typed shape of the upstream answer. Decoding fails
// closed: any shape mismatch is a protocol error, never a partial parse.
type statusResponse struct {
	Status []statusEntry `json:"status"`
}

type statusEntry struct {
	Domain   string `json:"domain"`
	Zone     string `json:"zone"`
	Summary  string `json:"summary"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Check queries the status API for a single domain.
func (p *Primary) Check(ctx context.Context, domain string) (availability.Record, error) {
	endpoint := fmt.Sprintf("%s/v2/status?domain=%s", p.baseURL, url.QueryEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return availability.Record{}, NewError(CategoryTransport, primaryName, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return availability.Record{}, NewError(CategoryTransport, primaryName, "status request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return availability.Record{}, NewError(CategoryRateLimited, primaryName, "rate limited", nil)
	default:
		return availability.Record{}, NewError(CategoryProtocol, primaryName,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return availability.Record{}, NewError(CategoryProtocol, primaryName, "decode response", err)
	}
	if len(body.Status) == 0 {
		return availability.Record{}, NewError(CategoryProtocol, primaryName, "empty status list", nil)
	}

	entry := body.Status[0]
	if entry.Domain != domain {
		return availability.Record{}, NewError(CategoryProtocol, primaryName,
			fmt.Sprintf("response for %q does not match requested %q", entry.Domain, domain), nil)
	}

	rec := availability.Record{
		Domain:     domain,
		Available:  entry.Summary == "inactive",
		Confidence: availability.ConfidencePrimary,
		Source:     availability.SourcePrimary,
		ObservedAt: p.clock(),
	}
	if entry.Price != "" {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return availability.Record{}, NewError(CategoryProtocol, primaryName, "malformed price", err)
		}
		rec.Price = &price
		rec.Currency = entry.Currency
	}
	return rec, nil
}
