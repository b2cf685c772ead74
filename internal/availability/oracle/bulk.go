package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"domainscout/internal/availability"
)

const bulkName = "bulk"

// DefaultBulkBaseURL points at the registrar's bulk-check API.
const DefaultBulkBaseURL = "https://api.registrarbulk.dev"

// bulkMaxBatch is the largest batch one upstream call accepts.
const bulkMaxBatch = 50

// Bulk is the registrar batch oracle. Each sub-batch of up to 50 domains is
// one upstream call; when a sub-batch fails, every domain in it is
// conservatively reported unavailable with confidence zero rather than
// silently dropped.
type Bulk struct {
	baseURL string
	apiUser string
	apiKey  string
	client  *http.Client
	clock   func() time.Time
}

// BulkOption configures the bulk oracle.
type BulkOption func(*Bulk)

// WithBulkBaseURL overrides the API endpoint, mainly for tests.
func WithBulkBaseURL(baseURL string) BulkOption {
	return func(b *Bulk) { b.baseURL = baseURL }
}

// WithBulkClock sets the clock function for testability.
func WithBulkClock(clock func() time.Time) BulkOption {
	return func(b *Bulk) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// NewBulk constructs the bulk registrar oracle. Missing credentials are a
// configuration error caught at startup.
func NewBulk(apiUser, apiKey string, client *http.Client, opts ...BulkOption) (*Bulk, error) {
	if apiUser == "" || apiKey == "" {
		return nil, NewError(CategoryConfiguration, bulkName, "api user and key are required", nil)
	}
	if client == nil {
		client = NewHTTPClient()
	}
	b := &Bulk{
		baseURL: DefaultBulkBaseURL,
		apiUser: apiUser,
		apiKey:  apiKey,
		client:  client,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Bulk) Name() string { return bulkName }

func (b *Bulk) MaxBatchSize() int { return bulkMaxBatch }

// Check satisfies Oracle with a batch of one.
func (b *Bulk) Check(ctx context.Context, domain string) (availability.Record, error) {
	recs, err := b.CheckBatch(ctx, []string{domain})
	if err != nil {
		return availability.Record{}, err
	}
	return recs[0], nil
}

type bulkRequest struct {
	Domains []string `json:"domains"`
}

type bulkResponse struct {
	Results []bulkResult `json:"results"`
}

type bulkResult struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
}

// CheckBatch checks domains in sub-batches of up to 50. It returns one
// record per input domain, in input order. An error is returned only when
// every sub-batch failed, so the caller can fall back to per-domain
// resolution; partial failures surface as conservative records instead.
func (b *Bulk) CheckBatch(ctx context.Context, domains []string) ([]availability.Record, error) {
	records := make([]availability.Record, 0, len(domains))
	succeeded := 0
	attempted := 0

	for start := 0; start < len(domains); start += bulkMaxBatch {
		end := min(start+bulkMaxBatch, len(domains))
		chunk := domains[start:end]
		attempted++

		recs, err := b.checkChunk(ctx, chunk)
		if err != nil {
			records = append(records, b.conservativeRecords(chunk)...)
			continue
		}
		succeeded++
		records = append(records, recs...)
	}

	if attempted > 0 && succeeded == 0 {
		return records, NewError(CategoryTransport, bulkName, "all bulk sub-batches failed", nil)
	}
	return records, nil
}

func (b *Bulk) checkChunk(ctx context.Context, chunk []string) ([]availability.Record, error) {
	payload, err := json.Marshal(bulkRequest{Domains: chunk})
	if err != nil {
		return nil, NewError(CategoryProtocol, bulkName, "encode request", err)
	}

	endpoint := b.baseURL + "/v1/domains/check"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, NewError(CategoryTransport, bulkName, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(b.apiUser, b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, NewError(CategoryTransport, bulkName, "bulk request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(CategoryProtocol, bulkName,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var body bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, NewError(CategoryProtocol, bulkName, "decode response", err)
	}

	// Fail closed on shape mismatch: every requested domain must be
	// answered or the whole chunk is treated as unanswered.
	byDomain := make(map[string]bulkResult, len(body.Results))
	for _, res := range body.Results {
		byDomain[res.Domain] = res
	}
	now := b.clock()
	records := make([]availability.Record, 0, len(chunk))
	for _, domain := range chunk {
		res, ok := byDomain[domain]
		if !ok {
			return nil, NewError(CategoryProtocol, bulkName,
				fmt.Sprintf("response missing domain %q", domain), nil)
		}
		records = append(records, availability.Record{
			Domain:     domain,
			Available:  res.Available,
			Confidence: availability.ConfidenceBulk,
			Source:     availability.SourceBulk,
			ObservedAt: now,
		})
	}
	return records, nil
}

func (b *Bulk) conservativeRecords(chunk []string) []availability.Record {
	now := b.clock()
	records := make([]availability.Record, 0, len(chunk))
	for _, domain := range chunk {
		records = append(records, availability.Record{
			Domain:     domain,
			Available:  false,
			Confidence: availability.ConfidenceDenied,
			Source:     availability.SourceBulk,
			ObservedAt: now,
		})
	}
	return records
}
