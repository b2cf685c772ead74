package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"domainscout/internal/availability"
	"domainscout/internal/pool"
	"domainscout/internal/pool/ranking"
	"domainscout/internal/pool/service"
)

type stubResolver struct {
	available map[string]bool
	resolved  []string
}

func (r *stubResolver) Resolve(_ context.Context, domain string) availability.Record {
	r.resolved = append(r.resolved, domain)
	avail, known := r.available[domain]
	if !known {
		return availability.Denial(domain, time.Now())
	}
	return availability.Record{
		Domain:     domain,
		Available:  avail,
		Confidence: availability.ConfidencePrimary,
		Source:     availability.SourcePrimary,
		ObservedAt: time.Now(),
	}
}

func (r *stubResolver) ResolveBatch(ctx context.Context, domains []string) []availability.Record {
	records := make([]availability.Record, len(domains))
	for i, d := range domains {
		records[i] = r.Resolve(ctx, d)
	}
	return records
}

type stubPool struct {
	searchResult service.VerifyResult
	searchErr    error
	ranked       []ranking.Scored
	lastQuery    string
	lastLimit    int
}

func (p *stubPool) SearchAndVerify(_ context.Context, query string, _ pool.Filter, limit int) (service.VerifyResult, error) {
	p.lastQuery = query
	p.lastLimit = limit
	return p.searchResult, p.searchErr
}

func (p *stubPool) InstantRank(_ context.Context, query string, _ pool.Filter, limit int) ([]ranking.Scored, error) {
	p.lastQuery = query
	p.lastLimit = limit
	return p.ranked, p.searchErr
}

type HandlerSuite struct {
	suite.Suite
	resolver *stubResolver
	pool     *stubPool
	router   http.Handler
	health   map[string]HealthCheck
}

func (s *HandlerSuite) SetupTest() {
	s.resolver = &stubResolver{available: map[string]bool{
		"zevo.ai": true,
		"kale.ai": false,
	}}
	s.pool = &stubPool{}
	s.health = map[string]HealthCheck{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(NewHandler(s.resolver, s.pool, logger, s.health))
}

func (s *HandlerSuite) do(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func (s *HandlerSuite) TestResolve() {
	s.Run("resolves a valid domain", func() {
		rec, body := s.do(http.MethodGet, "/v1/availability/zevo.ai", "")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("zevo.ai", body["domain"])
		s.Equal(true, body["available"])
		s.Equal("primary", body["source"])
	})

	s.Run("uppercase input is normalized", func() {
		rec, body := s.do(http.MethodGet, "/v1/availability/ZEVO.AI", "")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("zevo.ai", body["domain"])
	})

	s.Run("rejects a name without a dot", func() {
		rec, body := s.do(http.MethodGet, "/v1/availability/zevo", "")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", body["error"])
	})

	s.Run("rejects an invalid dns name", func() {
		rec, body := s.do(http.MethodGet, "/v1/availability/-bad-.ai", "")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", body["error"])
	})
}

func (s *HandlerSuite) TestResolveBatch() {
	s.Run("preserves request order", func() {
		rec, body := s.do(http.MethodPost, "/v1/availability/batch",
			`{"domains":["kale.ai","zevo.ai"]}`)
		s.Equal(http.StatusOK, rec.Code)

		results, ok := body["results"].([]any)
		s.Require().True(ok)
		s.Require().Len(results, 2)
		first := results[0].(map[string]any)
		second := results[1].(map[string]any)
		s.Equal("kale.ai", first["domain"])
		s.Equal(false, first["available"])
		s.Equal("zevo.ai", second["domain"])
		s.Equal(true, second["available"])
	})

	s.Run("rejects malformed json", func() {
		rec, body := s.do(http.MethodPost, "/v1/availability/batch", `{bad-json`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", body["error"])
	})

	s.Run("rejects an empty batch", func() {
		rec, _ := s.do(http.MethodPost, "/v1/availability/batch", `{"domains":[]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects an oversized batch", func() {
		domains := make([]string, maxBatchSize+1)
		for i := range domains {
			domains[i] = fmt.Sprintf("d%d.ai", i)
		}
		payload, err := json.Marshal(map[string][]string{"domains": domains})
		s.Require().NoError(err)

		before := len(s.resolver.resolved)
		rec, _ := s.do(http.MethodPost, "/v1/availability/batch", string(payload))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Len(s.resolver.resolved, before, "an oversized batch must not reach the resolver")
	})

	s.Run("rejects a batch containing an invalid domain", func() {
		rec, _ := s.do(http.MethodPost, "/v1/availability/batch",
			`{"domains":["zevo.ai","not a domain"]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestPoolSearch() {
	s.Run("returns the verification partition", func() {
		s.pool.searchResult = service.VerifyResult{
			Verified: []string{"zevo.ai"},
			Taken:    []string{"kale.ai"},
		}
		rec, body := s.do(http.MethodPost, "/v1/pool/search",
			`{"tld":"ai","limit":10,"query":"fitness"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal([]any{"zevo.ai"}, body["verified"])
		s.Equal([]any{"kale.ai"}, body["taken"])
		s.Equal("fitness", s.pool.lastQuery)
		s.Equal(10, s.pool.lastLimit)
	})

	s.Run("rejects inverted length bounds", func() {
		rec, _ := s.do(http.MethodPost, "/v1/pool/search",
			`{"min_length":6,"max_length":4}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("service failure maps to an opaque internal error", func() {
		s.pool.searchErr = fmt.Errorf("pg down")
		rec, body := s.do(http.MethodPost, "/v1/pool/search", `{"tld":"ai"}`)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Equal("internal_error", body["error"])
		s.NotContains(rec.Body.String(), "pg down")
	})
}

func (s *HandlerSuite) TestPoolRank() {
	s.Run("requires a query", func() {
		rec, body := s.do(http.MethodPost, "/v1/pool/rank", `{"tld":"ai"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", body["error"])
	})

	s.Run("returns scored candidates", func() {
		quality := 8.0
		s.pool.ranked = []ranking.Scored{{
			Candidate: pool.Candidate{
				Domain:       "zevo.ai",
				Word:         "zevo",
				TLD:          "ai",
				QualityScore: &quality,
			},
			Similarity: 0.4,
			FinalScore: 9.35,
		}}
		rec, body := s.do(http.MethodPost, "/v1/pool/rank",
			`{"query":"fitness brand","tld":"ai","limit":5}`)
		s.Equal(http.StatusOK, rec.Code)

		results, ok := body["results"].([]any)
		s.Require().True(ok)
		s.Require().Len(results, 1)
		top := results[0].(map[string]any)
		s.Equal("zevo.ai", top["domain"])
		s.InDelta(9.35, top["final_score"].(float64), 1e-9)
		s.InDelta(8.0, top["quality_score"].(float64), 1e-9)
	})
}

func (s *HandlerSuite) TestHealth() {
	s.Run("healthy dependencies give 200", func() {
		s.health["postgres"] = func(context.Context) error { return nil }
		rec, body := s.do(http.MethodGet, "/healthz", "")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("ok", body["status"])
	})

	s.Run("a failing dependency gives 503", func() {
		s.health["redis"] = func(context.Context) error { return fmt.Errorf("timeout") }
		rec, body := s.do(http.MethodGet, "/healthz", "")
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal("degraded", body["status"])
	})
}

func (s *HandlerSuite) TestMetricsEndpoint() {
	rec, _ := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func TestValidateDomain(t *testing.T) {
	require.NoError(t, validateDomain("zevo.ai"))
	require.NoError(t, validateDomain("sub.zevo.ai"))
	assert.Error(t, validateDomain(""))
	assert.Error(t, validateDomain("zevo"))
	assert.Error(t, validateDomain("spaced name.ai"))
}
