package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"

	"domainscout/internal/platform/middleware"
	"domainscout/internal/pool"
	dErrors "domainscout/pkg/domain-errors"
	"domainscout/pkg/platform/httputil"
)

type poolSearchRequest struct {
	Query     string `json:"query"`
	TLD       string `json:"tld"`
	MinLength int    `json:"min_length"`
	MaxLength int    `json:"max_length"`
	Pattern   string `json:"pattern"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
	Limit     int    `json:"limit"`
}

func (req poolSearchRequest) filter() pool.Filter {
	return pool.Filter{
		TLD:       strings.ToLower(req.TLD),
		MinLength: req.MinLength,
		MaxLength: req.MaxLength,
		Pattern:   req.Pattern,
		Prefix:    strings.ToLower(req.Prefix),
		Suffix:    strings.ToLower(req.Suffix),
	}
}

func (req poolSearchRequest) validate() error {
	if req.MinLength < 0 || req.MaxLength < 0 || req.Limit < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "lengths and limit must not be negative")
	}
	if req.MinLength > 0 && req.MaxLength > 0 && req.MinLength > req.MaxLength {
		return dErrors.New(dErrors.CodeBadRequest, "min_length exceeds max_length")
	}
	return nil
}

// handlePoolSearch returns pooled candidates that passed a live availability
// check in this request.
func (h *Handler) handlePoolSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req poolSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid pool search body",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.pool.SearchAndVerify(ctx, req.Query, req.filter(), req.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "pool search failed",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "pool search failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type rankedCandidate struct {
	Domain       string   `json:"domain"`
	Word         string   `json:"word"`
	TLD          string   `json:"tld"`
	QualityScore *float64 `json:"quality_score,omitempty"`
	Similarity   float64  `json:"similarity"`
	FinalScore   float64  `json:"final_score"`
}

type poolRankResponse struct {
	Results []rankedCandidate `json:"results"`
}

// handlePoolRank ranks pooled candidates against the query without any live
// verification; the response reflects the pool's last known state.
func (h *Handler) handlePoolRank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req poolSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid pool rank body",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "query is required"))
		return
	}

	scored, err := h.pool.InstantRank(ctx, req.Query, req.filter(), req.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "pool rank failed",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "pool rank failed"))
		return
	}

	resp := poolRankResponse{Results: make([]rankedCandidate, len(scored))}
	for i, sc := range scored {
		resp.Results[i] = rankedCandidate{
			Domain:       sc.Candidate.Domain,
			Word:         sc.Candidate.Word,
			TLD:          sc.Candidate.TLD,
			QualityScore: sc.Candidate.QualityScore,
			Similarity:   sc.Similarity,
			FinalScore:   sc.FinalScore,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
