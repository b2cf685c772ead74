package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"domainscout/internal/availability"
	"domainscout/internal/platform/middleware"
	dErrors "domainscout/pkg/domain-errors"
	"domainscout/pkg/platform/httputil"
)

// maxBatchSize caps one batch resolution request.
const maxBatchSize = 100

// handleResolve resolves availability for a single domain.
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	domain := strings.ToLower(chi.URLParam(r, "domain"))
	if err := validateDomain(domain); err != nil {
		h.logger.WarnContext(ctx, "invalid availability request",
			"request_id", middleware.GetRequestID(ctx),
			"domain", domain,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.resolver.Resolve(ctx, domain))
}

type batchRequest struct {
	Domains []string `json:"domains"`
}

type batchResponse struct {
	Results []availability.Record `json:"results"`
}

// handleResolveBatch resolves up to maxBatchSize domains in one call,
// preserving request order in the response.
func (h *Handler) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid batch request body",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Domains) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "domains must not be empty"))
		return
	}
	if len(req.Domains) > maxBatchSize {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "at most 100 domains per batch"))
		return
	}

	domains := make([]string, len(req.Domains))
	for i, domain := range req.Domains {
		domain = strings.ToLower(domain)
		if err := validateDomain(domain); err != nil {
			h.logger.WarnContext(ctx, "invalid domain in batch",
				"request_id", requestID, "domain", domain)
			httputil.WriteError(w, err)
			return
		}
		domains[i] = domain
	}

	httputil.WriteJSON(w, http.StatusOK, batchResponse{
		Results: h.resolver.ResolveBatch(ctx, domains),
	})
}

// validateDomain accepts lowercase DNS names with at least one label dot.
func validateDomain(domain string) error {
	if domain == "" {
		return dErrors.New(dErrors.CodeBadRequest, "domain is required")
	}
	if !strings.Contains(domain, ".") || !govalidator.IsDNSName(domain) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid domain name")
	}
	return nil
}
