package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"domainscout/internal/availability"
)

const rdapName = "rdap"

// rdapEndpoints routes lookups to the registry operator responsible for
// each TLD. TLDs outside this table go through the public bootstrap
// endpoint at lower confidence.
var rdapEndpoints = map[string]string{
	"ai":  "https://rdap.identitydigital.services/rdap/domain/",
	"io":  "https://rdap.identitydigital.services/rdap/domain/",
	"com": "https://rdap.verisign.com/com/v1/domain/",
	"net": "https://rdap.verisign.com/net/v1/domain/",
}

// DefaultRDAPBootstrapURL is the generic last-resort endpoint.
const DefaultRDAPBootstrapURL = "https://rdap.org/domain/"

// RDAP is the free, lower-trust fallback oracle. A 404 means the registry
// has no object for the domain (available); a 200 with a well-formed domain
// object means taken. Anything else is an error for the resolver to absorb.
type RDAP struct {
	endpoints map[string]string
	bootstrap string
	client    *http.Client
	clock     func() time.Time
}

// RDAPOption configures the RDAP oracle.
type RDAPOption func(*RDAP)

// WithRDAPEndpoints replaces the per-TLD endpoint table.
func WithRDAPEndpoints(endpoints map[string]string) RDAPOption {
	return func(r *RDAP) { r.endpoints = endpoints }
}

// WithRDAPBootstrapURL overrides the bootstrap endpoint.
func WithRDAPBootstrapURL(u string) RDAPOption {
	return func(r *RDAP) { r.bootstrap = u }
}

// WithRDAPClock sets the clock function for testability.
func WithRDAPClock(clock func() time.Time) RDAPOption {
	return func(r *RDAP) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRDAP constructs the fallback oracle. It needs no credentials.
func NewRDAP(client *http.Client, opts ...RDAPOption) *RDAP {
	if client == nil {
		client = NewHTTPClient()
	}
	r := &RDAP{
		endpoints: rdapEndpoints,
		bootstrap: DefaultRDAPBootstrapURL,
		client:    client,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RDAP) Name() string { return rdapName }

// rdapDomain is the minimal typed shape a 200 response must satisfy.
type rdapDomain struct {
	ObjectClassName string `json:"objectClassName"`
	LDHName         string `json:"ldhName"`
}

// endpointFor returns the lookup URL and the confidence tied to the
// endpoint's provenance: registry-specific endpoints are trusted more than
// the generic bootstrap.
func (r *RDAP) endpointFor(domain string) (endpoint string, confidence float64) {
	_, tld := splitDomain(domain)
	if base, ok := r.endpoints[tld]; ok {
		return base + domain, availability.ConfidenceFallbackTLD
	}
	return r.bootstrap + domain, availability.ConfidenceFallbackBootstrap
}

// Check performs an RDAP lookup for a single domain.
func (r *RDAP) Check(ctx context.Context, domain string) (availability.Record, error) {
	endpoint, confidence := r.endpointFor(domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return availability.Record{}, NewError(CategoryTransport, rdapName, "build request", err)
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return availability.Record{}, NewError(CategoryTransport, rdapName, "rdap request failed", err)
	}
	defer resp.Body.Close()

	now := r.clock()
	switch resp.StatusCode {
	case http.StatusNotFound:
		// No registry object: the domain is not registered.
		return availability.Record{
			Domain:     domain,
			Available:  true,
			Confidence: confidence,
			Source:     availability.SourceFallback,
			ObservedAt: now,
		}, nil
	case http.StatusOK:
		var obj rdapDomain
		if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
			return availability.Record{}, NewError(CategoryProtocol, rdapName, "decode rdap body", err)
		}
		if obj.ObjectClassName != "domain" {
			return availability.Record{}, NewError(CategoryProtocol, rdapName,
				fmt.Sprintf("unexpected object class %q", obj.ObjectClassName), nil)
		}
		return availability.Record{
			Domain:     domain,
			Available:  false,
			Confidence: confidence,
			Source:     availability.SourceFallback,
			ObservedAt: now,
		}, nil
	case http.StatusTooManyRequests:
		return availability.Record{}, NewError(CategoryRateLimited, rdapName, "rate limited", nil)
	default:
		return availability.Record{}, NewError(CategoryProtocol, rdapName,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}
