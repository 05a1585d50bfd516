package middleware

import (
	"context"
	"sync"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/storefront-api/identity"
)

// Context key type to avoid collisions
type contextKey string

// SecurityContextKey is the context key for the request's SecurityContext
const SecurityContextKey contextKey = "security_context"

// AuthOutcome records what the interceptor concluded about a request
type AuthOutcome string

const (
	// OutcomeNone means the interceptor has not seen the request
	OutcomeNone AuthOutcome = ""
	// OutcomeSkipped covers preflight and exempt auth paths
	OutcomeSkipped AuthOutcome = "skipped"
	// OutcomeMissingHeader means no Authorization header or not a Bearer one
	OutcomeMissingHeader AuthOutcome = "missing_header"
	// OutcomeInvalidToken means a bearer token failed verification
	OutcomeInvalidToken AuthOutcome = "invalid_token"
	// OutcomeUnknownPrincipal means the token subject could not be resolved
	OutcomeUnknownPrincipal AuthOutcome = "unknown_principal"
	// OutcomeAuthenticated means a principal was attached
	OutcomeAuthenticated AuthOutcome = "authenticated"
	// OutcomeAlreadyAuthenticated means a principal was already present and kept
	OutcomeAlreadyAuthenticated AuthOutcome = "already_authenticated"
)

// SecurityContext holds at most one principal for the lifetime of a request.
// Once set the principal is never replaced.
type SecurityContext struct {
	mu        sync.RWMutex
	principal *identity.Principal
	outcome   AuthOutcome
}

// Principal returns the authenticated principal, or nil when anonymous
func (s *SecurityContext) Principal() *identity.Principal {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// IsAuthenticated reports whether a principal is attached
func (s *SecurityContext) IsAuthenticated() bool {
	return s.Principal() != nil
}

// SetPrincipal attaches p if the context is still empty. It returns false
// and keeps the existing principal otherwise.
func (s *SecurityContext) SetPrincipal(p *identity.Principal) bool {
	if p == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal != nil {
		return false
	}
	s.principal = p
	return true
}

// Outcome returns the interceptor outcome recorded for the request
func (s *SecurityContext) Outcome() AuthOutcome {
	if s == nil {
		return OutcomeNone
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome
}

func (s *SecurityContext) setOutcome(outcome AuthOutcome) {
	s.mu.Lock()
	s.outcome = outcome
	s.mu.Unlock()
}

// WithSecurityContext adds sc to the context
func WithSecurityContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, SecurityContextKey, sc)
}

// GetSecurityContext retrieves the SecurityContext from context, or nil
func GetSecurityContext(ctx context.Context) *SecurityContext {
	if val := ctx.Value(SecurityContextKey); val != nil {
		if sc, ok := val.(*SecurityContext); ok {
			return sc
		}
	}
	return nil
}

// GetPrincipalFromContext returns the authenticated principal, or nil when anonymous
func GetPrincipalFromContext(ctx context.Context) *identity.Principal {
	return GetSecurityContext(ctx).Principal()
}

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
