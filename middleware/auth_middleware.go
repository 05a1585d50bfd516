package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/upb/storefront-api/identity"
	"github.com/upb/storefront-api/internal/observability"
	"github.com/upb/storefront-api/token"
	"go.uber.org/zap"
)

// bearerPrefix is the only accepted Authorization scheme marker
const bearerPrefix = "Bearer "

// TokenVerifier verifies identity tokens
type TokenVerifier interface {
	Verify(tokenString string, now time.Time) (*token.Claims, error)
}

// PrincipalResolver resolves a token subject to a principal
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject string) (*identity.Principal, error)
}

// ExemptionAction is what the interceptor does with a matching request
type ExemptionAction int

const (
	// ActionAuthenticate runs token processing
	ActionAuthenticate ExemptionAction = iota
	// ActionSkip passes the request through untouched
	ActionSkip
)

// ExemptionRule pairs a matcher with the interceptor action for it
type ExemptionRule struct {
	Name    string
	Matcher Matcher
	Action  ExemptionAction
}

// DefaultExemptions skips preflights and the credential endpoints under both prefixes
func DefaultExemptions() []ExemptionRule {
	return []ExemptionRule{
		{Name: "preflight", Matcher: MethodOn(http.MethodOptions, ""), Action: ActionSkip},
		{Name: "login", Matcher: AnyMethod("/auth/login"), Action: ActionSkip},
		{Name: "register", Matcher: AnyMethod("/auth/register"), Action: ActionSkip},
		{Name: "api-login", Matcher: AnyMethod("/api/auth/login"), Action: ActionSkip},
		{Name: "api-register", Matcher: AnyMethod("/api/auth/register"), Action: ActionSkip},
	}
}

// Interceptor resolves the bearer token of each request into a principal on
// the request's SecurityContext. It never writes a response; AccessPolicy
// decides what an anonymous request may reach.
type Interceptor struct {
	tokens     TokenVerifier
	resolver   PrincipalResolver
	exemptions []ExemptionRule
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewInterceptor creates a new Interceptor. A nil exemptions slice uses DefaultExemptions.
func NewInterceptor(tokens TokenVerifier, resolver PrincipalResolver, exemptions []ExemptionRule, metrics *observability.Metrics, logger *zap.Logger) *Interceptor {
	if exemptions == nil {
		exemptions = DefaultExemptions()
	}
	return &Interceptor{
		tokens:     tokens,
		resolver:   resolver,
		exemptions: exemptions,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate is the interception middleware
func (i *Interceptor) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := GetSecurityContext(r.Context())
		if sc == nil {
			sc = &SecurityContext{}
			r = r.WithContext(WithSecurityContext(r.Context(), sc))
		}

		outcome := i.intercept(r, sc)
		sc.setOutcome(outcome)
		i.metrics.RecordInterception(string(outcome))

		next.ServeHTTP(w, r)
	})
}

func (i *Interceptor) intercept(r *http.Request, sc *SecurityContext) AuthOutcome {
	if i.actionFor(r) == ActionSkip {
		return OutcomeSkipped
	}

	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)

	raw, ok := extractBearerToken(r)
	if !ok {
		return OutcomeMissingHeader
	}

	claims, err := i.tokens.Verify(raw, i.now())
	if err != nil {
		kind := token.KindMalformed
		var tokenErr *token.Error
		if errors.As(err, &tokenErr) {
			kind = tokenErr.Kind
		}
		i.logger.Debug("token rejected",
			zap.String("request_id", requestID),
			zap.String("token", token.Mask(raw)),
			zap.String("reason", string(kind)))
		return OutcomeInvalidToken
	}

	principal, err := i.resolver.Resolve(ctx, claims.Subject)
	if err != nil {
		level := zap.DebugLevel
		if !errors.Is(err, identity.ErrPrincipalNotFound) {
			level = zap.WarnLevel
		}
		i.logger.Log(level, "principal not resolved",
			zap.String("request_id", requestID),
			zap.String("subject", claims.Subject),
			zap.Error(err))
		return OutcomeUnknownPrincipal
	}

	if !sc.SetPrincipal(principal) {
		return OutcomeAlreadyAuthenticated
	}

	i.logger.Debug("authentication successful",
		zap.String("request_id", requestID),
		zap.String("subject", principal.Subject),
		zap.String("role", string(principal.Role)))
	return OutcomeAuthenticated
}

func (i *Interceptor) actionFor(r *http.Request) ExemptionAction {
	for _, rule := range i.exemptions {
		if rule.Matcher.Matches(r) {
			return rule.Action
		}
	}
	return ActionAuthenticate
}

// extractBearerToken returns the token after "Bearer ". ok is false when the
// header is absent, uses another scheme or carries an empty token.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	return raw, raw != ""
}
