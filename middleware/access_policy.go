package middleware

import (
	"net/http"

	"github.com/upb/storefront-api/internal/observability"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// Failure messages returned by Enforce
const (
	MessageMissingHeader = "Missing or malformed Authorization header"
	MessageInvalidToken  = "Invalid or expired token"
	MessageForbidden     = "Access denied: insufficient permissions to access this resource"
)

// Requirement is the access tier a route demands
type Requirement struct {
	level requirementLevel
	role  models.Role
}

type requirementLevel int

const (
	levelAuthenticated requirementLevel = iota
	levelPublic
	levelRole
)

// Public lets every request through
func Public() Requirement { return Requirement{level: levelPublic} }

// Authenticated demands any resolved principal
func Authenticated() Requirement { return Requirement{level: levelAuthenticated} }

// HasRole demands a principal holding role
func HasRole(role models.Role) Requirement { return Requirement{level: levelRole, role: role} }

// String renders the requirement as public, authenticated or role:X
func (q Requirement) String() string {
	switch q.level {
	case levelPublic:
		return "public"
	case levelRole:
		return "role:" + string(q.role)
	default:
		return "authenticated"
	}
}

// RouteRule binds a matcher to a requirement
type RouteRule struct {
	Name        string
	Matcher     Matcher
	Requirement Requirement
}

// DefaultRules is the storefront route table. Order matters: the first
// matching rule decides, so public rules precede the catch-all.
func DefaultRules() []RouteRule {
	return []RouteRule{
		{Name: "preflight", Matcher: MethodOn(http.MethodOptions, "/**"), Requirement: Public()},
		{Name: "auth", Matcher: AnyMethod("/auth/**"), Requirement: Public()},
		{Name: "api-auth", Matcher: AnyMethod("/api/auth/**"), Requirement: Public()},
		{Name: "api-products-read", Matcher: MethodOn(http.MethodGet, "/api/products/**"), Requirement: Public()},
		{Name: "products-read", Matcher: MethodOn(http.MethodGet, "/products/**"), Requirement: Public()},
		{Name: "health", Matcher: AnyMethod("/healthz"), Requirement: Public()},
		{Name: "readiness", Matcher: AnyMethod("/readyz"), Requirement: Public()},
		{Name: "admin", Matcher: AnyMethod("/admin/**"), Requirement: HasRole(models.RoleAdmin)},
		{Name: "api-admin", Matcher: AnyMethod("/api/admin/**"), Requirement: HasRole(models.RoleAdmin)},
		{Name: "authenticated", Matcher: AnyMethod("/**"), Requirement: Authenticated()},
	}
}

// Decision is the result of evaluating a request against the rule table
type Decision struct {
	Rule        string
	Requirement Requirement
	Allowed     bool
	Status      int    // 0 when allowed
	Message     string // failure message when not allowed
}

// label is the decision dimension used in metrics
func (d Decision) label() string {
	switch d.Status {
	case 0:
		return "allowed"
	case http.StatusForbidden:
		return "forbidden"
	default:
		return "unauthenticated"
	}
}

// AccessPolicy enforces the route table against the request's SecurityContext
type AccessPolicy struct {
	rules   []RouteRule
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAccessPolicy creates a new AccessPolicy. A nil rules slice uses DefaultRules.
func NewAccessPolicy(rules []RouteRule, metrics *observability.Metrics, logger *zap.Logger) *AccessPolicy {
	if rules == nil {
		rules = DefaultRules()
	}
	return &AccessPolicy{
		rules:   rules,
		metrics: metrics,
		logger:  logger,
	}
}

// Evaluate decides r without side effects. Requests no rule matches are
// treated as requiring authentication.
func (p *AccessPolicy) Evaluate(r *http.Request) Decision {
	decision := Decision{Rule: "default", Requirement: Authenticated()}
	for _, rule := range p.rules {
		if rule.Matcher.Matches(r) {
			decision.Rule = rule.Name
			decision.Requirement = rule.Requirement
			break
		}
	}

	if decision.Requirement.level == levelPublic {
		decision.Allowed = true
		return decision
	}

	sc := GetSecurityContext(r.Context())
	principal := sc.Principal()
	if principal == nil {
		decision.Status = http.StatusUnauthorized
		decision.Message = unauthenticatedMessage(sc.Outcome())
		return decision
	}

	if decision.Requirement.level == levelRole && !principal.HasRole(decision.Requirement.role) {
		decision.Status = http.StatusForbidden
		decision.Message = MessageForbidden
		return decision
	}

	decision.Allowed = true
	return decision
}

// Enforce writes a 401 or 403 for denied requests and passes the rest on
func (p *AccessPolicy) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := p.Evaluate(r)
		p.metrics.RecordDecision(decision.Rule, decision.label())

		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		p.logger.Info("access denied",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("rule", decision.Rule),
			zap.String("requirement", decision.Requirement.String()),
			zap.Int("status", decision.Status))

		_ = utils.WriteError(w, decision.Status, decision.Message, nil)
	})
}

// unauthenticatedMessage distinguishes a missing header from a rejected token
func unauthenticatedMessage(outcome AuthOutcome) string {
	switch outcome {
	case OutcomeInvalidToken, OutcomeUnknownPrincipal:
		return MessageInvalidToken
	default:
		return MessageMissingHeader
	}
}

// Preflight answers OPTIONS requests that reach it with 204 and no body.
// Real CORS preflights are already answered by the CORS handler in front.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			utils.WriteNoContent(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
