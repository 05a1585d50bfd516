package middleware

import (
	"net/http"
	"path"
	"strings"
)

// wildcardSuffix marks a pattern that matches a path and everything below it
const wildcardSuffix = "/**"

// Matcher selects requests by optional method and path pattern. A pattern is
// either an exact path or a prefix ending in "/**"; "/**" alone matches every
// path. Comparison is case-insensitive and runs on the cleaned path.
type Matcher struct {
	Method  string
	Pattern string
}

// AnyMethod matches pattern for every method
func AnyMethod(pattern string) Matcher {
	return Matcher{Pattern: pattern}
}

// MethodOn matches pattern for a single method
func MethodOn(method, pattern string) Matcher {
	return Matcher{Method: method, Pattern: pattern}
}

// Matches reports whether r is selected
func (m Matcher) Matches(r *http.Request) bool {
	return m.match(r.Method, requestPath(r))
}

func (m Matcher) match(method, p string) bool {
	if m.Method != "" && !strings.EqualFold(m.Method, method) {
		return false
	}
	if m.Pattern == "" {
		return true
	}

	pattern := strings.ToLower(m.Pattern)
	p = strings.ToLower(p)

	if prefix, ok := strings.CutSuffix(pattern, wildcardSuffix); ok {
		if prefix == "" {
			return true
		}
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	return p == pattern
}

// requestPath returns the cleaned URL path so dot segments cannot
// move a request across rule boundaries
func requestPath(r *http.Request) string {
	p := r.URL.Path
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
