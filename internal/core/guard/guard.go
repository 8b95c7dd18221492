// Package guard decides whether a session may see a role-restricted view.
//
// Decide is a pure function: it reads the session and returns a Decision; the
// caller performs the navigation.
package guard

import (
	"net/url"
	"strings"

	"github.com/kscst/training-portal/internal/core/domain"
)

// ReturnParam is the login query parameter carrying the originally requested
// location.
const ReturnParam = "returnTo"

// Outcome labels, also used as metric label values.
const (
	OutcomeRender        = "render"
	OutcomeLogin         = "login"
	OutcomeRoleDashboard = "dashboard"
)

// Decision is the result of a guard check. Redirect is empty when Render is
// true.
type Decision struct {
	Render   bool
	Redirect string
	Outcome  string
}

// Decide applies the route guard to a session for a view reachable by
// allowed roles. currentPath is the requested location, preserved on the
// login redirect.
func Decide(s *domain.Session, allowed []domain.Role, currentPath string) Decision {
	if s == nil {
		return Decision{Redirect: LoginRedirect(currentPath), Outcome: OutcomeLogin}
	}

	role := s.Role()
	for _, r := range allowed {
		if domain.NormalizeRole(string(r)) == role {
			return Decision{Render: true, Outcome: OutcomeRender}
		}
	}

	if dash := role.Dashboard(); dash != "" {
		return Decision{Redirect: dash, Outcome: OutcomeRoleDashboard}
	}
	return Decision{Redirect: LoginRedirect(currentPath), Outcome: OutcomeLogin}
}

// LoginRedirect builds the login URL that remembers currentPath.
func LoginRedirect(currentPath string) string {
	if currentPath == "" || currentPath == domain.LoginRoute {
		return domain.LoginRoute
	}
	return domain.LoginRoute + "?" + url.Values{ReturnParam: {currentPath}}.Encode()
}

// Rule protects every path under Prefix.
type Rule struct {
	Prefix  string
	Allowed []domain.Role
}

// Table is the set of protected route prefixes.
type Table []Rule

// DefaultTable protects each dashboard area for its own role.
func DefaultTable() Table {
	return Table{
		{Prefix: "/admin/", Allowed: []domain.Role{domain.RoleAdmin}},
		{Prefix: "/trainer/", Allowed: []domain.Role{domain.RoleTrainer}},
		{Prefix: "/trainee/", Allowed: []domain.Role{domain.RoleTrainee}},
	}
}

// Lookup returns the rule with the longest prefix matching path.
func (t Table) Lookup(path string) (Rule, bool) {
	var best Rule
	found := false
	for _, r := range t {
		if strings.HasPrefix(path, r.Prefix) && len(r.Prefix) > len(best.Prefix) {
			best, found = r, true
		}
	}
	return best, found
}

// ReturnTarget picks where to send a session right after login. The
// requested location is honoured only when it is a local path the guard
// would render for the new session; otherwise the role's dashboard is used.
func (t Table) ReturnTarget(s *domain.Session, returnTo string) string {
	fallback := s.Role().Dashboard()
	if fallback == "" {
		fallback = "/"
	}

	if !isLocalPath(returnTo) {
		return fallback
	}
	rule, ok := t.Lookup(returnTo)
	if !ok {
		return fallback
	}
	if Decide(s, rule.Allowed, returnTo).Render {
		return returnTo
	}
	return fallback
}

func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}
