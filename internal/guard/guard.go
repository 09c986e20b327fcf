// Package guard decides, from the request path and the session cookies,
// whether a page request may proceed or must be redirected.
package guard

import (
	"net/url"
	"strings"

	"github.com/homely/homely/internal/model"
)

const LoginPath = "/login"

// Action is the outcome of a guard decision.
type Action int

const (
	Allow Action = iota
	Redirect
)

// Decision is either Allow or a Redirect to Location.
type Decision struct {
	Action   Action
	Location string
}

func allow() Decision {
	return Decision{Action: Allow}
}

func redirect(location string) Decision {
	return Decision{Action: Redirect, Location: location}
}

var (
	authPaths = map[string]bool{
		"/login":    true,
		"/register": true,
	}

	publicPaths = map[string]bool{
		"/":                 true,
		"/about":            true,
		"/contact":          true,
		"/sellers":          true,
		"/checkout/success": true,
		"/terms":            true,
		"/privacy":          true,
	}

	publicPrefixes = []string{"/sellers/", "/menu/", "/checkout/"}

	// bypassPrefixes are never inspected: the JSON API.
	bypassPrefixes = []string{"/api/"}
	// bypassRoots are debug routes: the root itself and anything under it, like
	// /debug/cookies or /test-payment, but not /testimonials.
	bypassRoots = []string{"/debug", "/test"}

	// skippedPrefixes are static assets the guard is not mounted on.
	skippedPrefixes = []string{"/static/", "/images/"}
)

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func underAnyRoot(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+"/") || strings.HasPrefix(path, root+"-") {
			return true
		}
	}
	return false
}

// IsPublic reports whether path is reachable without a session.
func IsPublic(path string) bool {
	return publicPaths[path] || hasAnyPrefix(path, publicPrefixes)
}

// Matches reports whether the guard runs for path at all.
func Matches(path string) bool {
	return path != "/favicon.ico" && !hasAnyPrefix(path, skippedPrefixes)
}

// Decide applies the routing rules in priority order:
//  1. API and debug routes pass unchecked.
//  2. Auth pages send signed-in users to their dashboard.
//  3. Public pages pass.
//  4. No token: login, remembering the original path.
//  5. Token without a valid user type: login.
//  6. Sellers stay inside /seller; customers stay out of it.
func Decide(path, token, userType string) Decision {
	if hasAnyPrefix(path, bypassPrefixes) || underAnyRoot(path, bypassRoots) {
		return allow()
	}

	role, validRole := model.ParseRole(userType)

	if authPaths[path] {
		if token != "" && validRole {
			return redirect(role.Dashboard())
		}
		return allow()
	}

	if IsPublic(path) {
		return allow()
	}

	if token == "" {
		return redirect(loginRedirect(path))
	}

	if !validRole {
		return redirect(LoginPath)
	}

	isSellerPath := path == "/seller" || strings.HasPrefix(path, "/seller/")
	switch {
	case role == model.RoleSeller && !isSellerPath:
		return redirect(model.RoleSeller.Dashboard())
	case role == model.RoleCustomer && isSellerPath:
		return redirect(model.RoleCustomer.Dashboard())
	}
	return allow()
}

var queryUnsafe = strings.NewReplacer("&", "%26", "+", "%2B", "=", "%3D")

// loginRedirect builds /login?redirectTo=<path>, keeping slashes readable.
func loginRedirect(path string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	return LoginPath + "?redirectTo=" + queryUnsafe.Replace(escaped)
}
