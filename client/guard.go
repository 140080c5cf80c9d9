package client

import (
	"net/url"
	"strings"
)

// GuardAction is what the router should do with the requested route.
type GuardAction int

const (
	// ActionRender shows the requested route.
	ActionRender GuardAction = iota
	// ActionShowLoader holds a placeholder while the session resolves.
	ActionShowLoader
	// ActionRenderNothing shows an empty placeholder (mid-logout on a
	// protected route, where a login redirect would flash pointlessly).
	ActionRenderNothing
	// ActionRedirect navigates to Decision.Target.
	ActionRedirect
)

// Decision is the guard's verdict for a route.
type Decision struct {
	Action GuardAction
	// Target is set when Action is ActionRedirect.
	Target string
	// RememberIntent signals that the caller should record the requested
	// path before following the redirect, so login can return there.
	RememberIntent bool
}

// guestOnlyRoutes redirect away when a session already exists.
var guestOnlyRoutes = map[string]struct{}{
	"/login":           {},
	"/register":        {},
	"/forgot-password": {},
	"/reset-password":  {},
}

// EvaluateRoute decides how the router should treat the requested path for
// the current session. The path may carry a query string; on /login a
// `redirect` parameter wins over the landing route for authenticated users.
func EvaluateRoute(s *Session, requestedPath string) Decision {
	return evaluateRoute(s.snapshot(), requestedPath)
}

func evaluateRoute(view sessionView, requestedPath string) Decision {
	path, query := splitPath(requestedPath)
	protected := !IsPublicRoute(path)
	_, guestOnly := guestOnlyRoutes[path]

	if view.loading {
		return Decision{Action: ActionShowLoader}
	}

	if protected && !view.authenticated {
		if view.loggingOut {
			return Decision{Action: ActionRenderNothing}
		}
		return Decision{
			Action:         ActionRedirect,
			Target:         "/login?redirect=" + url.QueryEscape(requestedPath),
			RememberIntent: true,
		}
	}

	if guestOnly && view.authenticated {
		target := view.landing
		if target == "" {
			target = DefaultLandingRoute
		}
		if path == "/login" {
			if redirect := query.Get("redirect"); redirect != "" && isSafeRedirect(redirect) {
				target = redirect
			}
		}
		return Decision{Action: ActionRedirect, Target: target}
	}

	return Decision{Action: ActionRender}
}

func splitPath(requestedPath string) (string, url.Values) {
	path := requestedPath
	query := url.Values{}
	if idx := strings.IndexByte(requestedPath, '?'); idx >= 0 {
		path = requestedPath[:idx]
		if parsed, err := url.ParseQuery(requestedPath[idx+1:]); err == nil {
			query = parsed
		}
	}
	return path, query
}

// isSafeRedirect rejects absolute URLs so the redirect parameter cannot send
// the user off-site.
func isSafeRedirect(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}
