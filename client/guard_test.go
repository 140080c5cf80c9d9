package client

import "testing"

func TestGuardShowsLoaderWhileInitializing(t *testing.T) {
	view := sessionView{loading: true}

	decision := evaluateRoute(view, "/dashboard")
	if decision.Action != ActionShowLoader {
		t.Fatalf("expected loader, got %v", decision.Action)
	}
}

func TestGuardRedirectsUnauthenticatedFromProtectedRoute(t *testing.T) {
	view := sessionView{}

	decision := evaluateRoute(view, "/settings/profile")
	if decision.Action != ActionRedirect {
		t.Fatalf("expected redirect, got %v", decision.Action)
	}
	if decision.Target != "/login?redirect=%2Fsettings%2Fprofile" {
		t.Fatalf("unexpected target %q", decision.Target)
	}
	if !decision.RememberIntent {
		t.Fatal("the guard must ask the caller to remember the intent")
	}
}

func TestGuardRendersNothingDuringLogout(t *testing.T) {
	view := sessionView{loggingOut: true}

	decision := evaluateRoute(view, "/dashboard")
	if decision.Action != ActionRenderNothing {
		t.Fatalf("expected empty placeholder mid-logout, got %v", decision.Action)
	}
}

func TestGuardRedirectsAuthenticatedAwayFromGuestRoutes(t *testing.T) {
	view := sessionView{authenticated: true, landing: DefaultLandingRoute}

	for _, path := range []string{"/login", "/register", "/forgot-password", "/reset-password"} {
		decision := evaluateRoute(view, path)
		if decision.Action != ActionRedirect {
			t.Fatalf("%s: expected redirect, got %v", path, decision.Action)
		}
		if decision.Target != DefaultLandingRoute {
			t.Fatalf("%s: unexpected target %q", path, decision.Target)
		}
	}
}

func TestGuardHonorsRedirectParamOnLogin(t *testing.T) {
	view := sessionView{authenticated: true, landing: DefaultLandingRoute}

	decision := evaluateRoute(view, "/login?redirect=%2Fsettings%2Fprofile")
	if decision.Action != ActionRedirect {
		t.Fatalf("expected redirect, got %v", decision.Action)
	}
	if decision.Target != "/settings/profile" {
		t.Fatalf("unexpected target %q", decision.Target)
	}
}

func TestGuardRejectsOffsiteRedirectParam(t *testing.T) {
	view := sessionView{authenticated: true, landing: DefaultLandingRoute}

	for _, raw := range []string{
		"/login?redirect=https%3A%2F%2Fevil.example.com",
		"/login?redirect=%2F%2Fevil.example.com",
	} {
		decision := evaluateRoute(view, raw)
		if decision.Target != DefaultLandingRoute {
			t.Fatalf("%s: off-site redirect must fall back to landing, got %q", raw, decision.Target)
		}
	}
}

func TestGuardRendersPublicRouteForGuests(t *testing.T) {
	view := sessionView{}

	decision := evaluateRoute(view, "/login")
	if decision.Action != ActionRender {
		t.Fatalf("expected render, got %v", decision.Action)
	}
}

func TestGuardRendersProtectedRouteWhenAuthenticated(t *testing.T) {
	view := sessionView{authenticated: true}

	decision := evaluateRoute(view, "/dashboard")
	if decision.Action != ActionRender {
		t.Fatalf("expected render, got %v", decision.Action)
	}
}
