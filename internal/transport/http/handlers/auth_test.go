package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestLoginReturnsTokenAndUser(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, "jordan@example.com", "Str0ng-Anchor-42!", true)

	rr := env.request(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "Jordan@Example.com",
		"password": "Str0ng-Anchor-42!",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp AuthSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a bearer token in the response")
	}
	if resp.User.Email != user.Email {
		t.Fatalf("expected user email %q, got %q", user.Email, resp.User.Email)
	}

	// The returned token must authenticate follow-up requests.
	me := env.request(t, http.MethodGet, "/api/user", resp.Token, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("expected 200 from /api/user, got %d", me.Code)
	}
}

func TestLoginFailureAttachesToEmailField(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "jordan@example.com", "Str0ng-Anchor-42!", true)

	for name, body := range map[string]map[string]string{
		"wrong password": {"email": "jordan@example.com", "password": "not-the-password"},
		"unknown email":  {"email": "nobody@example.com", "password": "Str0ng-Anchor-42!"},
	} {
		rr := env.request(t, http.MethodPost, "/api/login", "", body)
		resp := decodeValidation(t, rr)
		if got := firstFieldError(t, resp, "email"); got != credentialsMessage {
			t.Fatalf("%s: expected credentials message, got %q", name, got)
		}
		if _, ok := resp.Errors["password"]; ok {
			t.Fatalf("%s: failure must not attach to the password field", name)
		}
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rr := env.request(t, http.MethodPost, "/api/login", "", map[string]string{"email": "jordan@example.com"})
	resp := decodeValidation(t, rr)
	if got := firstFieldError(t, resp, "password"); got != "The password field is required." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	env := newTestEnv(t)

	rr := env.request(t, http.MethodGet, "/api/user", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Unauthenticated." {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestLogoutRevokesTokenAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "jordan@example.com", "Str0ng-Anchor-42!", true)

	rr := env.request(t, http.MethodPost, "/api/logout", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	// The revoked token no longer authenticates.
	me := env.request(t, http.MethodGet, "/api/user", token, nil)
	if me.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", me.Code)
	}
}

func TestConfirmPasswordExactCase(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "jordan@example.com", "Str0ng-Anchor-42!", true)

	rr := env.request(t, http.MethodPost, "/api/confirm-password", token, map[string]string{
		"password": "Str0ng-Anchor-42!",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	wrong := env.request(t, http.MethodPost, "/api/confirm-password", token, map[string]string{
		"password": "str0ng-anchor-42!",
	})
	resp := decodeValidation(t, wrong)
	if got := firstFieldError(t, resp, "password"); got != "The password is incorrect." {
		t.Fatalf("unexpected message %q", got)
	}
}
