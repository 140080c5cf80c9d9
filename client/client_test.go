package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func jsonResponse(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestLoginDecodesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var input LoginInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Fatalf("decode input: %v", err)
		}
		jsonResponse(t, w, http.StatusOK, map[string]any{
			"message": "Logged in successfully.",
			"user":    map[string]any{"id": "user-1", "name": "Jordan", "email": input.Email},
			"token":   "raw-token",
		})
	}))
	defer srv.Close()

	api := New(srv.URL)
	session, err := api.Login(context.Background(), LoginInput{Email: "jordan@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token != "raw-token" {
		t.Fatalf("unexpected token %q", session.Token)
	}
	if session.User.Email != "jordan@example.com" {
		t.Fatalf("unexpected user email %q", session.User.Email)
	}
}

func TestValidationErrorKeepsFirstMessagePerField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(t, w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The email field is required.",
			"errors": map[string][]string{
				"email":    {"The email field is required.", "The email field must be a valid email address."},
				"password": {"The password field is required."},
			},
		})
	}))
	defer srv.Close()

	api := New(srv.URL)
	_, err := api.Login(context.Background(), LoginInput{})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if got := vErr.Field("email"); got != "The email field is required." {
		t.Fatalf("expected first email message, got %q", got)
	}
	if got := vErr.Field("password"); got != "The password field is required." {
		t.Fatalf("unexpected password message %q", got)
	}
}

func TestUnauthorizedMapsToAuthenticationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(t, w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
	}))
	defer srv.Close()

	api := New(srv.URL)
	_, err := api.CurrentUser(context.Background(), "stale-token")

	var aErr *AuthenticationError
	if !errors.As(err, &aErr) {
		t.Fatalf("expected *AuthenticationError, got %T", err)
	}
}

func TestSessionMismatchMapsToDistinctError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(t, w, 419, map[string]string{"message": "Session expired."})
	}))
	defer srv.Close()

	api := New(srv.URL)
	err := api.ConfirmPassword(context.Background(), "token", "password")

	var mErr *SessionMismatchError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected *SessionMismatchError, got %T", err)
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		t.Fatal("a session mismatch must never read as a validation failure")
	}
}

func TestUnreachableServerMapsToTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	api := New(srv.URL)
	_, err := api.CurrentUser(context.Background(), "token")

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if tErr.Error() != "network error occurred" {
		t.Fatalf("unexpected message %q", tErr.Error())
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		jsonResponse(t, w, http.StatusOK, map[string]any{"id": "user-1"})
	}))
	defer srv.Close()

	api := New(srv.URL)
	if _, err := api.CurrentUser(context.Background(), "my-token"); err != nil {
		t.Fatalf("current user: %v", err)
	}
	if gotAuth != "Bearer my-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
}
