package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSessionMiddleware_IssuesSessionWhenMissing(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	var gotID string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetSessionIDFromContext(r.Context())
		if !ok {
			t.Fatalf("session id missing from context")
		}
		gotID = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if gotID == "" {
		t.Fatalf("expected non-empty session id")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "booking_session" {
		t.Fatalf("expected booking_session cookie, got %+v", cookies)
	}
	if !strings.HasPrefix(cookies[0].Value, gotID+".") {
		t.Fatalf("cookie value %q does not carry session id %q", cookies[0].Value, gotID)
	}
}

func TestSessionMiddleware_AcceptsOwnCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	firstRec := httptest.NewRecorder()

	var issuedID string
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issuedID, _ = GetSessionIDFromContext(r.Context())
	})).ServeHTTP(firstRec, first)

	cookie := firstRec.Result().Cookies()[0]

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookie)
	secondRec := httptest.NewRecorder()

	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetSessionIDFromContext(r.Context())
		if id != issuedID {
			t.Fatalf("session id = %q, want %q", id, issuedID)
		}
	})).ServeHTTP(secondRec, second)

	if len(secondRec.Result().Cookies()) != 0 {
		t.Fatalf("valid session must not be reissued")
	}
}

func TestSessionMiddleware_RejectsTamperedCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  "booking_session",
		Value: "forged-id.deadbeef",
	})
	rec := httptest.NewRecorder()

	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetSessionIDFromContext(r.Context())
		if id == "forged-id" {
			t.Fatalf("tampered session id must not be accepted")
		}
	})).ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 1 {
		t.Fatalf("tampered cookie must be replaced with a fresh session")
	}
}

func TestSessionMiddleware_DifferentSecretsRejectCookie(t *testing.T) {
	issuer := NewSessionMiddleware("secret-one")
	verifier := NewSessionMiddleware("secret-two")

	rec := httptest.NewRecorder()
	issuer.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookie := rec.Result().Cookies()[0]
	originalID := strings.SplitN(cookie.Value, ".", 2)[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()

	verifier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetSessionIDFromContext(r.Context())
		if id == originalID {
			t.Fatalf("cookie signed with another secret must not be accepted")
		}
	})).ServeHTTP(rec2, req)
}
