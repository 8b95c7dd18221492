package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/service"
	"github.com/kscst/training-portal/internal/infrastructure/memory"
)

func newSessions(repo *memory.SessionRepository) *Sessions {
	mgr := service.NewSessionManager(repo, nil, zerolog.Nop())
	return NewSessions(mgr, SessionOptions{Secret: []byte("secret"), TTL: time.Hour}, zerolog.Nop())
}

// issueCookie logs a user in through Issue and returns the cookie the
// browser would send back.
func issueCookie(t *testing.T, s *Sessions, role domain.Role) *http.Cookie {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)

	store, err := s.Issue(c)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Login(context.Background(),
		domain.Identity{ID: "7", Username: "alice", Role: role},
		domain.Credentials{Username: "alice", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if Store(c) != store {
		t.Fatalf("issued store not bound to the request")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	return cookies[0]
}

func restoreWith(t *testing.T, s *Sessions, cookie *http.Cookie) *domain.Session {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var got *domain.Session
	err := s.Middleware()(func(c echo.Context) error {
		got = CurrentSession(c)
		return nil
	})(c)
	if err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return got
}

func TestSessions_RoundTrip(t *testing.T) {
	s := newSessions(memory.NewSessionRepository())
	cookie := issueCookie(t, s, domain.RoleTrainee)

	got := restoreWith(t, s, cookie)
	if got == nil {
		t.Fatal("expected restored session")
	}
	if got.Role() != domain.RoleTrainee || got.Credentials == nil || got.Credentials.Password != "secret" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestSessions_NoCookie(t *testing.T) {
	s := newSessions(memory.NewSessionRepository())
	if got := restoreWith(t, s, nil); got != nil {
		t.Fatalf("expected no session, got %+v", got)
	}
}

func TestSessions_TamperedCookie(t *testing.T) {
	s := newSessions(memory.NewSessionRepository())
	cookie := issueCookie(t, s, domain.RoleAdmin)

	parts := strings.Split(cookie.Value, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	cookie.Value = strings.Join(parts, ".")

	if got := restoreWith(t, s, cookie); got != nil {
		t.Fatalf("tampered cookie must yield no session, got %+v", got)
	}
}

func TestSessions_ForeignSecret(t *testing.T) {
	s := newSessions(memory.NewSessionRepository())

	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{SID: "8f0c4e2a-6d0b-4c38-9d7a-5b7f1f0a8e11"}).
		SignedString([]byte("other"))

	if got := restoreWith(t, s, &http.Cookie{Name: CookieName, Value: token}); got != nil {
		t.Fatalf("expected no session, got %+v", got)
	}
}

func TestSessions_Expired(t *testing.T) {
	repo := memory.NewSessionRepository()
	s := newSessions(repo)
	cookie := issueCookie(t, s, domain.RoleAdmin)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if got := restoreWith(t, s, cookie); got != nil {
		t.Fatalf("expired cookie must yield no session")
	}
}

func TestSessions_CookieSlidesWithUse(t *testing.T) {
	s := newSessions(memory.NewSessionRepository())
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }
	cookie := issueCookie(t, s, domain.RoleTrainer)

	visit := func(at time.Time, ck *http.Cookie) (*domain.Session, []*http.Cookie) {
		s.now = func() time.Time { return at }
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/session", nil)
		req.AddCookie(ck)
		c := echo.New().NewContext(req, rec)
		var got *domain.Session
		_ = s.Middleware()(func(c echo.Context) error {
			got = CurrentSession(c)
			return nil
		})(c)
		return got, rec.Result().Cookies()
	}

	got, set := visit(start.Add(10*time.Minute), cookie)
	if got == nil || len(set) != 0 {
		t.Fatalf("fresh cookie: session=%v refreshed=%d", got, len(set))
	}

	got, set = visit(start.Add(40*time.Minute), cookie)
	if got == nil || len(set) != 1 || set[0].Name != CookieName || set[0].MaxAge != int(time.Hour/time.Second) {
		t.Fatalf("expected a refreshed cookie past half the TTL, got session=%v cookies=%+v", got, set)
	}
	refreshed := set[0]

	if got, _ := visit(start.Add(90*time.Minute), cookie); got != nil {
		t.Fatal("original cookie must still expire")
	}
	got, _ = visit(start.Add(90*time.Minute), refreshed)
	if got == nil || got.Identity.Username != "alice" {
		t.Fatalf("refreshed cookie must outlive the original expiry, got %+v", got)
	}
}

func TestSessions_EmptySessionCookieNotRefreshed(t *testing.T) {
	repo := memory.NewSessionRepository()
	s := newSessions(repo)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SID:              "8f0c4e2a-6d0b-4c38-9d7a-5b7f1f0a8e11",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(start.Add(5 * time.Minute))},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	c := echo.New().NewContext(req, rec)
	_ = s.Middleware()(func(echo.Context) error { return nil })(c)
	if n := len(rec.Result().Cookies()); n != 0 {
		t.Fatalf("a cookie without a stored session must not be renewed, got %d", n)
	}
}

func TestSessions_LogoutRemovesPersistedSession(t *testing.T) {
	repo := memory.NewSessionRepository()
	s := newSessions(repo)
	cookie := issueCookie(t, s, domain.RoleTrainer)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = s.Middleware()(func(c echo.Context) error {
		Store(c).Logout(c.Request().Context())
		s.Clear(c)
		return nil
	})(c)

	if repo.Len() != 0 {
		t.Fatalf("expected repository to be empty")
	}
	if got := restoreWith(t, s, cookie); got != nil {
		t.Fatalf("expected no session after logout")
	}
	if cs := rec.Result().Cookies(); len(cs) != 1 || cs[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %+v", cs)
	}
}
