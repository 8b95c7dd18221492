package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/metrics"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/service"
)

// CookieName carries the signed session id.
const CookieName = "kscst_session"

const storeKey = "session_store"

var errInvalidSession = errors.New("invalid session token")

// SessionOptions controls the session cookie.
type SessionOptions struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Sessions binds browser requests to server-side SessionStores. The cookie
// is an HS256 JWT whose sid claim names the session; it holds nothing else.
type Sessions struct {
	manager *service.SessionManager
	opts    SessionOptions
	log     zerolog.Logger
	now     func() time.Time
}

func NewSessions(manager *service.SessionManager, opts SessionOptions, log zerolog.Logger) *Sessions {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Sessions{
		manager: manager,
		opts:    opts,
		log:     log.With().Str("component", "sessions").Logger(),
		now:     time.Now,
	}
}

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Middleware restores the caller's session and stores it in the context. A
// missing or tampered cookie yields an empty session; a new id is issued
// only on login. Like the server-side stores, the cookie expiry slides: once
// less than half the TTL remains on a live session, the same id is re-signed
// with a full TTL.
func (s *Sessions) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(storeKey, s.restore(c))
			return next(c)
		}
	}
}

func (s *Sessions) restore(c echo.Context) *service.SessionStore {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		metrics.SessionRestoresTotal.WithLabelValues("none").Inc()
		return s.manager.Open("")
	}

	claims, err := s.parse(cookie.Value)
	if err != nil {
		s.log.Debug().Err(err).Msg("ignoring session cookie")
		metrics.SessionRestoresTotal.WithLabelValues("invalid").Inc()
		return s.manager.Open("")
	}

	store := s.manager.Open(claims.SID)
	if store.Restore(c.Request().Context()) == nil {
		metrics.SessionRestoresTotal.WithLabelValues("empty").Inc()
		return store
	}
	metrics.SessionRestoresTotal.WithLabelValues("restored").Inc()
	if claims.ExpiresAt != nil && claims.ExpiresAt.Sub(s.now()) < s.opts.TTL/2 {
		if err := s.setToken(c, claims.SID); err != nil {
			s.log.Warn().Err(err).Msg("refresh session cookie")
		}
	}
	return store
}

// Issue starts a fresh session id, sets its cookie, and makes the new store
// current for the rest of the request.
func (s *Sessions) Issue(c echo.Context) (*service.SessionStore, error) {
	sid := uuid.NewString()
	if err := s.setToken(c, sid); err != nil {
		return nil, err
	}
	store := s.manager.Open(sid)
	c.Set(storeKey, store)
	return store, nil
}

// setToken signs sid with a full TTL and sets it as the session cookie.
func (s *Sessions) setToken(c echo.Context, sid string) error {
	now := s.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TTL)),
		},
	}).SignedString(s.opts.Secret)
	if err != nil {
		return err
	}
	c.SetCookie(s.cookie(token, int(s.opts.TTL/time.Second)))
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(c echo.Context) {
	c.SetCookie(s.cookie("", -1))
}

func (s *Sessions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Sessions) parse(token string) (*sessionClaims, error) {
	var claims sessionClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.opts.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.SID == "" {
		return nil, errInvalidSession
	}
	if _, err := uuid.Parse(claims.SID); err != nil {
		return nil, errInvalidSession
	}
	return &claims, nil
}

// Store returns the SessionStore bound by Middleware, or nil.
func Store(c echo.Context) *service.SessionStore {
	store, _ := c.Get(storeKey).(*service.SessionStore)
	return store
}

// CurrentSession returns the logged-in session, or nil.
func CurrentSession(c echo.Context) *domain.Session {
	if store := Store(c); store != nil {
		return store.Current()
	}
	return nil
}
