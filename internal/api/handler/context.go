package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/metrics"
	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
)

type messageResponse struct {
	Message string `json:"message"`
}

// ctxCredentials returns the credentials of the logged-in session. The
// guard normally rejects anonymous requests first; this is the fast-fail
// for routes mounted without it.
func ctxCredentials(c echo.Context) (*domain.Credentials, error) {
	s := middleware.CurrentSession(c)
	if s == nil || s.Credentials == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}
	return s.Credentials, nil
}

// flasher records the banner message shown once on the next view.
type flasher struct {
	store ports.FlashStore
	log   zerolog.Logger
}

func (f flasher) push(c echo.Context, kind, msg string) {
	st := middleware.Store(c)
	if f.store == nil || st == nil || st.Key() == "" || msg == "" {
		return
	}
	if err := f.store.Push(c.Request().Context(), st.Key(), domain.Flash{Kind: kind, Message: msg}); err != nil {
		f.log.Warn().Err(err).Msg("failed to record flash message")
		return
	}
	metrics.FlashMessagesTotal.WithLabelValues(kind).Inc()
}

func (f flasher) pop(c echo.Context) *domain.Flash {
	st := middleware.Store(c)
	if f.store == nil || st == nil || st.Key() == "" {
		return nil
	}
	flash, err := f.store.Pop(c.Request().Context(), st.Key())
	if err != nil {
		f.log.Warn().Err(err).Msg("failed to read flash message")
		return nil
	}
	return flash
}

// fail records err as an error banner and returns it for the error
// handler. Validation failures are answered inline and not recorded.
func (f flasher) fail(c echo.Context, err error) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		f.push(c, domain.FlashError, err.Error())
	}
	return err
}

// respond finishes an action endpoint: on success it records msg and
// answers 200, on failure it defers to fail.
func (f flasher) respond(c echo.Context, msg string, err error) error {
	if err != nil {
		return f.fail(c, err)
	}
	f.push(c, domain.FlashSuccess, msg)
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// bindValid binds and validates the request body into v.
func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(v)
}

// isFormPost reports whether the request came from a plain HTML form, which
// expects a redirect instead of JSON.
func isFormPost(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm)
}
