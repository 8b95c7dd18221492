package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/metrics"
	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/guard"
	"github.com/kscst/training-portal/internal/core/ports"
)

type AuthHandler struct {
	api      ports.AuthAPI
	sessions *middleware.Sessions
	routes   guard.Table
	flash    flasher
	log      zerolog.Logger
}

func NewAuthHandler(api ports.AuthAPI, sessions *middleware.Sessions, flash ports.FlashStore, log zerolog.Logger) *AuthHandler {
	log = log.With().Str("component", "auth_handler").Logger()
	return &AuthHandler{
		api:      api,
		sessions: sessions,
		routes:   guard.DefaultTable(),
		flash:    flasher{store: flash, log: log},
		log:      log,
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	ReturnTo string `json:"returnTo" form:"returnTo" query:"returnTo"`
}

type loginResponse struct {
	User     domain.Identity `json:"user"`
	Redirect string          `json:"redirect"`
}

type loginView struct {
	ReturnTo string           `json:"returnTo,omitempty"`
	Flash    *domain.Flash    `json:"flash,omitempty"`
	User     *domain.Identity `json:"user,omitempty"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
}

// LoginView returns what the login page needs: the location to return to,
// any pending banner message, and the current user if already logged in.
//
// @Summary      Login page state
// @Tags         auth
// @Produce      json
// @Param        returnTo  query     string  false  "Location requested before login"
// @Success      200       {object}  loginView
// @Router       /login [get]
func (h *AuthHandler) LoginView(c echo.Context) error {
	view := loginView{ReturnTo: c.QueryParam(guard.ReturnParam), Flash: h.flash.pop(c)}
	if s := middleware.CurrentSession(c); s != nil {
		id := s.Identity
		view.User = &id
	}
	return c.JSON(http.StatusOK, view)
}

// Login authenticates against the backend and starts a new session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Success      303   "Form posts are redirected to the target"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	creds := domain.Credentials{Username: req.Username, Password: req.Password}

	identity, err := h.api.Login(ctx, creds)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure", "").Inc()
		return err
	}

	// A new id on every login; the previous one is discarded.
	if old := middleware.Store(c); old != nil && old.Key() != "" {
		old.Logout(ctx)
	}
	store, err := h.sessions.Issue(c)
	if err != nil {
		return err
	}
	if err := store.Login(ctx, *identity, creds); err != nil {
		h.log.Error().Err(err).Str("username", identity.Username).Msg("session not persisted")
		metrics.LoginsTotal.WithLabelValues("persist_failure", identity.Role.String()).Inc()
		h.sessions.Clear(c)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Failed to save session")
	}
	metrics.LoginsTotal.WithLabelValues("success", identity.Role.String()).Inc()

	sess := store.Current()
	target := h.routes.ReturnTarget(sess, req.ReturnTo)
	h.log.Info().Str("username", sess.Identity.Username).Str("role", sess.Role().String()).Msg("login")

	if isFormPost(c) {
		return c.Redirect(http.StatusSeeOther, target)
	}
	return c.JSON(http.StatusOK, loginResponse{User: sess.Identity, Redirect: target})
}

// Logout ends the session. It always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  loginResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if store := middleware.Store(c); store != nil && store.Key() != "" {
		store.Logout(c.Request().Context())
	}
	h.sessions.Clear(c)

	if isFormPost(c) {
		return c.Redirect(http.StatusSeeOther, domain.LoginRoute)
	}
	return c.JSON(http.StatusOK, map[string]string{"redirect": domain.LoginRoute})
}

// Session reports the current identity. Credentials are never exposed.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	s := middleware.CurrentSession(c)
	if !s.Authenticated() {
		return c.JSON(http.StatusOK, sessionResponse{})
	}
	id := s.Identity
	return c.JSON(http.StatusOK, sessionResponse{Authenticated: true, User: &id})
}

// RegisterTrainee creates a trainee account awaiting approval.
//
// @Summary      Register a trainee
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.TraineeRegistration  true  "Trainee details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /trainee/register [post]
func (h *AuthHandler) RegisterTrainee(c echo.Context) error {
	var req domain.TraineeRegistration
	if err := bindValid(c, &req); err != nil {
		return err
	}
	msg, err := h.api.RegisterTrainee(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: msg})
}

// RegisterTrainer creates a trainer account awaiting approval.
//
// @Summary      Register a trainer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.TrainerRegistration  true  "Trainer details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /trainer/register [post]
func (h *AuthHandler) RegisterTrainer(c echo.Context) error {
	var req domain.TrainerRegistration
	if err := bindValid(c, &req); err != nil {
		return err
	}
	msg, err := h.api.RegisterTrainer(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: msg})
}
