package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/kscst/training-portal/docs"
	"github.com/kscst/training-portal/internal/api/handler"
	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	API      ports.TrainingAPI
	Sessions *middleware.Sessions
	Flash    ports.FlashStore
	Checks   map[string]handler.Check
	Log      zerolog.Logger
	// Registry receives the HTTP metrics. Nil uses the default registry,
	// which also holds the portal's own metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(httpMetrics(d.Registry))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.API, d.Sessions, d.Flash, d.Log)
	adminHandler := handler.NewAdminHandler(d.API, d.Flash, d.Log)
	trainerHandler := handler.NewTrainerHandler(d.API, d.Flash, d.Log)
	traineeHandler := handler.NewTraineeHandler(d.API, d.Flash, d.Log)
	healthHandler := handler.NewHealthHandler(d.Checks)
	session := d.Sessions.Middleware()

	// --- Public routes ---
	e.GET("/login", authHandler.LoginView, session)
	e.POST("/login", authHandler.Login, session)
	e.POST("/logout", authHandler.Logout, session)
	e.GET("/session", authHandler.Session, session)
	e.POST("/trainee/register", authHandler.RegisterTrainee)
	e.POST("/trainer/register", authHandler.RegisterTrainer)

	// --- Admin area ---
	admin := e.Group("/admin", session, middleware.Guard(domain.RoleAdmin))
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.POST("/trainees/:id/approve", adminHandler.ApproveTrainee)
	admin.POST("/trainees/:id/reject", adminHandler.RejectTrainee)
	admin.DELETE("/trainees/:id", adminHandler.DeleteTrainee)
	admin.POST("/trainers/:id/approve", adminHandler.ApproveTrainer)
	admin.POST("/trainers/:id/reject", adminHandler.RejectTrainer)
	admin.DELETE("/trainers/:id", adminHandler.DeleteTrainer)
	admin.POST("/certificates/:traineeId", adminHandler.DeployCertificate)

	// --- Trainer area ---
	trainer := e.Group("/trainer", session, middleware.Guard(domain.RoleTrainer))
	trainer.GET("/dashboard", trainerHandler.Dashboard)
	trainer.PUT("/profile", trainerHandler.UpdateProfile)
	trainer.POST("/materials", trainerHandler.UploadMaterial)
	trainer.PUT("/materials/:id", trainerHandler.UpdateMaterial)
	trainer.DELETE("/materials/:id", trainerHandler.DeleteMaterial)
	trainer.POST("/playlists", trainerHandler.CreatePlaylist)
	trainer.PUT("/playlists/:id", trainerHandler.UpdatePlaylist)
	trainer.DELETE("/playlists/:id", trainerHandler.DeletePlaylist)

	// --- Trainee area ---
	trainee := e.Group("/trainee", session, middleware.Guard(domain.RoleTrainee))
	trainee.GET("/dashboard", traineeHandler.Dashboard)
	trainee.PUT("/profile", traineeHandler.UpdateProfile)
	trainee.POST("/materials/:id/complete", traineeHandler.CompleteMaterial)
	trainee.POST("/videos/complete", traineeHandler.CompleteVideo)
	trainee.GET("/certificate", traineeHandler.Certificate)
	trainee.GET("/certificate/download", traineeHandler.DownloadCertificate)

	// --- Operations (no session) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(d.Registry))   // prometheus scrape endpoint
	e.GET("/swagger/*", echoSwagger.WrapHandler)    // API docs

	return e
}

// requestLogger logs one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	log = log.With().Str("component", "http").Logger()
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func httpMetrics(reg *prometheus.Registry) echo.MiddlewareFunc {
	if reg == nil {
		return echoprometheus.NewMiddleware("portal")
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal",
		Registerer: reg,
	})
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
