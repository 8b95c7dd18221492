// Command portal serves the KSCST training portal: browser sessions, role
// guarded dashboards, and a proxy to the training backend.
//
//	@title			KSCST Training Portal
//	@version		1.0
//	@description	Backend-for-frontend of the KSCST training programme.
//	@BasePath		/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api"
	"github.com/kscst/training-portal/internal/api/handler"
	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/ports"
	"github.com/kscst/training-portal/internal/core/service"
	"github.com/kscst/training-portal/internal/infrastructure/crypto"
	mongostore "github.com/kscst/training-portal/internal/infrastructure/db/mongo"
	redisstore "github.com/kscst/training-portal/internal/infrastructure/db/redis"
	"github.com/kscst/training-portal/internal/infrastructure/gateway"
	"github.com/kscst/training-portal/internal/infrastructure/memory"
	"github.com/kscst/training-portal/internal/pkg/config"
	"github.com/kscst/training-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "portal",
	})
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("portal stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var sealer ports.CredentialSealer
	if cfg.Session.CredentialKey != "" {
		s, err := crypto.NewSealerFromString(cfg.Session.CredentialKey)
		if err != nil {
			return fmt.Errorf("CREDENTIAL_KEY: %w", err)
		}
		sealer = s
	} else if st.name != config.BackendMemory {
		log.Warn().Str("backend", st.name).Msg("CREDENTIAL_KEY not set; backend credentials are stored unsealed")
	}

	secret, err := sessionSecret(cfg, log)
	if err != nil {
		return err
	}

	manager := service.NewSessionManager(st.repo, sealer, logger.Get())
	sessions := middleware.NewSessions(manager, middleware.SessionOptions{
		Secret: secret,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookie,
	}, logger.Get())

	backend := gateway.New(gateway.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
	}, logger.Get())

	e := api.NewRouter(api.Deps{
		API:      backend,
		Sessions: sessions,
		Flash:    st.flash,
		Checks:   st.checks,
		Log:      logger.Get(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("backend", cfg.Backend.URL).
			Str("session_backend", st.name).
			Msg("portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// stores holds the selected session backend.
type stores struct {
	name   string
	repo   ports.SessionRepository
	flash  ports.FlashStore
	checks map[string]handler.Check
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Session.Store {
	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
		return &stores{
			name:   config.BackendRedis,
			repo:   redisstore.NewSessionRepository(client, cfg.Session.TTL),
			flash:  redisstore.NewFlashStore(client, cfg.Session.FlashTTL),
			checks: map[string]handler.Check{"redis": redisstore.Checker(client)},
			close:  func() { _ = client.Close() },
		}, nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "kscst-portal",
		})
		if err != nil {
			return nil, err
		}
		repo := mongostore.NewSessionRepository(db, cfg.Session.TTL)
		flash := mongostore.NewFlashStore(db, cfg.Session.FlashTTL)
		for _, ix := range []interface{ EnsureIndexes(context.Context) error }{repo, flash} {
			if err := ix.EnsureIndexes(ctx); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, err
			}
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")
		return &stores{
			name:   config.BackendMongo,
			repo:   repo,
			flash:  flash,
			checks: map[string]handler.Check{"mongo": mongostore.Checker(client)},
			close: func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(dctx)
			},
		}, nil
	}

	return &stores{
		name:   config.BackendMemory,
		repo:   memory.NewSessionRepository(),
		flash:  memory.NewFlashStore(cfg.Session.FlashTTL),
		checks: map[string]handler.Check{},
		close:  func() {},
	}, nil
}

// sessionSecret returns the cookie signing key. Development runs without a
// configured secret get a random one, so sessions end on restart.
func sessionSecret(cfg *config.Config, log zerolog.Logger) ([]byte, error) {
	if cfg.Session.Secret != "" {
		return []byte(cfg.Session.Secret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	log.Warn().Msg("SESSION_SECRET not set; using a random secret for this run")
	return secret, nil
}
