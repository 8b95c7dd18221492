// Package cli implements kscstctl, the command-line client of the KSCST
// training backend. It shares the session store, route guard and gateway
// with the portal; the session is kept in a local JSON file.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/guard"
	"github.com/kscst/training-portal/internal/core/ports"
	"github.com/kscst/training-portal/internal/core/service"
	"github.com/kscst/training-portal/internal/infrastructure/crypto"
	"github.com/kscst/training-portal/internal/infrastructure/filestore"
	"github.com/kscst/training-portal/internal/infrastructure/gateway"
	"github.com/kscst/training-portal/pkg/logger"
)

var (
	ErrNotLoggedIn  = errors.New("not logged in: run `kscstctl login` first")
	ErrWrongRole    = errors.New("command not available for this account")
	ErrInvalidInput = errors.New("invalid input")
)

// Options overrides the collaborators built from configuration. Zero values
// use the defaults: the gateway client, the session file, stdio.
type Options struct {
	API   ports.TrainingAPI
	Repo  ports.SessionRepository
	Viper *viper.Viper
	Log   *zerolog.Logger
	In    io.Reader
	Out   io.Writer
	Err   io.Writer
}

type app struct {
	opts       Options
	v          *viper.Viper
	configFile string

	cfg      *Config
	api      ports.TrainingAPI
	store    *service.SessionStore
	log      zerolog.Logger
	validate *validator.Validate
	out      *printer
}

func newApp(opts Options) *app {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	v := opts.Viper
	if v == nil {
		v = viper.New()
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &app{opts: opts, v: v, validate: validate}
}

// setup resolves configuration and restores the persisted session. It runs
// once per process.
func (a *app) setup(cmd *cobra.Command) error {
	if a.store != nil {
		return nil
	}

	cfg, err := loadConfig(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.opts.Log != nil {
		a.log = *a.opts.Log
	} else {
		a.log = logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  true,
			Output:  a.opts.Err,
			Service: "kscstctl",
		})
	}

	a.api = a.opts.API
	if a.api == nil {
		a.api = gateway.New(gateway.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout}, a.log)
	}

	repo := a.opts.Repo
	if repo == nil {
		repo = filestore.New(cfg.SessionFile)
	}

	var sealer ports.CredentialSealer
	if cfg.CredentialKey != "" {
		s, err := crypto.NewSealerFromString(cfg.CredentialKey)
		if err != nil {
			return fmt.Errorf("credential key: %w", err)
		}
		sealer = s
	}

	a.store = service.NewSessionStore(repo, sealer, cfg.Profile, a.log)
	a.store.Restore(cmd.Context())
	a.out = newPrinter(a.opts.Out, cfg.Output)
	return nil
}

// requireRole gates a command group the way the portal guards a view. A
// redirect becomes an error telling the caller where to go instead.
func (a *app) requireRole(role domain.Role) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := a.setup(cmd); err != nil {
			return err
		}

		sess := a.store.Current()
		d := guard.Decide(sess, []domain.Role{role}, cmd.CommandPath())
		if d.Render {
			return nil
		}
		if d.Outcome == guard.OutcomeLogin {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("%w: %q is for %s accounts; you are logged in as %s, use `kscstctl %s`",
			ErrWrongRole, cmd.CommandPath(), role, sess.Role(), groupFor(sess.Role()))
	}
}

// creds returns the credentials of the current session. Role groups run
// requireRole first, so a session is present.
func (a *app) creds() *domain.Credentials {
	if s := a.store.Current(); s != nil {
		return s.Credentials
	}
	return nil
}

// check validates in against its struct tags, naming fields by their JSON
// name.
func (a *app) check(in any) error {
	err := a.validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "http_url", "url":
			msgs = append(msgs, fe.Field()+" must be a valid HTTP/HTTPS URL")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func groupFor(r domain.Role) string {
	return strings.ToLower(r.String())
}
