package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kscst/training-portal/internal/core/domain"
)

// NewRootCommand builds the kscstctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	a := newApp(opts)

	root := &cobra.Command{
		Use:           "kscstctl",
		Short:         "KSCST training portal client",
		Long:          `A command-line client for the KSCST training backend: log in once, then manage trainees, trainers, materials and certificates from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.opts.In)
	root.SetOut(a.opts.Out)
	root.SetErr(a.opts.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/kscst/config.yaml)")
	flags.String("api-url", "", "backend base URL (env KSCST_API_URL)")
	flags.String("session-file", "", "session file (env KSCST_SESSION_FILE)")
	flags.String("profile", "", "session profile name (env KSCST_PROFILE)")
	flags.StringP("output", "o", "", "output format: table, json or yaml")
	flags.String("log-level", "", "log level (env KSCST_LOG_LEVEL)")
	for key, flag := range map[string]string{
		"api_url":      "api-url",
		"session_file": "session-file",
		"profile":      "profile",
		"output":       "output",
		"log_level":    "log-level",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.registerCmd(),
		a.adminCmd(),
		a.trainerCmd(),
		a.traineeCmd(),
	)
	return root
}

func (a *app) loginCmd() *cobra.Command {
	var (
		creds         domain.Credentials
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				creds.Password = strings.TrimRight(line, "\r\n")
			}
			if err := a.check(loginInput(creds)); err != nil {
				return err
			}

			ctx := cmd.Context()
			identity, err := a.api.Login(ctx, creds)
			if err != nil {
				return err
			}
			if err := a.store.Login(ctx, *identity, creds); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			sess := a.store.Current()
			return a.out.message(fmt.Sprintf("Logged in as %s (%s). Try `kscstctl %s --help`.",
				sess.Identity.Username, sess.Role(), groupFor(sess.Role())))
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.store.Logout(cmd.Context())
			return a.out.message("Logged out.")
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess := a.store.Current()
			if !sess.Authenticated() {
				return ErrNotLoggedIn
			}
			id := sess.Identity
			return a.out.render(id, fieldsTable(
				"id", id.ID,
				"username", id.Username,
				"role", id.Role.String(),
			))
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a trainee or trainer account",
	}

	var trainee domain.TraineeRegistration
	traineeCmd := &cobra.Command{
		Use:   "trainee",
		Short: "Register as a trainee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.check(trainee); err != nil {
				return err
			}
			msg, err := a.api.RegisterTrainee(cmd.Context(), trainee)
			if err != nil {
				return err
			}
			return a.out.message(orDefault(msg, "Registration successful. Wait for admin approval."))
		},
	}
	f := traineeCmd.Flags()
	f.StringVar(&trainee.Username, "username", "", "username")
	f.StringVar(&trainee.Password, "password", "", "password (at least 6 characters)")
	f.StringVar(&trainee.Name, "name", "", "full name")
	f.StringVar(&trainee.Email, "email", "", "email address")
	f.StringVar(&trainee.Phone, "phone", "", "phone number")
	f.StringVar(&trainee.Skill, "skill", "", "skill to train in")
	f.StringVar(&trainee.Location, "location", "", "location")

	var trainer domain.TrainerRegistration
	trainerCmd := &cobra.Command{
		Use:   "trainer",
		Short: "Register as a trainer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.check(trainer); err != nil {
				return err
			}
			msg, err := a.api.RegisterTrainer(cmd.Context(), trainer)
			if err != nil {
				return err
			}
			return a.out.message(orDefault(msg, "Registration successful. Wait for admin approval."))
		},
	}
	f = trainerCmd.Flags()
	f.StringVar(&trainer.Username, "username", "", "username")
	f.StringVar(&trainer.Password, "password", "", "password (at least 6 characters)")
	f.StringVar(&trainer.Name, "name", "", "full name")
	f.StringVar(&trainer.Email, "email", "", "email address")
	f.StringVar(&trainer.Phone, "phone", "", "phone number")
	f.StringVar(&trainer.Expertise, "expertise", "", "area of expertise")

	cmd.AddCommand(traineeCmd, trainerCmd)
	return cmd
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
