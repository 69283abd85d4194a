package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"khetbook/internal/app"
	"khetbook/internal/cli"
	"khetbook/internal/client"
	"khetbook/internal/config"
	"khetbook/internal/ledger"
	"khetbook/internal/location"
	"khetbook/internal/log"
	"khetbook/internal/profile"
)

// env is built once per invocation, before any subcommand runs.
type env struct {
	session *app.Session
	api     *client.Client
	logger  *log.Logger
}

type rootFlags struct {
	apiURL      string
	sessionFile string
	lang        string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		e     env
	)
	cmd := &cobra.Command{
		Use:           "khetbook",
		Short:         "Farm bookkeeping: crops, expenses, income and your farmer profile",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init(flags, cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "server URL (default $KHETBOOK_API_URL)")
	cmd.PersistentFlags().StringVar(&flags.sessionFile, "session", "", "session file (default $KHETBOOK_SESSION_FILE)")
	cmd.PersistentFlags().StringVar(&flags.lang, "lang", "", "display language, en or mr (default $KHETBOOK_LANG)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(
		newLoginCmd(&e),
		newVerifyCmd(&e),
		newLogoutCmd(&e),
		newLocationsCmd(&e),
		newProfileCmd(&e),
		newCropsCmd(&e),
		newRecordCmd(&e, ledger.KindExpense),
		newRecordCmd(&e, ledger.KindIncome),
		newSummaryCmd(&e),
		newExportCmd(&e),
	)
	return cmd
}

func (e *env) init(f rootFlags, stderr io.Writer) error {
	cli.LoadEnvFile()
	cfg := config.Load()
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.sessionFile != "" {
		cfg.SessionFile = f.sessionFile
	}
	if f.lang != "" {
		cfg.Language = f.lang
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	} else if os.Getenv("KHETBOOK_LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	h, err := location.Load(cfg.Language)
	if err != nil {
		return err
	}
	e.logger = cli.SetupLogger(cfg.LogLevel, stderr).WithComponent(log.ComponentClient)
	e.api = client.New(cfg.APIURL, cfg.RequestTimeout, client.NewSessionStore(cfg.SessionFile), e.logger)
	e.session = app.NewSession(e.api, h, e.logger)
	return nil
}

// userMessage turns any command error into the one line shown to the
// farmer.
func userMessage(err error) string {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message()
	case errors.Is(err, app.ErrNoProfile):
		return "No profile yet. Create one with: khetbook profile set"
	case errors.Is(err, app.ErrNameRequired):
		return "Please enter your name"
	case errors.Is(err, profile.ErrUnknownValue):
		return "Unknown value: " + strings.TrimPrefix(err.Error(), profile.ErrUnknownValue.Error()+": ")
	}
	return client.UserMessage(err)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
