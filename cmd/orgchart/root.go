package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/logging"
	"github.com/iota-uz/orgchart/pkg/metrics"
)

// cliApp carries the state shared by every subcommand of one invocation.
type cliApp struct {
	stdout io.Writer
	stderr io.Writer

	envFiles    []string
	logLevel    string
	metricsFile string

	cfg    *configuration.Configuration
	logger *logrus.Logger
}

func newRootCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orgchart",
		Short:         "Organization chart importer and hierarchy exporter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
	}
	cmd.SetOut(app.stdout)
	cmd.SetErr(app.stderr)

	cmd.PersistentFlags().StringSliceVar(&app.envFiles, "env-file", configuration.DefaultEnvFiles, "Env files to load before reading the environment")
	cmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Log level override (silent|error|warn|info|debug)")
	cmd.PersistentFlags().StringVar(&app.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file on exit (default: METRICS_FILE)")

	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newReportCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	return cmd
}

func (a *cliApp) load() error {
	cfg, err := configuration.Load(a.envFiles...)
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.cfg = cfg
	a.logger = cfg.Logger()
	if strings.TrimSpace(a.logLevel) != "" {
		a.logger.SetLevel(logging.ParseLevel(a.logLevel))
	}
	if a.metricsFile == "" {
		a.metricsFile = cfg.MetricsFile
	}
	return nil
}

// commandContext attaches a logger tagged with the command name to ctx.
func (a *cliApp) commandContext(ctx context.Context, command string) context.Context {
	return composables.WithLogger(ctx, a.logger.WithField("command", command))
}

func (a *cliApp) openStore(ctx context.Context) (*persistence.Store, error) {
	return a.openStoreWith(ctx, a.cfg.Database)
}

func (a *cliApp) openStoreWith(ctx context.Context, opts configuration.DatabaseOptions) (*persistence.Store, error) {
	store, err := persistence.Open(ctx, opts)
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	return store, nil
}

func (a *cliApp) close() {
	if a.metricsFile != "" {
		if err := metrics.WriteTextfile(a.metricsFile, nil); err != nil && a.logger != nil {
			a.logger.WithError(err).Warn("write metrics file")
		}
	}
	if a.cfg != nil {
		a.cfg.Unload()
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &cliApp{stdout: stdout, stderr: stderr}
	defer app.close()

	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		code := exitCode(err)
		if code == exitFailure && isUsageError(err) {
			code = exitUsage
		}
		fmt.Fprintln(stderr, err.Error())
		return code
	}
	return exitOK
}

// isUsageError reports cobra's own argument and flag errors, which are plain
// errors without an exit code attached.
func isUsageError(err error) bool {
	var ce *cliError
	if errors.As(err, &ce) {
		return false
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.HasPrefix(msg, "invalid argument") ||
		strings.Contains(msg, "flag needs an argument") ||
		strings.Contains(msg, "accepts ") ||
		strings.Contains(msg, "required flag")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
