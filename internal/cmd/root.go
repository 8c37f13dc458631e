// Package cmd defines the skyforge command tree. Every command resolves its
// configuration explicitly per invocation, dispatches through the shared
// request layer, and surfaces errors at a single boundary: one colorized
// line and a non-zero exit, or the raw error chain when --debug is set.
package cmd

import (
	"fmt"
	"os"

	"github.com/skyforge-project/skyforge-cli/internal/auth"
	"github.com/skyforge-project/skyforge-cli/internal/buildinfo"
	"github.com/skyforge-project/skyforge-cli/internal/client"
	"github.com/skyforge-project/skyforge-cli/internal/config"
	"github.com/skyforge-project/skyforge-cli/internal/logging"
	"github.com/skyforge-project/skyforge-cli/internal/output"
	"github.com/spf13/cobra"
)

var (
	flagConfigDir string
	flagProfile   string
	flagHost      string
	flagPort      string
	flagNoColor   bool
	flagDebug     bool
	flagVerbose   bool
	flagQuiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "skyforge",
	Short: "Command line client for a skyforge job-orchestration server",
	Long: `skyforge provides a command line interface to a skyforge server.

It submits cloud-image jobs to the server pipeline, manages per-cloud
accounts, and handles user authentication and token lifecycle.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfigDir, "config-dir", "C", "", "client config directory (default ~/.config/skyforge)")
	pf.StringVar(&flagProfile, "profile", "", "configuration profile to use (default \"default\")")
	pf.StringVar(&flagHost, "host", "", "resolvable hostname for the skyforge server instance")
	pf.StringVar(&flagPort, "port", "", "port the skyforge server is listening on")
	pf.BoolVar(&flagNoColor, "no-color", false, "remove ANSI color and styling from output")
	pf.BoolVar(&flagDebug, "debug", false, "display debug level logging and raw errors")
	pf.BoolVar(&flagVerbose, "verbose", false, "display logging info to console (default)")
	pf.BoolVar(&flagQuiet, "quiet", false, "silence logging information")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(configCmd)
}

// runtime bundles the per-invocation collaborators commands work with. The
// resolved configuration is passed explicitly; nothing here is global.
type runtime struct {
	cfg     *config.Config
	client  *client.Client
	session *auth.Session
	printer *output.Printer
}

// newRuntime resolves configuration from flags > profile file > defaults and
// wires the client, session and printer for one command invocation.
func newRuntime() (*runtime, error) {
	overrides := &config.Config{
		ConfigDir: flagConfigDir,
		Profile:   flagProfile,
		Host:      flagHost,
		Port:      flagPort,
		NoColor:   flagNoColor,
	}
	switch {
	case flagDebug:
		overrides.LogLevel = "debug"
	case flagQuiet:
		overrides.LogLevel = "warning"
	case flagVerbose:
		overrides.LogLevel = "info"
	}

	cfg, err := config.Resolve(overrides)
	if err != nil {
		return nil, err
	}

	logging.SetLevel(cfg.LogLevel)
	if flagDebug {
		logging.EnableFileLog(cfg.ConfigDir)
	}

	apiClient, err := client.New(cfg)
	if err != nil {
		return nil, err
	}

	store := auth.NewStore(cfg.TokenPath())
	return &runtime{
		cfg:     cfg,
		client:  apiClient,
		session: auth.NewSession(apiClient, store),
		printer: output.NewPrinter(cfg.NoColor),
	}, nil
}

// run wraps a command body with runtime setup and the error boundary.
func run(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return boundary(nil, err)
		}
		if err = fn(cmd, args, rt); err != nil {
			return boundary(rt, err)
		}
		return nil
	}
}

// boundary implements the dual-mode error policy: under --debug the raw
// error chain propagates to cobra untouched; otherwise a single styled line
// goes to stderr and the process exits non-zero.
func boundary(rt *runtime, err error) error {
	if flagDebug {
		return err
	}

	printer := output.NewPrinter(flagNoColor)
	if rt != nil {
		printer = rt.printer
	}
	printer.Error(err.Error())
	os.Exit(1)
	return nil
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Reached only in --debug mode or on usage errors.
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
