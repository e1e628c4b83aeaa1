package main

import (
	"context"
	"fmt"
	"runtime"

	"frienddump/pkg/auth"
	"frienddump/pkg/config"
	"frienddump/pkg/graphapi"
	"frienddump/pkg/logger"
	"frienddump/pkg/session"
	"frienddump/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile     string
	logLevel       string
	noColor        bool
	quiet          bool
	verbose        bool
	sessionBackend string
	rateLimit      int

	// cfg is loaded once in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "frienddump",
	Short: "Export friends lists from an authenticated session",
	Long: `frienddump logs in with a browser cookie or an email/password pair,
checks that the session can still read friends lists, and exports the
friends (or friends of friends) of a list of seed profiles to text files
of "id|name" lines.

Every line is written at most once per run. With --prefix, ids that start
with one of the prefixes go to the main output and the rest to a second
file.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.SetColor(false)
		}
		if quiet {
			ui.SetQuietMode(true)
		}

		flags := make(map[string]interface{})
		if cmd.Flags().Changed("log-level") {
			flags["log-level"] = logLevel
		} else if !verbose {
			// Logs would interleave with the progress line
			flags["log-level"] = "error"
		}
		if sessionBackend != "" {
			flags["session-backend"] = sessionBackend
		}
		if cmd.Flags().Changed("rate-limit") {
			flags["requests-per-minute"] = rateLimit
		}
		mergeCommandFlags(cmd, flags)

		loaded, err := config.Load(configFile, flags)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if verbose && cmd.Name() != "show" {
			ui.PrintLogo()
		}
		return nil
	},
}

// commandFlags lets subcommands contribute to the config flag map
var commandFlags []func(cmd *cobra.Command, flags map[string]interface{})

func mergeCommandFlags(cmd *cobra.Command, flags map[string]interface{}) {
	for _, fn := range commandFlags {
		fn(cmd, flags)
	}
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err.Error())
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.frienddump.yaml or ~/.config/frienddump/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show logo and logs")
	rootCmd.PersistentFlags().StringVar(&sessionBackend, "session-backend", "", "session store: file, encrypted, keyring or memory")
	rootCmd.PersistentFlags().IntVar(&rateLimit, "rate-limit", 0, "outbound requests per minute (0 disables limiting)")

	rootCmd.SetVersionTemplate(`frienddump {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// services bundles the collaborators most commands need
type services struct {
	client *graphapi.Client
	store  session.Store
	auth   *auth.Authenticator
}

func newServices() (*services, error) {
	store, err := session.Open(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	log := logger.GetLogger()
	client := graphapi.NewClient(cfg, log)
	return &services{
		client: client,
		store:  store,
		auth:   auth.New(client, store, cfg, log),
	}, nil
}
