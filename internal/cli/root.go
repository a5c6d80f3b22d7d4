// Package cli implements the awaken command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/awaken/internal/config"
	"github.com/opencode-ai/awaken/internal/logging"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile        string
	logLevel       string
	logFile        string
	noSound        bool
	nonInteractive bool
	scriptVars     []string

	appConfig    *config.Config
	closeLogging func() error
)

var rootCmd = &cobra.Command{
	Use:   "awaken",
	Short: "Scripted terminal onboarding with sound",
	Long: `Awaken plays a scripted boot intro in the terminal and opens a landing
view whose chat demo runs once it scrolls into view.

Run without a TTY (or with --non-interactive) to print a plain transcript.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperience(cmd, modeFull)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/awaken/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", "", "log file path")
	flags.BoolVar(&noSound, "no-sound", false, "disable sound cues and the ambient drone")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "print a transcript instead of launching the TUI")
	flags.StringArrayVar(&scriptVars, "var", nil, "script variable as key=value (repeatable)")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the run.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		_ = shutdownLogging()
		printError(os.Stderr, err)
	}
	return err
}

// GetConfig returns the loaded configuration, or nil before initConfig.
func GetConfig() *config.Config {
	return appConfig
}

func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if level := strings.TrimSpace(logLevel); level != "" {
		cfg.Log.Level = level
	}
	if path := strings.TrimSpace(logFile); path != "" {
		cfg.Log.File = path
	}
	if noSound {
		cfg.Sound.Enabled = false
	}

	cleanup, err := logging.InitFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	closeLogging = cleanup
	appConfig = cfg

	logging.Component("cli").Debug().
		Str("log_level", cfg.Log.Level).
		Bool("sound", cfg.Sound.Enabled).
		Msg("configuration loaded")
	return nil
}

func shutdownLogging() error {
	if closeLogging == nil {
		return nil
	}
	cleanup := closeLogging
	closeLogging = nil
	return cleanup()
}

// parseVars turns repeated key=value flags into template variables.
func parseVars(raw []string) (map[string]string, error) {
	vars := make(map[string]string, len(raw))
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q (expected key=value)", item)
		}
		vars[key] = value
	}
	return vars, nil
}
