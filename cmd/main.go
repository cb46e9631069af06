package main

import (
	"fmt"
	"os"

	"github.com/pofactory/po-translator/internal/config"
	"github.com/pofactory/po-translator/pkg/log"
	"github.com/spf13/cobra"
)

// Populated at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "po-translator",
		Short: "Merge and translate gettext PO catalogs",
		Long: `po-translator consolidates the PO catalogs of a modular codebase into a
single deduplicated catalog and fills in missing translations, either
offline from glossaries or through an OpenAI-compatible chat API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				log.SetLevel(logLevel)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newMergeCmd(),
		newTranslateCmd(),
		newWatchCmd(),
		newCacheCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "po-translator %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// loadConfig builds the effective configuration: env defaults, then the
// nearest .potrans.yaml, then the caller's overrides. It also wires the
// logger, so commands call it exactly once.
func loadConfig(opts ...config.Option) (*config.Config, error) {
	if wd, err := os.Getwd(); err == nil {
		if path := config.FindSettingsFile(wd); path != "" {
			settings, err := config.LoadSettingsFile(path)
			if err != nil {
				return nil, fmt.Errorf("settings file %s: %w", path, err)
			}
			log.Debug("config: applying settings from %s", path)
			opts = append([]config.Option{config.WithSettings(settings)}, opts...)
		}
	}

	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		return nil, err
	}
	if err := log.Setup(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, nil
}
