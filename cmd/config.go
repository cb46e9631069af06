package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pofactory/po-translator/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration or write a settings file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg.Settings())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, string(data))
			fmt.Fprintf(out, "# data dir: %s\n# api key set: %t\n", cfg.Paths.DataDir, cfg.LLM.APIKey != "")
			return nil
		},
	})

	var initForce bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.SettingsFileName + " with the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(wd, config.SettingsFileName)
			if _, err := os.Stat(path); err == nil && !initForce {
				return fmt.Errorf("%s already exists, pass --force to overwrite", path)
			}
			if err := config.WriteSettingsFile(path, cfg.Settings()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing settings file")
	cmd.AddCommand(initCmd)

	return cmd
}
