package main

import (
	"fmt"

	"github.com/pofactory/po-translator/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the translation cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache location and entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := openCache()
			if err != nil {
				return err
			}
			defer cleanup()
			fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s\nEntries: %d\n", store.Path(), store.Len())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := openCache()
			if err != nil {
				return err
			}
			defer cleanup()
			n := store.Len()
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached translation(s) from %s\n", n, store.Path())
			return nil
		},
	})

	return cmd
}

func openCache() (*cache.Cache, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, err
	}
	store, err := cache.Open(cfg.Paths.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}
