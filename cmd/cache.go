package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oleoflores/planta-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove all cached pipeline results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := store.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer cache.Close()

		n, err := cache.Purge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("purged %d cached results\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
