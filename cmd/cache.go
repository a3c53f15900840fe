package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/proxymancer/internal/cache"
	"github.com/arcanaland/proxymancer/internal/config"
)

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:               "cache",
	Short:             "Inspect or clear the card data cache",
	PersistentPreRunE: setupLogging,
}

var cacheListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached card records",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		store, err := cache.New(config.GetCacheDir(), log)
		if err != nil {
			return err
		}
		entries, err := store.List()
		if err != nil {
			return fmt.Errorf("error reading cache: %v", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "The card cache is empty.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				colorize.CyanString("%-40s", e.Key),
				formatCard(e.Card, true, true, false))
		}
		log.Info(fmt.Sprintf("%d cached cards in %s", len(entries), store.Dir()))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached card records and previews",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		store, err := cache.New(config.GetCacheDir(), log)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("error clearing cache: %v", err)
		}
		log.Info("Cache cleared", "path", store.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
}
