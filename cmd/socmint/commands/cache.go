package commands

import (
	"fmt"
	"os"

	"socmint/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects or clears the profile cache.",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the cached profiles and whether they expired.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		entries, err := newCache(cfg, telemetry.SlogAPI{}).Entries()
		if err != nil {
			return err
		}
		entriesTable(os.Stdout, entries).Render()
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Removes every cached profile.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := newCache(cfg, telemetry.SlogAPI{})
		removed, err := c.Clear()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "removed %d cached profiles from %s\n", removed, c.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
