package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smap/internal/mcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the decoded-mappings cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached mapping list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mcache.Open("smap")
		if err != nil {
			return fmt.Errorf("failed to open mapping cache: %w", err)
		}
		if err := c.DropAll(); err != nil {
			return fmt.Errorf("failed to clear %s: %w", c.Dir(), err)
		}
		if !current.quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", c.Dir())
		}
		return nil
	},
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mcache.Open("smap")
		if err != nil {
			return fmt.Errorf("failed to open mapping cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheDirCmd)
}
