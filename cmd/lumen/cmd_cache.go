package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the content cache",
}

var cachePathCmd = &cobra.Command{
	Use:   "path [url]",
	Short: "Print the cache directory, or the cached path of a URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			fmt.Fprintln(out, e.client.CacheDir())
			return nil
		}
		path, ok := e.client.CachePath(args[0])
		if !ok {
			return fmt.Errorf("not cached: %s", args[0])
		}
		fmt.Fprintln(out, path)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge <url>",
	Short: "Drop the cached entry for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		return e.client.PurgeEntry(args[0])
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached entry",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		return e.client.ClearCache()
	},
}

func init() {
	cacheCmd.AddCommand(cachePathCmd, cachePurgeCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
