package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var fetchFlags struct {
	purge  bool
	bypass bool
	output string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Retrieve a resource's raw bytes through the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.BoolVar(&fetchFlags.purge, "purge", false, "Drop any cached entry before fetching")
	f.BoolVar(&fetchFlags.bypass, "bypass", false, "Fetch without touching the cache")
	f.StringVarP(&fetchFlags.output, "output", "o", "", "Write bytes to this file instead of stdout")
	fetchCmd.MarkFlagsMutuallyExclusive("purge", "bypass")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	rc, err := e.client.Open(cmd.Context(),
		args[0], cacheDirective(fetchFlags.purge, fetchFlags.bypass))
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	var w io.Writer = cmd.OutOrStdout()
	if fetchFlags.output != "" {
		f, err := os.Create(fetchFlags.output)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	n, err := io.Copy(w, rc)
	if err != nil {
		return err
	}
	if fetchFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", n, fetchFlags.output)
	}
	return nil
}
