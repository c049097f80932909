// Command hdmfcheck exercises the mapping core end to end against a
// namespace fixture: it loads a Specification, builds a toy container for
// a chosen data type, prints the resulting builder tree, and constructs a
// container back from it to confirm the round trip.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hdmfcheck",
		Short:         "Drive the container/builder mapping core against a namespace fixture",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.AddCommand(newBuildCmd())
	return root
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if s, _ := cmd.Flags().GetString("log-level"); s != "" {
		_ = level.UnmarshalText([]byte(s))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
