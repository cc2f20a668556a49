package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	logLevelFlag string
	logFileFlag  string

	rootCmd = &cobra.Command{
		Use:   "directoryd",
		Short: "mesh routing directory service",
	}

	stopCh chan os.Signal
)

func init() {
	stopCh = make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "console", "log output path, or \"console\" for stderr")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
