// Package main implements vtmux, a terminal session multiplexer.
// vtmux runs any number of child processes under their own PTYs,
// keeps an in-memory virtual screen current for each one, and routes
// the physical terminal's input to whichever session is active.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/dodorz/vtmux/internal/config"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	debugMode   bool
	logFile     string
	sessionCmd  string
	sessionName string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vtmux",
		Short: "Terminal session multiplexer",
		Long: `vtmux - terminal session multiplexer

Runs multiple terminal sessions at once, each under its own PTY with
its own virtual screen, and switches the physical terminal between
them. Background sessions keep running and their screens stay current.

Press the leader key (default ctrl+b) followed by:
  1-9   switch to session N
  n     next session
  p     previous session
  q     quit`,
		Example: `  # Run the sessions from the config file
  vtmux

  # Run a single command instead of the configured sessions
  vtmux --command htop

  # Run with debug logging to a file
  vtmux --debug --log-file /tmp/vtmux.log`,
		Version: version,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runLocal()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a file (the terminal itself is occupied)")
	rootCmd.Flags().StringVar(&sessionCmd, "command", "", "Run a single command instead of the configured sessions")
	rootCmd.Flags().StringVar(&sessionName, "name", "", "Session name for --command")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vtmux configuration",
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Create a commented default configuration file if none exists,
and print its location.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := config.LoadUserConfig(); err != nil {
				return err
			}
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	configCmd.AddCommand(configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s", version, commit, date)),
	); err != nil {
		os.Exit(1)
	}
}
