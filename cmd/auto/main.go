package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/auto/internal/config"
	"github.com/vango-dev/auto/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬ ┬┌┬┐┌─┐
  ├─┤│ │ │ │ │
  ┴ ┴└─┘ ┴ └─┘
`

// configPath is the --config flag shared by all commands.
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "auto",
		Short: "Declarative lifecycle bookkeeping for Go components",
		Long: `auto augments component structs with automatic change detection,
stream subscription management and resource cleanup.

This command runs a reference tick feed server, a demo component
driven by that feed, and inspection tools for annotated classes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to auto.yaml (default: ./auto.yaml if present)")

	// Add commands
	rootCmd.AddCommand(
		serveCmd(),
		demoCmd(),
		inspectCmd(),
		initCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		var ae *errors.Error
		if stderrors.As(err, &ae) {
			errors.PrintError(ae)
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig loads --config, else ./auto.yaml if present, else defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if config.Exists(".") {
		return config.Load(".")
	}
	return config.New(), nil
}

// newLogger builds the process logger from cfg and installs it as the
// slog default. The returned level can be changed while running.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, level
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
