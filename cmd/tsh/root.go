package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tsh/internal/config"
	"tsh/internal/shell"
)

// NewCommand builds the tsh root command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsh [-hvp]",
		Short: "A tiny shell with job control",
		Long: "A tiny shell with job control.\n\n" +
			"Reads command lines from standard input and runs them as foreground or\n" +
			"background jobs. Printing this help with -h exits with status 0; an\n" +
			"unknown flag or a positional argument exits with status 1.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			setupLogging(cfg.Verbose)

			s, err := shell.New(cfg)
			if err != nil {
				return fmt.Errorf("error initializing shell: %w", err)
			}
			return s.Run()
		},
	}
	cmd.SilenceUsage = true
	config.BindFlags(cmd.Flags())
	return cmd
}

// setupLogging sends diagnostics to stderr; -v lowers the level to debug.
func setupLogging(verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}
