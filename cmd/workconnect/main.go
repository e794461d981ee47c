// Package main provides the workconnect command line client. It keeps a
// session in the configured token store across invocations.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/workconnect/session/internal/app"
	"github.com/workconnect/session/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	Version = "0.1.0"
	appName = "workconnect"
)

// cli carries the wired client from PersistentPreRunE to each command.
type cli struct {
	logLevel string
	app      *app.App
	logger   *zap.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "WorkConnect marketplace client",
		Long: `workconnect talks to the WorkConnect job marketplace API.

The session is kept in the token store selected by STORE_BACKEND and is
refreshed transparently when the access token expires.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}

	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		loginCmd(c),
		registerCmd(c),
		logoutCmd(c),
		statusCmd(c),
		refreshCmd(c),
		jobsCmd(c),
		navigateCmd(c),
		watchCmd(c),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(strings.ToLower(c.logLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.logLevel, err)
	}
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	c.logger = logger

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	c.app = a
	return nil
}

func (c *cli) teardown() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	_ = c.logger.Sync()
	return err
}
