package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/composer/internal/config"
	"github.com/zeusync/composer/internal/engine"
	"github.com/zeusync/composer/internal/injector"
)

const version = "v0.1.0"

// app holds what PersistentPreRunE builds for the subcommands.
type app struct {
	configFile string
	logLevel   string

	cfg     *config.Config
	engine  *engine.Engine
	cleanup func()
}

// newRootCmd returns the command tree and the app it populates. Callers must
// call app.close after Execute, whether or not it failed, so the logger is
// flushed on failing runs too.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "composer",
		Short:         "Composer composes strategies, decorators, commands and observers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./composer.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newDemoCmd(a))
	root.AddCommand(newServeCmd(a))
	return root, a
}

func (a *app) init() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err = cfg.Validate(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}

	eng, cleanup, err := injector.InitializeEngine(cfg)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.engine = eng
	a.cleanup = cleanup
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}
