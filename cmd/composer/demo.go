package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeusync/composer/internal/scenario"
)

func newDemoCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a demonstration scenario",
		Long: `Run a scenario that registers strategies, builds a decorator chain,
executes commands through the invoker and publishes notifications.
Without --scenario the built-in scenario is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScenario(file)
			if err != nil {
				return err
			}
			_, err = scenario.Run(cmd.Context(), a.engine, s, nil, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "scenario", "s", "", "scenario file (.yaml, .yml or .json)")
	return cmd
}

func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return scenario.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return scenario.LoadJSON(f)
	}
	return scenario.LoadYAML(f)
}
