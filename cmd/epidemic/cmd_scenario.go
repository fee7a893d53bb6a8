package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ljavorsk/IMS-project/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := config.Load(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			p := sc.EpidemicParams()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d regions, %d days, R0=%.2f)\n",
				sc.Name, len(sc.Regions), sc.Days, p.R0())
			if !p.ThetaInRange() {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: theta=%g is outside [0,1]\n", p.Theta)
			}
			return nil
		},
	}
}

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario",
		Short: "Print the embedded reference scenario as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(config.ReferenceYAML())
			return err
		},
	}
}

// loadScenario returns the file at path or the embedded reference.
func loadScenario(path string) (*config.Scenario, error) {
	var (
		sc  *config.Scenario
		err error
	)
	if path == "" {
		sc, err = config.Reference()
	} else {
		sc, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return sc, nil
}
