package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"billmailer/internal/batch"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		flags   batchFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which documents each resident would receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			runner, err := batch.New(cfg, logger, nil)
			if err != nil {
				return err
			}

			plan, err := runner.Plan(cmd.Context(), flags.options())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, newPlanJSON(plan))
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPlan(plan))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the plan as JSON")
	return cmd
}
