package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"billmailer/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var (
		roster  string
		archive string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories, inputs, credentials, and the SMTP relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{
				Inputs: preflight.Inputs{
					RosterPath:  strings.TrimSpace(roster),
					ArchivePath: strings.TrimSpace(archive),
				},
				SkipNetwork: offline,
			})

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			if ctx.configSeen {
				fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config", statusWarn, "no config file; defaults in use", colorize))
			}
			for _, line := range preflightLines(results, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo,
				"ntfy "+yesNo(strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""), colorize))

			if !preflight.AllPassed(results) {
				return preflightError(results)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}

	cmd.Flags().StringVarP(&roster, "roster", "r", "", "Roster spreadsheet to check")
	cmd.Flags().StringVarP(&archive, "archive", "a", "", "Bill archive to check")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the SMTP relay connection check")
	return cmd
}
