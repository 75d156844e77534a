package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"billmailer/internal/batch"
	"billmailer/internal/dispatch"
	"billmailer/internal/notifications"
	"billmailer/internal/preflight"
	"billmailer/internal/services"
)

type batchFlags struct {
	roster  string
	archive string
	month   string
	year    string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.roster, "roster", "r", "", "Roster spreadsheet (.xlsx or .csv)")
	cmd.Flags().StringVarP(&f.archive, "archive", "a", "", "Zip archive of bill documents")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("archive")
}

func (f *batchFlags) options() batch.Options {
	return batch.Options{
		RosterPath:  strings.TrimSpace(f.roster),
		ArchivePath: strings.TrimSpace(f.archive),
		Month:       f.month,
		Year:        f.year,
	}
}

func newSendCommand(ctx *commandContext) *cobra.Command {
	var (
		flags   batchFlags
		dryRun  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Mail each resident the bill documents for their flat",
		Long: `Load the roster and the bill archive, match documents to flats by
normalized identifier, and send one email per matched resident.

Residents without a matching document are skipped. A failed delivery does
not stop the batch; the command exits non-zero when any delivery failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			opts := flags.options()
			opts.DryRun = dryRun

			out := cmd.OutOrStdout()
			colorize := !jsonOut && shouldColorize(out)

			checks := preflight.RunAll(cmd.Context(), cfg, preflight.Options{
				Inputs:          preflight.Inputs{RosterPath: opts.RosterPath, ArchivePath: opts.ArchivePath},
				SkipNetwork:     dryRun,
				SkipCredentials: dryRun,
			})
			if !preflight.AllPassed(checks) {
				for _, line := range preflightLines(checks, colorize) {
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
				return preflightError(checks)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var runnerOpts []batch.Option
			if !jsonOut {
				runnerOpts = append(runnerOpts, batch.WithResultHook(func(res dispatch.Result) {
					fmt.Fprintln(out, resultLine(res, colorize))
				}))
			}
			runner, err := batch.New(cfg, logger, notifications.NewService(cfg), runnerOpts...)
			if err != nil {
				return err
			}

			report, runErr := runner.Run(runCtx, opts)
			if report != nil {
				if jsonOut {
					if err := writeJSON(cmd, newSendReportJSON(report)); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(out)
					fmt.Fprint(out, renderSendReport(report))
				}
			}
			if runErr != nil {
				return runErr
			}
			if report.Summary.Failed > 0 {
				return services.Wrap(services.ErrDelivery, "send", "",
					fmt.Sprintf("%d of %d deliveries failed", report.Summary.Failed, report.Summary.Total()), nil)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.month, "month", "", "Billing month shown in the subject (e.g. AUG)")
	cmd.Flags().StringVar(&flags.year, "year", "", "Billing year shown in the subject (e.g. 25)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compose and log every message without contacting the relay")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the batch report as JSON")
	return cmd
}

// preflightError classifies failed checks: unreadable inputs take precedence
// over environment problems so the exit status points at the files.
func preflightError(results []preflight.Result) error {
	var failed []string
	marker := services.ErrConfiguration
	for _, r := range results {
		if r.Passed {
			continue
		}
		failed = append(failed, r.Name)
		if r.Name == preflight.CheckRoster || r.Name == preflight.CheckArchive {
			marker = services.ErrInput
		}
	}
	if len(failed) == 0 {
		return errors.New("preflight failed")
	}
	return services.Wrap(marker, "preflight", "", "failed checks: "+strings.Join(failed, ", "), nil)
}
