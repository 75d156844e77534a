package batch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"billmailer/internal/attachments"
	"billmailer/internal/logging"
	"billmailer/internal/matcher"
	"billmailer/internal/roster"
	"billmailer/internal/services"
)

// Plan is the join of roster and archive before anything is sent.
type Plan struct {
	Entries   []roster.Entry
	Documents []attachments.Document
	Groups    []matcher.Group
	// Unmatched lists documents no roster entry claimed, in archive order.
	Unmatched []attachments.Document
}

// Matched counts groups that will receive at least one document.
func (p *Plan) Matched() int {
	n := 0
	for _, g := range p.Groups {
		if g.Matched() {
			n++
		}
	}
	return n
}

// Plan loads the roster and the archive concurrently and matches them. Either
// load failing aborts the plan; nothing partial is returned.
func (r *Runner) Plan(ctx context.Context, opts Options) (*Plan, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return buildPlan(ctx, logging.WithContext(ctx, r.logger), opts, roster.Options{
		FlatColumn:  r.cfg.Roster.FlatColumn,
		EmailColumn: r.cfg.Roster.EmailColumn,
		Sheet:       r.cfg.Roster.Sheet,
	})
}

func buildPlan(ctx context.Context, logger *slog.Logger, opts Options, rosterOpts roster.Options) (*Plan, error) {
	var (
		entries []roster.Entry
		docs    []attachments.Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		loaded, err := roster.Load(opts.RosterPath, rosterOpts)
		if err != nil {
			return services.Wrap(services.ErrInput, "roster", "load", "", err)
		}
		entries = loaded
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		extracted, err := attachments.Extract(opts.ArchivePath)
		if err != nil {
			return services.Wrap(services.ErrInput, "attachments", "extract", "", err)
		}
		docs = extracted
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := &Plan{
		Entries:   entries,
		Documents: docs,
		Groups:    matcher.Match(entries, docs),
		Unmatched: matcher.Unmatched(entries, docs),
	}

	logger.Info("inputs matched",
		logging.Int("entries", len(plan.Entries)),
		logging.Int("documents", len(plan.Documents)),
		logging.Int("matched_entries", plan.Matched()),
		logging.Int("unmatched_documents", len(plan.Unmatched)),
	)
	for _, doc := range plan.Unmatched {
		logger.Warn("document matches no roster entry", logging.String("document", doc.Name))
	}
	return plan, nil
}
