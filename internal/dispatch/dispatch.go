// Package dispatch sends each matched roster entry its documents, one message
// per entry, and records a per-entry outcome. A failed send never stops the
// batch; only context cancellation does.
package dispatch

import (
	"context"
	"log/slog"

	"billmailer/internal/attachments"
	"billmailer/internal/flatkey"
	"billmailer/internal/logging"
	"billmailer/internal/mailer"
	"billmailer/internal/matcher"
	"billmailer/internal/roster"
	"billmailer/internal/services"
)

// Outcome classifies what happened to one roster entry.
type Outcome int

const (
	Sent Outcome = iota
	SkippedNoMatch
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case SkippedNoMatch:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReasonNoMatch is reported for entries whose flat key matched no document.
const ReasonNoMatch = "no matching document"

// Result is the outcome for one roster entry.
type Result struct {
	Entry       roster.Entry
	Outcome     Outcome
	Attachments int
	Err         error
}

// Reason returns a human readable explanation for skipped and failed entries.
func (r Result) Reason() string {
	switch r.Outcome {
	case SkippedNoMatch:
		return ReasonNoMatch
	case Failed:
		if r.Err != nil {
			return r.Err.Error()
		}
		return "unknown error"
	default:
		return ""
	}
}

// Composer renders the message for one entry.
type Composer interface {
	Compose(to string, key flatkey.Key, docs []attachments.Document) (*mailer.Message, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for per-entry log lines.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logging.NewComponentLogger(logger, "dispatch")
	}
}

// WithResultHook registers a callback invoked after every entry, in order.
func WithResultHook(fn func(Result)) Option {
	return func(d *Dispatcher) {
		d.onResult = fn
	}
}

// Dispatcher sends matched groups through a transport.
type Dispatcher struct {
	transport mailer.Transport
	composer  Composer
	logger    *slog.Logger
	onResult  func(Result)
}

// New constructs a Dispatcher.
func New(transport mailer.Transport, composer Composer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		composer:  composer,
		logger:    logging.NewComponentLogger(nil, "dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch processes groups strictly in order. When ctx is done before an
// entry is attempted, the remaining entries are left untouched and the
// results gathered so far are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, groups []matcher.Group) []Result {
	results := make([]Result, 0, len(groups))
	for _, group := range groups {
		if ctx.Err() != nil {
			d.logger.Warn("dispatch interrupted",
				logging.Int("processed", len(results)),
				logging.Int("remaining", len(groups)-len(results)),
				logging.Error(ctx.Err()),
			)
			break
		}
		result := d.dispatchOne(ctx, group)
		results = append(results, result)
		if d.onResult != nil {
			d.onResult(result)
		}
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, group matcher.Group) Result {
	entry := group.Entry
	result := Result{Entry: entry, Attachments: len(group.Documents)}

	ctx = services.WithFlat(ctx, entry.Key.String())
	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldEmail, entry.Email))

	if !group.Matched() {
		result.Outcome = SkippedNoMatch
		logger.Info("no bill found for flat",
			logging.String(logging.FieldOutcome, result.Outcome.String()),
			logging.String("raw", entry.Raw),
			logging.Int("row", entry.Row),
		)
		return result
	}

	msg, err := d.composer.Compose(entry.Email, entry.Key, group.Documents)
	if err == nil {
		err = d.transport.Send(ctx, msg)
	}
	if err != nil {
		result.Outcome = Failed
		result.Err = err
		logger.Warn("bill not sent",
			logging.String(logging.FieldOutcome, result.Outcome.String()),
			logging.Int("attachments", result.Attachments),
			logging.Error(err),
		)
		return result
	}

	result.Outcome = Sent
	logger.Info("bill sent",
		logging.String(logging.FieldOutcome, result.Outcome.String()),
		logging.Int("attachments", result.Attachments),
	)
	return result
}

// Summary counts results per outcome.
type Summary struct {
	Sent    int
	Skipped int
	Failed  int
}

// Total is the number of entries processed.
func (s Summary) Total() int {
	return s.Sent + s.Skipped + s.Failed
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case Sent:
			s.Sent++
		case SkippedNoMatch:
			s.Skipped++
		case Failed:
			s.Failed++
		}
	}
	return s
}
