package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"billmailer/internal/config"
	"billmailer/internal/dispatch"
	"billmailer/internal/logging"
	"billmailer/internal/mailer"
	"billmailer/internal/notifications"
	"billmailer/internal/services"
)

// ErrBatchRunning is returned when another batch holds the workspace lock.
var ErrBatchRunning = errors.New("another billmailer batch is already running")

// Options describes one batch invocation.
type Options struct {
	RosterPath  string
	ArchivePath string
	Month       string
	Year        string
	DryRun      bool
}

// Cycle returns the billing cycle label used in subjects and notifications.
func (o Options) Cycle() string {
	month := cases.Upper(language.Und).String(strings.TrimSpace(o.Month))
	return strings.TrimSpace(month + " " + strings.TrimSpace(o.Year))
}

func (o Options) validate() error {
	if strings.TrimSpace(o.RosterPath) == "" {
		return services.Wrap(services.ErrValidation, "batch", "options", "roster path is required", nil)
	}
	if strings.TrimSpace(o.ArchivePath) == "" {
		return services.Wrap(services.ErrValidation, "batch", "options", "archive path is required", nil)
	}
	return nil
}

// Report is the outcome of one Run.
type Report struct {
	BatchID     string
	Cycle       string
	DryRun      bool
	Plan        *Plan
	Results     []dispatch.Result
	Summary     dispatch.Summary
	Started     time.Time
	Duration    time.Duration
	Interrupted bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithTransport replaces the transport normally built from configuration.
func WithTransport(t mailer.Transport) Option {
	return func(r *Runner) {
		r.transport = t
	}
}

// WithResultHook receives every dispatch result as soon as it is known.
func WithResultHook(fn func(dispatch.Result)) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// Runner coordinates one mailing batch: lock, load, match, dispatch, notify.
type Runner struct {
	cfg       *config.Config
	base      *slog.Logger
	logger    *slog.Logger
	notifier  notifications.Service
	transport mailer.Transport
	onResult  func(dispatch.Result)
	lockPath  string
	now       func() time.Time
}

// New constructs a Runner. A nil notifier disables notifications.
func New(cfg *config.Config, logger *slog.Logger, notifier notifications.Service, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("batch runner requires config")
	}
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	r := &Runner{
		cfg:      cfg,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "batch"),
		notifier: notifier,
		lockPath: cfg.LockPath(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes a batch. A delivery failure for one entry does not make Run
// fail; callers inspect Report.Summary. Run returns an error for problems
// that stop the batch before or during dispatch. When ctx is cancelled
// mid-batch the partial report is returned together with the context error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := r.cfg.ValidateSMTP(); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "batch", "smtp", "", err)
		}
	}

	unlock, err := r.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	batchID := uuid.NewString()
	ctx = services.WithBatchID(ctx, batchID)
	logger := logging.WithContext(ctx, r.logger)

	report := &Report{
		BatchID: batchID,
		Cycle:   opts.Cycle(),
		DryRun:  opts.DryRun,
		Started: r.now(),
	}

	logger.Info("batch started",
		logging.String("roster", opts.RosterPath),
		logging.String("archive", opts.ArchivePath),
		logging.String("cycle", report.Cycle),
		logging.Bool("dry_run", opts.DryRun),
	)

	composer, err := mailer.NewComposer(mailer.ComposerConfig{
		From:            r.cfg.SMTP.From,
		Society:         r.cfg.Mail.Society,
		Month:           opts.Month,
		Year:            opts.Year,
		SubjectTemplate: r.cfg.Mail.SubjectTemplate,
		BodyTemplate:    r.cfg.Mail.BodyTemplate,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "templates", "", err)
	}

	plan, err := r.Plan(ctx, opts)
	if err != nil {
		r.notifyError(ctx, logger, err, "loading inputs")
		return nil, err
	}
	report.Plan = plan

	if err := r.notifier.NotifyBatchStarted(ctx, report.Cycle, len(plan.Entries), len(plan.Documents)); err != nil {
		logger.Warn("batch start notification failed", logging.Error(err))
	}

	d := dispatch.New(r.transportFor(opts.DryRun), composer,
		dispatch.WithLogger(r.base),
		dispatch.WithResultHook(r.onResult),
	)
	report.Results = d.Dispatch(ctx, plan.Groups)
	report.Summary = dispatch.Summarize(report.Results)
	report.Duration = r.now().Sub(report.Started)
	report.Interrupted = len(report.Results) < len(plan.Groups)

	logger.Info("batch finished",
		logging.Int("sent", report.Summary.Sent),
		logging.Int("skipped", report.Summary.Skipped),
		logging.Int("failed", report.Summary.Failed),
		logging.Int("unmatched_documents", len(plan.Unmatched)),
		logging.Duration("duration", report.Duration),
		logging.Bool("interrupted", report.Interrupted),
	)

	// Use a fresh context so a Ctrl-C still reports what was sent.
	notifyCtx := context.WithoutCancel(ctx)
	if err := r.notifier.NotifyBatchCompleted(notifyCtx, report.Cycle,
		report.Summary.Sent, report.Summary.Skipped, report.Summary.Failed, report.Duration); err != nil {
		logger.Warn("batch completion notification failed", logging.Error(err))
	}

	if report.Interrupted {
		return report, fmt.Errorf("batch interrupted after %d of %d entries: %w",
			len(report.Results), len(plan.Groups), context.Cause(ctx))
	}
	return report, nil
}

func (r *Runner) acquireLock() (func(), error) {
	if err := os.MkdirAll(r.cfg.Paths.StateDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "lock", "create state directory", err)
	}
	lock := flock.New(r.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrBatchRunning, r.lockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release batch lock", logging.Error(err))
		}
	}, nil
}

func (r *Runner) transportFor(dryRun bool) mailer.Transport {
	if r.transport != nil {
		return r.transport
	}
	if dryRun {
		return mailer.NewDryRunTransport(r.base)
	}
	return mailer.NewSMTPTransport(mailer.SMTPConfig{
		Host:     r.cfg.SMTP.Host,
		Port:     r.cfg.SMTP.Port,
		Username: r.cfg.SMTP.Username,
		Password: r.cfg.SMTP.Password,
	})
}

func (r *Runner) notifyError(ctx context.Context, logger *slog.Logger, err error, label string) {
	logger.Error("batch aborted", logging.String("stage", label), logging.Error(err))
	if nerr := r.notifier.NotifyError(context.WithoutCancel(ctx), err, label); nerr != nil {
		logger.Warn("error notification failed", logging.Error(nerr))
	}
}
