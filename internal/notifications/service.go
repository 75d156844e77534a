package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"billmailer/internal/config"
)

const (
	userAgent      = "billmailer/0.1.0"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 2048
)

// Service defines the notification surface exposed to the batch runner.
type Service interface {
	NotifyBatchStarted(ctx context.Context, cycle string, entries, documents int) error
	NotifyBatchCompleted(ctx context.Context, cycle string, sent, skipped, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when a topic is
// configured, and a no-op service otherwise.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	n := cfg.Notifications
	topic := strings.TrimSpace(n.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ntfyService{
		topic:  topic,
		client: &http.Client{Timeout: timeout},
		enabled: map[event]bool{
			eventStarted:   n.BatchStart,
			eventCompleted: n.BatchComplete,
			eventError:     n.Errors,
			eventTest:      true,
		},
	}
}

type event int

const (
	eventStarted event = iota
	eventCompleted
	eventError
	eventTest
)

// notice is one ntfy publish: the body plus the Title, Tags and Priority
// headers.
type notice struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	topic   string
	client  *http.Client
	enabled map[event]bool
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, cycle string, entries, documents int) error {
	return n.publish(ctx, eventStarted, notice{
		title: "billmailer - Batch Started",
		body:  fmt.Sprintf("📨 Mailing %s bills: %d residents, %d documents", cycleLabel(cycle), entries, documents),
		tags:  []string{"billmailer", "batch", "started"},
	})
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, cycle string, sent, skipped, failed int, duration time.Duration) error {
	elapsed := max(duration.Round(time.Second), 0)
	msg := notice{
		title: "billmailer - Batch Complete",
		body:  fmt.Sprintf("✅ %s bills: %d sent, %d skipped in %s", cycleLabel(cycle), sent, skipped, elapsed),
		tags:  []string{"billmailer", "batch", "completed"},
	}
	if failed > 0 {
		msg.title += " (with failures)"
		msg.body = fmt.Sprintf("⚠️ %s bills: %d sent, %d skipped, %d failed in %s", cycleLabel(cycle), sent, skipped, failed, elapsed)
		msg.priority = "high"
	}
	return n.publish(ctx, eventCompleted, msg)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	prefix := "❌ Error"
	if label = strings.TrimSpace(label); label != "" {
		prefix += " with " + label
	}
	return n.publish(ctx, eventError, notice{
		title:    "billmailer - Error",
		body:     prefix + ": " + detail,
		tags:     []string{"billmailer", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.publish(ctx, eventTest, notice{
		title:    "billmailer - Test",
		body:     "🧪 Notification system test",
		tags:     []string{"billmailer", "test"},
		priority: "low",
	})
}

func (n *ntfyService) publish(ctx context.Context, kind event, msg notice) error {
	if !n.enabled[kind] {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topic, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return fmt.Errorf("read ntfy response: %w", readErr)
	}
	return nil
}

func cycleLabel(cycle string) string {
	if cycle = strings.TrimSpace(cycle); cycle != "" {
		return cycle
	}
	return "unlabelled"
}

type noopService struct{}

func (noopService) NotifyBatchStarted(context.Context, string, int, int) error { return nil }
func (noopService) NotifyBatchCompleted(context.Context, string, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
