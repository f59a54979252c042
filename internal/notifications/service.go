package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsync/internal/config"
)

const userAgent = "reelsync/0.1.0"

// Service defines the notification surface exposed to sync components.
type Service interface {
	NotifySyncStarted(ctx context.Context, source string) error
	NotifySyncCompleted(ctx context.Context, watched, watchlist int, duration time.Duration) error
	NotifySyncFailed(ctx context.Context, err error, stage string) error
	NotifyUnmatched(ctx context.Context, count int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		syncComplete: cfg.Notifications.SyncComplete,
		errors:       cfg.Notifications.Errors,
		unmatched:    cfg.Notifications.Unmatched,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	syncComplete bool
	errors       bool
	unmatched    bool
}

func (n *ntfyService) NotifySyncStarted(ctx context.Context, source string) error {
	if !n.syncComplete {
		return nil
	}
	source = strings.TrimSpace(source)
	data := payload{
		title:   "Reelsync - Sync Started",
		message: fmt.Sprintf("Started syncing watch history from %s", source),
		tags:    []string{"reelsync", "sync", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, watched, watchlist int, duration time.Duration) error {
	if !n.syncComplete {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}
	data := payload{
		title:   "Reelsync - Sync Complete",
		message: fmt.Sprintf("Synced %d watched and %d watchlist movies in %s", watched, watchlist, durationText),
		tags:    []string{"reelsync", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncFailed(ctx context.Context, err error, stage string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Sync failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" during ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelsync - Error",
		message:  builder.String(),
		tags:     []string{"reelsync", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUnmatched(ctx context.Context, count int) error {
	if !n.unmatched || count == 0 {
		return nil
	}
	data := payload{
		title:   "Reelsync - Unmatched Movies",
		message: fmt.Sprintf("%d movies could not be matched\nSee the not_found CSV files", count),
		tags:    []string{"reelsync", "unmatched", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsync - Test",
		message:  "Notification system test",
		tags:     []string{"reelsync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySyncStarted(context.Context, string) error                     { return nil }
func (noopService) NotifySyncCompleted(context.Context, int, int, time.Duration) error  { return nil }
func (noopService) NotifySyncFailed(context.Context, error, string) error               { return nil }
func (noopService) NotifyUnmatched(context.Context, int) error                          { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
