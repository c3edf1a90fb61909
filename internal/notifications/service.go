package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autouploader/internal/config"
)

const userAgent = "autouploader/1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyPublished(ctx context.Context, title, postURL string) error
	NotifyUpdated(ctx context.Context, title, postURL string) error
	NotifyMerged(ctx context.Context, title string, deletedDuplicate bool) error
	NotifyFailed(ctx context.Context, filename string, err error) error
	NotifyDrainCompleted(ctx context.Context, processed, failed, discarded int, duration time.Duration) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		filter:   cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	filter   config.Notifications
}

func (n *ntfyService) NotifyPublished(ctx context.Context, title, postURL string) error {
	if !n.filter.Published {
		return nil
	}
	return n.send(ctx, payload{
		title:   "AutoUploader - Posted",
		message: withURL(fmt.Sprintf("✅ Posted: %s", strings.TrimSpace(title)), postURL),
		tags:    []string{"autouploader", "post", "published"},
	})
}

func (n *ntfyService) NotifyUpdated(ctx context.Context, title, postURL string) error {
	if !n.filter.Published {
		return nil
	}
	return n.send(ctx, payload{
		title:   "AutoUploader - Updated",
		message: withURL(fmt.Sprintf("🔄 Updated with new links: %s", strings.TrimSpace(title)), postURL),
		tags:    []string{"autouploader", "post", "updated"},
	})
}

func (n *ntfyService) NotifyMerged(ctx context.Context, title string, deletedDuplicate bool) error {
	if !n.filter.Merged {
		return nil
	}
	message := fmt.Sprintf("🔀 Merged duplicate posts: %s", strings.TrimSpace(title))
	if !deletedDuplicate {
		message += "\nDuplicate post left in place"
	}
	return n.send(ctx, payload{
		title:   "AutoUploader - Duplicates Merged",
		message: message,
		tags:    []string{"autouploader", "post", "merged"},
	})
}

func (n *ntfyService) NotifyFailed(ctx context.Context, filename string, err error) error {
	if !n.filter.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Upload failed")
	if filename = strings.TrimSpace(filename); filename != "" {
		builder.WriteString(" for ")
		builder.WriteString(filename)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "AutoUploader - Error",
		message:  builder.String(),
		tags:     []string{"autouploader", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyDrainCompleted(ctx context.Context, processed, failed, discarded int, duration time.Duration) error {
	if !n.filter.Queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "AutoUploader - Queue Complete"
	message := fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, duration)
	if failed > 0 || discarded > 0 {
		title = "AutoUploader - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed, %d discarded in %s", processed, failed, discarded, duration)
	}
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"autouploader", "queue", "completed"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "AutoUploader - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"autouploader", "test"},
		priority: "low",
	})
}

func withURL(message, postURL string) string {
	if postURL = strings.TrimSpace(postURL); postURL != "" {
		return message + "\n" + postURL
	}
	return message
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

func (noopService) NotifyPublished(context.Context, string, string) error                    { return nil }
func (noopService) NotifyUpdated(context.Context, string, string) error                      { return nil }
func (noopService) NotifyMerged(context.Context, string, bool) error                         { return nil }
func (noopService) NotifyFailed(context.Context, string, error) error                        { return nil }
func (noopService) NotifyDrainCompleted(context.Context, int, int, int, time.Duration) error { return nil }
func (noopService) TestNotification(context.Context) error                                   { return nil }
