package notification

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/tracker/entity"
	"github.com/blankon/sitetrack/pkg/httputil"
)

// WebhookPayload represents the notification payload sent to webhook
type WebhookPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// Webhook posts submission notices to a chat webhook. Deliveries run in the
// background; Wait drains them.
type Webhook struct {
	url      string
	client   *http.Client
	retries  int
	delay    time.Duration
	deadline time.Duration
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewWebhook returns a notifier. An empty url disables sending but keeps logging.
func NewWebhook(url string, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		retries:  3,
		delay:    2 * time.Second,
		deadline: time.Minute,
		logger:   logger,
	}
}

// IssueSubmitted announces a new escalation.
func (w *Webhook) IssueSubmitted(ctx context.Context, issue entity.Issue) {
	related := issue.RelatedTo
	if related == "" {
		related = "-"
	}
	title := fmt.Sprintf("New issue #%d", issue.ID)
	message := fmt.Sprintf("⚠️ %s [%s] by %s: %s", issue.Status, related, issue.StaffName, truncate(issue.IssueDetail, 200))
	w.send(ctx, WebhookPayload{Title: title, Message: message, URL: issue.ImageURL})
}

// ProgressSubmitted announces a progress update.
func (w *Webhook) ProgressSubmitted(ctx context.Context, progress entity.Progress) {
	emoji := "🏗️"
	if progress.Status == 100 {
		emoji = "✅"
	}
	title := fmt.Sprintf("Progress update: %s", progress.TaskName)
	message := fmt.Sprintf("%s %s %d%% by %s", emoji, progress.TaskName, progress.Status, progress.UpdateBy)
	w.send(ctx, WebhookPayload{Title: title, Message: message, URL: progress.ImageURL})
}

// Wait blocks until every queued delivery has finished.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

func (w *Webhook) send(ctx context.Context, payload WebhookPayload) {
	w.logger.Info("notification", zap.String("title", payload.Title), zap.String("message", payload.Message))

	if w.url == "" {
		w.logger.Debug("notification webhook URL not configured, skipping")
		return
	}

	// The request that triggered the notice may end before delivery does.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.deadline)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		w.deliver(ctx, payload)
	}()
}

func (w *Webhook) deliver(ctx context.Context, payload WebhookPayload) {
	err := httputil.PostJSONWithRetry(ctx, w.client, w.url, payload, w.retries, w.delay,
		func(attempt, max int, err error) {
			w.logger.Warn("notification attempt failed",
				zap.Int("attempt", attempt), zap.Int("max", max), zap.Error(err))
		})
	if err != nil {
		w.logger.Error("failed to send notification", zap.String("title", payload.Title), zap.Error(err))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
