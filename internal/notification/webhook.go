package notification

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// WebhookConfig configures a generic JSON webhook notifier.
type WebhookConfig struct {
	URL    string
	Source string       // default: "tradebot"
	Client *http.Client // default: 10s timeout
	Logger *slog.Logger
}

// WebhookNotifier POSTs each alert as JSON, tagged with its source.
type WebhookNotifier struct {
	url    string
	source string
	client *http.Client
	logger *slog.Logger
}

type webhookPayload struct {
	Source string `json:"source"`
	Alert
}

func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	source := cfg.Source
	if source == "" {
		source = "tradebot"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		url:    cfg.URL,
		source: source,
		client: httpClient(cfg.Client),
		logger: logger.With("notifier", "webhook"),
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	if alert.TS.IsZero() {
		alert.TS = time.Now()
	}
	alert.TS = alert.TS.UTC()

	if err := postJSON(ctx, w.client, "webhook", w.url, webhookPayload{Source: w.source, Alert: alert}); err != nil {
		return err
	}
	w.logger.DebugContext(ctx, "alert delivered", "title", alert.Title)
	return nil
}
