package notification

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
)

const telegramAPI = "https://api.telegram.org"

// TelegramConfig configures a Telegram Bot API notifier.
type TelegramConfig struct {
	Token   string // from @BotFather
	ChatID  string
	APIBase string       // default: https://api.telegram.org
	Client  *http.Client // default: 10s timeout
	Logger  *slog.Logger
}

// TelegramNotifier posts trade alerts to a chat as HTML messages.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = telegramAPI
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramNotifier{
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		apiBase: base,
		client:  httpClient(cfg.Client),
		logger:  logger.With("notifier", "telegram"),
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	err := postJSON(ctx, t.client, "telegram", url, map[string]any{
		"chat_id":                  t.chatID,
		"text":                     telegramText(alert),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}
	t.logger.DebugContext(ctx, "alert delivered", "title", alert.Title)
	return nil
}

// telegramText renders an alert as Telegram HTML: bold title, message line
// and the fields in a preformatted block.
func telegramText(a Alert) string {
	var b strings.Builder
	b.WriteString(levelIcon(a.Level))
	b.WriteString(" <b>")
	b.WriteString(html.EscapeString(a.Title))
	b.WriteString("</b>\n")
	b.WriteString(html.EscapeString(a.Message))
	if len(a.Fields) > 0 {
		b.WriteString("\n<pre>")
		b.WriteString(html.EscapeString(a.FieldsText()))
		b.WriteString("</pre>")
	}
	return b.String()
}

func levelIcon(l AlertLevel) string {
	switch l {
	case AlertWarning:
		return "⚠️"
	case AlertCritical:
		return "🚨"
	default:
		return "📈"
	}
}
