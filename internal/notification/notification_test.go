package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func TestEntryAlert(t *testing.T) {
	pos := model.Position{
		TradeNo: 3, Direction: model.Long, EntryPrice: 100, EntryTime: t0, ExtremePrice: 100,
		Params: model.TradeParams{TakeProfitPct: 0.02, StopLossPct: 0.005, TrailingMarginPct: 0.005},
	}
	a := EntryAlert("BTCUSD", pos)
	assert.Equal(t, AlertInfo, a.Level)
	assert.Equal(t, "BTCUSD LONG entered", a.Title)
	assert.Equal(t, "99.50", a.Fields["stop_loss"])
	assert.Equal(t, "102.00", a.Fields["take_profit"])
	assert.Equal(t, t0, a.TS)
}

func TestExitAlert_LossIsWarning(t *testing.T) {
	row := model.TradeRow{TradeNo: 4, Direction: model.Short, Closed: true, ExitReason: model.ExitStopLoss,
		ExitPrice: 100.6, NetProfit: -0.07, CumulativeProfit: 1.2, ExitTime: t0}
	a := ExitAlert("BTCUSD", row, "EXIT SHORT: Stop-loss hit | Loss: $0.06")
	assert.Equal(t, AlertWarning, a.Level)
	assert.Equal(t, "BTCUSD SHORT closed: STOP_LOSS", a.Title)
	assert.Equal(t, "-0.0700", a.Fields["net_profit"])
}

func TestFieldsText_Sorted(t *testing.T) {
	a := Alert{Fields: map[string]string{"b": "2", "a": "1"}}
	assert.Equal(t, "a: 1\nb: 2", a.FieldsText())
}

func TestWebhookNotifier_Send(t *testing.T) {
	var got struct {
		Source string `json:"source"`
		Alert
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
	err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "t", Message: "m", Fields: map[string]string{"k": "v"}, TS: t0})
	require.NoError(t, err)
	assert.Equal(t, "tradebot", got.Source)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "v", got.Fields["k"])
	assert.True(t, got.TS.Equal(t0))
}

func TestWebhookNotifier_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down\n"))
	}))
	defer srv.Close()

	err := NewWebhookNotifier(WebhookConfig{URL: srv.URL}).Send(context.Background(), Alert{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "upstream down", se.Body)
}

func TestTelegramNotifier_Send(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(TelegramConfig{Token: "TOKEN", ChatID: "42", APIBase: srv.URL + "/"})
	err := n.Send(context.Background(), Alert{Level: AlertWarning, Title: "BTCUSD <SHORT>", Message: "Loss: $0.06", Fields: map[string]string{"trade_no": "4"}})
	require.NoError(t, err)

	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "HTML", payload["parse_mode"])
	text := payload["text"].(string)
	assert.True(t, strings.Contains(text, "<b>BTCUSD &lt;SHORT&gt;</b>"), text)
	assert.True(t, strings.Contains(text, "Loss: $0.06"), text)
	assert.True(t, strings.Contains(text, "<pre>trade_no: 4</pre>"), text)
}

func TestTelegramText_NoFields(t *testing.T) {
	text := telegramText(Alert{Level: AlertInfo, Title: "a&b", Message: "m"})
	assert.Equal(t, "📈 <b>a&amp;b</b>\nm", text)
}

type stubNotifier struct {
	err   error
	calls int
	dl    bool
}

func (s *stubNotifier) Send(ctx context.Context, _ Alert) error {
	s.calls++
	_, s.dl = ctx.Deadline()
	return s.err
}

func TestMulti_SendsToAll(t *testing.T) {
	boom := errors.New("down")
	a, b := &stubNotifier{err: boom}, &stubNotifier{}
	m := NewMulti(time.Second, a, nil, b, NewLogNotifier(nil))
	assert.Equal(t, 3, m.Len())

	err := m.Send(context.Background(), Alert{Title: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.True(t, b.dl, "per-send timeout applied")
}
