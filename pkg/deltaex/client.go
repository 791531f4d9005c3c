// Package deltaex is a minimal client for the Delta Exchange public REST
// ticker endpoint. It is the bot's price feed.
//
//	c := deltaex.NewClient(deltaex.Config{})
//	tick, err := c.FetchTick(ctx, "BTCUSD")
package deltaex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

const (
	DefaultBaseURL = "https://cdn.india.deltaex.org/v2/tickers"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// ErrUnavailable means no usable tick this cycle. Callers pause and retry.
var ErrUnavailable = errors.New("deltaex: ticker unavailable")

// Config configures the client.
type Config struct {
	BaseURL    string        // default: DefaultBaseURL
	Timeout    time.Duration // default: 10s
	HTTPClient *http.Client  // optional; Timeout is ignored when set
	UserAgent  string
}

// Client fetches tickers.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	now       func() time.Time
}

// NewClient builds a client with defaults applied.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "tradebot/1"
	}
	return &Client{baseURL: base, userAgent: ua, http: hc, now: time.Now}
}

// Ticker is the subset of the ticker payload the bot uses. Numeric fields
// arrive as either JSON numbers or strings.
type Ticker struct {
	Symbol    string `json:"symbol"`
	Close     Float  `json:"close"`
	MarkPrice Float  `json:"mark_price"`
	SpotPrice Float  `json:"spot_price"`
	Volume    Float  `json:"volume"`
	Timestamp Float  `json:"timestamp"`
}

type tickerResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// Ticker fetches the raw ticker for symbol.
func (c *Client) Ticker(ctx context.Context, symbol string) (Ticker, error) {
	u := c.baseURL + "/" + url.PathEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Ticker{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Ticker{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Ticker{}, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Ticker{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var env tickerResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return Ticker{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" || string(env.Result) == "{}" {
		return Ticker{}, fmt.Errorf("%w: empty result for %s", ErrUnavailable, symbol)
	}
	var t Ticker
	if err := json.Unmarshal(env.Result, &t); err != nil {
		return Ticker{}, fmt.Errorf("%w: decode result: %v", ErrUnavailable, err)
	}
	return t, nil
}

// FetchTick returns the latest close, volume and normalized tick time.
func (c *Client) FetchTick(ctx context.Context, symbol string) (model.PriceSample, error) {
	t, err := c.Ticker(ctx, symbol)
	if err != nil {
		return model.PriceSample{}, err
	}
	price := float64(t.Close)
	if price <= 0 {
		return model.PriceSample{}, fmt.Errorf("%w: no close price for %s", ErrUnavailable, symbol)
	}

	ts := c.now().UTC().Truncate(time.Second)
	if raw := int64(t.Timestamp); raw > 0 {
		ts = time.Unix(model.EpochSeconds(raw), 0).UTC()
	}
	return model.PriceSample{Price: price, Volume: float64(t.Volume), TS: ts}, nil
}

// Float decodes a JSON number, a numeric string, or null (as 0).
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("deltaex: invalid number %q", s)
	}
	*f = Float(v)
	return nil
}
