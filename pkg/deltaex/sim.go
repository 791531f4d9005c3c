package deltaex

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// defaultSimPrice seeds symbols the simulator was not given a start price for.
const defaultSimPrice = 1000.0

// Simulator serves random-walk tickers in the Delta Exchange response
// shape so the bot can run without network access. Each request advances
// the requested symbol by one step.
type Simulator struct {
	mu     sync.Mutex
	prices map[string]float64
	rng    *rand.Rand
	now    func() time.Time

	// MaxStep is the largest fractional move per request (0.001 = ±0.1%).
	MaxStep float64
}

// NewSimulator creates a simulator. Equal seeds yield equal price paths.
func NewSimulator(seed int64, start map[string]float64) *Simulator {
	prices := make(map[string]float64, len(start))
	for sym, p := range start {
		prices[strings.ToUpper(sym)] = p
	}
	return &Simulator{
		prices:  prices,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		MaxStep: 0.001,
	}
}

// Handler routes GET /v2/tickers/{symbol} and /health.
func (s *Simulator) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v2/tickers/{symbol}", s.handleTicker).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"tickersim"}`))
	})
	return r
}

// walk applies one random step to symbol and returns the new price and a
// random traded volume.
func (s *Simulator) walk(symbol string) (price, volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[symbol]
	if !ok {
		price = defaultSimPrice
	}
	pct := (s.rng.Float64()*2 - 1) * s.MaxStep
	price *= 1 + pct
	if price < 0.01 {
		price = 0.01
	}
	s.prices[symbol] = price
	return price, float64(s.rng.Intn(100) + 1)
}

func (s *Simulator) handleTicker(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	price, volume := s.walk(symbol)
	p := strconv.FormatFloat(price, 'f', 2, 64)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"result": map[string]any{
			"symbol":     symbol,
			"close":      p,
			"mark_price": p,
			"spot_price": p,
			"volume":     volume,
			"timestamp":  s.now().UnixMicro(),
		},
	})
}
