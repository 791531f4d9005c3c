package gateway

import "github.com/nsahay2509/crypto-trade-dashboard/internal/model"

// TradesResponse is the REST response for /api/v1/trades.
type TradesResponse struct {
	Trades      []model.TradeRow `json:"trades"`
	Count       int              `json:"count"`
	TotalProfit float64          `json:"total_profit"`
}

// ErrorResponse is the body of every non-2xx REST reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
