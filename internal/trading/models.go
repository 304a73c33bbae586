package trading

import (
	"gorm.io/gorm"
)

// LegRecord is one journal row: a leg submission and its outcome. The
// journal is best-effort telemetry for the operator, not a durable order
// store; the broker's own order book stays the source of truth.
type LegRecord struct {
	gorm.Model   `json:"-"`
	BatchID      string  `gorm:"index" json:"batch_id"`
	LegIndex     int     `json:"leg_index"`
	StockCode    string  `json:"stock_code"`
	ExchangeCode string  `json:"exchange_code"`
	Action       string  `json:"action"`
	OrderType    string  `json:"order_type"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Right        string  `json:"right"`
	StrikePrice  float64 `json:"strike_price"`
	ExpiryDate   string  `json:"expiry_date"`
	OrderID      string  `json:"order_id"`
	Success      bool    `json:"success"`
	Error        string  `json:"error"`
}
