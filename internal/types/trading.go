package types

// Action values accepted by the broker API.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Right values for an option contract.
const (
	RightCall = "call"
	RightPut  = "put"
)

// OrderLeg is one option contract order within a potentially multi-leg
// strategy: instrument, strike, right, action and quantity. Legs are
// immutable once submitted; LegIndex is assigned from the position of the
// leg in the submitted batch.
type OrderLeg struct {
	LegIndex     int     `json:"leg_index"`
	StockCode    string  `json:"stock_code"`
	ExchangeCode string  `json:"exchange_code"`
	Product      string  `json:"product"`
	Action       string  `json:"action"`     // buy or sell
	OrderType    string  `json:"order_type"` // market or limit
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Stoploss     float64 `json:"stoploss"`
	ExpiryDate   string  `json:"expiry_date"`
	Right        string  `json:"right"` // call or put
	StrikePrice  float64 `json:"strike_price"`
	UserRemark   string  `json:"user_remark"`
}

// LegResult is the outcome of a single leg submission. A batch of N legs
// always yields exactly N results, sorted by LegIndex.
type LegResult struct {
	LegIndex int    `json:"leg_index"`
	Success  bool   `json:"success"`
	OrderID  string `json:"order_id"`
	Error    string `json:"error,omitempty"`
}

// Credentials is the broker credential triple presented on /connect. The
// secret is write-only: accepted on input, never echoed back or logged.
type Credentials struct {
	APIKey       string `json:"api_key"`
	APISecret    string `json:"api_secret"`
	SessionToken string `json:"session_token"`
}

// ModifyRequest carries the mutable fields of a pending order.
type ModifyRequest struct {
	OrderID      string `json:"order_id"`
	ExchangeCode string `json:"exchange_code"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	Stoploss     string `json:"stoploss"`
	Validity     string `json:"validity"`
}

// CancelRequest identifies a pending order to cancel.
type CancelRequest struct {
	OrderID      string `json:"order_id"`
	ExchangeCode string `json:"exchange_code"`
}
