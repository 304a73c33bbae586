package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/types"
)

const (
	defaultBaseURL = "https://api.icicidirect.com/breezeapi/api/v1"
	brokerTimeout  = 30 * time.Second
	timestampFmt   = "2006-01-02T15:04:05.000Z"
)

// Client is the live broker REST client. Every call is signed with the
// session's checksum scheme and serialized through the rate gate. The
// broker protocol itself is treated as a black box: payload in, Response
// envelope out.
type Client struct {
	httpc *http.Client
	base  string
	store *SessionStore
	gate  *Gate
}

// NewClient returns a live client bound to the given session store and gate.
func NewClient(store *SessionStore, gate *Gate) *Client {
	return &Client{
		httpc: &http.Client{Timeout: brokerTimeout},
		base:  defaultBaseURL,
		store: store,
		gate:  gate,
	}
}

// Authenticate exchanges the credential triple for a broker session. On
// success the store's session is replaced wholesale; on failure the
// previous session, if any, is left untouched and the error carries a
// best-effort hint. Never retried automatically.
func (c *Client) Authenticate(ctx context.Context, creds types.Credentials) (*Session, error) {
	log.Info().
		Str("api_key", truncate(creds.APIKey, 8)).
		Str("session_token", truncate(creds.SessionToken, 8)).
		Msg("authenticating with broker")

	payload := map[string]string{
		"SessionToken": creds.SessionToken,
		"AppKey":       creds.APIKey,
	}

	resp, err := c.gate.Do(ctx, func() (*Response, error) {
		return c.send(ctx, http.MethodGet, "/customerdetails", payload, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%s", AuthHint(err.Error()))
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%s", AuthHint(resp.Error))
	}

	obj := resp.Object()
	token, _ := obj["session_token"].(string)
	if token == "" {
		token = creds.SessionToken
	}
	name, _ := obj["idirect_user_name"].(string)
	email, _ := obj["email_id"].(string)

	sess := &Session{
		APIKey:       creds.APIKey,
		SessionToken: token,
		CustomerName: name,
		Email:        email,
		ConnectedAt:  time.Now(),
		apiSecret:    creds.APISecret,
	}
	c.store.Replace(sess)

	log.Info().Str("session", truncate(token, 12)).Msg("broker session established")
	return sess, nil
}

// PlaceOrder submits one leg. The broker wants every numeric as a string
// and a capitalized right, so the leg is translated here and nowhere else.
func (c *Client) PlaceOrder(ctx context.Context, leg types.OrderLeg) (*Response, error) {
	payload := map[string]string{
		"stock_code":         leg.StockCode,
		"exchange_code":      defaultStr(leg.ExchangeCode, "NFO"),
		"product":            defaultStr(leg.Product, "options"),
		"action":             strings.ToLower(defaultStr(leg.Action, types.ActionBuy)),
		"order_type":         strings.ToLower(defaultStr(leg.OrderType, "market")),
		"stoploss":           formatFloat(leg.Stoploss),
		"quantity":           strconv.Itoa(leg.Quantity),
		"price":              formatFloat(leg.Price),
		"validity":           "day",
		"validity_date":      leg.ExpiryDate,
		"disclosed_quantity": "0",
		"expiry_date":        leg.ExpiryDate,
		"right":              NormalizeRight(leg.Right),
		"strike_price":       formatFloat(leg.StrikePrice),
		"user_remark":        defaultStr(leg.UserRemark, "BreezeGateway"),
	}
	return c.call(ctx, http.MethodPost, "/order", payload)
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, orderID, exchangeCode string) (*Response, error) {
	payload := map[string]string{
		"order_id":      orderID,
		"exchange_code": defaultStr(exchangeCode, "NFO"),
	}
	return c.call(ctx, http.MethodDelete, "/order", payload)
}

// ModifyOrder updates price/quantity/stoploss on a pending order.
func (c *Client) ModifyOrder(ctx context.Context, req types.ModifyRequest) (*Response, error) {
	payload := map[string]string{
		"order_id":      req.OrderID,
		"exchange_code": defaultStr(req.ExchangeCode, "NFO"),
		"quantity":      req.Quantity,
		"price":         req.Price,
		"stoploss":      defaultStr(req.Stoploss, "0"),
		"validity":      defaultStr(req.Validity, "day"),
	}
	return c.call(ctx, http.MethodPut, "/order", payload)
}

// OptionChain fetches a full chain snapshot. Called once per expiry change
// by the dashboard, never in a polling loop.
func (c *Client) OptionChain(ctx context.Context, q ChainQuery) (*Response, error) {
	payload := map[string]string{
		"stock_code":    q.StockCode,
		"exchange_code": defaultStr(q.ExchangeCode, "NFO"),
		"product_type":  defaultStr(q.ProductType, "options"),
		"expiry_date":   q.ExpiryDate,
		"right":         NormalizeRight(q.Right),
		"strike_price":  q.StrikePrice,
	}
	return c.call(ctx, http.MethodGet, "/optionchain", payload)
}

// Quote fetches a single instrument quote. An empty expiry/right/strike
// asks for the cash-market quote, which is how index spot is read.
func (c *Client) Quote(ctx context.Context, q ChainQuery) (*Response, error) {
	payload := map[string]string{
		"stock_code":    q.StockCode,
		"exchange_code": q.ExchangeCode,
		"expiry_date":   q.ExpiryDate,
		"right":         q.Right,
		"strike_price":  q.StrikePrice,
	}
	if q.ExpiryDate != "" {
		payload["product_type"] = "options"
		payload["right"] = NormalizeRight(q.Right)
	}
	return c.call(ctx, http.MethodGet, "/quotes", payload)
}

// Historical fetches OHLCV candles.
func (c *Client) Historical(ctx context.Context, q HistoricalQuery) (*Response, error) {
	payload := map[string]string{
		"interval":      q.Interval,
		"from_date":     q.FromDate,
		"to_date":       q.ToDate,
		"stock_code":    q.StockCode,
		"exchange_code": q.ExchangeCode,
	}
	if q.ExpiryDate != "" {
		payload["expiry_date"] = q.ExpiryDate
		payload["product_type"] = "options"
	}
	if q.Right != "" {
		payload["right"] = NormalizeRight(q.Right)
	}
	if q.StrikePrice != "" {
		payload["strike_price"] = q.StrikePrice
	}
	return c.call(ctx, http.MethodGet, "/historicalcharts", payload)
}

// OrderList fetches the order book for the given window.
func (c *Client) OrderList(ctx context.Context, from, to time.Time) (*Response, error) {
	return c.call(ctx, http.MethodGet, "/order", bookWindow(from, to))
}

// TradeList fetches the trade book for the given window.
func (c *Client) TradeList(ctx context.Context, from, to time.Time) (*Response, error) {
	return c.call(ctx, http.MethodGet, "/trades", bookWindow(from, to))
}

// Positions fetches open portfolio positions.
func (c *Client) Positions(ctx context.Context) (*Response, error) {
	return c.call(ctx, http.MethodGet, "/portfoliopositions", map[string]string{})
}

// Holdings fetches portfolio holdings.
func (c *Client) Holdings(ctx context.Context) (*Response, error) {
	return c.call(ctx, http.MethodGet, "/portfolioholdings", map[string]string{})
}

// Funds fetches available margin.
func (c *Client) Funds(ctx context.Context) (*Response, error) {
	return c.call(ctx, http.MethodGet, "/funds", map[string]string{})
}

// call routes a signed request through the rate gate using the current
// session. The session is snapshotted once per call, so a concurrent
// re-authentication is observed as either fully old or fully new.
func (c *Client) call(ctx context.Context, method, path string, payload interface{}) (*Response, error) {
	sess := c.store.Current()
	if sess == nil {
		return nil, ErrNotConnected
	}
	return c.gate.Do(ctx, func() (*Response, error) {
		return c.send(ctx, method, path, payload, sess)
	})
}

// send performs one HTTP exchange. A nil session sends the request
// unsigned (only the authentication handshake does that).
func (c *Client) send(ctx context.Context, method, path string, payload interface{}, sess *Session) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if sess != nil {
		ts := time.Now().UTC().Format(timestampFmt)
		sum, err := Checksum(ts, payload, sess.Secret())
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Checksum", "token "+sum)
		req.Header.Set("X-Timestamp", ts)
		req.Header.Set("X-AppKey", sess.APIKey)
		req.Header.Set("X-SessionToken", sess.SessionToken)
	}

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding broker response: %w", err)
	}
	return &resp, nil
}

func bookWindow(from, to time.Time) map[string]string {
	return map[string]string{
		"exchange_code": "NFO",
		"from_date":     from.Format("2006-01-02T15:04:05.000Z"),
		"to_date":       to.Format("2006-01-02T15:04:05.000Z"),
	}
}

// NormalizeRight maps any spelling of an option right onto the broker's
// capitalized form. Anything starting with "c" is a Call, the rest Puts.
func NormalizeRight(right string) string {
	if right == "" || strings.HasPrefix(strings.ToLower(right), "c") {
		return "Call"
	}
	return "Put"
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
