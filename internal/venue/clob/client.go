// Package clob implements executor.VenueClient against a CLOB-shaped REST
// API: EIP-712/HMAC authenticated order placement, cancellation, and status
// polling, over a rate-limited, retrying resty.Client. Grounded on the
// teacher's internal/exchange package (client.go, auth.go, ratelimit.go),
// generalized from Polymarket-specific batch-order plumbing to the single
// order operations the execution core needs.
package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"arb-executor/internal/executor"
)

// Client is one venue's REST adapter. A process constructs two — one per
// venue — and registers them with the Executor under the venue names used
// in incoming ArbitOpportunity values.
type Client struct {
	name   string
	http   *resty.Client
	auth   *Auth
	rl     *RateLimiter
	dryRun bool
	logger *slog.Logger
}

// Config is everything a Client needs to talk to one venue.
type Config struct {
	Name          string
	BaseURL       string
	PrivateKeyHex string
	ChainID       int64
	FunderAddress string
	Creds         Credentials
	DryRun        bool
}

// NewClient constructs a venue REST adapter. Matches the teacher's resty
// setup in exchange/client.go: 10s timeout, 3 retries on error or 5xx,
// 500ms-5s backoff.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	auth, err := NewAuth(cfg.PrivateKeyHex, cfg.ChainID, cfg.FunderAddress, cfg.Creds)
	if err != nil {
		return nil, fmt.Errorf("new auth: %w", err)
	}

	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Client{
		name:   cfg.Name,
		http:   h,
		auth:   auth,
		rl:     NewRateLimiter(),
		dryRun: cfg.DryRun,
		logger: logger.With("component", "clob-client", "venue", cfg.Name),
	}, nil
}

func (c *Client) Name() string { return c.name }

// Authenticate derives L2 API credentials via L1 EIP-712 auth if they are
// not already configured, mirroring engine.New's bring-up sequence in the
// teacher (DeriveAPIKey called once before trading if HasL2Credentials is false).
func (c *Client) Authenticate(ctx context.Context) error {
	if c.auth.HasL2Credentials() {
		return nil
	}
	headers, err := c.auth.L1Headers(0)
	if err != nil {
		return fmt.Errorf("l1 headers: %w", err)
	}

	var out Credentials
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetResult(&out).
		Post("/auth/derive-api-key")
	if err != nil {
		return fmt.Errorf("derive api key: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("derive api key: venue returned %s", resp.Status())
	}
	c.auth.SetCredentials(out)
	return nil
}

type placeOrderRequest struct {
	TokenID      string  `json:"tokenId"`
	Side         string  `json:"side"`
	Price        float64 `json:"price"`
	Size         float64 `json:"size"`
	IsFillOrKill bool    `json:"isFillOrKill"`
	Maker        string  `json:"maker"`
}

type placeOrderResponse struct {
	Success   bool     `json:"success"`
	OrderID   string   `json:"orderId"`
	Status    string   `json:"status"`
	FilledQty *float64 `json:"filledQty"`
	Error     string   `json:"error"`
}

// PlaceOrder submits one order. In dry-run mode it returns a synthetic
// success with no network call, matching the teacher's dry-run fast path.
func (c *Client) PlaceOrder(ctx context.Context, params executor.PlaceOrderParams) (executor.PlaceOrderResult, error) {
	if c.dryRun {
		return executor.PlaceOrderResult{
			Success: true,
			OrderID: fmt.Sprintf("dry-run-%s-%d", c.name, time.Now().UnixNano()),
			Status:  "live",
		}, nil
	}

	if err := c.rl.Order.Wait(ctx); err != nil {
		return executor.PlaceOrderResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	body := placeOrderRequest{
		TokenID:      params.TokenID,
		Side:         string(params.Side),
		Price:        params.Price,
		Size:         params.Size,
		IsFillOrKill: params.IsFillOrKill,
		Maker:        c.auth.FunderAddress().Hex(),
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return executor.PlaceOrderResult{}, fmt.Errorf("marshal order: %w", err)
	}

	headers, err := c.auth.L2Headers("POST", "/order", string(bodyJSON))
	if err != nil {
		return executor.PlaceOrderResult{}, fmt.Errorf("l2 headers: %w", err)
	}

	var out placeOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		SetResult(&out).
		Post("/order")
	if err != nil {
		return executor.PlaceOrderResult{}, fmt.Errorf("place order: %w", err)
	}
	if resp.IsError() {
		return executor.PlaceOrderResult{Success: false, Error: resp.Status()}, nil
	}

	return executor.PlaceOrderResult{
		Success: out.Success, OrderID: out.OrderID, Status: out.Status,
		FilledQty: out.FilledQty, Error: out.Error,
	}, nil
}

// CancelOrder cancels one resting order.
func (c *Client) CancelOrder(ctx context.Context, orderID, tokenID string) (bool, error) {
	if c.dryRun {
		return true, nil
	}
	if err := c.rl.Cancel.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	headers, err := c.auth.L2Headers("DELETE", "/order/"+orderID, "")
	if err != nil {
		return false, fmt.Errorf("l2 headers: %w", err)
	}

	resp, err := c.http.R().SetContext(ctx).SetHeaders(headers).Delete("/order/" + orderID)
	if err != nil {
		return false, fmt.Errorf("cancel order: %w", err)
	}
	return !resp.IsError(), nil
}

type orderStatusResponse struct {
	Status        string  `json:"status"`
	FilledSize    float64 `json:"filledSize"`
	RemainingSize float64 `json:"remainingSize"`
}

// GetOrderStatus polls the venue for an order's current state. The teacher's
// client never needed this (it only ever cancels), so it's new plumbing
// following the same rate-limited, L2-signed GET pattern as GetAvailableBalance.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (executor.OrderStatusResult, error) {
	if c.dryRun {
		return executor.OrderStatusResult{Status: "FILLED"}, nil
	}
	if err := c.rl.Status.Wait(ctx); err != nil {
		return executor.OrderStatusResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	headers, err := c.auth.L2Headers("GET", "/order/"+orderID, "")
	if err != nil {
		return executor.OrderStatusResult{}, fmt.Errorf("l2 headers: %w", err)
	}

	var out orderStatusResponse
	resp, err := c.http.R().SetContext(ctx).SetHeaders(headers).SetResult(&out).Get("/order/" + orderID)
	if err != nil {
		return executor.OrderStatusResult{}, fmt.Errorf("get order status: %w", err)
	}
	if resp.IsError() {
		return executor.OrderStatusResult{Status: "UNKNOWN"}, nil
	}
	return executor.OrderStatusResult{
		Status: out.Status, FilledSize: out.FilledSize, RemainingSize: out.RemainingSize,
	}, nil
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

// GetAvailableBalance implements executor.BalanceQuerier: queries shares
// unlocked (not tied up in open orders) for a token.
func (c *Client) GetAvailableBalance(ctx context.Context, tokenID string) (float64, error) {
	if c.dryRun {
		return 0, nil
	}
	if err := c.rl.Status.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	headers, err := c.auth.L2Headers("GET", "/balance-allowance", "")
	if err != nil {
		return 0, fmt.Errorf("l2 headers: %w", err)
	}

	var out balanceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParam("asset_id", tokenID).
		SetResult(&out).
		Get("/balance-allowance")
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("get balance: venue returned %s", resp.Status())
	}
	return out.Balance, nil
}

var _ executor.VenueClient = (*Client)(nil)
var _ executor.BalanceQuerier = (*Client)(nil)
