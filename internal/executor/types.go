// Package executor implements the cross-venue arbitrage execution core: it
// turns a detected ArbitOpportunity into a sized, placed, verified pair of
// orders, unwinds naked legs when one side fails to fill, and redeems
// resolved positions on-chain. Detection, quote normalization, and market
// discovery are the caller's concern; this package only executes.
package executor

import (
	"context"
	"time"

	"arb-executor/pkg/types"
)

// ClobPositionStatus is the lifecycle state of a placed arbitrage position.
type ClobPositionStatus string

const (
	StatusOpen    ClobPositionStatus = "OPEN"
	StatusFilled  ClobPositionStatus = "FILLED"
	StatusPartial ClobPositionStatus = "PARTIAL"
	StatusExpired ClobPositionStatus = "EXPIRED"
	StatusClosed  ClobPositionStatus = "CLOSED"
)

// ClobLegSide is BUY or SELL for a single leg, aliased to the shared
// pkg/types vocabulary so venue adapters and the executor agree on one
// representation of order side.
type ClobLegSide = types.Side

const (
	LegBuy  = types.BUY
	LegSell = types.SELL
)

// ArbitOpportunity describes a detected cross-venue arbitrage: buying the YES
// outcome on protocolA and the NO outcome on protocolB (or vice versa,
// indicated by BuyYesOnA) such that the summed cost is below one dollar.
// Prices are fractions in [0, 1]; liquidity and totalCost are USDT.
type ArbitOpportunity struct {
	MarketID    string
	ProtocolA   string
	ProtocolB   string
	BuyYesOnA   bool
	YesPriceA   float64
	NoPriceB    float64
	TotalCost   float64
	SpreadBps   int
	EstProfit   float64
	LiquidityA  float64
	LiquidityB  float64
	QuotedAtUTC time.Time
}

// MarketMeta resolves a marketId to the venue-native token identifiers
// needed to place an order.
type MarketMeta struct {
	ConditionID string
	YesTokenID  string
	NoTokenID   string
}

// ClobLeg records one placed (or attempted) order.
type ClobLeg struct {
	Platform    string
	OrderID     string
	TokenID     string
	Side        ClobLegSide
	Price       float64
	Size        float64
	Filled      bool
	FilledSize  float64
}

// ClobPosition is the outcome of one ExecuteBest call: the pair of legs it
// placed (or attempted) and the resulting lifecycle state.
type ClobPosition struct {
	ID             string
	MarketID       string
	Status         ClobPositionStatus
	LegA           ClobLeg
	LegB           ClobLeg
	TotalCost      float64
	ExpectedPayout float64
	SpreadBps      int
	OpenedAt       time.Time
	ClosedAt       *time.Time
}

// PlaceOrderParams is what a VenueClient needs to place one leg.
type PlaceOrderParams struct {
	MarketID     string
	TokenID      string
	Side         ClobLegSide
	Price        float64
	Size         float64
	IsFillOrKill bool
}

// PlaceOrderResult is the venue's immediate response to a placement request.
// FilledQty, when the venue reports it, is authoritative: an explicit zero is
// treated as "did not fill" without falling back to balance verification.
type PlaceOrderResult struct {
	Success   bool
	OrderID   string
	Status    string
	FilledQty *float64
	Error     string
}

// OrderStatusResult is the venue's answer to a status poll.
type OrderStatusResult struct {
	Status        string // "OPEN", "PARTIAL", "FILLED", "CANCELLED", "EXPIRED", "UNKNOWN"
	FilledSize    float64
	RemainingSize float64
}

// VenueClient is the protocol-agnostic interface to one trading venue.
// Implementations live in internal/venue/*.
type VenueClient interface {
	Name() string
	Authenticate(ctx context.Context) error
	PlaceOrder(ctx context.Context, params PlaceOrderParams) (PlaceOrderResult, error)
	CancelOrder(ctx context.Context, orderID, tokenID string) (bool, error)
	GetOrderStatus(ctx context.Context, orderID string) (OrderStatusResult, error)
}

// BalanceQuerier is an optional VenueClient capability: venues that expose an
// unlocked-balance query let the unwinder size its SELL exactly instead of
// falling back to the computed filled-size / price estimate.
type BalanceQuerier interface {
	GetAvailableBalance(ctx context.Context, tokenID string) (float64, error)
}

// MarketMetaResolver resolves venue-native token identifiers for a market.
type MarketMetaResolver interface {
	GetMarketMeta(ctx context.Context, marketID string) (MarketMeta, error)
}

// OnChainReader provides read access to chain state needed for balance
// verification and resolution detection.
type OnChainReader interface {
	ReadBalance(ctx context.Context, tokenAddress, owner string) (float64, error)
	PayoutDenominator(ctx context.Context, conditionID string) (uint64, error)
	CTFBalance(ctx context.Context, owner, tokenID string) (float64, error)
}

// WalletAccount signs and submits the on-chain redemption transaction.
type WalletAccount interface {
	Address() string
	Redeem(ctx context.Context, conditionID string, indexSets []uint64) (txHash string, err error)
}
