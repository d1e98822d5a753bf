package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"arb-executor/internal/config"
)

// fillVerificationThreshold is the fraction of expected leg spend that a
// wallet balance delta must clear to count as "filled" when the venue's own
// API response doesn't carry a filledQty. Deliberately loose: Polygon gas
// and stablecoin price noise make an exact match unreliable, and a missed
// fill is far more expensive (a naked leg) than an occasional false positive.
const fillVerificationThreshold = 0.5

// Executor is the cross-venue execution core described by the package
// doc comment. One Executor instance owns the pause flag and the per-market
// cooldown map; callers must serialize calls to ExecuteBest for a given
// instance (this module has no caller-side trading loop; cmd/agent only
// wires the Executor up).
type Executor struct {
	cfg    config.ExecutorConfig
	logger *slog.Logger
	dryRun bool

	venues  map[string]VenueClient
	metas   map[string]MarketMetaResolver
	onchain OnChainReader
	wallet  WalletAccount

	venueWallets   map[string]string // venue name -> funding wallet address
	reliableVenues map[string]bool

	mu              sync.Mutex
	paused          bool
	marketCooldowns map[string]time.Time

	positions *PositionBook

	// statusPollLimiter paces PollForFills's GetOrderStatus calls (one per
	// leg on each iteration, made one after the other) across both venues so a tight FillPollInterval can't burst both venue
	// rate limiters (internal/venue/clob.RateLimiter) at once.
	statusPollLimiter *rate.Limiter
}

// Deps bundles the collaborators an Executor is constructed with.
type Deps struct {
	Venues         map[string]VenueClient
	Metas          map[string]MarketMetaResolver
	OnChain        OnChainReader
	Wallet         WalletAccount
	VenueWallets   map[string]string // venue name -> address that funds orders there
	ReliableVenues map[string]bool
}

// New constructs an Executor. initialCooldowns may be nil; when non-nil it
// seeds the cooldown map from persisted state (see internal/store).
func New(cfg config.ExecutorConfig, dryRun bool, logger *slog.Logger, deps Deps, initialCooldowns map[string]time.Time) *Executor {
	cooldowns := initialCooldowns
	if cooldowns == nil {
		cooldowns = make(map[string]time.Time)
	}
	return &Executor{
		cfg:               cfg,
		logger:            logger.With("component", "executor"),
		dryRun:            dryRun,
		venues:            deps.Venues,
		metas:             deps.Metas,
		onchain:           deps.OnChain,
		wallet:            deps.Wallet,
		venueWallets:      deps.VenueWallets,
		reliableVenues:    deps.ReliableVenues,
		marketCooldowns:   cooldowns,
		positions:         NewPositionBook(),
		statusPollLimiter: newStatusPollLimiter(cfg.FillPollInterval),
	}
}

// newStatusPollLimiter allows two GetOrderStatus round-trips (one per leg)
// per FillPollInterval, with a burst of two so the very first poll iteration
// doesn't wait. Falls back to unlimited when the interval isn't configured
// (e.g. a zero-value config in a unit test).
func newStatusPollLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(interval/2), 2)
}

// Paused reports whether the pause gate is currently engaged.
func (e *Executor) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Unpause clears the pause gate explicitly (operator intervention after a
// systematic unwind failure has been investigated).
func (e *Executor) Unpause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
}

// Cooldowns returns a snapshot of the live cooldown map, for persistence.
func (e *Executor) Cooldowns() map[string]time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]time.Time, len(e.marketCooldowns))
	for k, v := range e.marketCooldowns {
		out[k] = v
	}
	return out
}

// Positions returns the in-memory book of positions opened this process
// lifetime, for CloseResolved and for status reporting.
func (e *Executor) Positions() *PositionBook {
	return e.positions
}

// cooldownActive checks and lazily purges an expired cooldown entry.
// Returns true if marketId is still under cooldown.
func (e *Executor) cooldownActive(marketID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	until, ok := e.marketCooldowns[marketID]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(e.marketCooldowns, marketID)
		return false
	}
	return true
}

func (e *Executor) setCooldown(marketID string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.marketCooldowns[marketID] = time.Now().Add(d)
}

func (e *Executor) setPaused(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = v
}

// sleep blocks for d or until ctx is cancelled, whichever comes first.
// Every fixed delay in the placer and unwinder goes through this instead of
// a bare time.Sleep so shutdown can interrupt a pending verification wait.
func (e *Executor) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// errDeclined is the sentinel outcome for an execution that opened no
// position: a pre-flight failure (no venue call made), or a rejected
// unreliable-leg placement (nothing filled, cooldown set). ExecuteBest
// returns it wrapped, together with a nil position.
var errDeclined = fmt.Errorf("declined")

// IsDeclined reports whether err is, or wraps, the declined sentinel.
func IsDeclined(err error) bool {
	return errors.Is(err, errDeclined)
}
