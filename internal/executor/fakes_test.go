package executor

import (
	"context"
	"fmt"
	"sync"
)

// fakeVenueClient is a scriptable VenueClient test double: PlaceOrder
// results and GetOrderStatus sequences are queued up front and consumed in
// call order, mirroring the teacher's client_test.go style of constructing a
// component against canned fixtures rather than a mock framework.
type fakeVenueClient struct {
	mu sync.Mutex

	name string

	placeQueue []PlaceOrderResult
	placeCalls []PlaceOrderParams

	// statusQueues is keyed by orderID; each GetOrderStatus call for that
	// orderID pops the next entry, repeating the last once the queue drains.
	statusQueues map[string][]OrderStatusResult
	statusCalls  []string

	cancelCalls []string

	nextOrderID int
}

func newFakeVenue(name string) *fakeVenueClient {
	return &fakeVenueClient{name: name, statusQueues: map[string][]OrderStatusResult{}}
}

func (f *fakeVenueClient) Name() string { return f.name }

func (f *fakeVenueClient) Authenticate(ctx context.Context) error { return nil }

func (f *fakeVenueClient) PlaceOrder(ctx context.Context, params PlaceOrderParams) (PlaceOrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.placeCalls = append(f.placeCalls, params)
	if len(f.placeQueue) == 0 {
		return PlaceOrderResult{Success: false, Error: "fakeVenueClient: no queued result"}, nil
	}
	res := f.placeQueue[0]
	f.placeQueue = f.placeQueue[1:]

	if res.Success && res.OrderID == "" {
		f.nextOrderID++
		res.OrderID = fmt.Sprintf("%s-o%d", f.name, f.nextOrderID)
	}
	return res, nil
}

func (f *fakeVenueClient) CancelOrder(ctx context.Context, orderID, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls = append(f.cancelCalls, orderID)
	return true, nil
}

func (f *fakeVenueClient) GetOrderStatus(ctx context.Context, orderID string) (OrderStatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, orderID)

	q := f.statusQueues[orderID]
	if len(q) == 0 {
		return OrderStatusResult{Status: "UNKNOWN"}, nil
	}
	next := q[0]
	if len(q) > 1 {
		f.statusQueues[orderID] = q[1:]
	}
	return next, nil
}

func (f *fakeVenueClient) placeCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.placeCalls)
}

// fakeMetaResolver returns a fixed MarketMeta regardless of marketID.
type fakeMetaResolver struct {
	meta MarketMeta
}

func (r *fakeMetaResolver) GetMarketMeta(ctx context.Context, marketID string) (MarketMeta, error) {
	return r.meta, nil
}

// fakeOnChainReader returns fixed balances keyed by owner address, and
// configurable payout denominators / CTF balances keyed by conditionID /
// tokenID for resolution-detection tests.
type fakeOnChainReader struct {
	mu         sync.Mutex
	balances   map[string]float64
	denominators map[string]uint64
	ctfBalances  map[string]float64
}

func (r *fakeOnChainReader) ReadBalance(ctx context.Context, tokenAddress, owner string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[owner], nil
}

func (r *fakeOnChainReader) PayoutDenominator(ctx context.Context, conditionID string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.denominators[conditionID], nil
}

func (r *fakeOnChainReader) CTFBalance(ctx context.Context, owner, tokenID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctfBalances[tokenID], nil
}

// fakeWallet is a scriptable WalletAccount: Redeem calls are recorded and
// either all succeed or are queued to fail for specific conditionIDs.
type fakeWallet struct {
	mu          sync.Mutex
	address     string
	redeemCalls []string // conditionID per call
	failFor     map[string]bool
}

func (w *fakeWallet) Address() string { return w.address }

func (w *fakeWallet) Redeem(ctx context.Context, conditionID string, indexSets []uint64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.redeemCalls = append(w.redeemCalls, conditionID)
	if w.failFor[conditionID] {
		return "", fmt.Errorf("redeem %s: reverted", conditionID)
	}
	return "0xdeadbeef", nil
}
