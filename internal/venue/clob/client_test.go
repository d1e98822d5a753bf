package clob

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"arb-executor/internal/executor"
)

func newDryRunClient() *Client {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &Client{
		name:   "dry-venue",
		dryRun: true,
		rl:     NewRateLimiter(),
		logger: logger,
	}
}

func TestDryRunPlaceOrder(t *testing.T) {
	t.Parallel()
	c := newDryRunClient()

	res, err := c.PlaceOrder(context.Background(), executor.PlaceOrderParams{
		TokenID: "tok1", Side: executor.LegBuy, Price: 0.50, Size: 10, IsFillOrKill: true,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !res.Success {
		t.Error("expected Success = true in dry-run mode")
	}
	if res.OrderID == "" {
		t.Error("expected a non-empty synthetic OrderID")
	}
	if res.Status != "live" {
		t.Errorf("Status = %q, want \"live\"", res.Status)
	}
}

func TestDryRunCancelOrder(t *testing.T) {
	t.Parallel()
	c := newDryRunClient()

	ok, err := c.CancelOrder(context.Background(), "order-1", "tok1")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if !ok {
		t.Error("expected CancelOrder to report success in dry-run mode")
	}
}

func TestDryRunGetOrderStatus(t *testing.T) {
	t.Parallel()
	c := newDryRunClient()

	status, err := c.GetOrderStatus(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if status.Status != "FILLED" {
		t.Errorf("Status = %q, want FILLED (dry-run always reports an immediate fill)", status.Status)
	}
}

func TestDryRunGetAvailableBalance(t *testing.T) {
	t.Parallel()
	c := newDryRunClient()

	bal, err := c.GetAvailableBalance(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("GetAvailableBalance: %v", err)
	}
	if bal != 0 {
		t.Errorf("balance = %v, want 0 in dry-run mode", bal)
	}
}

func TestNewClientSetsNameAndDryRun(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c, err := NewClient(Config{
		Name:          "venue-a",
		BaseURL:       "http://localhost",
		PrivateKeyHex: testPrivateKey,
		ChainID:       137,
		DryRun:        true,
	}, logger)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Name() != "venue-a" {
		t.Errorf("Name() = %q, want venue-a", c.Name())
	}
	if !c.dryRun {
		t.Error("expected dryRun to propagate from Config")
	}
}

func TestAuthenticateSkipsDerivationWhenCredentialsPresent(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c, err := NewClient(Config{
		Name:          "venue-a",
		BaseURL:       "http://localhost",
		PrivateKeyHex: testPrivateKey,
		ChainID:       137,
		Creds:         Credentials{ApiKey: "k", Secret: "c2VjcmV0", Passphrase: "p"},
	}, logger)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	// With credentials already configured, Authenticate must return without
	// making any network call (no base URL is actually reachable here).
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}
