// Command agent is the arbitrage execution core's process entrypoint.
//
// Architecture:
//
//	main.go                     — entry point: loads config, wires collaborators, waits for SIGINT/SIGTERM
//	internal/executor           — cross-venue execution core: ExecuteBest, PollForFills, CloseResolved
//	internal/venue/clob         — REST VenueClient/MarketMetaResolver against a CLOB-shaped venue API
//	internal/onchain            — ethclient-backed OnChainReader/WalletAccount for balances and redemption
//	internal/store              — JSON file persistence for per-market cooldowns (survives restarts)
//	internal/statusapi          — minimal read-only HTTP status endpoint
//
// Detecting arbitrage opportunities and feeding them to Executor.ExecuteBest is
// the caller's concern (an upstream scanner, a gRPC/HTTP intake, or a REPL)
// and lives outside this module; main.go only wires the execution core up and
// keeps its persisted state current.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"arb-executor/internal/config"
	"arb-executor/internal/executor"
	"arb-executor/internal/onchain"
	"arb-executor/internal/statusapi"
	"arb-executor/internal/store"
	"arb-executor/internal/venue/clob"
)

// cooldownSnapshotInterval is how often the agent persists the live cooldown
// map and sweeps resolved positions for redemption.
const cooldownSnapshotInterval = time.Minute

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("ARB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec, cooldownStore, err := buildExecutor(ctx, *cfg, logger)
	if err != nil {
		logger.Error("failed to build executor", "error", err)
		os.Exit(1)
	}

	var statusServer *statusapi.Server
	if cfg.Status.Enabled {
		statusServer = statusapi.NewServer(cfg.Status.Addr, exec, logger)
		go func() {
			if err := statusServer.Start(); err != nil {
				logger.Error("status server failed", "error", err)
			}
		}()
		logger.Info("status endpoint started", "addr", cfg.Status.Addr)
	}

	go runMaintenanceLoop(ctx, exec, cooldownStore, logger)

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — no real orders will be placed")
	}
	logger.Info("arbitrage execution agent started",
		"venues", len(cfg.Venues), "min_trade_size", cfg.Executor.MinTradeSize, "dry_run", cfg.DryRun)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()

	if statusServer != nil {
		if err := statusServer.Stop(); err != nil {
			logger.Error("failed to stop status server", "error", err)
		}
	}

	if err := cooldownStore.Save(exec.Cooldowns()); err != nil {
		logger.Error("failed to persist cooldowns on shutdown", "error", err)
	}
}

// buildExecutor wires every Executor collaborator from config: two venue
// clients, an on-chain reader/wallet, and restored cooldown state.
func buildExecutor(ctx context.Context, cfg config.Config, logger *slog.Logger) (*executor.Executor, *store.CooldownStore, error) {
	if len(cfg.Venues) != 2 {
		return nil, nil, fmt.Errorf("expected exactly 2 venues, got %d", len(cfg.Venues))
	}

	venues := make(map[string]executor.VenueClient, 2)
	metas := make(map[string]executor.MarketMetaResolver, 2)
	reliableVenues := make(map[string]bool, 2)
	venueWallets := make(map[string]string, 2)

	funder := cfg.Wallet.FunderAddress
	for _, vc := range cfg.Venues {
		client, err := clob.NewClient(clob.Config{
			Name:          vc.Name,
			BaseURL:       vc.BaseURL,
			PrivateKeyHex: cfg.Wallet.PrivateKey,
			ChainID:       int64(cfg.Wallet.ChainID),
			FunderAddress: funder,
			Creds:         clob.Credentials{ApiKey: vc.ApiKey, Secret: vc.Secret, Passphrase: vc.Passphrase},
			DryRun:        cfg.DryRun,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("build venue client %s: %w", vc.Name, err)
		}
		if err := client.Authenticate(ctx); err != nil {
			return nil, nil, fmt.Errorf("authenticate venue %s: %w", vc.Name, err)
		}

		venues[vc.Name] = client
		metas[vc.Name] = clob.NewMetaResolver(vc.BaseURL)
		reliableVenues[vc.Name] = vc.Reliable

		wallet := funder
		if vc.SmartAccount && cfg.Wallet.SmartAccountAddress != "" {
			wallet = cfg.Wallet.SmartAccountAddress
		}
		venueWallets[vc.Name] = wallet
	}

	reader, err := onchain.NewReader(ctx, cfg.Wallet.RPCURL, cfg.Wallet.CTFAddress, cfg.Wallet.CollateralAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("build onchain reader: %w", err)
	}

	rpcClient, err := ethclient.DialContext(ctx, cfg.Wallet.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rpc for wallet: %w", err)
	}
	wallet, err := onchain.NewWallet(rpcClient, cfg.Wallet.PrivateKey, int64(cfg.Wallet.ChainID),
		cfg.Wallet.CTFAddress, cfg.Wallet.CollateralAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("build onchain wallet: %w", err)
	}

	cooldownStore, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open cooldown store: %w", err)
	}
	initialCooldowns, err := cooldownStore.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load cooldowns: %w", err)
	}

	exec := executor.New(cfg.Executor, cfg.DryRun, logger, executor.Deps{
		Venues:         venues,
		Metas:          metas,
		OnChain:        reader,
		Wallet:         wallet,
		VenueWallets:   venueWallets,
		ReliableVenues: reliableVenues,
	}, initialCooldowns)

	return exec, cooldownStore, nil
}

// runMaintenanceLoop periodically persists the live cooldown map and sweeps
// FILLED positions for on-chain redemption, so neither depends on the
// process staying up indefinitely between runs.
func runMaintenanceLoop(ctx context.Context, exec *executor.Executor, cooldownStore *store.CooldownStore, logger *slog.Logger) {
	ticker := time.NewTicker(cooldownSnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cooldownStore.Save(exec.Cooldowns()); err != nil {
				logger.Error("failed to persist cooldowns", "error", err)
			}
			redeemed := exec.CloseResolved(ctx, exec.Positions().Filled())
			if redeemed > 0 {
				logger.Info("closed resolved positions", "positions_closed", redeemed)
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
