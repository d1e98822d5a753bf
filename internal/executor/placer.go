package executor

import (
	"context"
	"fmt"
	"time"
)

// ExecuteBest runs the full pre-flight → sequential placement → fill
// verification pipeline for one opportunity. It either returns a populated
// ClobPosition describing the outcome, or a nil position with a wrapped
// errDeclined when no position was opened (a pre-flight failure, or a
// rejected unreliable-leg placement). A balance-read failure during sizing
// is returned as a plain error.
func (e *Executor) ExecuteBest(ctx context.Context, opp ArbitOpportunity, maxPositionSize float64) (*ClobPosition, error) {
	if e.Paused() {
		return nil, fmt.Errorf("%w: executor paused", errDeclined)
	}
	if e.cooldownActive(opp.MarketID) {
		return nil, fmt.Errorf("%w: market %s in cooldown", errDeclined, opp.MarketID)
	}
	if age := time.Since(opp.QuotedAtUTC); age > e.cfg.MaxQuoteAge {
		return nil, fmt.Errorf("%w: quote stale (%s old)", errDeclined, age)
	}

	clientA, clientB, err := e.resolveVenueClients(opp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDeclined, err)
	}

	metaA, err := e.resolveMarketMeta(ctx, opp.ProtocolA, opp.MarketID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve market meta on %s: %v", errDeclined, opp.ProtocolA, err)
	}
	metaB, err := e.resolveMarketMeta(ctx, opp.ProtocolB, opp.MarketID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve market meta on %s: %v", errDeclined, opp.ProtocolB, err)
	}

	legAToken, legBToken := metaA.YesTokenID, metaB.NoTokenID
	legAPrice, legBPrice := opp.YesPriceA, opp.NoPriceB
	if !opp.BuyYesOnA {
		legAToken, legBToken = metaA.NoTokenID, metaB.YesTokenID
	}

	walletA := e.venueWallets[opp.ProtocolA]
	walletB := e.venueWallets[opp.ProtocolB]
	sizeA, sizeB, err := e.resolveSize(ctx, sizingInput{
		opp:             opp,
		maxPositionSize: maxPositionSize,
		legAWallet:      walletA,
		legBWallet:      walletB,
		sameWallet:      walletA != "" && walletA == walletB,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("sizing resolved",
		"marketId", opp.MarketID, "sizeA", sizeA, "sizeB", sizeB,
		"conditionIdA", metaA.ConditionID, "conditionIdB", metaB.ConditionID)

	now := time.Now()
	pos := &ClobPosition{
		ID:        fmt.Sprintf("%s-%d", opp.MarketID, now.UnixNano()),
		MarketID:  opp.MarketID,
		TotalCost: opp.TotalCost,
		SpreadBps: opp.SpreadBps,
		OpenedAt:  now,
		LegA: ClobLeg{
			Platform: opp.ProtocolA, TokenID: legAToken, Side: LegBuy,
			Price: legAPrice, Size: sizeA,
		},
		LegB: ClobLeg{
			Platform: opp.ProtocolB, TokenID: legBToken, Side: LegBuy,
			Price: legBPrice, Size: sizeB,
		},
	}

	if e.dryRun {
		e.placeDryRun(ctx, clientA, clientB, pos)
		e.positions.Add(pos)
		return pos, nil
	}

	return e.placeLive(ctx, opp, clientA, clientB, pos)
}

func (e *Executor) resolveVenueClients(opp ArbitOpportunity) (a, b VenueClient, err error) {
	a, ok := e.venues[opp.ProtocolA]
	if !ok {
		return nil, nil, fmt.Errorf("no venue client registered for %s", opp.ProtocolA)
	}
	b, ok = e.venues[opp.ProtocolB]
	if !ok {
		return nil, nil, fmt.Errorf("no venue client registered for %s", opp.ProtocolB)
	}
	return a, b, nil
}

func (e *Executor) resolveMarketMeta(ctx context.Context, protocol, marketID string) (MarketMeta, error) {
	resolver, ok := e.metas[protocol]
	if !ok {
		return MarketMeta{}, fmt.Errorf("no meta resolver registered for %s", protocol)
	}
	return resolver.GetMarketMeta(ctx, marketID)
}

// placeDryRun places both legs with no balance verification and marks the
// position FILLED, matching the teacher's dry-run fast path convention in
// exchange/client.go (every mutating call checks c.dryRun before touching
// the network).
func (e *Executor) placeDryRun(ctx context.Context, clientA, clientB VenueClient, pos *ClobPosition) {
	for _, leg := range []*ClobLeg{&pos.LegA, &pos.LegB} {
		client := clientA
		if leg == &pos.LegB {
			client = clientB
		}
		res, _ := client.PlaceOrder(ctx, PlaceOrderParams{
			MarketID: pos.MarketID, TokenID: leg.TokenID, Side: leg.Side,
			Price: leg.Price, Size: leg.Size, IsFillOrKill: true,
		})
		leg.OrderID = res.OrderID
		leg.Filled = true
		leg.FilledSize = leg.Size
	}
	pos.Status = StatusFilled
}

// placeLive implements the sequential placer: the unreliable venue's leg is
// placed and verified before the reliable venue's leg is ever touched, so a
// rejected or unfilled unreliable leg never creates a naked position.
func (e *Executor) placeLive(ctx context.Context, opp ArbitOpportunity, clientA, clientB VenueClient, pos *ClobPosition) (*ClobPosition, error) {
	reliableLeg, unreliableLeg := &pos.LegB, &pos.LegA
	reliableClient, unreliableClient := clientB, clientA
	if e.reliableVenues[opp.ProtocolA] {
		reliableLeg, unreliableLeg = &pos.LegA, &pos.LegB
		reliableClient, unreliableClient = clientA, clientB
	}

	unreliablePreBalance, unreliablePreOK := e.preTradeBalance(ctx, unreliableLeg.Platform)

	res, err := unreliableClient.PlaceOrder(ctx, PlaceOrderParams{
		MarketID: pos.MarketID, TokenID: unreliableLeg.TokenID, Side: unreliableLeg.Side,
		Price: unreliableLeg.Price, Size: unreliableLeg.Size, IsFillOrKill: true,
	})
	if err != nil || !res.Success {
		e.setCooldown(opp.MarketID, e.cfg.MarketCooldown)
		return nil, fmt.Errorf("%w: unreliable leg placement rejected on %s: %v",
			errDeclined, unreliableLeg.Platform, errOrMsg(err, res.Error))
	}
	unreliableLeg.OrderID = res.OrderID

	e.sleep(ctx, e.cfg.FillVerifyDelay)
	filled, filledSize := e.verifyFill(ctx, unreliableClient, unreliableLeg, res, unreliablePreBalance, unreliablePreOK)
	if !filled {
		e.setCooldown(opp.MarketID, e.cfg.ShortCooldown)
		pos.Status = StatusExpired
		e.positions.Add(pos)
		return pos, nil
	}
	unreliableLeg.Filled = true
	unreliableLeg.FilledSize = filledSize

	reliablePreBalance, reliablePreOK := e.preTradeBalance(ctx, reliableLeg.Platform)
	res, err = reliableClient.PlaceOrder(ctx, PlaceOrderParams{
		MarketID: pos.MarketID, TokenID: reliableLeg.TokenID, Side: reliableLeg.Side,
		Price: reliableLeg.Price, Size: reliableLeg.Size, IsFillOrKill: true,
	})
	if err != nil || !res.Success {
		return e.partialAndUnwind(ctx, opp, unreliableClient, unreliableLeg, pos)
	}
	reliableLeg.OrderID = res.OrderID

	e.sleep(ctx, e.cfg.FillVerifyDelay)
	filled, filledSize = e.verifyFill(ctx, reliableClient, reliableLeg, res, reliablePreBalance, reliablePreOK)
	if !filled {
		return e.partialAndUnwind(ctx, opp, unreliableClient, unreliableLeg, pos)
	}
	reliableLeg.Filled = true
	reliableLeg.FilledSize = filledSize

	pos.Status = StatusFilled
	e.positions.Add(pos)
	return pos, nil
}

func (e *Executor) partialAndUnwind(ctx context.Context, opp ArbitOpportunity, unreliableClient VenueClient, unreliableLeg *ClobLeg, pos *ClobPosition) (*ClobPosition, error) {
	e.setPaused(true)
	e.setCooldown(opp.MarketID, e.cfg.MarketCooldown)
	pos.Status = StatusPartial
	e.positions.Add(pos)
	e.unwindLeg(ctx, unreliableClient, *unreliableLeg)
	return pos, nil
}

// preTradeBalance reads the wallet balance funding a venue, for post-trade
// delta comparison. Returns ok=false when no on-chain reader or wallet is
// configured for this venue (dry-run tests, unit tests with stub clients).
func (e *Executor) preTradeBalance(ctx context.Context, venue string) (bal float64, ok bool) {
	wallet := e.venueWallets[venue]
	if wallet == "" || e.onchain == nil {
		return 0, false
	}
	b, err := e.onchain.ReadBalance(ctx, "", wallet)
	if err != nil {
		return 0, false
	}
	return b, true
}

// verifyFill decides whether a leg actually filled, in priority order:
// an explicit venue-reported filledQty (including an explicit zero, which is
// treated as unfilled and short-circuits without consulting balances), then
// a wallet balance delta against the fillVerificationThreshold, used only
// when the pre-trade balance was read (preOK). When neither signal is
// available, the fallback is decided by whether leg's venue is in the
// reliable set: "not filled" for an unreliable venue, "filled" for a
// reliable one (see the comment at the end of the function).
func (e *Executor) verifyFill(ctx context.Context, client VenueClient, leg *ClobLeg, placeResult PlaceOrderResult, preBalance float64, preOK bool) (filled bool, filledSize float64) {
	if placeResult.FilledQty != nil {
		if *placeResult.FilledQty == 0 {
			return false, 0
		}
		return true, *placeResult.FilledQty
	}

	wallet := e.venueWallets[leg.Platform]
	if preOK && wallet != "" && e.onchain != nil {
		post, err := e.onchain.ReadBalance(ctx, "", wallet)
		if err == nil {
			delta := preBalance - post // USDT spent buying
			expected := leg.Size
			if expected > 0 && delta/expected > fillVerificationThreshold {
				return true, leg.Size
			}
			return false, 0
		}
	}

	// No usable signal at all: the unreliable leg defaults to "not filled"
	// (conservative — we'd rather short-cooldown-and-retry than assume a
	// fill that wasn't real), the reliable leg defaults to "filled" (it is
	// the deep-liquidity FOK venue; an unverifiable success is far more
	// likely a monitoring gap than an actual miss).
	return e.reliableVenues[leg.Platform], leg.Size
}

func errOrMsg(err error, msg string) string {
	if err != nil {
		return err.Error()
	}
	return msg
}
