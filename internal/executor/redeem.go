package executor

import (
	"context"
	"time"
)

// CloseResolved iterates FILLED positions and, for each leg, checks the one
// CTF contract behind the OnChainReader for settlement of that leg's
// conditionId (payoutDenominator > 0), then redeems any held outcome token
// on-chain. There is no per-venue CTF contract: a leg whose own conditionId
// reads zero on that contract is skipped, whatever the other leg shows.
// Redemption is best-effort per leg: one leg's failure never prevents its
// sibling's redemption. Returns the count of positions closed (a position
// counts once when at least one of its legs was redeemed).
//
// Grounded on mselser95-polymarket-arb's cmd/redeem_positions.go: the
// redeemPositions(collateralToken, parentCollectionId, conditionId,
// indexSets) ABI call shape, the zero parent collection ID, and the 1 (YES)
// / 2 (NO) indexSet convention are reused as the on-chain call contract.
func (e *Executor) CloseResolved(ctx context.Context, positions []*ClobPosition) int {
	redeemed := 0
	for _, pos := range positions {
		if pos.Status != StatusFilled {
			continue
		}
		if e.closeOnePosition(ctx, pos) {
			redeemed++
		}
	}
	return redeemed
}

func (e *Executor) closeOnePosition(ctx context.Context, pos *ClobPosition) bool {
	if e.onchain == nil || e.wallet == nil {
		return false
	}

	anyRedeemed := false
	for _, leg := range []*ClobLeg{&pos.LegA, &pos.LegB} {
		meta, err := e.resolveMarketMeta(ctx, leg.Platform, pos.MarketID)
		if err != nil {
			e.logger.Warn("close resolved: resolve meta failed", "platform", leg.Platform, "err", err)
			continue
		}

		denom, err := e.onchain.PayoutDenominator(ctx, meta.ConditionID)
		if err != nil || denom == 0 {
			continue // this leg's condition is not resolved yet
		}

		balance, err := e.onchain.CTFBalance(ctx, e.wallet.Address(), leg.TokenID)
		if err != nil || balance == 0 {
			continue
		}

		indexSet := uint64(2) // NO
		if leg.TokenID == meta.YesTokenID {
			indexSet = 1 // YES
		}

		if _, err := e.wallet.Redeem(ctx, meta.ConditionID, []uint64{indexSet}); err != nil {
			e.logger.Error("close resolved: redemption failed", "platform", leg.Platform, "conditionId", meta.ConditionID, "err", err)
			continue
		}
		anyRedeemed = true
	}

	if anyRedeemed {
		now := time.Now()
		pos.Status = StatusClosed
		pos.ClosedAt = &now
	}
	return anyRedeemed
}
