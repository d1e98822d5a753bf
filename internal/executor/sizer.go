package executor

import (
	"context"
	"fmt"
)

// sizingInput bundles everything resolveSize needs to compute a per-leg
// trade size without reaching back into the Executor for anything mutable.
type sizingInput struct {
	opp             ArbitOpportunity
	maxPositionSize float64
	legAWallet      string // EOA or smart-account address funding leg A
	legBWallet      string // EOA or smart-account address funding leg B
	sameWallet      bool   // true when both legs draw from the one EOA
}

// resolveSize implements the pre-flight sizer: splits maxPositionSize across
// the two legs, caps each side to a fraction of advertised liquidity, then
// caps further against the wallet balance that actually funds each leg
// (applying the fee buffer so the trade never outruns what settles). Returns
// the final per-leg USDT size, or an error if it falls below min-trade-size.
func (e *Executor) resolveSize(ctx context.Context, in sizingInput) (sizeA, sizeB float64, err error) {
	var perLeg float64
	if in.sameWallet {
		perLeg = in.maxPositionSize / 2
	} else {
		perLeg = in.maxPositionSize
	}

	sizeA = perLeg
	sizeB = perLeg

	if cap := in.opp.LiquidityA * e.cfg.LiquidityCapFraction; cap > 0 && sizeA > cap {
		sizeA = cap
	}
	if cap := in.opp.LiquidityB * e.cfg.LiquidityCapFraction; cap > 0 && sizeB > cap {
		sizeB = cap
	}

	sizeA, err = e.capByWalletBalance(ctx, in.legAWallet, sizeA)
	if err != nil {
		return 0, 0, fmt.Errorf("cap leg A by balance: %w", err)
	}
	sizeB, err = e.capByWalletBalance(ctx, in.legBWallet, sizeB)
	if err != nil {
		return 0, 0, fmt.Errorf("cap leg B by balance: %w", err)
	}

	if in.sameWallet {
		// Both legs draw from one balance: the combined spend must clear
		// the fee buffer against that single wallet, not each leg in
		// isolation.
		combined := sizeA + sizeB
		capped, err := e.capByWalletBalance(ctx, in.legAWallet, combined)
		if err != nil {
			return 0, 0, fmt.Errorf("cap combined by balance: %w", err)
		}
		if capped < combined {
			half := roundDownPlaces(capped/2, 8)
			sizeA, sizeB = half, half
		}
	}

	if sizeA < e.cfg.MinTradeSize || sizeB < e.cfg.MinTradeSize {
		return 0, 0, fmt.Errorf("%w: sized leg below min-trade-size (a=%.8f b=%.8f min=%.2f)",
			errDeclined, sizeA, sizeB, e.cfg.MinTradeSize)
	}

	return sizeA, sizeB, nil
}

// capByWalletBalance shrinks want to fit the wallet's available balance
// after applying the fee buffer, truncating to 8dp so the result never
// exceeds the real balance after downstream rounding.
func (e *Executor) capByWalletBalance(ctx context.Context, wallet string, want float64) (float64, error) {
	if wallet == "" || e.onchain == nil {
		return want, nil
	}
	balance, err := e.onchain.ReadBalance(ctx, "", wallet)
	if err != nil {
		return 0, err
	}
	required := want * e.cfg.FeeBuffer
	if required <= balance {
		return want, nil
	}
	capped := roundDownPlaces(balance/e.cfg.FeeBuffer, 8)
	if capped < 0 {
		capped = 0
	}
	return capped, nil
}
