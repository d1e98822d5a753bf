package executor

import (
	"context"
	"time"
)

// unwindLeg implements the partial-fill unwinder: walks the discount ladder
// placing GTC SELL orders sized to exactly the shares held, classifying the
// overall attempt as transient (auto-unpause) or systematic (stay paused)
// based on whether any attempt was ever observed live on the book.
func (e *Executor) unwindLeg(ctx context.Context, client VenueClient, leg ClobLeg) {
	log := e.logger.With("marketId", leg.TokenID, "venue", leg.Platform)

	actualShares := leg.FilledSize / leg.Price
	if bq, ok := client.(BalanceQuerier); ok {
		if available, err := bq.GetAvailableBalance(ctx, leg.TokenID); err == nil {
			if available == 0 {
				log.Warn("unwind: no available balance to sell, aborting")
				return
			}
			if available < actualShares {
				actualShares = available
			}
		}
	}
	if actualShares <= 0 {
		return
	}

	reachedBook := false

	for _, discount := range e.cfg.DiscountLadder {
		sellPrice := roundPlaces(leg.Price*(1-discount), 3)
		sellSize := sizeForExactShares(actualShares, sellPrice)

		res, err := client.PlaceOrder(ctx, PlaceOrderParams{
			TokenID: leg.TokenID, Side: LegSell, Price: sellPrice, Size: sellSize,
			IsFillOrKill: false,
		})
		if err != nil || !res.Success {
			log.Warn("unwind: order rejected", "discount", discount, "err", err, "venueErr", res.Error)
			continue
		}

		if e.pollUnwindOrder(ctx, client, res.OrderID, &reachedBook) {
			log.Info("unwind: filled", "discount", discount)
			e.setPaused(false)
			return
		}
	}

	if reachedBook {
		log.Warn("unwind: exhausted discount ladder but order reached the book — treating as transient, clearing pause")
		e.setPaused(false)
		return
	}

	log.Error("unwind: every attempt was rejected or disappeared without reaching the book — treating as systematic, staying paused")
}

// pollUnwindOrder polls one SELL order until it fills, is cancelled/expires,
// or the unwind poll timeout elapses. Sets *reachedBook true the first time
// the order is observed resting OPEN or PARTIAL on the book.
func (e *Executor) pollUnwindOrder(ctx context.Context, client VenueClient, orderID string, reachedBook *bool) (filled bool) {
	deadline := e.cfg.UnwindPollTimeout
	var elapsed time.Duration
	for elapsed < deadline {
		status, err := client.GetOrderStatus(ctx, orderID)
		if err != nil {
			e.sleep(ctx, e.cfg.UnwindPollInterval)
			elapsed += e.cfg.UnwindPollInterval
			continue
		}

		switch status.Status {
		case "FILLED":
			return true
		case "OPEN", "PARTIAL":
			*reachedBook = true
		case "CANCELLED", "EXPIRED":
			return false
		}

		select {
		case <-ctx.Done():
			return false
		default:
		}

		e.sleep(ctx, e.cfg.UnwindPollInterval)
		elapsed += e.cfg.UnwindPollInterval
	}
	return false
}
