package executor

import (
	"context"
	"time"
)

// PollForFills polls both legs of an OPEN position until both reach a final
// state or the fill-poll timeout elapses, per the transition table: both
// FILLED -> FILLED; both final-not-filled -> EXPIRED; one FILLED and the
// other final-not-filled -> PARTIAL (pauses and unwinds the filled leg).
// On timeout, any still-open order is cancelled before the same
// classification is applied.
func (e *Executor) PollForFills(ctx context.Context, pos *ClobPosition) *ClobPosition {
	clientA := e.venues[pos.LegA.Platform]
	clientB := e.venues[pos.LegB.Platform]

	deadline := time.Now().Add(e.cfg.FillPollTimeout)
	for time.Now().Before(deadline) {
		if err := e.statusPollLimiter.WaitN(ctx, 2); err != nil {
			return pos
		}
		statusA, _ := clientA.GetOrderStatus(ctx, pos.LegA.OrderID)
		statusB, _ := clientB.GetOrderStatus(ctx, pos.LegB.OrderID)

		if isFinal(statusA.Status) && isFinal(statusB.Status) {
			return e.classifyFinal(ctx, pos, clientA, clientB, statusA, statusB)
		}

		select {
		case <-ctx.Done():
			return pos
		default:
		}
		e.sleep(ctx, e.cfg.FillPollInterval)
	}

	// Timeout: cancel any order not already final, then classify.
	statusA, _ := clientA.GetOrderStatus(ctx, pos.LegA.OrderID)
	if !isFinal(statusA.Status) {
		_, _ = clientA.CancelOrder(ctx, pos.LegA.OrderID, pos.LegA.TokenID)
		statusA.Status = "CANCELLED"
	}
	statusB, _ := clientB.GetOrderStatus(ctx, pos.LegB.OrderID)
	if !isFinal(statusB.Status) {
		_, _ = clientB.CancelOrder(ctx, pos.LegB.OrderID, pos.LegB.TokenID)
		statusB.Status = "CANCELLED"
	}
	return e.classifyFinal(ctx, pos, clientA, clientB, statusA, statusB)
}

func isFinal(status string) bool {
	switch status {
	case "FILLED", "CANCELLED", "EXPIRED":
		return true
	default:
		return false
	}
}

func (e *Executor) classifyFinal(ctx context.Context, pos *ClobPosition, clientA, clientB VenueClient, statusA, statusB OrderStatusResult) *ClobPosition {
	aFilled := statusA.Status == "FILLED"
	bFilled := statusB.Status == "FILLED"

	switch {
	case aFilled && bFilled:
		pos.LegA.Filled, pos.LegA.FilledSize = true, statusA.FilledSize
		pos.LegB.Filled, pos.LegB.FilledSize = true, statusB.FilledSize
		pos.Status = StatusFilled
	case !aFilled && !bFilled:
		pos.Status = StatusExpired
	case aFilled && !bFilled:
		pos.LegA.Filled, pos.LegA.FilledSize = true, statusA.FilledSize
		pos.Status = StatusPartial
		e.setPaused(true)
		e.unwindLeg(ctx, clientA, pos.LegA)
	case bFilled && !aFilled:
		pos.LegB.Filled, pos.LegB.FilledSize = true, statusB.FilledSize
		pos.Status = StatusPartial
		e.setPaused(true)
		e.unwindLeg(ctx, clientB, pos.LegB)
	}

	e.positions.Add(pos)
	return pos
}
