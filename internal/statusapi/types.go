// Package statusapi exposes a minimal read-only HTTP status endpoint over
// the executor's live state: pause flag, open cooldowns, and every position
// tracked this process lifetime. Adapted from the teacher's internal/api dashboard server,
// trimmed to the read-only surface this agent needs — no WebSocket push
// channel, since an operator polling /status every few seconds is
// sufficient for a single-process execution core with no UI to drive.
package statusapi

import (
	"time"

	"arb-executor/internal/executor"
)

// Snapshot is the full JSON body returned by GET /status.
type Snapshot struct {
	Paused    bool                 `json:"paused"`
	Cooldowns map[string]time.Time `json:"cooldowns"`
	Positions []executor.ClobPosition `json:"positions"`
}

// StateProvider is the read-only view of the Executor the status endpoint
// needs. Satisfied by *executor.Executor; a narrow interface here keeps the
// package testable without constructing a full Executor.
type StateProvider interface {
	Paused() bool
	Cooldowns() map[string]time.Time
	Positions() *executor.PositionBook
}

func buildSnapshot(p StateProvider) Snapshot {
	return Snapshot{
		Paused:    p.Paused(),
		Cooldowns: p.Cooldowns(),
		Positions: p.Positions().Snapshot(),
	}
}
