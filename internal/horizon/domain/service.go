// Package domain defines the horizon generator contract: materializing ledger
// entries for upcoming obligations inside a rolling lookahead window.
package domain

import "context"

// DefaultLookaheadDays bounds the rolling window when the caller passes none.
const DefaultLookaheadDays = 30

// SweepResult summarizes one horizon pass.
type SweepResult struct {
	Examined int `json:"examined"`
	Created  int `json:"created"`
	Advanced int `json:"advanced"`
	Failed   int `json:"failed"`
}

type Service interface {
	// Sweep ensures every active periodic subscription due within the window
	// has a payment materialized at its cursor. Running it repeatedly, or
	// concurrently with itself, never creates duplicate obligations. A
	// per-subscription failure is logged and skipped; only a store-level
	// failure aborts the sweep.
	Sweep(ctx context.Context, lookaheadDays int) (SweepResult, error)
}
