package models

import "time"

// RefreshRun summarises one metadata reconciliation.
type RefreshRun struct {
	ID         string         `json:"id"`
	Trigger    string         `json:"trigger"` // "manual", "schedule", "startup", "tool"
	Status     string         `json:"status"`  // "running", "completed", "aborted", "failed"
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DurationMS int64          `json:"duration_ms"`
	Universe   int            `json:"universe"`
	Inserted   int            `json:"inserted"`
	Updated    int            `json:"updated"`
	Unchanged  int            `json:"unchanged"`
	Failed     int            `json:"failed"`
	Pruned     int            `json:"pruned"`
	Error      string         `json:"error,omitempty"`
	Failures   []SymbolResult `json:"failures,omitempty"`
}

// Refresh run status constants
const (
	RefreshStatusRunning   = "running"
	RefreshStatusCompleted = "completed"
	RefreshStatusAborted   = "aborted"
	RefreshStatusFailed    = "failed"
)

// Refresh trigger constants
const (
	RefreshTriggerManual   = "manual"
	RefreshTriggerSchedule = "schedule"
	RefreshTriggerStartup  = "startup"
	RefreshTriggerTool     = "tool"
)

// SymbolOutcome is what reconciliation did with one symbol.
type SymbolOutcome string

const (
	OutcomeInserted  SymbolOutcome = "inserted"
	OutcomeUpdated   SymbolOutcome = "updated"
	OutcomeUnchanged SymbolOutcome = "unchanged"
	OutcomeFailed    SymbolOutcome = "failed"
)

// SymbolResult is the per-symbol result of a reconciliation task.
type SymbolResult struct {
	Symbol  string        `json:"symbol"`
	Outcome SymbolOutcome `json:"outcome"`
	Error   string        `json:"error,omitempty"`
}

// Tally adds a symbol result to the run counters.
func (r *RefreshRun) Tally(res SymbolResult) {
	switch res.Outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeUnchanged:
		r.Unchanged++
	default:
		r.Failed++
		r.Failures = append(r.Failures, res)
	}
}
