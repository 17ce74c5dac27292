package ports

import (
	"context"

	"ngstandalone/internal/data/history"
)

// HistoryStore abstracts the run ledger.
type HistoryStore interface {
	SaveRun(run history.Run) (string, error)
	LoadRuns(projectKey string, limit int) ([]history.Run, error)
}

// Phase is one step of a migration run, exposed to driving adapters so they
// can render progress per step.
type Phase struct {
	Name string
	Run  func(ctx context.Context) error
}
