package domain

import (
	"context"
	"time"
)

// LedgerPort is what the orchestrator needs from the usage ledger
type LedgerPort interface {
	Log(ctx context.Context, e Entry) error
	Check(ctx context.Context, now time.Time) error
}

// ServicePort is the full ledger surface used by HTTP and the CLI
type ServicePort interface {
	LedgerPort
	CountRecent(ctx context.Context, since time.Time) (Window, error)
	Snapshot(ctx context.Context, now time.Time) (Snapshot, error)
}
