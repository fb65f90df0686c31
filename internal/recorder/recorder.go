// Package recorder keeps an optional history of fetched treasury snapshots.
package recorder

import (
	"context"
	"time"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
)

// Entry is one recorded treasury snapshot.
type Entry struct {
	ID         int64                   `json:"id"`
	RecordedAt time.Time               `json:"recorded_at"`
	Snapshot   viewer.TreasurySnapshot `json:"snapshot"`
}

// Recorder persists treasury snapshots for later inspection.
type Recorder interface {
	RecordTreasury(ctx context.Context, at time.Time, snapshot *viewer.TreasurySnapshot) error
	History(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}
