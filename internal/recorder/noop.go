package recorder

import (
	"context"
	"time"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTreasury(_ context.Context, _ time.Time, _ *viewer.TreasurySnapshot) error {
	return nil
}
func (n *NoopRecorder) History(_ context.Context, _ int) ([]Entry, error) { return []Entry{}, nil }
func (n *NoopRecorder) Close() error                                      { return nil }
