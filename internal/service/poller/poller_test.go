package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
	"github.com/zhouzirui/midas-viewer/internal/recorder"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
)

type fakeSource struct {
	mu             sync.Mutex
	conversations  []viewer.Conversation
	conversationsE error
	treasury       *viewer.TreasurySnapshot
	treasuryE      error
	treasuryCalls  atomic.Int32
}

func (f *fakeSource) FetchConversations(ctx context.Context) ([]viewer.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversations, f.conversationsE
}

func (f *fakeSource) FetchTreasury(ctx context.Context) (*viewer.TreasurySnapshot, error) {
	f.treasuryCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.treasury, f.treasuryE
}

func (f *fakeSource) setTreasury(snap *viewer.TreasurySnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treasury, f.treasuryE = snap, err
}

type countingRecorder struct {
	recorder.NoopRecorder
	count atomic.Int32
}

func (c *countingRecorder) RecordTreasury(ctx context.Context, at time.Time, snap *viewer.TreasurySnapshot) error {
	c.count.Add(1)
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func TestLoadConversationsSuccess(t *testing.T) {
	src := &fakeSource{conversations: []viewer.Conversation{{Day: 4}, {Day: 3}}}
	st := store.New()
	p := New(src, st, zerolog.Nop())

	require.NoError(t, p.LoadConversations(context.Background()))

	state := st.Snapshot()
	assert.True(t, state.ConversationsLoaded)
	assert.Len(t, state.Conversations, 2)
}

func TestLoadConversationsFailureLeavesEmptyList(t *testing.T) {
	src := &fakeSource{conversationsE: errors.New("connection refused")}
	st := store.New()
	p := New(src, st, zerolog.Nop())

	assert.Error(t, p.LoadConversations(context.Background()))

	state := st.Snapshot()
	assert.Empty(t, state.Conversations)
	assert.Equal(t, "connection refused", state.ConversationsError)
}

func TestLoadTreasuryFailureKeepsStaleSnapshot(t *testing.T) {
	src := &fakeSource{treasury: &viewer.TreasurySnapshot{CurrentValue: floatPtr(750)}}
	st := store.New()
	rec := &countingRecorder{}
	p := New(src, st, zerolog.Nop(), WithRecorder(rec))

	require.NoError(t, p.LoadTreasury(context.Background()))
	src.setTreasury(nil, errors.New("timeout"))
	assert.Error(t, p.LoadTreasury(context.Background()))

	state := st.Snapshot()
	require.NotNil(t, state.Treasury)
	assert.Equal(t, 750.0, *state.Treasury.CurrentValue)
	assert.Equal(t, "timeout", state.TreasuryError)
	assert.Equal(t, int32(1), rec.count.Load())
}

func TestStartLoadsBothAndPollsUntilStopped(t *testing.T) {
	src := &fakeSource{
		conversations: []viewer.Conversation{{Day: 1}},
		treasury:      &viewer.TreasurySnapshot{CurrentValue: floatPtr(1)},
	}
	st := store.New()
	p := New(src, st, zerolog.Nop(), WithSchedule("@every 1s"))

	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrAlreadyStarted)

	state := st.Snapshot()
	assert.True(t, state.ConversationsLoaded)
	require.NotNil(t, state.Treasury)

	require.Eventually(t, func() bool { return src.treasuryCalls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	p.Stop()
	calls := src.treasuryCalls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, calls, src.treasuryCalls.Load())

	p.Stop()
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	p := New(&fakeSource{}, store.New(), zerolog.Nop(), WithSchedule("whenever"))
	assert.Error(t, p.Start(context.Background()))
}

func TestStopBeforeStart(t *testing.T) {
	p := New(&fakeSource{}, store.New(), zerolog.Nop())
	assert.NotPanics(t, p.Stop)
}

type blockingSource struct {
	fakeSource
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSource) FetchConversations(ctx context.Context) ([]viewer.Conversation, error) {
	close(b.entered)
	<-b.release
	return nil, ctx.Err()
}

func TestStopDuringInitialLoadKeepsScheduleHalted(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	p := New(src, store.New(), zerolog.Nop(), WithSchedule("@every 1s"))

	done := make(chan error, 1)
	go func() { done <- p.Start(context.Background()) }()

	<-src.entered
	p.Stop()
	close(src.release)
	require.NoError(t, <-done)

	calls := src.treasuryCalls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, calls, src.treasuryCalls.Load())
}
