// Package poller drives the upstream fetches that keep the store current.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/zhouzirui/midas-viewer/internal/recorder"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
	"github.com/zhouzirui/midas-viewer/internal/upstream"
)

// DefaultTreasurySchedule refreshes the treasury every 30 seconds.
const DefaultTreasurySchedule = "@every 30s"

var ErrAlreadyStarted = errors.New("poller already started")

// Poller loads conversations once and refreshes the treasury on a schedule.
type Poller struct {
	source   upstream.Source
	store    *store.Store
	recorder recorder.Recorder
	logger   zerolog.Logger
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	started bool
}

// Option customises a Poller.
type Option func(*Poller)

// WithSchedule overrides the treasury cron schedule.
func WithSchedule(spec string) Option {
	return func(p *Poller) {
		if spec != "" {
			p.schedule = spec
		}
	}
}

// WithRecorder records every successfully fetched treasury snapshot.
func WithRecorder(rec recorder.Recorder) Option {
	return func(p *Poller) {
		if rec != nil {
			p.recorder = rec
		}
	}
}

// New creates a poller writing into st.
func New(source upstream.Source, st *store.Store, logger zerolog.Logger, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		store:    st,
		recorder: recorder.NewNoopRecorder(),
		logger:   logger,
		schedule: DefaultTreasurySchedule,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadConversations fetches the conversation list once. A failure leaves
// the list as it was, which renders as the empty state.
func (p *Poller) LoadConversations(ctx context.Context) error {
	conversations, err := p.source.FetchConversations(ctx)
	if err != nil {
		p.store.FailConversations(err)
		p.logger.Warn().Err(err).Msg("conversation fetch failed")
		return err
	}
	p.store.SetConversations(conversations)
	p.logger.Info().Int("count", len(conversations)).Msg("conversations loaded")
	return nil
}

// LoadTreasury fetches the treasury snapshot. A failure is logged and the
// previous snapshot stays in place.
func (p *Poller) LoadTreasury(ctx context.Context) error {
	snapshot, err := p.source.FetchTreasury(ctx)
	if err != nil {
		p.store.FailTreasury(err)
		p.logger.Warn().Err(err).Msg("treasury fetch failed")
		return err
	}
	p.store.SetTreasury(snapshot)

	if err := p.recorder.RecordTreasury(ctx, time.Now(), snapshot); err != nil {
		p.logger.Error().Err(err).Msg("record treasury snapshot")
	}
	p.logger.Debug().Msg("treasury refreshed")
	return nil
}

// LoadAll runs both loads concurrently and waits for them. Failures are
// recorded in the store.
func (p *Poller) LoadAll(ctx context.Context) {
	var wg conc.WaitGroup
	wg.Go(func() { _ = p.LoadConversations(ctx) })
	wg.Go(func() { _ = p.LoadTreasury(ctx) })
	wg.Wait()
}

// Start issues both initial loads concurrently, waits for them, then
// schedules the treasury refresh. The schedule runs until Stop is called
// or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, func() { _ = p.LoadTreasury(runCtx) }); err != nil {
		p.mu.Unlock()
		cancel()
		return fmt.Errorf("register treasury schedule: %w", err)
	}
	p.cron = c
	p.cancel = cancel
	p.started = true
	p.mu.Unlock()

	p.LoadAll(runCtx)

	p.mu.Lock()
	if runCtx.Err() != nil || p.cron != c {
		p.mu.Unlock()
		return nil
	}
	c.Start()
	p.mu.Unlock()
	p.logger.Info().Str("schedule", p.schedule).Msg("treasury polling started")

	go func() {
		<-runCtx.Done()
		p.Stop()
	}()
	return nil
}

// Stop cancels in-flight requests and halts the schedule. It is safe to
// call more than once and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	c, cancel := p.cron, p.cancel
	p.cron, p.cancel = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	p.logger.Info().Msg("treasury polling stopped")
}
