// Package store holds the viewer's last-fetched upstream data.
package store

import (
	"sync"
	"time"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
)

// Slice names one independently-updated part of the state.
type Slice uint8

const (
	SliceConversations Slice = iota + 1
	SliceTreasury
)

func (s Slice) String() string {
	switch s {
	case SliceConversations:
		return "conversations"
	case SliceTreasury:
		return "treasury"
	default:
		return "unknown"
	}
}

// Change is published to subscribers after every successful write.
type Change struct {
	Slice   Slice
	Version uint64
}

// State is a point-in-time copy of the store. Conversations are shared
// with the store and must be treated as read-only.
type State struct {
	Conversations       []viewer.Conversation    `json:"conversations"`
	Treasury            *viewer.TreasurySnapshot `json:"treasury"`
	ConversationsAt     time.Time                `json:"conversations_at,omitempty"`
	TreasuryAt          time.Time                `json:"treasury_at,omitempty"`
	ConversationsLoaded bool                     `json:"conversations_loaded"`
	ConversationsError  string                   `json:"conversations_error,omitempty"`
	TreasuryError       string                   `json:"treasury_error,omitempty"`
	Version             uint64                   `json:"version"`
}

// Latest returns the most recent conversation, if any.
func (s State) Latest() (viewer.Conversation, bool) {
	if len(s.Conversations) == 0 {
		return viewer.Conversation{}, false
	}
	return s.Conversations[0], true
}

const subscriberBuffer = 16

// Store is the single view-model shared by the poller, the renderer and
// live sessions. Each slice is replaced wholesale; nothing is merged.
type Store struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		state: State{Conversations: []viewer.Conversation{}},
		now:   time.Now,
		subs:  make(map[int]chan Change),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetConversations replaces the conversation slice.
func (s *Store) SetConversations(conversations []viewer.Conversation) {
	copied := make([]viewer.Conversation, len(conversations))
	copy(copied, conversations)

	s.mu.Lock()
	s.state.Conversations = copied
	s.state.ConversationsAt = s.now().UTC()
	s.state.ConversationsLoaded = true
	s.state.ConversationsError = ""
	s.state.Version++
	version := s.state.Version
	s.mu.Unlock()

	s.publish(Change{Slice: SliceConversations, Version: version})
}

// FailConversations records a failed conversation fetch. The previous
// list, if any, is kept.
func (s *Store) FailConversations(err error) {
	s.mu.Lock()
	s.state.ConversationsError = errString(err)
	s.mu.Unlock()
}

// SetTreasury replaces the treasury slice.
func (s *Store) SetTreasury(snapshot *viewer.TreasurySnapshot) {
	if snapshot == nil {
		return
	}
	copied := *snapshot

	s.mu.Lock()
	s.state.Treasury = &copied
	s.state.TreasuryAt = s.now().UTC()
	s.state.TreasuryError = ""
	s.state.Version++
	version := s.state.Version
	s.mu.Unlock()

	s.publish(Change{Slice: SliceTreasury, Version: version})
}

// FailTreasury records a failed treasury fetch; the stale snapshot stays.
func (s *Store) FailTreasury(err error) {
	s.mu.Lock()
	s.state.TreasuryError = errString(err)
	s.mu.Unlock()
}

// Subscribe registers for change notifications. A slow subscriber misses
// notifications instead of blocking writers; it can always re-read
// Snapshot. The returned function unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(change Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
