package store_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
)

func floatPtr(v float64) *float64 { return &v }

func TestStoreStartsEmpty(t *testing.T) {
	st := store.New()
	state := st.Snapshot()

	assert.Empty(t, state.Conversations)
	assert.Nil(t, state.Treasury)
	assert.False(t, state.ConversationsLoaded)
	_, ok := state.Latest()
	assert.False(t, ok)
}

func TestSetConversationsReplacesWholesale(t *testing.T) {
	st := store.New()
	st.SetConversations([]viewer.Conversation{{Day: 1}, {Day: 2}})
	st.SetConversations([]viewer.Conversation{{Day: 5}})

	state := st.Snapshot()
	require.Len(t, state.Conversations, 1)
	assert.Equal(t, 5, state.Conversations[0].Day)
	assert.True(t, state.ConversationsLoaded)
	assert.Equal(t, uint64(2), state.Version)
}

func TestSetConversationsCopiesInput(t *testing.T) {
	st := store.New()
	input := []viewer.Conversation{{Day: 1}}
	st.SetConversations(input)
	input[0].Day = 99

	assert.Equal(t, 1, st.Snapshot().Conversations[0].Day)
}

func TestFailTreasuryKeepsStaleSnapshot(t *testing.T) {
	st := store.New()
	st.SetTreasury(&viewer.TreasurySnapshot{CurrentValue: floatPtr(500)})
	st.FailTreasury(errors.New("timeout"))

	state := st.Snapshot()
	require.NotNil(t, state.Treasury)
	assert.Equal(t, 500.0, *state.Treasury.CurrentValue)
	assert.Equal(t, "timeout", state.TreasuryError)

	st.SetTreasury(&viewer.TreasurySnapshot{CurrentValue: floatPtr(600)})
	assert.Empty(t, st.Snapshot().TreasuryError)
}

func TestFailConversationsKeepsList(t *testing.T) {
	st := store.New()
	st.FailConversations(errors.New("refused"))

	state := st.Snapshot()
	assert.Empty(t, state.Conversations)
	assert.False(t, state.ConversationsLoaded)
	assert.Equal(t, "refused", state.ConversationsError)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	st := store.New()
	changes, cancel := st.Subscribe()
	defer cancel()

	st.SetTreasury(&viewer.TreasurySnapshot{})
	st.SetConversations(nil)

	first := <-changes
	second := <-changes
	assert.Equal(t, store.SliceTreasury, first.Slice)
	assert.Equal(t, store.SliceConversations, second.Slice)
	assert.Less(t, first.Version, second.Version)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	st := store.New()
	changes, cancel := st.Subscribe()
	cancel()
	cancel()

	_, open := <-changes
	assert.False(t, open)

	// writes after unsubscribe must not panic
	st.SetTreasury(&viewer.TreasurySnapshot{})
}
