package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second)
}

func TestFetchConversations(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ConversationsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"day": 3, "topic": "Pricing", "turn_count": 4, "treasury": 950.5,
			 "messages": [{"agent": "advisor", "content": "hi"}, {"agent": "midas", "content": "yo"}, {"content": "?"}]},
			{"day": 2}
		]`))
	})

	conversations, err := client.FetchConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	first := conversations[0]
	assert.Equal(t, 3, first.Day)
	assert.Equal(t, "Pricing", first.Title())
	require.NotNil(t, first.Treasury)
	assert.Equal(t, 950.5, *first.Treasury)
	require.Len(t, first.Messages, 3)
	assert.Equal(t, viewer.AgentClaude, first.Messages[0].Agent)
	assert.Equal(t, viewer.AgentMidas, first.Messages[1].Agent)
	assert.Equal(t, viewer.AgentUnknown, first.Messages[2].Agent)

	assert.Equal(t, viewer.DefaultTitle, conversations[1].Title())
	assert.Nil(t, conversations[1].Treasury)
}

func TestFetchConversationsNullBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	conversations, err := client.FetchConversations(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, conversations)
	assert.Empty(t, conversations)
}

func TestFetchTreasury(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, TreasuryPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"balance": {"usd": 100, "sol": 0.61, "error": true}, "progress": 12.5,
			"ledger": {"total_spent": 5, "total_revenue": 2, "net_change": -3}}`))
	})

	snapshot, err := client.FetchTreasury(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot.CurrentValue)
	require.NotNil(t, snapshot.Balance)
	assert.True(t, snapshot.Balance.Error)
	assert.False(t, snapshot.Live())
	require.NotNil(t, snapshot.Progress)
	assert.Equal(t, 12.5, *snapshot.Progress)
	require.NotNil(t, snapshot.Ledger)
	assert.Equal(t, -3.0, snapshot.Ledger.NetChange)
}

func TestFetchStatusError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.FetchTreasury(context.Background())
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "status", fetchErr.Op)
	assert.Equal(t, TreasuryPath, fetchErr.Endpoint)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestFetchDecodeError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.FetchConversations(context.Background())

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "decode", fetchErr.Op)
}

func TestFetchTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)

	_, err := client.FetchConversations(context.Background())

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "request", fetchErr.Op)
}

func TestFetchTreasuryBalanceErrorMessage(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current_value": 640, "balance": {"usd": 12, "sol": 0.1, "error": "rpc down"}}`))
	})

	snap, err := client.FetchTreasury(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.CurrentValue)
	assert.Equal(t, 640.0, *snap.CurrentValue)
	require.NotNil(t, snap.Balance)
	assert.True(t, snap.Balance.Error)
	assert.False(t, snap.Live())
}
