// Package upstream fetches viewer data from the MIDAS orchestrator API.
package upstream

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
)

const (
	ConversationsPath = "/api/conversations"
	TreasuryPath      = "/api/treasury"

	maxErrorBody = 512
)

// Source is what the poller needs from the upstream API.
type Source interface {
	FetchConversations(ctx context.Context) ([]viewer.Conversation, error)
	FetchTreasury(ctx context.Context) (*viewer.TreasurySnapshot, error)
}

// Client implements Source over HTTP.
type Client struct {
	BaseURL string
	Client  *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// FetchConversations returns the conversation list, most recent first.
func (c *Client) FetchConversations(ctx context.Context) ([]viewer.Conversation, error) {
	var conversations []viewer.Conversation
	if err := c.getJSON(ctx, ConversationsPath, &conversations); err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []viewer.Conversation{}
	}
	return conversations, nil
}

// FetchTreasury returns the current treasury snapshot.
func (c *Client) FetchTreasury(ctx context.Context) (*viewer.TreasurySnapshot, error) {
	var snapshot viewer.TreasurySnapshot
	if err := c.getJSON(ctx, TreasuryPath, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	endpoint := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Endpoint: path, Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return &FetchError{Endpoint: path, Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &FetchError{
			Endpoint: path,
			Op:       "status",
			Err:      &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))},
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Endpoint: path, Op: "request", Err: err}
	}
	if err := sonic.ConfigStd.Unmarshal(data, out); err != nil {
		return &FetchError{Endpoint: path, Op: "decode", Err: err}
	}
	return nil
}
