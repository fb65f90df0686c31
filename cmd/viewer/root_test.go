package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "version flag", args: []string{"--version"}},
		{name: "help flag", args: []string{"--help"}},
		{name: "unknown command", args: []string{"nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func upstreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/conversations":
			w.Write([]byte(`[{"day":5,"topic":"Launch <plan>","turn_count":2,"messages":[{"agent":"advisor","content":"**go**"}]}]`))
		case "/api/treasury":
			w.Write([]byte(`{"current_value":1234.5,"progress":12.5}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSnapshotWritesStandalonePage(t *testing.T) {
	srv := upstreamServer(t)
	t.Setenv("UPSTREAM_BASE_URL", srv.URL)
	t.Setenv("VIEWER_CONFIG", "")

	out := filepath.Join(t.TempDir(), "page.html")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"snapshot", "--out", out, "--log-level", "error"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, "$1,234.5")
	assert.Contains(t, page, "Launch &lt;plan&gt;")
	assert.Contains(t, page, "width: 12.5%")
	assert.Contains(t, page, "var modals = [")
	assert.NotContains(t, page, "new WebSocket")
}

func TestSnapshotUpstreamDownShowsEmptyState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("UPSTREAM_BASE_URL", srv.URL)
	t.Setenv("VIEWER_CONFIG", "")

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"snapshot", "--log-level", "error"})
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	page := stdout.String()
	assert.Contains(t, page, "No conversations yet.")
	assert.True(t, strings.Contains(page, "$1,000"))
}
