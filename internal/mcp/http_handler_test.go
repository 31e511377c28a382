package mcp_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/todoflow/internal/mcp"
	"github.com/rpggio/todoflow/internal/testserver"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandler_Health(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))
}

func TestHTTPHandler_StreamableSession(t *testing.T) {
	ts := testserver.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: ts.URL()}, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "add_task",
		Arguments: map[string]any{"text": "Buy milk"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)

	var added mcp.AddTaskResult
	require.NoError(t, json.Unmarshal([]byte(text.Text), &added))
	require.True(t, added.Added)
	require.Equal(t, 1, added.View.ActiveCount)

	tasks := ts.Store.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, added.Task.ID, tasks[0].ID)
}
