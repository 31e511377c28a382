// Package testserver runs the MCP HTTP handler over an in-memory database for tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/todoflow/internal/domain/activity"
	"github.com/rpggio/todoflow/internal/domain/task"
	"github.com/rpggio/todoflow/internal/mcp"
	"github.com/rpggio/todoflow/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Store    *task.Store
	Activity *activity.Service
}

// New starts a streamable HTTP MCP server. It is closed when the test ends.
func New(t *testing.T) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	store := task.NewStore(context.Background(), task.StoreConfig{
		Slot:      sqlite.NewSlotRepository(db),
		Listeners: []task.Listener{activitySvc.Recorder()},
	})

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{Tasks: store, Activity: activitySvc},
		Version:  "test",
	})
	httpServer := httptest.NewServer(mcp.NewHTTPHandler(server))

	t.Cleanup(func() {
		httpServer.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   httpServer,
		DB:       db,
		Store:    store,
		Activity: activitySvc,
	}
}

// URL returns the MCP endpoint.
func (ts *TestServer) URL() string {
	return ts.Server.URL + "/mcp"
}
