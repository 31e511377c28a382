package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/todoflow/internal/domain/activity"
	"github.com/rpggio/todoflow/internal/domain/task"
)

// TaskService defines the task list operations needed by MCP.
type TaskService interface {
	Add(ctx context.Context, text string) *task.Task
	Toggle(ctx context.Context, id string)
	Edit(ctx context.Context, id, text string)
	Remove(ctx context.Context, id string)
	ClearCompleted(ctx context.Context)
	SetFilter(f task.Filter)
	Snapshot() task.Snapshot
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains the domain services exposed over MCP.
// Activity may be nil, in which case get_recent_activity is not offered.
type Services struct {
	Tasks    TaskService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "todoflow",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
