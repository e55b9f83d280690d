package mcp

import (
	"context"

	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/storage"
	"github.com/google/uuid"
)

// LogSource is the read side of the training log used by MCP tools. Both
// storage.LogStore implementations (local) and HTTPClient (remote via REST
// API) satisfy it.
type LogSource interface {
	ListLogs(ctx context.Context) ([]models.Log, error)
	GetLog(ctx context.Context, id uuid.UUID) (*models.Log, error)
	ListItems(ctx context.Context, logID uuid.UUID) ([]models.LogItem, error)
}

// Compile-time checks.
var (
	_ LogSource = (storage.LogStore)(nil)
	_ LogSource = (*HTTPClient)(nil)
)
