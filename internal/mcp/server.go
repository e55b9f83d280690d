package mcp

import (
	"log/slog"

	"github.com/claude/perfutils/internal/formula"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered. def is
// the formula used when a tool call names none. When logs is nil the
// training-log tools are left out.
func New(logs LogSource, def formula.Formula, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("perfutils", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("perfutils strength-training calculator. Estimate one-rep maxes with seven published formulas, derive rep maxes and rep counts, and compute INOL, REQ, FVP and VFI training load metrics."),
	)

	h := &handlers{logs: logs, def: def, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListFormulas, Handler: h.listFormulas},
		server.ServerTool{Tool: toolEstimateOneRepMax, Handler: h.estimateOneRepMax},
		server.ServerTool{Tool: toolEstimateRepMax, Handler: h.estimateRepMax},
		server.ServerTool{Tool: toolEstimateReps, Handler: h.estimateReps},
		server.ServerTool{Tool: toolCompareFormulas, Handler: h.compareFormulas},
		server.ServerTool{Tool: toolRepMaxTable, Handler: h.repMaxTable},
		server.ServerTool{Tool: toolTrainingParameters, Handler: h.trainingParameters},
	)
	if logs != nil {
		s.AddTools(
			server.ServerTool{Tool: toolListLogs, Handler: h.listLogs},
			server.ServerTool{Tool: toolGetLogItems, Handler: h.getLogItems},
		)
	}

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resFormulas, Handler: h.formulaCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	logs LogSource
	def  formula.Formula
	log  *slog.Logger
}

// --- Resource definitions ---

var resFormulas = mcp.NewResource(
	"perfutils://formulas",
	"Formula Catalog",
	mcp.WithResourceDescription("All one-rep max formulas with their closed forms and the default formula"),
	mcp.WithMIMEType("application/json"),
)
