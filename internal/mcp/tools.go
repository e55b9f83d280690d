package mcp

import (
	"context"
	"errors"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/storage"
	"github.com/claude/perfutils/internal/training"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListFormulas = mcp.NewTool("list_formulas",
	mcp.WithDescription("List the available one-rep max formulas in their fixed order, and the default formula."),
)

var toolEstimateOneRepMax = mcp.NewTool("estimate_one_rep_max",
	mcp.WithDescription("Estimate the one-repetition maximum from a load lifted for a number of repetitions."),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed (at least 1)")),
	mcp.WithNumber("load", mcp.Required(), mcp.Description("Load lifted, any unit")),
	mcp.WithString("formula", mcp.Description("Formula name (e.g. brzycki, epley, o'conner). Defaults to the server default.")),
)

var toolEstimateRepMax = mcp.NewTool("estimate_rep_max",
	mcp.WithDescription("Estimate the heaviest load liftable for a number of repetitions given a one-repetition maximum."),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Target repetitions (at least 1)")),
	mcp.WithNumber("one_rep_max", mcp.Required(), mcp.Description("Known or estimated one-rep max")),
	mcp.WithString("formula", mcp.Description("Formula name. Defaults to the server default.")),
)

var toolEstimateReps = mcp.NewTool("estimate_reps",
	mcp.WithDescription("Estimate how many repetitions can be performed at an intensity (fraction of one-rep max). Results are fractional."),
	mcp.WithNumber("intensity", mcp.Required(), mcp.Description("Fraction of one-rep max in (0, 1], e.g. 0.8")),
	mcp.WithString("formula", mcp.Description("Formula name. Defaults to the server default.")),
)

var toolCompareFormulas = mcp.NewTool("compare_formulas",
	mcp.WithDescription("Estimate the one-rep max with every formula side by side. Formulas whose domain excludes the input report an error instead of a value."),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed")),
	mcp.WithNumber("load", mcp.Required(), mcp.Description("Load lifted")),
)

var toolRepMaxTable = mcp.NewTool("rep_max_table",
	mcp.WithDescription("Build a table of rep maxes from 1 to max_reps repetitions for a one-rep max, with each load as a percentage of it."),
	mcp.WithNumber("one_rep_max", mcp.Required(), mcp.Description("One-rep max")),
	mcp.WithNumber("max_reps", mcp.Description("Last row of the table. Defaults to 10."), mcp.Min(1), mcp.Max(100)),
	mcp.WithString("formula", mcp.Description("Formula name. Defaults to the server default.")),
)

var toolTrainingParameters = mcp.NewTool("training_parameters",
	mcp.WithDescription("Compute training load metrics for a set: INOL (intensity/number of lifts), REQ (repetition-endurance quotient), FVP (INOL x REQ) and, when volume is given, VFI (volume / INOL)."),
	mcp.WithNumber("intensity", mcp.Required(), mcp.Description("Fraction of one-rep max in (0, 1)")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions in the set")),
	mcp.WithNumber("max_reps", mcp.Description("Maximum repetitions at this intensity. Derived with Brzycki when omitted.")),
	mcp.WithNumber("volume", mcp.Description("Relative volume for VFI")),
	mcp.WithBoolean("capped", mcp.Description("Clamp intensity at 96% for INOL. Defaults to false.")),
)

var toolListLogs = mcp.NewTool("list_logs",
	mcp.WithDescription("List stored training logs, newest first."),
)

var toolGetLogItems = mcp.NewTool("get_log_items",
	mcp.WithDescription("Retrieve the items (sessions, exercises and sets) of a training log, including stored one-rep max estimates."),
	mcp.WithString("log_id", mcp.Required(), mcp.Description("Log UUID")),
)

// --- Tool handlers ---

// pickFormula resolves the optional "formula" argument.
func (h *handlers) pickFormula(req mcp.CallToolRequest) (formula.Formula, error) {
	name := req.GetString("formula", "")
	if name == "" {
		return h.def, nil
	}
	return formula.Lookup(name)
}

// jsonResult wraps v as a JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listFormulas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"formulas": formula.Names(),
		"default":  h.def.Name(),
	})
}

func (h *handlers) estimateOneRepMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	load, err := req.RequireFloat("load")
	if err != nil {
		return mcp.NewToolResultError("load parameter is required"), nil
	}
	f, err := h.pickFormula(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	orm, err := f.OneRepMax(reps, load)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"formula":     f.Name(),
		"reps":        reps,
		"load":        load,
		"one_rep_max": orm,
	})
}

func (h *handlers) estimateRepMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	oneRepMax, err := req.RequireFloat("one_rep_max")
	if err != nil {
		return mcp.NewToolResultError("one_rep_max parameter is required"), nil
	}
	f, err := h.pickFormula(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	load, err := f.RepMax(reps, oneRepMax)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"formula":     f.Name(),
		"reps":        reps,
		"one_rep_max": oneRepMax,
		"rep_max":     load,
	})
}

func (h *handlers) estimateReps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	intensity, err := req.RequireFloat("intensity")
	if err != nil {
		return mcp.NewToolResultError("intensity parameter is required"), nil
	}
	f, err := h.pickFormula(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reps, err := f.Reps(intensity)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"formula":   f.Name(),
		"intensity": intensity,
		"reps":      reps,
	})
}

func (h *handlers) compareFormulas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	load, err := req.RequireFloat("load")
	if err != nil {
		return mcp.NewToolResultError("load parameter is required"), nil
	}
	return jsonResult(map[string]any{
		"reps":      reps,
		"load":      load,
		"estimates": formula.EstimateAll(reps, load),
	})
}

func (h *handlers) repMaxTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oneRepMax, err := req.RequireFloat("one_rep_max")
	if err != nil {
		return mcp.NewToolResultError("one_rep_max parameter is required"), nil
	}
	maxReps := req.GetInt("max_reps", 10)
	if maxReps < 1 || maxReps > 100 {
		return mcp.NewToolResultError("max_reps must be between 1 and 100"), nil
	}
	f, err := h.pickFormula(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := formula.Table(f, oneRepMax, maxReps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"formula":     f.Name(),
		"one_rep_max": oneRepMax,
		"rows":        rows,
	})
}

func (h *handlers) trainingParameters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	intensity, err := req.RequireFloat("intensity")
	if err != nil {
		return mcp.NewToolResultError("intensity parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}

	inolFn := training.INOL
	if req.GetBool("capped", false) {
		inolFn = training.CappedINOL
	}
	inol, err := inolFn(intensity, reps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	maxReps := req.GetInt("max_reps", 0)
	if maxReps == 0 {
		maxReps, err = training.MaxReps(intensity)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	reqValue, err := training.REQ(reps, maxReps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := map[string]any{
		"intensity": intensity,
		"reps":      reps,
		"max_reps":  maxReps,
		"inol":      inol,
		"req":       reqValue,
		"fvp":       training.FVP(inol, reqValue),
	}
	if volume := req.GetFloat("volume", 0); volume != 0 {
		vfi, err := training.VFI(volume, inol)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out["vfi"] = vfi
	}
	return jsonResult(out)
}

func (h *handlers) listLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logs, err := h.logs.ListLogs(ctx)
	if err != nil {
		h.log.Error("list_logs failed", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(logs)
}

func (h *handlers) getLogItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("log_id")
	if err != nil {
		return mcp.NewToolResultError("log_id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("log_id must be a UUID"), nil
	}

	l, err := h.logs.GetLog(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("log not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	items, err := h.logs.ListItems(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{"log": l, "items": items})
}
