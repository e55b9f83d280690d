package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/perfutils/internal/formula"
	"github.com/mark3labs/mcp-go/mcp"
)

// closedForms describes each formula as load L at r reps, one-rep max M and
// intensity i.
var closedForms = map[string]struct {
	OneRepMax string `json:"one_rep_max"`
	RepMax    string `json:"rep_max"`
	Reps      string `json:"reps"`
}{
	"Brzycki":   {"36L/(37 - r)", "M(37 - r)/36", "37 - 36i"},
	"Epley":     {"L(1 + r/30)", "M/(1 + r/30)", "30(1/i - 1)"},
	"McGlothin": {"100L/(101.3 - 2.67123r)", "M(101.3 - 2.67123r)/100", "(101.3 - 100i)/2.67123"},
	"Lombardi":  {"L r^0.1", "M/r^0.1", "i^-10"},
	"Mayhew":    {"100L/(52.2 + 41.9e^(-0.055r))", "M(52.2 + 41.9e^(-0.055r))/100", "200/11 ln(419/(1000i - 522))"},
	"O'Conner":  {"L(1 + r/40)", "M/(1 + r/40)", "40(1/i - 1)"},
	"Wathan":    {"100L/(48.8 + 53.8e^(-0.075r))", "M(48.8 + 53.8e^(-0.075r))/100", "40/3 ln(269/(500i - 244))"},
}

func (h *handlers) formulaCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type entry struct {
		Name      string `json:"name"`
		OneRepMax string `json:"one_rep_max"`
		RepMax    string `json:"rep_max"`
		Reps      string `json:"reps"`
	}
	var entries []entry
	for _, f := range formula.All() {
		cf := closedForms[f.Name()]
		entries = append(entries, entry{Name: f.Name(), OneRepMax: cf.OneRepMax, RepMax: cf.RepMax, Reps: cf.Reps})
	}

	data, err := json.Marshal(map[string]any{
		"default":  h.def.Name(),
		"formulas": entries,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
