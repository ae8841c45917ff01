package report

import "github.com/sells-group/deep-research/internal/model"

// Outline is a framework's narrative template: the report title and its
// five narrative layers in order.
type Outline struct {
	Title  string   `json:"report_structure"`
	Layers []string `json:"narrative_structure"`
}

var outlines = map[string]Outline{
	model.FrameworkBigIdea: {
		Title: "Industry Exploration Report",
		Layers: []string{
			"Foundation: what the space is, why it exists now and the core concepts a newcomer needs",
			"Landscape: who the players are, how the market segments and where value is captured",
			"Dynamics: technology shifts, market signals and forces changing the space",
			"Insights: unmet needs, research frontiers and non-obvious patterns across sections",
			"Implications: opportunity theses, risks and what a decision-maker should do next",
		},
	},
	model.FrameworkSpecificIdea: {
		Title: "Idea Validation Report",
		Layers: []string{
			"Foundation: the idea in plain terms and the context it operates in",
			"Problem: who feels the pain, how often and what it costs them",
			"Fit: the buyer, budget owner and ROI story that make the idea worth paying for",
			"Competition: alternatives, defensibility and the channels to reach buyers",
			"Assessment: key risks, assumptions to test and an overall go or no-go view",
		},
	},
}

// OutlineFor returns the narrative outline for framework. Unknown
// frameworks get the big-idea outline.
func OutlineFor(framework string) Outline {
	if o, ok := outlines[framework]; ok {
		return o
	}
	return outlines[model.FrameworkBigIdea]
}
