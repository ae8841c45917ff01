package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deep-research/internal/model"
)

// JSON renders the report as indented JSON.
func JSON(r *model.FinalReport) ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "report: marshal json")
	}
	return out, nil
}

// Markdown renders the report as a standalone Markdown document: title,
// run metadata, the narrative, then per-section highlights and sources.
func Markdown(r *model.FinalReport) string {
	s := r.StructuredSummary
	outline := OutlineFor(s.Framework)
	var b strings.Builder

	fmt.Fprintf(&b, "# %s - %s\n\n", s.Topic, outline.Title)
	b.WriteString("| Framework | Sections | Facts | Avg confidence |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %d | %d | %.2f |\n", s.Framework, r.Metadata.SectionsCount, r.Metadata.TotalFacts, r.Metadata.AvgConfidence)
	if r.Metadata.InputTokens > 0 || r.Metadata.OutputTokens > 0 {
		fmt.Fprintf(&b, "\n_Tokens: %d in, %d out. Estimated cost: $%.4f._\n",
			r.Metadata.InputTokens, r.Metadata.OutputTokens, r.Metadata.EstimatedCostUSD)
	}

	b.WriteString("\n## Narrative Report\n\n")
	b.WriteString(strings.TrimSpace(r.NarrativeReport))
	b.WriteString("\n\n## Section Highlights\n")

	for _, name := range sectionOrder(s) {
		sec := s.Sections[name]
		fmt.Fprintf(&b, "\n### %s (confidence %.2f)\n\n", name, sec.Confidence)
		if len(sec.Highlights) == 0 {
			b.WriteString("_No highlights._\n")
		}
		for _, h := range sec.Highlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
		if len(sec.GapsNext) > 0 {
			b.WriteString("\n**Open questions**\n\n")
			for _, g := range sec.GapsNext {
				fmt.Fprintf(&b, "- %s\n", g)
			}
		}
		if len(sec.FactsRef) > 0 {
			b.WriteString("\n**Sources**\n\n")
			ids := make([]string, 0, len(sec.FactsRef))
			for id := range sec.FactsRef {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				for _, u := range sec.FactsRef[id] {
					fmt.Fprintf(&b, "- `%s` <%s>\n", id, u)
				}
			}
		}
	}
	return b.String()
}

// sectionOrder returns the framework order when recorded, otherwise the
// section names sorted.
func sectionOrder(s model.StructuredSummary) []string {
	if len(s.Order) == len(s.Sections) {
		return s.Order
	}
	names := make([]string, 0, len(s.Sections))
	for name := range s.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
