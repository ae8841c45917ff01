package section

import (
	"fmt"
	"slices"

	"github.com/sells-group/deep-research/internal/model"
)

// MergeFacts merges an iteration round into base. Facts whose dedup key is
// already present are dropped. Kept facts whose id collides with an
// existing id are re-keyed to <id>_g<n>. It returns the merged result and
// the facts that were added.
func MergeFacts(base, extra model.ResearchResult) (model.ResearchResult, []model.Fact) {
	out := model.ResearchResult{
		Facts:       slices.Clone(base.Facts),
		DomainsSeen: union(base.DomainsSeen, extra.DomainsSeen),
		GapFlags:    union(base.GapFlags, extra.GapFlags),
	}
	if out.Facts == nil {
		out.Facts = []model.Fact{}
	}

	keys := make(map[string]bool, len(base.Facts))
	ids := make(map[string]bool, len(base.Facts))
	for _, f := range base.Facts {
		keys[f.DedupKey()] = true
		ids[f.FactID] = true
	}

	var added []model.Fact
	n := 0
	for _, f := range extra.Facts {
		key := f.DedupKey()
		if keys[key] {
			continue
		}
		keys[key] = true

		if f.FactID == "" || ids[f.FactID] {
			orig := f.FactID
			if orig == "" {
				orig = "fact"
			}
			for {
				n++
				f.FactID = fmt.Sprintf("%s_g%d", orig, n)
				if !ids[f.FactID] {
					break
				}
			}
		}
		ids[f.FactID] = true
		out.Facts = append(out.Facts, f)
		added = append(added, f)
	}
	return out, added
}

// ResolveFactsRef maps cited fact ids to their source URLs. Ids with no
// mapping are dropped.
func ResolveFactsRef(refs []string, factURLs map[string][]string) map[string][]string {
	out := make(map[string][]string, len(refs))
	for _, id := range refs {
		urls, ok := factURLs[id]
		if !ok {
			continue
		}
		out[id] = append([]string{}, urls...)
	}
	return out
}

func addFactURLs(m map[string][]string, facts []model.Fact) {
	for _, f := range facts {
		if f.FactID == "" {
			continue
		}
		urls := m[f.FactID]
		if f.SourceURL != "" && !slices.Contains(urls, f.SourceURL) {
			urls = append(urls, f.SourceURL)
		}
		m[f.FactID] = urls
	}
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, s := range append(slices.Clone(a), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
