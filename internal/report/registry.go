// Package report builds the final report of a run: the structured summary,
// the run-wide fact registry and the narrative.
package report

import (
	"fmt"
	"slices"

	"github.com/sells-group/deep-research/internal/model"
)

// Registry re-keys facts from all sections into one run-wide namespace,
// deduplicating by entity, claim and source URL.
type Registry struct {
	next  int
	byKey map[string]string
	facts []model.GlobalFact
	urls  map[string][]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]string),
		urls:  make(map[string][]string),
	}
}

// Add registers a fact from section with its source URLs and returns its
// global id. Adding a fact with an already registered dedup key returns
// the existing id and changes nothing.
func (r *Registry) Add(section string, f model.Fact, urls []string) string {
	key := f.DedupKey()
	if id, ok := r.byKey[key]; ok {
		return id
	}

	r.next++
	id := fmt.Sprintf("global_%d", r.next)
	r.byKey[key] = id

	gf := model.GlobalFact{Fact: f, OriginalFactID: f.FactID, SectionSource: section}
	gf.FactID = id
	r.facts = append(r.facts, gf)

	if len(urls) == 0 && f.SourceURL != "" {
		urls = []string{f.SourceURL}
	}
	r.urls[id] = slices.Clone(urls)
	return id
}

// Len returns the number of distinct facts.
func (r *Registry) Len() int { return len(r.facts) }

// Facts returns the registered facts in registration order.
func (r *Registry) Facts() []model.GlobalFact {
	return slices.Clone(r.facts)
}

// URLs returns the global fact id to source URL mapping.
func (r *Registry) URLs() map[string][]string {
	out := make(map[string][]string, len(r.urls))
	for id, u := range r.urls {
		out[id] = slices.Clone(u)
	}
	return out
}
