package model

import (
	"strings"
)

// Framework names accepted as a run selector.
const (
	FrameworkBigIdea      = "big-idea"
	FrameworkSpecificIdea = "specific-idea"
)

// SectionDescriptor describes one independently researched sub-topic of a framework.
type SectionDescriptor struct {
	Section        string   `json:"section" yaml:"section"`
	Description    string   `json:"description" yaml:"description"`
	Facets         []string `json:"facets" yaml:"facets"`
	ExampleQueries []string `json:"example_queries" yaml:"example_queries"`
}

// RunParams are the per-run research parameters. MaxQueries may be
// overridden per section after complexity classification.
type RunParams struct {
	Depth        string   `json:"depth"`
	LookbackDays int      `json:"lookback_days"`
	Langs        []string `json:"langs"`
	KPerQuery    int      `json:"k_per_query"`
	MaxQueries   int      `json:"max_queries"`
}

// WithMaxQueries returns a copy of p with MaxQueries replaced.
func (p RunParams) WithMaxQueries(n int) RunParams {
	out := p
	out.Langs = append([]string(nil), p.Langs...)
	out.MaxQueries = n
	return out
}

// SectionDetails is the context every stage of a section pipeline receives.
type SectionDetails struct {
	Framework  string            `json:"framework"`
	Topic      string            `json:"topic_or_idea"`
	Descriptor SectionDescriptor `json:"section_descriptor"`
	RunParams  RunParams         `json:"run_params"`
}

// Complexity classes returned by the complexity classifier.
const (
	ComplexitySimple   = "simple"
	ComplexityModerate = "moderate"
	ComplexityComplex  = "complex"
)

// ComplexityAssessment is the complexity classifier's reply.
type ComplexityAssessment struct {
	Complexity            string `json:"complexity"`
	Reasoning             string `json:"reasoning"`
	RecommendedQueryCount int    `json:"recommended_query_count"`
	SearchStrategyNotes   string `json:"search_strategy_notes"`
}

// QueryAxes tags a query with the dimensions it targets.
type QueryAxes struct {
	Facet    string `json:"facet,omitempty"`
	Geo      string `json:"geo,omitempty"`
	Time     string `json:"time,omitempty"`
	Modality string `json:"modality,omitempty"`
}

// Query is one search query produced by the query generator or the critic.
type Query struct {
	Q       string     `json:"q"`
	Family  string     `json:"family,omitempty"`
	Axes    *QueryAxes `json:"axes,omitempty"`
	Purpose string     `json:"purpose,omitempty"`
}

// QueryPlan is the query generator's reply.
type QueryPlan struct {
	Queries []Query `json:"queries"`
}

// Fact is an atomic, source-attributed claim extracted during research.
type Fact struct {
	FactID          string   `json:"fact_id"`
	Entity          string   `json:"entity"`
	Claim           string   `json:"claim"`
	SourceURL       string   `json:"source_url"`
	Publisher       string   `json:"publisher"`
	DateEvent       string   `json:"date_event"`
	DatePublished   *string  `json:"date_published,omitempty"`
	Evidence        string   `json:"evidence"`
	Facet           string   `json:"facet"`
	Geo             string   `json:"geo"`
	Modality        string   `json:"modality"`
	Confidence      float64  `json:"confidence"`
	Tags            []string `json:"tags"`
	Stale           bool     `json:"stale"`
	ConflictGroupID *string  `json:"conflict_group_id,omitempty"`
}

// DedupKey identifies a fact by entity, claim and source URL. Entity and
// claim compare case-insensitively after trimming; the URL compares exactly.
func (f Fact) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(f.Entity)) + "\x1f" +
		strings.ToLower(strings.TrimSpace(f.Claim)) + "\x1f" +
		f.SourceURL
}

// ResearchResult is the researcher's reply.
type ResearchResult struct {
	Facts       []Fact   `json:"facts"`
	DomainsSeen []string `json:"domains_seen"`
	GapFlags    []string `json:"gap_flags"`
}

// EvidenceBullet is an analyst statement with the fact ids supporting it.
type EvidenceBullet struct {
	Text        string   `json:"text"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// Conflict groups fact ids that disagree.
type Conflict struct {
	Group       string   `json:"group"`
	WhatDiffers string   `json:"what_differs"`
	Members     []string `json:"members"`
}

// RankedOption is a specific-idea analyst option with its rationale.
type RankedOption struct {
	Label       string   `json:"label"`
	Why         string   `json:"why"`
	Risks       string   `json:"risks"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// AnalystOutput is the analyst's reply. Big-idea sections fill
// MiniTakeaways and Conflicts; specific-idea sections fill RankedOptions and
// AssumptionsToTest.
type AnalystOutput struct {
	Section           string           `json:"section"`
	Bullets           []EvidenceBullet `json:"bullets"`
	MiniTakeaways     []string         `json:"mini_takeaways,omitempty"`
	Conflicts         []Conflict       `json:"conflicts,omitempty"`
	RankedOptions     []RankedOption   `json:"ranked_options,omitempty"`
	AssumptionsToTest []string         `json:"assumptions_to_test,omitempty"`
	GapsNext          []string         `json:"gaps_next"`
}

// CriticOutput is the critic's quality assessment.
type CriticOutput struct {
	NeedsIteration       bool     `json:"needs_iteration"`
	IterationReason      string   `json:"iteration_reason"`
	QualityIssues        []string `json:"quality_issues"`
	GapQueries           []Query  `json:"gap_queries"`
	ConfidenceAssessment float64  `json:"confidence_assessment"`
}

// EditorOutput is the editor's raw reply, citing fact ids only.
type EditorOutput struct {
	Section    string   `json:"section"`
	Highlights []string `json:"highlights"`
	FactsRef   []string `json:"facts_ref"`
	GapsNext   []string `json:"gaps_next"`
	Confidence float64  `json:"confidence"`
}

// SectionBrief is the finalized summary for one section. FactsRef maps each
// cited fact id to its source URLs.
type SectionBrief struct {
	Section    string              `json:"section"`
	Highlights []string            `json:"highlights"`
	FactsRef   map[string][]string `json:"facts_ref"`
	GapsNext   []string            `json:"gaps_next"`
	Confidence float64             `json:"confidence"`
}

// SectionArtifacts are the intermediate outputs of a section pipeline.
type SectionArtifacts struct {
	Complexity  ComplexityAssessment `json:"complexity"`
	Queries     QueryPlan            `json:"queries"`
	Research    ResearchResult       `json:"facts"`
	Analysis    AnalystOutput        `json:"analysis"`
	Critic      *CriticOutput        `json:"critic,omitempty"`
	GapResearch *ResearchResult      `json:"gap_research,omitempty"`
	Iterated    bool                 `json:"iterated"`
	FactURLs    map[string][]string  `json:"facts_to_url_mapping"`
}

// SectionResult is the terminal artifact of one section pipeline.
type SectionResult struct {
	Section   string           `json:"section"`
	Brief     SectionBrief     `json:"section_brief"`
	Artifacts SectionArtifacts `json:"artifacts"`
}

// Search kinds accepted by the searcher.
const (
	SearchWeb  = "web"
	SearchNews = "news"
)

// QueryHits are the search results gathered for one query.
type QueryHits struct {
	Query string      `json:"q"`
	Kind  string      `json:"kind"`
	Hits  []SearchHit `json:"results"`
}

// PageExcerpt is the visible text of a source page read for the analyst.
type PageExcerpt struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}
