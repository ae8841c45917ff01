package model

// SectionSummary is the structured summary entry for one section.
type SectionSummary struct {
	Highlights []string            `json:"highlights"`
	Confidence float64             `json:"confidence"`
	FactsRef   map[string][]string `json:"facts_ref"`
	GapsNext   []string            `json:"gaps_next"`
}

// StructuredSummary is the per-section summary of a run.
type StructuredSummary struct {
	Framework string                    `json:"framework"`
	Topic     string                    `json:"topic"`
	Sections  map[string]SectionSummary `json:"sections"`
	// Order lists the section names in framework order.
	Order     []string                  `json:"section_order,omitempty"`
}

// GlobalFact is a fact re-keyed into the run-wide namespace.
type GlobalFact struct {
	Fact
	OriginalFactID string `json:"original_fact_id"`
	SectionSource  string `json:"section_source"`
}

// ReportMetadata summarizes a run.
type ReportMetadata struct {
	TotalFacts       int     `json:"total_facts"`
	AvgConfidence    float64 `json:"avg_confidence"`
	SectionsCount    int     `json:"sections_count"`
	InputTokens      int     `json:"input_tokens,omitempty"`
	OutputTokens     int     `json:"output_tokens,omitempty"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd,omitempty"`
}

// FinalReport is the terminal payload of a run.
type FinalReport struct {
	StructuredSummary StructuredSummary   `json:"structured_summary"`
	NarrativeReport   string              `json:"narrative_report"`
	Metadata          ReportMetadata      `json:"metadata"`
	Facts             []GlobalFact        `json:"facts,omitempty"`
	FactURLs          map[string][]string `json:"global_facts_to_url_mapping,omitempty"`
}

// UpdateKind classifies a progress stream element.
type UpdateKind string

// Update kinds emitted by the run orchestrator.
const (
	UpdateStart         UpdateKind = "start"
	UpdateProgress      UpdateKind = "progress"
	UpdateSectionDone   UpdateKind = "section_done"
	UpdateSectionFailed UpdateKind = "section_failed"
	UpdateError         UpdateKind = "error"
	UpdateReporting     UpdateKind = "reporting"
	UpdateReport        UpdateKind = "report"
)

// Update is one element of a run's progress stream. Report is set only on
// the terminal UpdateReport element.
type Update struct {
	RunID   string       `json:"run_id,omitempty"`
	Kind    UpdateKind   `json:"kind"`
	Section string       `json:"section,omitempty"`
	Text    string       `json:"text"`
	Report  *FinalReport `json:"report,omitempty"`
}

// Page is the visible content of a web page read by a page reader.
type Page struct {
	Title      string `json:"title"`
	FinalURL   string `json:"final_url"`
	StatusCode int    `json:"status_code"`
	Text       string `json:"visible_text"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

// SearchHit is one normalized web or news search result.
type SearchHit struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date,omitempty"`
	Source   string `json:"source,omitempty"`
	Position int    `json:"position,omitempty"`
}

// TokenUsage tracks token consumption for a generation call.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens,omitempty"`
	CacheReadTokens     int `json:"cache_read_tokens,omitempty"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}
