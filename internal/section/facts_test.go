package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deep-research/internal/model"
)

func TestMergeFacts(t *testing.T) {
	base := model.ResearchResult{
		Facts: []model.Fact{
			{FactID: "s1", Entity: "Acme", Claim: "Revenue $10M", SourceURL: "https://a.com"},
			{FactID: "s1_g1", Entity: "Acme", Claim: "Founded 2019", SourceURL: "https://a.com"},
		},
		GapFlags: []string{"need_academic"},
	}
	extra := model.ResearchResult{
		Facts: []model.Fact{
			{FactID: "x", Entity: "ACME ", Claim: " revenue $10m", SourceURL: "https://a.com"},
			{FactID: "y", Entity: "Acme", Claim: "Revenue $10M", SourceURL: "https://b.com"},
			{FactID: "s1", Entity: "Acme", Claim: "Headcount 50", SourceURL: "https://c.com"},
			{FactID: "", Entity: "Acme", Claim: "HQ Austin", SourceURL: "https://d.com"},
			{FactID: "z", Entity: "Acme", Claim: "Headcount 50", SourceURL: "https://c.com"},
		},
		GapFlags: []string{"need_academic", "need_forum"},
	}

	merged, added := MergeFacts(base, extra)

	ids := make([]string, len(merged.Facts))
	for i, f := range merged.Facts {
		ids[i] = f.FactID
	}
	assert.Equal(t, []string{"s1", "s1_g1", "y", "s1_g2", "fact_g3"}, ids)
	require.Len(t, added, 3)
	assert.Equal(t, []string{"need_academic", "need_forum"}, merged.GapFlags)
	assert.Len(t, base.Facts, 2)
}

func TestMergeFacts_EmptyBase(t *testing.T) {
	merged, added := MergeFacts(model.ResearchResult{}, model.ResearchResult{})
	assert.NotNil(t, merged.Facts)
	assert.Empty(t, added)
	assert.Equal(t, []string{}, merged.DomainsSeen)
}

func TestResolveFactsRef(t *testing.T) {
	m := map[string][]string{"s1": {"https://a.com", "https://b.com"}, "s2": {}}
	got := ResolveFactsRef([]string{"s1", "missing", "s2"}, m)

	assert.Equal(t, map[string][]string{"s1": {"https://a.com", "https://b.com"}, "s2": {}}, got)

	got["s1"][0] = "mutated"
	assert.Equal(t, "https://a.com", m["s1"][0])
}

func TestAddFactURLs(t *testing.T) {
	m := map[string][]string{}
	addFactURLs(m, []model.Fact{
		{FactID: "s1", SourceURL: "https://a.com"},
		{FactID: "s1", SourceURL: "https://b.com"},
		{FactID: "s1", SourceURL: "https://a.com"},
		{FactID: "", SourceURL: "https://c.com"},
	})
	assert.Equal(t, map[string][]string{"s1": {"https://a.com", "https://b.com"}}, m)
}
