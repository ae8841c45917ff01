package framework

import "github.com/sells-group/deep-research/internal/model"

func bigIdeaSections() []model.SectionDescriptor {
	return []model.SectionDescriptor{
		{
			Section:     "landscape",
			Description: "Identify all key companies, startups, incumbents, research labs, and OSS projects in this industry. For each, note their product focus, funding stage (if public), and positioning.",
			Facets:      []string{"companies", "founding_dates", "funding", "product_focus", "geographies"},
			ExampleQueries: []string{
				`"<TOPIC>" companies landscape 2025`,
				`"<TOPIC>" ecosystem map filetype:ppt`,
				`"<TOPIC>" startups funding OR acquisitions`,
			},
		},
		{
			Section:     "product_categories",
			Description: "Classify what kinds of products exist in this industry. Group them into categories by workflow (e.g., generation, editing, distribution, monetization). Highlight what problems each solves.",
			Facets:      []string{"use_cases", "workflows", "customer_segments", "problem_solved"},
			ExampleQueries: []string{
				`"<TOPIC>" categories generation editing distribution`,
				`"<TOPIC>" workflow automation case study`,
			},
		},
		{
			Section:     "tech_stack",
			Description: "Describe the common technologies powering this industry: models, datasets, frameworks, infra. Look for technical benchmarks, latency issues, compute requirements, training methods.",
			Facets:      []string{"model_types", "architectures", "datasets", "benchmarks", "infra", "latency"},
			ExampleQueries: []string{
				`"<TOPIC>" transformer diffusion benchmark`,
				`site:arxiv.org <TOPIC> dataset`,
				`"<TOPIC>" real-time latency`,
			},
		},
		{
			Section:     "research_frontier",
			Description: "Survey the academic and industrial research frontier. What new papers, prototypes, benchmarks, and gaps are being explored? Contrast commercial products vs research-only prototypes.",
			Facets:      []string{"recent_papers", "benchmarks", "open_problems", "academic_vs_commercial_gap"},
			ExampleQueries: []string{
				`site:arxiv.org <TOPIC> 2024`,
				`"<TOPIC>" unsolved problems research gaps`,
			},
		},
		{
			Section:     "market_signals",
			Description: "Collect market activity: funding rounds, partnerships, acquisitions, pricing models. Who pays for what and how? What are the active business models?",
			Facets:      []string{"funding", "partnerships", "acquisitions", "pricing", "business_models"},
			ExampleQueries: []string{
				`"<TOPIC>" Series A OR funding OR raise 2025`,
				`"<TOPIC>" pricing subscription licensing`,
			},
		},
		{
			Section:     "unmet_needs",
			Description: "Find evidence of customer pain points, frictions, or unsolved problems. Include user complaints, reviews, legal/regulatory blocks, and underserved customer segments.",
			Facets:      []string{"pain_points", "frictions", "complaints", "regulation_issues", "underserved_segments"},
			ExampleQueries: []string{
				`"<TOPIC>" problems challenges limitations`,
				`site:reddit.com <TOPIC> workflow issues`,
			},
		},
		{
			Section:     "opportunity_theses",
			Description: "Based on the above sections, synthesize opportunity hypotheses: 'If X is true, then Y is the whitespace'. Each should have a counter-thesis too.",
			Facets:      []string{"thesis", "counter_thesis", "supporting_evidence"},
			ExampleQueries: []string{
				`"<TOPIC>" future opportunity OR whitespace`,
				`"<TOPIC>" industry projections 2025`,
			},
		},
	}
}

func specificIdeaSections() []model.SectionDescriptor {
	return []model.SectionDescriptor{
		{
			Section:     "problem_pain",
			Description: "Gather evidence that the stated problem exists, is painful, urgent, and repeated. Quantify impact if possible.",
			Facets:      []string{"frequency", "severity", "customer_types", "evidence"},
			ExampleQueries: []string{
				`"<TOPIC>" delays costs enterprise`,
				`"<TOPIC>" SLA breach case study`,
			},
		},
		{
			Section:     "buyer_budget_owner",
			Description: "Identify who buys/approves solutions. Which department owns the budget? Who influences decisions?",
			Facets:      []string{"buyers", "budget_lines", "decision_influencers"},
			ExampleQueries: []string{
				`"<TOPIC>" budget owner CIO`,
				`"<TOPIC>" procurement process`,
			},
		},
		{
			Section:     "roi_story",
			Description: "Look for metrics and case studies showing ROI from similar solutions. Capture before/after comparisons.",
			Facets:      []string{"baseline_cost", "improved_metric", "before_after"},
			ExampleQueries: []string{
				`"<TOPIC>" ROI case study`,
				`"<TOPIC>" before after savings`,
			},
		},
		{
			Section:     "defensibility",
			Description: "Identify moats: data, integration depth, workflow lock-in, network effects. Contrast with incumbents.",
			Facets:      []string{"moats", "switching_costs", "integration_barriers", "data_lock_in"},
			ExampleQueries: []string{
				`"<TOPIC>" competitor analysis`,
				`"<TOPIC>" defensibility`,
			},
		},
		{
			Section:     "comp_landscape",
			Description: "List competitors, substitutes, adjacent solutions. Map their positioning and weaknesses.",
			Facets:      []string{"competitors", "alternatives", "substitutes", "strengths_weaknesses"},
			ExampleQueries: []string{
				`"<TOPIC>" competitors`,
				`"<TOPIC>" alternatives substitutes`,
			},
		},
		{
			Section:     "gtm_channels",
			Description: "Investigate possible GTM motions: PLG, integrations, channel partners, direct enterprise sales. Rank feasibility.",
			Facets:      []string{"plg", "integrations", "direct_sales", "partners"},
			ExampleQueries: []string{
				`"<TOPIC>" GTM strategy`,
				`"<TOPIC>" marketplace integration`,
			},
		},
		{
			Section:     "risks",
			Description: "Find risks: regulatory, security, adoption, BigTech incumbents solving it. Include 'if Google ships this tomorrow' thought.",
			Facets:      []string{"regulatory_risks", "security_risks", "adoption_risks", "incumbent_threats"},
			ExampleQueries: []string{
				`"<TOPIC>" security issues`,
				`"BigTech" <TOPIC> automation`,
			},
		},
	}
}
