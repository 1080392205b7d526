package domain

import "context"

// Classifier turns a free-text case description into a structured QueryAnalysis.
type Classifier interface {
	Classify(ctx context.Context, query string) (QueryAnalysis, error)
}

// QueryAnalysis is the structured routing result for one query string.
// MatchingText is the text actually embedded for similarity; it may be a
// normalized paraphrase of the raw query. The advisory fields are passed
// through to the caller unchanged and never affect ranking.
type QueryAnalysis struct {
	PrimaryDomain   string  `json:"primary_domain"`
	SecondaryDomain string  `json:"secondary_domain,omitempty"`
	Confidence      float64 `json:"confidence"`
	MatchingText    string  `json:"matching_text"`

	// Advisory fields.
	CaseNature     string   `json:"case_nature,omitempty"`
	CoreRisk       string   `json:"core_risk,omitempty"`
	Urgency        string   `json:"urgency,omitempty"`
	OneLineSummary string   `json:"one_line_summary,omitempty"`
	KeyIssues      []string `json:"key_issues,omitempty"`
	ActionItems    []string `json:"action_items,omitempty"`
}

// FallbackDomain is the catch-all domain used when classification fails
// or the query does not fit any configured practice area.
const FallbackDomain = "other"

// DegradedAnalysis is the fail-open analysis substituted when the classifier
// is unreachable or returns unparseable output: the raw query is embedded
// verbatim and no confidence-gated penalty can fire.
func DegradedAnalysis(query string) QueryAnalysis {
	return QueryAnalysis{
		PrimaryDomain: FallbackDomain,
		Confidence:    0.0,
		MatchingText:  query,
	}
}
