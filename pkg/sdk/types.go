package counselrank

import (
	"context"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Classifier turns a free-text case description into a structured Analysis.
// Optional: without one the engine ranks with the fallback domain.
type Classifier interface {
	Classify(ctx context.Context, query string) (Analysis, error)
}

// Analysis is the structured query analysis driving the ranking.
type Analysis struct {
	PrimaryDomain   string
	SecondaryDomain string
	Confidence      float64
	MatchingText    string
	CaseNature      string
	CoreRisk        string
	Urgency         string
	OneLineSummary  string
	KeyIssues       []string
	ActionItems     []string
}

// Case is one case summary of a professional.
type Case struct {
	Title   string
	Summary string
}

// ContentItem is one published content item of a professional.
type ContentItem struct {
	Title     string
	Summary   string
	Type      string // book, lecture, column, blog, youtube, case
	Verified  bool
	TopicTags []string
}

// Professional is one catalog record eligible for ranking.
type Professional struct {
	ID           string
	Name         string
	Firm         string
	Location     string
	Gender       string
	Education    string
	CareerTags   []string
	Expertise    []string
	Cases        []Case
	ContentItems []ContentItem
}

// Filters are the hard metadata predicates applied before scoring.
type Filters struct {
	Location  string // substring match
	Gender    string // exact match
	Education string // exact match
	CareerTag string // membership in the career tag set
}

// SearchResult is one ranked professional with its explanation.
type SearchResult struct {
	OwnerID           string
	Name              string
	Firm              string
	Location          string
	Score             float64
	PracticeScore     float64
	ContentScore      float64
	BestCase          *Case
	BestContent       *ContentItem
	Explanation       string
	ContentHighlights string
	Online            bool
}

// SearchResponse is the outcome of one search.
type SearchResponse struct {
	Results         []SearchResult
	Analysis        Analysis
	AnalysisSummary string
	Message         string
	Degraded        bool
}

func professionalToDomain(p Professional) profile.Lawyer {
	cases := make([]profile.CaseSummary, len(p.Cases))
	for i, c := range p.Cases {
		cases[i] = profile.CaseSummary{Title: c.Title, Summary: c.Summary}
	}
	items := make([]profile.ContentItem, len(p.ContentItems))
	for i, c := range p.ContentItems {
		items[i] = profile.ContentItem{
			Title:     c.Title,
			Summary:   c.Summary,
			Type:      profile.ContentType(c.Type),
			Verified:  c.Verified,
			TopicTags: c.TopicTags,
		}
	}
	return profile.Lawyer{
		ID:           p.ID,
		Name:         p.Name,
		Firm:         p.Firm,
		Location:     p.Location,
		Gender:       p.Gender,
		Education:    p.Education,
		CareerTags:   p.CareerTags,
		Expertise:    p.Expertise,
		Cases:        cases,
		ContentItems: items,
	}
}

func analysisFromDomain(a domain.QueryAnalysis) Analysis {
	return Analysis{
		PrimaryDomain:   a.PrimaryDomain,
		SecondaryDomain: a.SecondaryDomain,
		Confidence:      a.Confidence,
		MatchingText:    a.MatchingText,
		CaseNature:      a.CaseNature,
		CoreRisk:        a.CoreRisk,
		Urgency:         a.Urgency,
		OneLineSummary:  a.OneLineSummary,
		KeyIssues:       a.KeyIssues,
		ActionItems:     a.ActionItems,
	}
}

func analysisToDomain(a Analysis) domain.QueryAnalysis {
	return domain.QueryAnalysis{
		PrimaryDomain:   a.PrimaryDomain,
		SecondaryDomain: a.SecondaryDomain,
		Confidence:      a.Confidence,
		MatchingText:    a.MatchingText,
		CaseNature:      a.CaseNature,
		CoreRisk:        a.CoreRisk,
		Urgency:         a.Urgency,
		OneLineSummary:  a.OneLineSummary,
		KeyIssues:       a.KeyIssues,
		ActionItems:     a.ActionItems,
	}
}
