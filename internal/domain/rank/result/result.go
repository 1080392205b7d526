// Package result defines the ranked candidate returned by the ranking engine.
package result

import "github.com/lawnald/counselrank/internal/domain/profile"

// Result is a single ranked candidate with its explanation.
type Result struct {
	prof              profile.Lawyer
	score             float64
	practiceScore     float64
	contentScore      float64
	bestCase          *profile.CaseSummary
	bestContent       *profile.ContentItem
	explanation       string
	contentHighlights string
	online            bool
}

// New creates a ranked result.
func New(
	prof profile.Lawyer, score, practiceScore, contentScore float64,
	bestCase *profile.CaseSummary, bestContent *profile.ContentItem,
	explanation, contentHighlights string, online bool,
) Result {
	return Result{
		prof:              prof,
		score:             score,
		practiceScore:     practiceScore,
		contentScore:      contentScore,
		bestCase:          bestCase,
		bestContent:       bestContent,
		explanation:       explanation,
		contentHighlights: contentHighlights,
		online:            online,
	}
}

// Profile returns the professional's catalog record.
func (r *Result) Profile() profile.Lawyer { return r.prof }

// Score returns the final fused score.
func (r *Result) Score() float64 { return r.score }

// PracticeScore returns the rule-based domain match indicator (0, 0.5 or 1).
func (r *Result) PracticeScore() float64 { return r.practiceScore }

// ContentScore returns the saturating content-credibility score.
func (r *Result) ContentScore() float64 { return r.contentScore }

// BestCase returns the case that produced the best similarity, if any.
func (r *Result) BestCase() *profile.CaseSummary { return r.bestCase }

// BestContent returns the best-matching content item, if any.
func (r *Result) BestContent() *profile.ContentItem { return r.bestContent }

// Explanation returns the one-line human-readable justification.
func (r *Result) Explanation() string { return r.explanation }

// ContentHighlights summarizes the candidate's verified in-domain publications.
func (r *Result) ContentHighlights() string { return r.contentHighlights }

// Online reports whether the candidate was active at ranking time.
func (r *Result) Online() bool { return r.online }
