// Package ranking implements the hybrid ranking engine: it fuses embedding
// similarity, the rule-based practice match, a saturating content-credibility
// score and a presence boost into one ranked, filtered, explained result list.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
	"github.com/lawnald/counselrank/internal/domain/rank"
	"github.com/lawnald/counselrank/internal/domain/rank/request"
	"github.com/lawnald/counselrank/internal/domain/rank/result"
	"github.com/lawnald/counselrank/internal/metrics"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

// User-facing messages for the two empty-result outcomes. Neither is an
// error: search degrades, it does not fail.
const (
	msgEmptyIndex  = "No professionals are indexed yet. Please try again later."
	msgUnavailable = "Search is temporarily unavailable. Please try again in a moment."
)

// Response is the outcome of one search: ranked candidates plus the analysis
// that drove the ranking. Degraded is set when the classifier or the embedder
// was unavailable and the ranking quality is reduced.
type Response struct {
	Results  []result.Result
	Analysis domain.QueryAnalysis
	Summary  string
	Message  string
	Degraded bool
}

// Service orchestrates one search request end to end.
type Service struct {
	analyzer Analyzer
	embedder Embedder
	index    VectorIndex
	catalog  CatalogReader
	presence PresenceTracker
	taxonomy domain.Taxonomy
	weights  rank.Weights
	content  rank.ContentTypeWeights
	logger   *zap.Logger
}

// New creates the ranking service.
func New(
	analyzer Analyzer,
	embedder Embedder,
	index VectorIndex,
	catalog CatalogReader,
	presence PresenceTracker,
	taxonomy domain.Taxonomy,
	weights rank.Weights,
	content rank.ContentTypeWeights,
	logger *zap.Logger,
) *Service {
	return &Service{
		analyzer: analyzer,
		embedder: embedder,
		index:    index,
		catalog:  catalog,
		presence: presence,
		taxonomy: taxonomy,
		weights:  weights,
		content:  content,
		logger:   logger,
	}
}

// candidateScore accumulates per-owner similarity evidence during the index
// scan. It lives for one request only.
type candidateScore struct {
	ownerID          string
	maxSim           float64
	sumSim           float64
	bestCaseIdx      int
	bestContentIdx   int
	bestContentScore float64
}

// Search runs the full ranking pipeline. It returns an error only for
// programming faults; external capability failures and an empty index degrade
// into an explained, possibly empty Response.
func (s *Service) Search(ctx context.Context, req request.Request) (Response, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	analysis, degraded := s.analyzer.Analyze(ctx, req.Query())

	embedded, err := s.embedder.Embed(ctx, analysis.MatchingText)
	if err != nil {
		s.logger.Warn("Query embedding unavailable", zap.Error(err))
		metrics.SearchResultsTotal.WithLabelValues("degraded").Inc()
		return Response{
			Analysis: analysis,
			Summary:  s.buildSummary(analysis),
			Message:  msgUnavailable,
			Degraded: true,
		}, nil
	}

	sims, items, err := s.index.Similarities(embedded.Embedding)
	if errors.Is(err, domain.ErrEmptyIndex) {
		metrics.SearchResultsTotal.WithLabelValues("empty").Inc()
		return Response{
			Analysis: analysis,
			Summary:  s.buildSummary(analysis),
			Message:  msgEmptyIndex,
			Degraded: degraded,
		}, nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("similarity scan: %w", err)
	}

	candidates := s.accumulate(sims, items)
	results := s.score(ctx, candidates, analysis, req.Filters())

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
	if len(results) > req.PageSize() {
		results = results[:req.PageSize()]
	}

	outcome := "ok"
	if len(results) == 0 {
		outcome = "empty"
	}
	metrics.SearchResultsTotal.WithLabelValues(outcome).Inc()
	s.logger.Info("Search completed",
		zap.String("primary_domain", analysis.PrimaryDomain),
		zap.Float64("confidence", analysis.Confidence),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Bool("degraded", degraded),
	)

	return Response{
		Results:  results,
		Analysis: analysis,
		Summary:  s.buildSummary(analysis),
		Degraded: degraded,
	}, nil
}

// accumulate groups per-item similarities by owner, in first-seen index order
// so that ties later sort deterministically.
func (s *Service) accumulate(sims []float64, items []vectorstore.Item) []*candidateScore {
	byOwner := make(map[string]*candidateScore)
	var order []*candidateScore

	for i, sim := range sims {
		item := items[i]
		cand, ok := byOwner[item.OwnerID]
		if !ok {
			cand = &candidateScore{
				ownerID:          item.OwnerID,
				maxSim:           -1,
				bestCaseIdx:      -1,
				bestContentIdx:   -1,
				bestContentScore: -1,
			}
			byOwner[item.OwnerID] = cand
			order = append(order, cand)
		}

		switch item.Type {
		case vectorstore.ItemCase:
			if sim > cand.maxSim {
				cand.maxSim = sim
				cand.bestCaseIdx = item.ItemIndex
			}
		case vectorstore.ItemContent:
			if sim > cand.bestContentScore {
				cand.bestContentScore = sim
				cand.bestContentIdx = item.ItemIndex
			}
			// Content may be the best match overall.
			if sim > cand.maxSim {
				cand.maxSim = sim
			}
		}

		// Negative correlation is never rewarded.
		if sim > 0 {
			cand.sumSim += sim
		}
	}
	return order
}

// score resolves each candidate against the catalog, applies hard filters and
// fuses all signals into the final score.
func (s *Service) score(
	ctx context.Context, candidates []*candidateScore, analysis domain.QueryAnalysis, filters request.Filters,
) []result.Result {
	primaryTags := s.taxonomy.TagsFor(analysis.PrimaryDomain)
	secondaryTags := s.taxonomy.TagsFor(analysis.SecondaryDomain)
	keywords := s.taxonomy.KeywordsFor(analysis.PrimaryDomain)

	results := make([]result.Result, 0, len(candidates))
	for _, cand := range candidates {
		lawyer, err := s.catalog.Get(cand.ownerID)
		if err != nil {
			// The index can briefly outlive a removed catalog record.
			s.logger.Warn("Indexed owner missing from catalog", zap.String("owner_id", cand.ownerID))
			continue
		}
		if !passesFilters(lawyer, filters) {
			continue
		}

		practice := 0.0
		switch {
		case lawyer.HasExpertise(primaryTags):
			practice = 1.0
		case lawyer.HasExpertise(secondaryTags):
			practice = s.weights.SecondaryPractice
		}

		contentScore, contentCount := s.contentCredibility(lawyer, keywords)

		simScore := s.weights.MaxSim*cand.maxSim +
			s.weights.SumSim*math.Min(cand.sumSim, s.weights.SumSimCap)/s.weights.SumSimCap
		base := s.weights.Similarity*simScore + s.weights.Practice*practice
		final := s.weights.Base*base + s.weights.Content*contentScore

		// Keeps confidently off-topic candidates out of the top results even
		// when their raw text similarity is high.
		if analysis.Confidence >= s.weights.ConfidenceGate && practice == 0 {
			final *= s.weights.OffDomainPenalty
		}

		online := s.presence.IsActive(ctx, lawyer.ID)
		if online {
			final *= s.weights.PresenceBoost
		}

		var bestCase *profile.CaseSummary
		if cand.bestCaseIdx >= 0 && cand.bestCaseIdx < len(lawyer.Cases) {
			bestCase = &lawyer.Cases[cand.bestCaseIdx]
		}
		var bestContent *profile.ContentItem
		if cand.bestContentIdx >= 0 && cand.bestContentIdx < len(lawyer.ContentItems) {
			bestContent = &lawyer.ContentItems[cand.bestContentIdx]
		}

		explanation := buildExplanation(analysis, lawyer, practice == 1.0, bestCase, bestContent)
		highlights := ""
		if contentCount > 0 {
			highlights = fmt.Sprintf("%d verified publications in this area", contentCount)
		}

		results = append(results, result.New(
			lawyer, final, practice, contentScore,
			bestCase, bestContent, explanation, highlights, online,
		))
	}
	return results
}

// contentCredibility accumulates the raw weight of the owner's verified
// in-domain content and compresses it with log10(1+raw), capped at 1.0, so
// publication volume alone cannot out-rank genuine expertise.
func (s *Service) contentCredibility(lawyer profile.Lawyer, keywords []string) (float64, int) {
	raw := 0.0
	count := 0
	for _, item := range lawyer.ContentItems {
		if !item.Verified {
			continue
		}
		if !domain.MatchesTopic(item.TopicTags, keywords) {
			continue
		}
		raw += s.content[item.Type]
		count++
	}
	return math.Min(math.Log10(1+raw), 1.0), count
}

func passesFilters(lawyer profile.Lawyer, f request.Filters) bool {
	if f.Location != "" && !strings.Contains(lawyer.Location, f.Location) {
		return false
	}
	if f.Gender != "" && lawyer.Gender != f.Gender {
		return false
	}
	if f.Education != "" && lawyer.Education != f.Education {
		return false
	}
	if f.CareerTag != "" && !lawyer.HasCareerTag(f.CareerTag) {
		return false
	}
	return true
}

// buildExplanation picks the strongest available justification: a similar
// successful case, then proven published content, then the practice-area
// match, then a generic domain reference.
func buildExplanation(
	analysis domain.QueryAnalysis, lawyer profile.Lawyer, primaryMatch bool,
	bestCase *profile.CaseSummary, bestContent *profile.ContentItem,
) string {
	nature := analysis.CaseNature
	if nature == "" {
		nature = "this matter"
	}
	switch {
	case bestCase != nil:
		return fmt.Sprintf("Has handled similar successful cases for %s, including %q.", nature, bestCase.Title)
	case bestContent != nil:
		return fmt.Sprintf("Demonstrated expertise on %s through published content such as %q.", nature, bestContent.Title)
	case primaryMatch && len(lawyer.Expertise) > 0:
		return fmt.Sprintf("This matter involves %s; holds the %s specialization.", analysis.PrimaryDomain, lawyer.Expertise[0])
	default:
		return fmt.Sprintf("Has experience with matters related to %s.", analysis.PrimaryDomain)
	}
}

// buildSummary renders the analysis into the one-line summary shown above the
// result list.
func (s *Service) buildSummary(analysis domain.QueryAnalysis) string {
	issues := analysis.KeyIssues
	if len(issues) > 3 {
		issues = issues[:3]
	}
	summary := fmt.Sprintf("This matter is analyzed as a %s issue", analysis.PrimaryDomain)
	if len(issues) > 0 {
		summary += fmt.Sprintf(" (%s)", strings.Join(issues, ", "))
	}
	summary += "."
	if analysis.SecondaryDomain != "" {
		summary += fmt.Sprintf(" It also touches on %s.", analysis.SecondaryDomain)
	}
	return summary
}
