// Package rank holds the scoring model for the hybrid ranking engine: the
// fusion weights and the content-credibility weighting of published items.
package rank

import (
	"fmt"

	"github.com/lawnald/counselrank/internal/domain/profile"
)

// Weights are the tunable constants of the score fusion formula. They are
// loaded from configuration so the ranking is reproducible without code
// changes.
type Weights struct {
	// Similarity composite: MaxSim*max + SumSim*min(sum, SumSimCap)/SumSimCap.
	MaxSim    float64 `yaml:"max_sim"`
	SumSim    float64 `yaml:"sum_sim"`
	SumSimCap float64 `yaml:"sum_sim_cap"`

	// Base score: Similarity*sim + Practice*practice.
	Similarity float64 `yaml:"similarity"`
	Practice   float64 `yaml:"practice"`

	// Final score: Base*base + Content*content.
	Base    float64 `yaml:"base"`
	Content float64 `yaml:"content"`

	// SecondaryPractice is the practice score for a secondary-domain-only match.
	SecondaryPractice float64 `yaml:"secondary_practice"`
	// ConfidenceGate is the classifier confidence at or above which the
	// off-domain penalty applies.
	ConfidenceGate float64 `yaml:"confidence_gate"`
	// OffDomainPenalty multiplies the final score of a zero-practice candidate
	// when the gate fires.
	OffDomainPenalty float64 `yaml:"off_domain_penalty"`
	// PresenceBoost multiplies the final score of a currently active candidate.
	PresenceBoost float64 `yaml:"presence_boost"`
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		MaxSim:            0.9,
		SumSim:            0.1,
		SumSimCap:         3.0,
		Similarity:        0.75,
		Practice:          0.25,
		Base:              0.90,
		Content:           0.10,
		SecondaryPractice: 0.5,
		ConfidenceGate:    0.7,
		OffDomainPenalty:  0.5,
		PresenceBoost:     1.1,
	}
}

// Validate rejects weight sets that cannot produce a meaningful ranking.
func (w Weights) Validate() error {
	for _, c := range []struct {
		name string
		val  float64
	}{
		{"max_sim", w.MaxSim},
		{"sum_sim", w.SumSim},
		{"similarity", w.Similarity},
		{"practice", w.Practice},
		{"base", w.Base},
		{"content", w.Content},
	} {
		if c.val < 0 || c.val > 1 {
			return fmt.Errorf("weight %s must be in [0,1], got %v", c.name, c.val)
		}
	}
	if w.SumSimCap <= 0 {
		return fmt.Errorf("sum_sim_cap must be positive, got %v", w.SumSimCap)
	}
	if w.ConfidenceGate < 0 || w.ConfidenceGate > 1 {
		return fmt.Errorf("confidence_gate must be in [0,1], got %v", w.ConfidenceGate)
	}
	if w.OffDomainPenalty <= 0 || w.OffDomainPenalty > 1 {
		return fmt.Errorf("off_domain_penalty must be in (0,1], got %v", w.OffDomainPenalty)
	}
	if w.PresenceBoost < 1 {
		return fmt.Errorf("presence_boost must be >= 1, got %v", w.PresenceBoost)
	}
	return nil
}

// ContentTypeWeights maps a content type to its raw credibility weight.
// Long-form authoritative formats weigh more than short-form ones; the
// accumulated raw weight is compressed with log10(1+raw) so volume alone
// cannot out-rank genuine domain expertise.
type ContentTypeWeights map[profile.ContentType]float64

// DefaultContentTypeWeights returns the production content weighting.
func DefaultContentTypeWeights() ContentTypeWeights {
	return ContentTypeWeights{
		profile.ContentBook:    5,
		profile.ContentLecture: 3,
		profile.ContentColumn:  2,
		profile.ContentBlog:    1,
		profile.ContentYoutube: 1,
	}
}
