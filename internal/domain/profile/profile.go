// Package profile holds the read-only professional catalog records the
// ranking engine scores against. The engine never mutates these.
package profile

// ContentType classifies a published content item for credibility weighting.
type ContentType string

// Known content types.
const (
	ContentBook    ContentType = "book"
	ContentLecture ContentType = "lecture"
	ContentColumn  ContentType = "column"
	ContentBlog    ContentType = "blog"
	ContentYoutube ContentType = "youtube"
	ContentCase    ContentType = "case"
)

// CaseSummary is one resolved matter on a professional's record.
type CaseSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ContentItem is one piece of published content. Only verified items of an
// allow-listed type are indexed, and only verified items count toward the
// content-credibility score.
type ContentItem struct {
	Title     string      `json:"title"`
	Summary   string      `json:"summary"`
	Type      ContentType `json:"type"`
	Verified  bool        `json:"verified"`
	TopicTags []string    `json:"topic_tags"`
}

// Lawyer is one professional eligible for ranking.
type Lawyer struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Firm         string        `json:"firm"`
	Location     string        `json:"location"`
	Gender       string        `json:"gender"`
	Education    string        `json:"education"`
	CareerTags   []string      `json:"career_tags"`
	Expertise    []string      `json:"expertise"`
	Cases        []CaseSummary `json:"cases"`
	ContentItems []ContentItem `json:"content_items"`
}

// HasExpertise reports whether any of the professional's practice-area tags
// appears in the given tag set.
func (l *Lawyer) HasExpertise(tags []string) bool {
	for _, want := range tags {
		for _, have := range l.Expertise {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasCareerTag reports whether the professional carries the given career tag.
func (l *Lawyer) HasCareerTag(tag string) bool {
	for _, t := range l.CareerTags {
		if t == tag {
			return true
		}
	}
	return false
}
