package domain

import (
	"sort"
	"strings"
)

// DomainMapping binds one practice domain to its controlled-vocabulary tags
// and the keywords used for content topic matching.
type DomainMapping struct {
	// Tags are the official practice-area tags a professional may carry.
	Tags []string
	// Keywords are matched as substrings against content topic tags.
	Keywords []string
}

// Taxonomy maps analyzed domain names to practice-area tags and content keywords.
// The set of domains is configuration, not code.
type Taxonomy map[string]DomainMapping

// TagsFor returns the practice-area tags for a domain. Unknown domains
// (including the fallback domain) map to no tags.
func (t Taxonomy) TagsFor(domain string) []string {
	return t[domain].Tags
}

// KeywordsFor returns the content-matching keywords for a domain, always
// including the domain name itself.
func (t Taxonomy) KeywordsFor(domain string) []string {
	if domain == "" {
		return nil
	}
	kws := t[domain].Keywords
	out := make([]string, 0, len(kws)+1)
	out = append(out, domain)
	out = append(out, kws...)
	return out
}

// MatchesTopic reports whether any topic tag contains any of the keywords,
// case-insensitively.
func MatchesTopic(topicTags, keywords []string) bool {
	for _, tag := range topicTags {
		lt := strings.ToLower(tag)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lt, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// DefaultTaxonomy returns the built-in legal practice taxonomy. Deployments
// override it via configuration.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		"family":      {Tags: []string{"family law", "divorce", "inheritance"}, Keywords: []string{"divorce", "inheritance", "custody"}},
		"criminal":    {Tags: []string{"criminal law", "sex crimes", "traffic accidents"}, Keywords: []string{"crime", "sex crime", "traffic", "fraud"}},
		"civil":       {Tags: []string{"civil law", "damages", "debt collection"}, Keywords: []string{"damages", "debt"}},
		"real-estate": {Tags: []string{"real estate law", "construction", "redevelopment"}, Keywords: []string{"lease", "construction", "real estate"}},
		"labor":       {Tags: []string{"labor law", "industrial accidents"}, Keywords: []string{"labor", "workplace"}},
		"medical":     {Tags: []string{"medical law"}, Keywords: []string{"medical", "malpractice"}},
		"tax":         {Tags: []string{"tax law"}, Keywords: []string{"tax"}},
		"ip":          {Tags: []string{"intellectual property law"}, Keywords: []string{"patent", "trademark", "copyright"}},
		"corporate":   {Tags: []string{"corporate law"}, Keywords: []string{"corporate", "m&a"}},
		"admin":       {Tags: []string{"administrative law"}, Keywords: []string{"administrative"}},
		"intl":        {Tags: []string{"international law"}, Keywords: []string{"international"}},
		FallbackDomain: {},
	}
}

// Domains returns the known domain names for prompt construction, with the
// fallback domain last.
func (t Taxonomy) Domains() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		if name != FallbackDomain {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	names = append(names, FallbackDomain)
	return names
}
