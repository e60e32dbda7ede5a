package classify

import (
	"sort"
	"strings"

	"NewsDispatch/internal/domain"
)

// Classifier assigns at most one category per article. Matching is plain
// substring containment, not word-boundary aware ("oil" matches inside
// "foil"); that false-positive rate is a known, accepted limitation of the
// keyword tables.
type Classifier struct {
	ordered  []domain.Category
	catchAll *domain.Category
}

// NewClassifier sorts the categories by ascending priority rank so that a
// multi-match always resolves to the lowest-rank candidate. Keywords are
// lowercased once here.
func NewClassifier(categories []domain.Category) *Classifier {
	ordered := make([]domain.Category, len(categories))
	copy(ordered, categories)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	c := &Classifier{}
	for i := range ordered {
		keywords := make([]string, 0, len(ordered[i].Keywords))
		for _, kw := range ordered[i].Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		ordered[i].Keywords = keywords

		if ordered[i].CatchAll && c.catchAll == nil {
			catchAll := ordered[i]
			c.catchAll = &catchAll
		}
	}
	c.ordered = ordered

	return c
}

// Classify returns the single winning category for the haystack. Categories
// are probed in priority order and the first keyword hit wins, which keeps
// the choice deterministic under multi-match. With no hit the catch-all is
// returned when one is configured; otherwise the article is unclassified.
func (c *Classifier) Classify(haystack string) (domain.Category, bool) {
	for _, cat := range c.ordered {
		if cat.CatchAll {
			continue
		}
		for _, kw := range cat.Keywords {
			if strings.Contains(haystack, kw) {
				return cat, true
			}
		}
	}

	if c.catchAll != nil {
		return *c.catchAll, true
	}

	return domain.Category{}, false
}
