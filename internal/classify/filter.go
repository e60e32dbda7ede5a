package classify

import "strings"

// Filter is the relevance gate in front of the classifier. The upstream
// query is a broad OR of terms and returns off-topic articles; the filter
// keeps only articles whose text contains at least one domain vocabulary
// term.
type Filter struct {
	terms []string
}

// NewFilter lowercases and trims the vocabulary once at construction.
func NewFilter(vocabulary []string) *Filter {
	terms := make([]string, 0, len(vocabulary))
	for _, term := range vocabulary {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return &Filter{terms: terms}
}

// Relevant reports whether the haystack contains any vocabulary term.
// An empty vocabulary disables the gate entirely.
func (f *Filter) Relevant(haystack string) bool {
	if len(f.terms) == 0 {
		return true
	}
	for _, term := range f.terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
