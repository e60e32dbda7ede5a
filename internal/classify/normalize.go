package classify

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsDispatch/internal/domain"
)

// Haystack builds the lowercase text that both the relevance filter and the
// classifier match against: title, description, and body joined by spaces.
// Provider body fields occasionally carry HTML fragments; those are reduced
// to their text content first so keywords inside tags or attributes cannot
// fire.
func Haystack(article domain.Article) string {
	parts := []string{article.Title, article.Description, article.Content}
	for i, part := range parts {
		if strings.Contains(part, "<") {
			parts[i] = stripMarkup(part)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func stripMarkup(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
