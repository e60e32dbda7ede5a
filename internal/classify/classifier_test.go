package classify

import (
	"testing"

	"NewsDispatch/internal/domain"
)

func testCategories() []domain.Category {
	return []domain.Category{
		{Name: "crypto", Priority: 1, Keywords: []string{"crypto", "bitcoin", "ethereum"}},
		{Name: "equities", Priority: 5, Keywords: []string{"stock", "share", "earnings"}},
		{Name: "commodities", Priority: 6, Keywords: []string{"commodity", "oil", "gold"}},
	}
}

func TestClassifySingleMatch(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testCategories())

	cat, ok := c.Classify("bitcoin rallies after approval")
	if !ok {
		t.Fatal("expected a category")
	}
	if cat.Name != "crypto" {
		t.Fatalf("expected crypto, got %s", cat.Name)
	}
}

func TestClassifyMultiMatchResolvesByPriority(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testCategories())

	// Matches both equities (rank 5) and commodities (rank 6).
	cat, ok := c.Classify("oil producer stock slides on earnings")
	if !ok {
		t.Fatal("expected a category")
	}
	if cat.Name != "equities" {
		t.Fatalf("expected equities to win the tie, got %s", cat.Name)
	}
}

func TestClassifyIgnoresDeclarationOrder(t *testing.T) {
	t.Parallel()

	// Same categories, declared worst-rank first.
	cats := testCategories()
	cats[0], cats[2] = cats[2], cats[0]
	c := NewClassifier(cats)

	cat, ok := c.Classify("oil producer stock slides on earnings")
	if !ok {
		t.Fatal("expected a category")
	}
	if cat.Name != "equities" {
		t.Fatalf("expected equities regardless of declaration order, got %s", cat.Name)
	}
}

func TestClassifyNoMatchWithoutCatchAll(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testCategories())

	if _, ok := c.Classify("completely unrelated gardening tips"); ok {
		t.Fatal("expected no category without a catch-all")
	}
}

func TestClassifyNoMatchFallsToCatchAll(t *testing.T) {
	t.Parallel()

	cats := append(testCategories(), domain.Category{Name: "general", Priority: 7, CatchAll: true})
	c := NewClassifier(cats)

	cat, ok := c.Classify("completely unrelated gardening tips")
	if !ok {
		t.Fatal("expected the catch-all category")
	}
	if cat.Name != "general" {
		t.Fatalf("expected general, got %s", cat.Name)
	}
}

func TestClassifySubstringContainment(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testCategories())

	// "foil" contains "oil"; substring matching fires on purpose.
	cat, ok := c.Classify("aluminium foil demand surges")
	if !ok {
		t.Fatal("expected a category")
	}
	if cat.Name != "commodities" {
		t.Fatalf("expected commodities, got %s", cat.Name)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	c := NewClassifier(testCategories())
	haystack := "gold and bitcoin both climb as stock markets wobble"

	first, ok := c.Classify(haystack)
	if !ok {
		t.Fatal("expected a category")
	}
	for i := 0; i < 50; i++ {
		again, ok := c.Classify(haystack)
		if !ok || again.Name != first.Name {
			t.Fatalf("classification drifted on repeat call: %s vs %s", again.Name, first.Name)
		}
	}
}
