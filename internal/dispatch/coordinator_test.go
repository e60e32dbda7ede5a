package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"NewsDispatch/internal/classify"
	"NewsDispatch/internal/domain"
	"NewsDispatch/internal/watermark"
)

type fakeSource struct {
	articles []domain.Article
	err      error
}

func (f *fakeSource) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	return f.articles, f.err
}

type sentMessage struct {
	destination string
	msg         domain.Message
}

type fakeTransport struct {
	sent []sentMessage
	err  error
}

func (f *fakeTransport) Send(ctx context.Context, destination string, msg domain.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{destination: destination, msg: msg})
	return nil
}

type fakeDeliveryLog struct {
	records []domain.DeliveryRecord
}

func (f *fakeDeliveryLog) Record(ctx context.Context, rec domain.DeliveryRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func testCategories() []domain.Category {
	return []domain.Category{
		{Name: "crypto", Priority: 1, Destination: "100", Keywords: []string{"crypto", "bitcoin", "ethereum"}},
		{Name: "equities", Priority: 5, Destination: "200", Keywords: []string{"stock", "share", "earnings"}},
		{Name: "commodities", Priority: 6, Destination: "300", Keywords: []string{"commodity", "oil", "gold"}},
	}
}

func categoryNames(categories []domain.Category) []string {
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
	}
	return names
}

type testHarness struct {
	coordinator   *Coordinator
	transport     *fakeTransport
	store         *watermark.Store
	watermarkPath string
}

func newHarness(t *testing.T, src *fakeSource, transport *fakeTransport) *testHarness {
	t.Helper()

	categories := testCategories()
	path := filepath.Join(t.TempDir(), "last_news.json")
	store := watermark.Open(path, categoryNames(categories), nil)

	coordinator := NewCoordinator(Deps{
		Source:     src,
		Transport:  transport,
		Watermarks: store,
		Filter:     classify.NewFilter([]string{"finance", "market", "crypto", "bitcoin", "stock", "commodity", "oil", "gold", "earnings"}),
		Classifier: classify.NewClassifier(categories),
	})

	return &testHarness{
		coordinator:   coordinator,
		transport:     transport,
		store:         store,
		watermarkPath: path,
	}
}

func article(title, url, publishedAt string) domain.Article {
	return domain.Article{
		Title:       title,
		Description: "desc",
		Source:      "Reuters",
		URL:         url,
		PublishedAt: publishedAt,
	}
}

func TestRunCycleDeliversAndAdvancesWatermark(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin hits new high", "https://example.com/a", "2024-01-01T10:00:00Z"),
	}}
	h := newHarness(t, src, &fakeTransport{})

	report, err := h.coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if report.Delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", report.Delivered)
	}
	if len(h.transport.sent) != 1 || h.transport.sent[0].destination != "100" {
		t.Fatalf("unexpected transport calls: %+v", h.transport.sent)
	}

	want := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	if got := h.store.Get("crypto"); !got.Equal(want) {
		t.Fatalf("watermark not advanced: %v", got)
	}

	// Flush ran: the store file exists and round-trips the new mark.
	reloaded := watermark.Open(h.watermarkPath, []string{"crypto"}, nil)
	if got := reloaded.Get("crypto"); !got.Equal(want) {
		t.Fatalf("flushed watermark mismatch: %v", got)
	}
}

func TestRunCycleSuppressesAtWatermarkBoundary(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin steady", "https://example.com/a", "2024-01-01T10:00:00Z"),
	}}
	h := newHarness(t, src, &fakeTransport{})

	// Watermark already sits exactly at the article's publish instant.
	h.store.Advance("crypto", time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC))

	report, err := h.coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if report.Stale != 1 || report.Delivered != 0 {
		t.Fatalf("expected boundary item suppressed, got %+v", report)
	}
	if len(h.transport.sent) != 0 {
		t.Fatalf("transport must not be called, got %+v", h.transport.sent)
	}
}

func TestRunCycleDropsIrrelevantArticles(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("local sports roundup", "https://example.com/sports", "2024-01-01T10:00:00Z"),
	}}
	h := newHarness(t, src, &fakeTransport{})

	report, err := h.coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if report.Irrelevant != 1 || report.Delivered != 0 {
		t.Fatalf("expected article filtered out, got %+v", report)
	}
	for _, cat := range testCategories() {
		if got := h.store.Get(cat.Name); !got.Equal(watermark.Sentinel) {
			t.Fatalf("watermark moved for filtered article: %s=%v", cat.Name, got)
		}
	}
}

func TestRunCycleDiscardsMalformedInstant(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin broken date", "https://example.com/bad", "yesterday-ish"),
		article("bitcoin good date", "https://example.com/good", "2024-01-01T10:00:00Z"),
	}}
	h := newHarness(t, src, &fakeTransport{})

	report, err := h.coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if report.Discarded != 1 {
		t.Fatalf("expected 1 discarded item, got %+v", report)
	}
	if report.Delivered != 1 {
		t.Fatalf("malformed item must not abort the batch, got %+v", report)
	}
}

func TestRunCycleFetchFailureIsTransient(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: errors.New("upstream returned 500 Internal Server Error")}
	h := newHarness(t, src, &fakeTransport{})

	report, err := h.coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("fetch failure must not error the cycle: %v", err)
	}

	if !report.FetchFailed || report.Delivered != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(h.transport.sent) != 0 {
		t.Fatal("nothing may be delivered on fetch failure")
	}
	// No flush either: the watermark file must stay untouched.
	if _, err := os.Stat(h.watermarkPath); !os.IsNotExist(err) {
		t.Fatalf("watermark file written on failed fetch: %v", err)
	}
}

func TestRunCycleSkipsDuplicateURLsInBatch(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin story", "https://example.com/a", "2024-01-01T10:00:00Z"),
		article("bitcoin story repeated", "https://example.com/a", "2024-01-01T10:30:00Z"),
	}}
	h := newHarness(t, src, &fakeTransport{})

	report, err := h.coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if report.Delivered != 1 || report.Duplicates != 1 {
		t.Fatalf("expected one delivery and one duplicate, got %+v", report)
	}
	if len(h.transport.sent) != 1 {
		t.Fatalf("duplicate URL dispatched twice: %+v", h.transport.sent)
	}
}

func TestRunCycleDeliveryFailureKeepsWatermark(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin story", "https://example.com/a", "2024-01-01T10:00:00Z"),
	}}
	h := newHarness(t, src, &fakeTransport{err: errors.New("channel unreachable")})

	report, err := h.coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if report.Failed != 1 || report.Delivered != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	// Unadvanced watermark keeps the item eligible for a later cycle.
	if got := h.store.Get("crypto"); !got.Equal(watermark.Sentinel) {
		t.Fatalf("watermark advanced despite failed delivery: %v", got)
	}
}

func TestRunCycleUnboundCategoryKeepsWatermark(t *testing.T) {
	t.Parallel()

	categories := testCategories()
	categories[0].Destination = ""

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin story", "https://example.com/a", "2024-01-01T10:00:00Z"),
	}}
	transport := &fakeTransport{}
	path := filepath.Join(t.TempDir(), "last_news.json")
	store := watermark.Open(path, categoryNames(categories), nil)

	coordinator := NewCoordinator(Deps{
		Source:     src,
		Transport:  transport,
		Watermarks: store,
		Filter:     classify.NewFilter([]string{"bitcoin"}),
		Classifier: classify.NewClassifier(categories),
	})

	report, err := coordinator.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if report.Failed != 1 || len(transport.sent) != 0 {
		t.Fatalf("expected skipped delivery, got %+v sent=%+v", report, transport.sent)
	}
	if got := store.Get("crypto"); !got.Equal(watermark.Sentinel) {
		t.Fatalf("watermark advanced for unbound category: %v", got)
	}
}

func TestRunCycleFlushesOnceEvenWhenIdle(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	h := newHarness(t, src, &fakeTransport{})

	if _, err := h.coordinator.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	// Zero deliveries still produce one flush, keeping the format current.
	if _, err := os.Stat(h.watermarkPath); err != nil {
		t.Fatalf("expected watermark file after idle cycle: %v", err)
	}
}

func TestRunCyclePreservesArrivalOrder(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin first", "https://example.com/1", "2024-01-01T12:00:00Z"),
		article("gold second", "https://example.com/2", "2024-01-01T11:00:00Z"),
		article("earnings third", "https://example.com/3", "2024-01-01T10:00:00Z"),
	}}
	h := newHarness(t, src, &fakeTransport{})

	if _, err := h.coordinator.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if len(h.transport.sent) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(h.transport.sent))
	}
	wantURLs := []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"}
	for i, want := range wantURLs {
		if h.transport.sent[i].msg.URL != want {
			t.Fatalf("delivery %d out of order: got %s want %s", i, h.transport.sent[i].msg.URL, want)
		}
	}
}

func TestRunCycleRecordsDeliveries(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		article("bitcoin story", "https://example.com/a", "2024-01-01T10:00:00Z"),
	}}
	transport := &fakeTransport{}
	auditLog := &fakeDeliveryLog{}
	categories := testCategories()
	store := watermark.Open(filepath.Join(t.TempDir(), "last_news.json"), categoryNames(categories), nil)

	deliveredAt := time.Date(2024, time.January, 1, 10, 5, 0, 0, time.UTC)
	coordinator := NewCoordinator(Deps{
		Source:     src,
		Transport:  transport,
		Watermarks: store,
		Deliveries: auditLog,
		Filter:     classify.NewFilter(nil),
		Classifier: classify.NewClassifier(categories),
		Clock:      func() time.Time { return deliveredAt },
	})

	if _, err := coordinator.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if len(auditLog.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(auditLog.records))
	}
	rec := auditLog.records[0]
	if rec.URL != "https://example.com/a" || rec.Category != "crypto" || rec.Destination != "100" {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
	if !rec.DeliveredAt.Equal(deliveredAt) {
		t.Fatalf("unexpected delivered-at: %v", rec.DeliveredAt)
	}
}

func TestRenderMessageDefaults(t *testing.T) {
	t.Parallel()

	msg := renderMessage(domain.Article{URL: "https://example.com/a", PublishedAt: "2024-01-01T10:00:00Z"})
	if msg.Title != "No Title" || msg.Description != "No Description" {
		t.Fatalf("missing fallbacks: %+v", msg)
	}
	if msg.Footer != "2024-01-01T10:00:00Z" {
		t.Fatalf("footer must carry the raw publish instant: %s", msg.Footer)
	}
}
