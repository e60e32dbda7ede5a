package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsDispatch/internal/classify"
	"NewsDispatch/internal/domain"
	"NewsDispatch/internal/ports"
)

// Deps wires all collaborators into the coordinator.
type Deps struct {
	Source     ports.ArticleSource
	Transport  ports.Transport
	Watermarks ports.WatermarkStore
	Deliveries ports.DeliveryLog
	Filter     *classify.Filter
	Classifier *classify.Classifier
	Clock      func() time.Time
	Logger     *slog.Logger
}

// Coordinator orchestrates one dispatch cycle: fetch a batch, run each
// article through filter and classifier, compare against the category
// watermark, deliver qualifying articles, and flush the store once at the
// end. One cycle runs to completion at a time.
type Coordinator struct {
	source     ports.ArticleSource
	transport  ports.Transport
	watermarks ports.WatermarkStore
	deliveries ports.DeliveryLog
	filter     *classify.Filter
	classifier *classify.Classifier
	clock      func() time.Time
	logger     *slog.Logger
}

// NewCoordinator constructs the orchestration component.
func NewCoordinator(deps Deps) *Coordinator {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Coordinator{
		source:     deps.Source,
		transport:  deps.Transport,
		watermarks: deps.Watermarks,
		deliveries: deps.Deliveries,
		filter:     deps.Filter,
		classifier: deps.Classifier,
		clock:      clock,
		logger:     deps.Logger,
	}
}

// RunCycle executes one full cycle. A failed upstream fetch is transient:
// it is logged, nothing is delivered, the watermark file stays untouched,
// and the returned error is nil so scheduling continues. A failed flush is
// the cycle-level error; the in-memory advances of this cycle are then not
// durable, which re-delivers rather than loses items after a restart.
func (c *Coordinator) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	var report domain.CycleReport

	articles, err := c.source.FetchLatest(ctx)
	if err != nil {
		c.warn("fetch failed, skipping cycle", "error", err)
		report.FetchFailed = true
		return report, nil
	}
	report.Fetched = len(articles)

	dispatched := make(map[string]struct{}, len(articles))
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		publishedAt, err := time.Parse(time.RFC3339, article.PublishedAt)
		if err != nil {
			report.Discarded++
			continue
		}

		haystack := classify.Haystack(article)

		if !c.filter.Relevant(haystack) {
			report.Irrelevant++
			continue
		}

		category, ok := c.classifier.Classify(haystack)
		if !ok {
			report.Unclassified++
			continue
		}

		if !c.watermarks.IsNew(category.Name, publishedAt) {
			report.Stale++
			continue
		}

		// Providers sometimes repeat an entry within one page.
		if _, seen := dispatched[article.URL]; seen {
			report.Duplicates++
			continue
		}

		if category.Destination == "" {
			c.warn("no destination bound for category, skipping delivery",
				"category", category.Name, "url", article.URL)
			report.Failed++
			continue
		}

		if err := c.transport.Send(ctx, category.Destination, renderMessage(article)); err != nil {
			c.warn("delivery failed, watermark untouched",
				"category", category.Name, "url", article.URL, "error", err)
			report.Failed++
			continue
		}

		dispatched[article.URL] = struct{}{}
		c.watermarks.Advance(category.Name, publishedAt)
		report.Delivered++

		if c.deliveries != nil {
			rec := domain.DeliveryRecord{
				URL:         article.URL,
				Category:    category.Name,
				Destination: category.Destination,
				PublishedAt: publishedAt,
				DeliveredAt: c.clock(),
			}
			if err := c.deliveries.Record(ctx, rec); err != nil {
				c.warn("audit record failed", "url", article.URL, "error", err)
			}
		}
	}

	if err := c.watermarks.Flush(); err != nil {
		return report, fmt.Errorf("flush watermarks: %w", err)
	}

	c.info("cycle complete",
		"fetched", report.Fetched,
		"discarded", report.Discarded,
		"irrelevant", report.Irrelevant,
		"unclassified", report.Unclassified,
		"duplicates", report.Duplicates,
		"stale", report.Stale,
		"delivered", report.Delivered,
		"failed", report.Failed,
	)

	return report, nil
}

func renderMessage(article domain.Article) domain.Message {
	title := article.Title
	if title == "" {
		title = "No Title"
	}
	description := article.Description
	if description == "" {
		description = "No Description"
	}

	return domain.Message{
		Title:       title,
		Description: description,
		URL:         article.URL,
		Author:      article.Source,
		Footer:      article.PublishedAt,
		ImageURL:    article.ImageURL,
	}
}

func (c *Coordinator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Coordinator) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
