package ports

import (
	"context"
	"time"

	"NewsDispatch/internal/domain"
)

// ArticleSource pulls a bounded batch of recent articles from an upstream
// provider, most recent first.
type ArticleSource interface {
	FetchLatest(ctx context.Context) ([]domain.Article, error)
}

// Transport delivers a rendered message to a destination channel.
type Transport interface {
	Send(ctx context.Context, destination string, msg domain.Message) error
}

// WatermarkStore tracks, per category, the publish instant of the most
// recently delivered article. Advance never regresses a watermark.
type WatermarkStore interface {
	Get(category string) time.Time
	IsNew(category string, publishedAt time.Time) bool
	Advance(category string, publishedAt time.Time)
	Flush() error
}

// DeliveryLog records successful deliveries for later inspection.
type DeliveryLog interface {
	Record(ctx context.Context, rec domain.DeliveryRecord) error
}

// Scheduler controls when dispatch cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
