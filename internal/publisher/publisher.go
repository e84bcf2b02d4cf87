// Package publisher emits one Kafka event per extracted article so
// downstream indexers can pick up a run's output as it lands.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/amestead/wikiextract/pkg/kafka"
	"github.com/amestead/wikiextract/pkg/logger"
)

// ArticleEvent is the JSON payload published for each written article.
type ArticleEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	Bytes       int       `json:"bytes"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Publisher wraps the Kafka producer for article events.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher over the given producer.
func New(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger.WithComponent("article-publisher"),
	}
}

// Publish emits one event. Broker failures are logged, not propagated: the
// file on disk is the source of truth and the event stream is best-effort.
func (p *Publisher) Publish(ctx context.Context, id, title, path string, size int) {
	event := kafka.Event{
		Key: id,
		Value: ArticleEvent{
			ID:          id,
			Title:       title,
			Path:        path,
			Bytes:       size,
			ExtractedAt: time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish article event",
			"id", id,
			"title", title,
			"error", err,
		)
	}
}

// Close flushes the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
