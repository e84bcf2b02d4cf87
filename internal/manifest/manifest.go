// Package manifest records every written article in PostgreSQL so a run's
// output can be audited or diffed against a previous one.
package manifest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amestead/wikiextract/pkg/logger"
	"github.com/amestead/wikiextract/pkg/postgres"
)

// schema is applied idempotently at startup.
const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	path       TEXT NOT NULL,
	bytes      INTEGER NOT NULL,
	written_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Manifest upserts one row per extracted article.
type Manifest struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Manifest and ensures its table exists.
func New(ctx context.Context, db *postgres.Client) (*Manifest, error) {
	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating articles table: %w", err)
	}
	return &Manifest{
		db:     db,
		logger: logger.WithComponent("manifest"),
	}, nil
}

// Record upserts the manifest row for one article. Failures are logged and
// swallowed; the manifest is an audit trail, not part of the data flow.
func (m *Manifest) Record(ctx context.Context, id, title, path string, size int) {
	_, err := m.db.DB.ExecContext(ctx,
		`INSERT INTO articles (id, title, path, bytes, written_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title, path = EXCLUDED.path,
		     bytes = EXCLUDED.bytes, written_at = NOW()`,
		id, title, path, size,
	)
	if err != nil {
		m.logger.Error("failed to record article",
			"id", id,
			"title", title,
			"error", err,
		)
	}
}
