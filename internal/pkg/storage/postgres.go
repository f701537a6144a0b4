package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/oddsradar/oddsradar/internal/pkg/config"
	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// Ensure PostgresFixtureStorage implements FixtureStorage
var _ FixtureStorage = (*PostgresFixtureStorage)(nil)

// PostgresFixtureStorage persists aggregated fixtures, price history and
// margin snapshots in PostgreSQL.
type PostgresFixtureStorage struct {
	db *sql.DB
}

// NewPostgresFixtureStorage opens the connection and initializes the schema.
func NewPostgresFixtureStorage(cfg *config.PostgresConfig) (*PostgresFixtureStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresFixtureStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL fixture storage initialized successfully")
	return s, nil
}

func (s *PostgresFixtureStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS fixtures (
		id UUID PRIMARY KEY,
		canonical_key VARCHAR(200) NOT NULL UNIQUE,
		display_teams VARCHAR(500) NOT NULL,
		country VARCHAR(200) NOT NULL DEFAULT '',
		tournament VARCHAR(300) NOT NULL DEFAULT '',
		start_time TIMESTAMP NOT NULL,
		source_quotes JSONB NOT NULL,
		best_home DECIMAL(10, 4) NOT NULL DEFAULT 0,
		best_draw DECIMAL(10, 4) NOT NULL DEFAULT 0,
		best_away DECIMAL(10, 4) NOT NULL DEFAULT 0,
		source_count INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_fixtures_display_teams ON fixtures(display_teams);
	CREATE INDEX IF NOT EXISTS idx_fixtures_start_time ON fixtures(start_time);

	CREATE TABLE IF NOT EXISTS price_history (
		id BIGSERIAL PRIMARY KEY,
		fixture_id UUID NOT NULL,
		source VARCHAR(100) NOT NULL,
		home DECIMAL(10, 4) NOT NULL,
		draw DECIMAL(10, 4) NOT NULL,
		away DECIMAL(10, 4) NOT NULL,
		margin DECIMAL(10, 6) NOT NULL,
		recorded_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_price_history_fixture_source ON price_history(fixture_id, source, recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_price_history_recorded_at ON price_history(recorded_at);

	CREATE TABLE IF NOT EXISTS margin_snapshots (
		id BIGSERIAL PRIMARY KEY,
		source VARCHAR(100) NOT NULL,
		country VARCHAR(200) NOT NULL,
		tournament VARCHAR(300) NOT NULL,
		avg_margin DECIMAL(10, 6) NOT NULL,
		samples INTEGER NOT NULL,
		computed_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_margin_snapshots_triple ON margin_snapshots(source, country, tournament, computed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_margin_snapshots_computed_at ON margin_snapshots(computed_at);

	CREATE TABLE IF NOT EXISTS sources (
		code VARCHAR(100) PRIMARY KEY,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

const fixtureColumns = `id, canonical_key, display_teams, country, tournament, start_time, source_quotes, best_home, best_draw, best_away, updated_at`

func scanFixture(row *sql.Row) (*models.AggregatedFixture, error) {
	var f models.AggregatedFixture
	var quotesJSON []byte
	err := row.Scan(
		&f.ID,
		&f.CanonicalKey,
		&f.DisplayTeams,
		&f.Country,
		&f.Tournament,
		&f.StartTime,
		&quotesJSON,
		&f.BestPrice.Home,
		&f.BestPrice.Draw,
		&f.BestPrice.Away,
		&f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan fixture: %w", err)
	}
	if err := json.Unmarshal(quotesJSON, &f.SourceQuotes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source quotes: %w", err)
	}
	return &f, nil
}

// GetFixtureByCanonicalKey returns the fixture with the given canonical key, or (nil, nil).
func (s *PostgresFixtureStorage) GetFixtureByCanonicalKey(ctx context.Context, key string) (*models.AggregatedFixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE canonical_key = $1`
	return scanFixture(s.db.QueryRowContext(ctx, query, key))
}

// GetFixtureByDisplayTeams returns the most recently updated fixture with
// the given display teams label, or (nil, nil).
func (s *PostgresFixtureStorage) GetFixtureByDisplayTeams(ctx context.Context, displayTeams string) (*models.AggregatedFixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE display_teams = $1 ORDER BY updated_at DESC LIMIT 1`
	return scanFixture(s.db.QueryRowContext(ctx, query, displayTeams))
}

// InsertFixture inserts a fixture. On canonical key conflict the existing
// row is fully replaced, so two writers racing on the same fixture cannot
// fail the cycle.
func (s *PostgresFixtureStorage) InsertFixture(ctx context.Context, f *models.AggregatedFixture) error {
	quotesJSON, err := json.Marshal(f.SourceQuotes)
	if err != nil {
		return fmt.Errorf("failed to marshal source quotes: %w", err)
	}

	query := `
	INSERT INTO fixtures (
		id, canonical_key, display_teams, country, tournament, start_time,
		source_quotes, best_home, best_draw, best_away, source_count, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (canonical_key) DO UPDATE SET
		display_teams = EXCLUDED.display_teams,
		country = EXCLUDED.country,
		tournament = EXCLUDED.tournament,
		start_time = EXCLUDED.start_time,
		source_quotes = EXCLUDED.source_quotes,
		best_home = EXCLUDED.best_home,
		best_draw = EXCLUDED.best_draw,
		best_away = EXCLUDED.best_away,
		source_count = EXCLUDED.source_count,
		updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		f.ID,
		f.CanonicalKey,
		f.DisplayTeams,
		f.Country,
		f.Tournament,
		f.StartTime,
		quotesJSON,
		f.BestPrice.Home,
		f.BestPrice.Draw,
		f.BestPrice.Away,
		f.SourceCount(),
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fixture: %w", err)
	}
	return nil
}

// UpdateFixture fully replaces the row with the given id, including the
// canonical key so identifier drift between cycles is repaired in place.
func (s *PostgresFixtureStorage) UpdateFixture(ctx context.Context, id string, f *models.AggregatedFixture) error {
	quotesJSON, err := json.Marshal(f.SourceQuotes)
	if err != nil {
		return fmt.Errorf("failed to marshal source quotes: %w", err)
	}

	query := `
	UPDATE fixtures SET
		canonical_key = $2,
		display_teams = $3,
		country = $4,
		tournament = $5,
		start_time = $6,
		source_quotes = $7,
		best_home = $8,
		best_draw = $9,
		best_away = $10,
		source_count = $11,
		updated_at = $12
	WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query,
		id,
		f.CanonicalKey,
		f.DisplayTeams,
		f.Country,
		f.Tournament,
		f.StartTime,
		quotesJSON,
		f.BestPrice.Home,
		f.BestPrice.Draw,
		f.BestPrice.Away,
		f.SourceCount(),
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update fixture: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("fixture %s not found", id)
	}
	return nil
}

// DeleteFixture removes the fixture with the given id.
func (s *PostgresFixtureStorage) DeleteFixture(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fixtures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fixture: %w", err)
	}
	return nil
}

// ListFixtures returns all persisted fixtures.
func (s *PostgresFixtureStorage) ListFixtures(ctx context.Context) ([]models.AggregatedFixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures ORDER BY start_time`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []models.AggregatedFixture
	for rows.Next() {
		var f models.AggregatedFixture
		var quotesJSON []byte
		err := rows.Scan(
			&f.ID,
			&f.CanonicalKey,
			&f.DisplayTeams,
			&f.Country,
			&f.Tournament,
			&f.StartTime,
			&quotesJSON,
			&f.BestPrice.Home,
			&f.BestPrice.Draw,
			&f.BestPrice.Away,
			&f.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		if err := json.Unmarshal(quotesJSON, &f.SourceQuotes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source quotes: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixtures: %w", err)
	}
	return fixtures, nil
}

// AppendPriceHistory appends one immutable history row.
func (s *PostgresFixtureStorage) AppendPriceHistory(ctx context.Context, e *models.PriceHistoryEntry) error {
	query := `
	INSERT INTO price_history (fixture_id, source, home, draw, away, margin, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.FixtureID,
		e.Source,
		e.Quote.Home,
		e.Quote.Draw,
		e.Quote.Away,
		e.Margin,
		e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}
	return nil
}

// AppendMarginSnapshot appends one margin snapshot row.
func (s *PostgresFixtureStorage) AppendMarginSnapshot(ctx context.Context, m *models.TournamentMarginSnapshot) error {
	query := `
	INSERT INTO margin_snapshots (source, country, tournament, avg_margin, samples, computed_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.Source,
		m.Country,
		m.Tournament,
		m.AvgMargin,
		m.Samples,
		m.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append margin snapshot: %w", err)
	}
	return nil
}

// PruneHistoryOlderThan removes price history rows older than the given number of days.
func (s *PostgresFixtureStorage) PruneHistoryOlderThan(ctx context.Context, days int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM price_history WHERE recorded_at < NOW() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, fmt.Errorf("failed to prune price history: %w", err)
	}
	return res.RowsAffected()
}

// PruneMarginsOlderThan removes margin snapshots older than the given number of days.
func (s *PostgresFixtureStorage) PruneMarginsOlderThan(ctx context.Context, days int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM margin_snapshots WHERE computed_at < NOW() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, fmt.Errorf("failed to prune margin snapshots: %w", err)
	}
	return res.RowsAffected()
}

// ListActiveSources returns enabled source codes in stable order.
func (s *PostgresFixtureStorage) ListActiveSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM sources WHERE enabled ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sources: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan source code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}
	return codes, nil
}

// SyncSources enables the given codes and disables everything else.
func (s *PostgresFixtureStorage) SyncSources(ctx context.Context, codes []string) error {
	for _, code := range codes {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO sources (code, enabled, updated_at) VALUES ($1, TRUE, NOW())
			ON CONFLICT (code) DO UPDATE SET enabled = TRUE, updated_at = NOW()
		`, code)
		if err != nil {
			return fmt.Errorf("failed to register source %s: %w", code, err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE sources SET enabled = FALSE, updated_at = NOW() WHERE code <> ALL($1)`,
		pq.Array(codes))
	if err != nil {
		return fmt.Errorf("failed to disable stale sources: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresFixtureStorage) Close() error {
	return s.db.Close()
}
