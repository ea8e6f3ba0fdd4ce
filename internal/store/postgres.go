package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/db"
	"github.com/sells-group/insights-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS feedback (
	id            TEXT PRIMARY KEY,
	customer_id   TEXT NOT NULL DEFAULT '',
	feedback_text TEXT NOT NULL,
	channel       TEXT NOT NULL,
	rating        INTEGER,
	origin        TEXT NOT NULL,
	metadata      JSONB,
	received_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS observations (
	feedback_id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL DEFAULT '',
	score       DOUBLE PRECISION NOT NULL,
	label       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	themes      JSONB,
	method      TEXT NOT NULL,
	model_id    TEXT NOT NULL DEFAULT '',
	analyzed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	report       JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_customer ON feedback(customer_id);
CREATE INDEX IF NOT EXISTS idx_feedback_received_at ON feedback(received_at);
CREATE INDEX IF NOT EXISTS idx_observations_customer_time ON observations(customer_id, analyzed_at DESC);
CREATE INDEX IF NOT EXISTS idx_observations_analyzed_at ON observations(analyzed_at);
CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) PutFeedback(ctx context.Context, item *model.FeedbackItem) error {
	metaJSON, err := marshalMeta(item.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metadata")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO feedback (id, customer_id, feedback_text, channel, rating, origin, metadata, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.CustomerID, item.Text, item.Channel, ratingValue(item.Rating),
		string(item.Origin), metaJSON, item.ReceivedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert feedback %s", item.ID)
	}
	return nil
}

func (s *PostgresStore) GetFeedback(ctx context.Context, feedbackID string) (*model.FeedbackItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, customer_id, feedback_text, channel, rating, origin, metadata, received_at
		 FROM feedback WHERE id = $1`,
		feedbackID,
	)

	f, err := scanPgFeedback(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("feedback not found: %s", feedbackID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get feedback %s", feedbackID)
	}
	return f, nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, filter FeedbackFilter) ([]model.FeedbackItem, error) {
	query := `SELECT id, customer_id, feedback_text, channel, rating, origin, metadata, received_at
	          FROM feedback WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.CustomerID != "" {
		query += ` AND customer_id = ` + arg(filter.CustomerID)
	}
	if filter.Channel != "" {
		query += ` AND channel = ` + arg(filter.Channel)
	}
	if filter.Origin != "" {
		query += ` AND origin = ` + arg(filter.Origin)
	}
	if !filter.ReceivedAfter.IsZero() {
		query += ` AND received_at >= ` + arg(filter.ReceivedAfter.UTC())
	}
	query += ` ORDER BY received_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list feedback")
	}
	defer rows.Close()

	var items []model.FeedbackItem
	for rows.Next() {
		f, err := scanPgFeedback(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan feedback")
		}
		items = append(items, *f)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list feedback iterate")
}

func (s *PostgresStore) CountFeedback(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count feedback")
}

func (s *PostgresStore) PutObservation(ctx context.Context, obs *model.SentimentObservation) error {
	themesJSON, err := json.Marshal(obs.Themes)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal themes")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO observations (feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (feedback_id) DO UPDATE SET
		   customer_id = EXCLUDED.customer_id,
		   score       = EXCLUDED.score,
		   label       = EXCLUDED.label,
		   confidence  = EXCLUDED.confidence,
		   themes      = EXCLUDED.themes,
		   method      = EXCLUDED.method,
		   model_id    = EXCLUDED.model_id,
		   analyzed_at = EXCLUDED.analyzed_at`,
		obs.FeedbackID, obs.CustomerID, obs.Score, string(obs.Label), obs.Confidence,
		themesJSON, string(obs.Method), obs.ModelID, obs.AnalyzedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: put observation %s", obs.FeedbackID)
	}
	return nil
}

func (s *PostgresStore) GetObservation(ctx context.Context, feedbackID string) (*model.SentimentObservation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at
		 FROM observations WHERE feedback_id = $1`,
		feedbackID,
	)

	o, err := scanPgObservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("observation not found: %s", feedbackID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get observation %s", feedbackID)
	}
	return o, nil
}

func (s *PostgresStore) ListObservationsByCustomer(ctx context.Context, customerID string, limit int, newestFirst bool) ([]model.SentimentObservation, error) {
	order := "ASC"
	if newestFirst {
		order = "DESC"
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at
		 FROM observations WHERE customer_id = $1 ORDER BY analyzed_at `+order+` LIMIT $2`,
		customerID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list observations for %s", customerID)
	}
	defer rows.Close()

	return collectPgObservations(rows, "postgres: list observations iterate")
}

func (s *PostgresStore) ScanObservations(ctx context.Context, start, end time.Time, customerID string) ([]model.SentimentObservation, error) {
	query := `SELECT feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at
	          FROM observations WHERE analyzed_at >= $1 AND analyzed_at < $2`
	args := []any{start.UTC(), end.UTC()}

	if customerID != "" {
		query += ` AND customer_id = $3`
		args = append(args, customerID)
	}
	query += ` ORDER BY analyzed_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan observations")
	}
	defer rows.Close()

	return collectPgObservations(rows, "postgres: scan observations iterate")
}

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "postgres: get setting %s", key)
	}
	return value, true, nil
}

func (s *PostgresStore) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: all settings")
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan setting")
		}
		settings[k] = v
	}
	return settings, eris.Wrap(rows.Err(), "postgres: all settings iterate")
}

func (s *PostgresStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return eris.Wrapf(err, "postgres: put setting %s", key)
}

func (s *PostgresStore) PutReport(ctx context.Context, artifact *model.ReportArtifact) error {
	reportJSON, err := json.Marshal(artifact.Report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (id, report, generated_at) VALUES ($1, $2, $3)`,
		artifact.ID, reportJSON, artifact.GeneratedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert report %s", artifact.ID)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, reportID string) (*model.ReportArtifact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, report, generated_at FROM reports WHERE id = $1`,
		reportID,
	)

	var a model.ReportArtifact
	var reportJSON []byte
	err := row.Scan(&a.ID, &reportJSON, &a.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("report not found: %s", reportID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get report")
	}
	if err := json.Unmarshal(reportJSON, &a.Report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &a, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, limit int) ([]model.ReportArtifact, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, report, generated_at FROM reports ORDER BY generated_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var artifacts []model.ReportArtifact
	for rows.Next() {
		var a model.ReportArtifact
		var reportJSON []byte
		if err := rows.Scan(&a.ID, &reportJSON, &a.GeneratedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		if err := json.Unmarshal(reportJSON, &a.Report); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

// helpers

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func scanPgFeedback(row pgx.Row) (*model.FeedbackItem, error) {
	var f model.FeedbackItem
	var rating *int
	var origin string
	var metaJSON []byte

	if err := row.Scan(&f.ID, &f.CustomerID, &f.Text, &f.Channel, &rating, &origin, &metaJSON, &f.ReceivedAt); err != nil {
		return nil, err
	}

	f.Origin = model.Origin(origin)
	f.Rating = rating
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &f.Metadata); err != nil {
			return nil, eris.Wrap(err, "unmarshal metadata")
		}
	}
	return &f, nil
}

func scanPgObservation(row pgx.Row) (*model.SentimentObservation, error) {
	var o model.SentimentObservation
	var label, method string
	var themesJSON []byte

	if err := row.Scan(&o.FeedbackID, &o.CustomerID, &o.Score, &label, &o.Confidence, &themesJSON, &method, &o.ModelID, &o.AnalyzedAt); err != nil {
		return nil, err
	}

	o.Label = model.Label(label)
	o.Method = model.Method(method)
	if len(themesJSON) > 0 {
		if err := json.Unmarshal(themesJSON, &o.Themes); err != nil {
			return nil, eris.Wrap(err, "unmarshal themes")
		}
	}
	return &o, nil
}

func collectPgObservations(rows pgx.Rows, wrapMsg string) ([]model.SentimentObservation, error) {
	var obs []model.SentimentObservation
	for rows.Next() {
		o, err := scanPgObservation(rows)
		if err != nil {
			return nil, eris.Wrap(err, wrapMsg)
		}
		obs = append(obs, *o)
	}
	return obs, eris.Wrap(rows.Err(), wrapMsg)
}
