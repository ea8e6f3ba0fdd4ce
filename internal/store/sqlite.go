package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/insights-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS feedback (
	id            TEXT PRIMARY KEY,
	customer_id   TEXT NOT NULL DEFAULT '',
	feedback_text TEXT NOT NULL,
	channel       TEXT NOT NULL,
	rating        INTEGER,
	origin        TEXT NOT NULL,
	metadata      TEXT,
	received_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS observations (
	feedback_id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL,
	label       TEXT NOT NULL,
	confidence  REAL NOT NULL,
	themes      TEXT,
	method      TEXT NOT NULL,
	model_id    TEXT NOT NULL DEFAULT '',
	analyzed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	report       TEXT NOT NULL,
	generated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_customer ON feedback(customer_id);
CREATE INDEX IF NOT EXISTS idx_feedback_received_at ON feedback(received_at);
CREATE INDEX IF NOT EXISTS idx_observations_customer_time ON observations(customer_id, analyzed_at);
CREATE INDEX IF NOT EXISTS idx_observations_analyzed_at ON observations(analyzed_at);
CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutFeedback(ctx context.Context, item *model.FeedbackItem) error {
	metaJSON, err := marshalMeta(item.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, customer_id, feedback_text, channel, rating, origin, metadata, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.CustomerID, item.Text, item.Channel, ratingValue(item.Rating),
		string(item.Origin), metaJSON, item.ReceivedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert feedback %s", item.ID)
	}
	return nil
}

func (s *SQLiteStore) GetFeedback(ctx context.Context, feedbackID string) (*model.FeedbackItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, feedback_text, channel, rating, origin, metadata, received_at
		 FROM feedback WHERE id = ?`,
		feedbackID,
	)
	return scanFeedback(row)
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, filter FeedbackFilter) ([]model.FeedbackItem, error) {
	query := `SELECT id, customer_id, feedback_text, channel, rating, origin, metadata, received_at
	          FROM feedback WHERE 1=1`
	var args []any

	if filter.CustomerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, filter.CustomerID)
	}
	if filter.Channel != "" {
		query += ` AND channel = ?`
		args = append(args, filter.Channel)
	}
	if filter.Origin != "" {
		query += ` AND origin = ?`
		args = append(args, filter.Origin)
	}
	if !filter.ReceivedAfter.IsZero() {
		query += ` AND received_at >= ?`
		args = append(args, filter.ReceivedAfter.UTC())
	}
	query += ` ORDER BY received_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list feedback")
	}
	defer rows.Close()

	var items []model.FeedbackItem
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list feedback iterate")
}

func (s *SQLiteStore) CountFeedback(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count feedback")
}

func (s *SQLiteStore) PutObservation(ctx context.Context, obs *model.SentimentObservation) error {
	themesJSON, err := json.Marshal(obs.Themes)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal themes")
	}

	// Last writer wins: re-analysis of the same feedback overwrites.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO observations (feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(feedback_id) DO UPDATE SET
		   customer_id = excluded.customer_id,
		   score       = excluded.score,
		   label       = excluded.label,
		   confidence  = excluded.confidence,
		   themes      = excluded.themes,
		   method      = excluded.method,
		   model_id    = excluded.model_id,
		   analyzed_at = excluded.analyzed_at`,
		obs.FeedbackID, obs.CustomerID, obs.Score, string(obs.Label), obs.Confidence,
		string(themesJSON), string(obs.Method), obs.ModelID, obs.AnalyzedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: put observation %s", obs.FeedbackID)
	}
	return nil
}

func (s *SQLiteStore) GetObservation(ctx context.Context, feedbackID string) (*model.SentimentObservation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at
		 FROM observations WHERE feedback_id = ?`,
		feedbackID,
	)
	return scanObservation(row)
}

func (s *SQLiteStore) ListObservationsByCustomer(ctx context.Context, customerID string, limit int, newestFirst bool) ([]model.SentimentObservation, error) {
	order := "ASC"
	if newestFirst {
		order = "DESC"
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at
		 FROM observations WHERE customer_id = ? ORDER BY analyzed_at `+order+` LIMIT ?`,
		customerID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list observations for %s", customerID)
	}
	defer rows.Close()

	return collectObservations(rows, "sqlite: list observations iterate")
}

func (s *SQLiteStore) ScanObservations(ctx context.Context, start, end time.Time, customerID string) ([]model.SentimentObservation, error) {
	query := `SELECT feedback_id, customer_id, score, label, confidence, themes, method, model_id, analyzed_at
	          FROM observations WHERE analyzed_at >= ? AND analyzed_at < ?`
	args := []any{start.UTC(), end.UTC()}

	if customerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY analyzed_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan observations")
	}
	defer rows.Close()

	return collectObservations(rows, "sqlite: scan observations iterate")
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get setting %s", key)
	}
	return value, true, nil
}

func (s *SQLiteStore) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: all settings")
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan setting")
		}
		settings[k] = v
	}
	return settings, eris.Wrap(rows.Err(), "sqlite: all settings iterate")
}

func (s *SQLiteStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return eris.Wrapf(err, "sqlite: put setting %s", key)
}

func (s *SQLiteStore) PutReport(ctx context.Context, artifact *model.ReportArtifact) error {
	reportJSON, err := json.Marshal(artifact.Report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	// Reports are write-once: a duplicate id is an error, not an overwrite.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, report, generated_at) VALUES (?, ?, ?)`,
		artifact.ID, string(reportJSON), artifact.GeneratedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert report %s", artifact.ID)
	}
	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, reportID string) (*model.ReportArtifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, report, generated_at FROM reports WHERE id = ?`,
		reportID,
	)

	var a model.ReportArtifact
	var reportJSON string
	err := row.Scan(&a.ID, &reportJSON, &a.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("report not found: %s", reportID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get report")
	}
	if err := json.Unmarshal([]byte(reportJSON), &a.Report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &a, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, limit int) ([]model.ReportArtifact, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, report, generated_at FROM reports ORDER BY generated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var artifacts []model.ReportArtifact
	for rows.Next() {
		var a model.ReportArtifact
		var reportJSON string
		if err := rows.Scan(&a.ID, &reportJSON, &a.GeneratedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		if err := json.Unmarshal([]byte(reportJSON), &a.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanFeedback(row scannable) (*model.FeedbackItem, error) {
	var f model.FeedbackItem
	var rating sql.NullInt64
	var origin string
	var metaJSON sql.NullString

	err := row.Scan(&f.ID, &f.CustomerID, &f.Text, &f.Channel, &rating, &origin, &metaJSON, &f.ReceivedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("feedback not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan feedback")
	}

	f.Origin = model.Origin(origin)
	if rating.Valid {
		r := int(rating.Int64)
		f.Rating = &r
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &f.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
		}
	}
	return &f, nil
}

func scanObservation(row scannable) (*model.SentimentObservation, error) {
	var o model.SentimentObservation
	var label, method string
	var themesJSON sql.NullString

	err := row.Scan(&o.FeedbackID, &o.CustomerID, &o.Score, &label, &o.Confidence, &themesJSON, &method, &o.ModelID, &o.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("observation not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan observation")
	}

	o.Label = model.Label(label)
	o.Method = model.Method(method)
	if themesJSON.Valid && themesJSON.String != "" {
		if err := json.Unmarshal([]byte(themesJSON.String), &o.Themes); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal themes")
		}
	}
	return &o, nil
}

func collectObservations(rows *sql.Rows, wrapMsg string) ([]model.SentimentObservation, error) {
	var obs []model.SentimentObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		obs = append(obs, *o)
	}
	return obs, eris.Wrap(rows.Err(), wrapMsg)
}

func marshalMeta(meta map[string]any) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func ratingValue(rating *int) any {
	if rating == nil {
		return nil
	}
	return *rating
}
