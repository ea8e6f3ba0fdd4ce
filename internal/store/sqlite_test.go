package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testFeedback(id, customerID string, rating int) *model.FeedbackItem {
	item := &model.FeedbackItem{
		ID:         id,
		CustomerID: customerID,
		Text:       "The support team resolved my issue quickly.",
		Channel:    model.ChannelEmail,
		Origin:     model.OriginDirect,
		ReceivedAt: time.Now().UTC().Truncate(time.Second),
	}
	if rating > 0 {
		item.Rating = &rating
	}
	return item
}

func testObservation(feedbackID, customerID string, score float64, at time.Time) *model.SentimentObservation {
	return &model.SentimentObservation{
		FeedbackID: feedbackID,
		CustomerID: customerID,
		Score:      score,
		Label:      model.LabelForScore(score),
		Confidence: 0.85,
		Themes:     []string{"support", "speed"},
		Method:     model.MethodModel,
		ModelID:    "claude-haiku-4-5-20251001",
		AnalyzedAt: at.UTC().Truncate(time.Second),
	}
}

// --- Feedback ---

func TestSQLite_Feedback_PutAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	item := testFeedback("fb-1", "cust-1", 4)
	item.Metadata = map[string]any{"category": "technical_support"}
	require.NoError(t, st.PutFeedback(ctx, item))

	got, err := st.GetFeedback(ctx, "fb-1")
	require.NoError(t, err)
	assert.Equal(t, "cust-1", got.CustomerID)
	assert.Equal(t, item.Text, got.Text)
	assert.Equal(t, model.ChannelEmail, got.Channel)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4, *got.Rating)
	assert.Equal(t, model.OriginDirect, got.Origin)
	assert.Equal(t, "technical_support", got.Metadata["category"])
}

func TestSQLite_Feedback_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetFeedback(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_Feedback_NilRating(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutFeedback(ctx, testFeedback("fb-nr", "", 0)))

	got, err := st.GetFeedback(ctx, "fb-nr")
	require.NoError(t, err)
	assert.Nil(t, got.Rating)
	assert.Empty(t, got.CustomerID)
}

func TestSQLite_Feedback_ListFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := testFeedback("fb-a", "cust-1", 5)
	b := testFeedback("fb-b", "cust-2", 2)
	b.Channel = model.ChannelChat
	c := testFeedback("fb-c", "cust-1", 3)
	c.Origin = model.OriginSynthetic
	for _, item := range []*model.FeedbackItem{a, b, c} {
		require.NoError(t, st.PutFeedback(ctx, item))
	}

	byCustomer, err := st.ListFeedback(ctx, FeedbackFilter{CustomerID: "cust-1"})
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	byChannel, err := st.ListFeedback(ctx, FeedbackFilter{Channel: model.ChannelChat})
	require.NoError(t, err)
	require.Len(t, byChannel, 1)
	assert.Equal(t, "fb-b", byChannel[0].ID)

	byOrigin, err := st.ListFeedback(ctx, FeedbackFilter{Origin: string(model.OriginSynthetic)})
	require.NoError(t, err)
	require.Len(t, byOrigin, 1)
	assert.Equal(t, "fb-c", byOrigin[0].ID)

	n, err := st.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// --- Observations ---

func TestSQLite_Observation_PutAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	obs := testObservation("fb-1", "cust-1", 0.8, time.Now())
	require.NoError(t, st.PutObservation(ctx, obs))

	got, err := st.GetObservation(ctx, "fb-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got.Score, 0.001)
	assert.Equal(t, model.LabelPositive, got.Label)
	assert.Equal(t, []string{"support", "speed"}, got.Themes)
	assert.Equal(t, model.MethodModel, got.Method)
}

func TestSQLite_Observation_OverwriteOnReanalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testObservation("fb-1", "cust-1", 0.8, time.Now().Add(-time.Hour))
	require.NoError(t, st.PutObservation(ctx, first))

	second := testObservation("fb-1", "cust-1", 0.2, time.Now())
	second.Method = model.MethodHeuristic
	second.Confidence = 0.1
	require.NoError(t, st.PutObservation(ctx, second))

	got, err := st.GetObservation(ctx, "fb-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, got.Score, 0.001)
	assert.Equal(t, model.MethodHeuristic, got.Method)

	// Still exactly one observation for the feedback id.
	all, err := st.ScanObservations(ctx, time.Now().Add(-24*time.Hour), time.Now().Add(time.Hour), "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_Observation_ScanWindow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inWindow := testObservation("fb-in", "cust-1", 0.5, now.Add(-2*time.Hour))
	onStart := testObservation("fb-start", "cust-1", 0.5, now.Add(-6*time.Hour))
	tooOld := testObservation("fb-old", "cust-1", 0.5, now.Add(-48*time.Hour))
	for _, o := range []*model.SentimentObservation{inWindow, onStart, tooOld} {
		require.NoError(t, st.PutObservation(ctx, o))
	}

	// Half-open window [start, end): the start boundary is included.
	got, err := st.ScanObservations(ctx, now.Add(-6*time.Hour), now, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Chronological order.
	assert.Equal(t, "fb-start", got[0].FeedbackID)
	assert.Equal(t, "fb-in", got[1].FeedbackID)
}

func TestSQLite_Observation_ScanCustomerFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.PutObservation(ctx, testObservation("fb-1", "cust-1", 0.8, now.Add(-time.Hour))))
	require.NoError(t, st.PutObservation(ctx, testObservation("fb-2", "cust-2", 0.2, now.Add(-time.Hour))))

	got, err := st.ScanObservations(ctx, now.Add(-2*time.Hour), now, "cust-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fb-1", got[0].FeedbackID)
}

func TestSQLite_Observation_ListByCustomerNewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.PutObservation(ctx, testObservation("fb-1", "cust-1", 0.8, now.Add(-3*time.Hour))))
	require.NoError(t, st.PutObservation(ctx, testObservation("fb-2", "cust-1", 0.5, now.Add(-2*time.Hour))))
	require.NoError(t, st.PutObservation(ctx, testObservation("fb-3", "cust-1", 0.2, now.Add(-1*time.Hour))))

	got, err := st.ListObservationsByCustomer(ctx, "cust-1", 2, true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fb-3", got[0].FeedbackID)
	assert.Equal(t, "fb-2", got[1].FeedbackID)
}

// --- Settings ---

func TestSQLite_Settings(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, found, err := st.GetSetting(ctx, "crm_enabled")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, st.PutSetting(ctx, "crm_enabled", "true"))
	require.NoError(t, st.PutSetting(ctx, "crm_provider", "salesforce"))

	v, found, err := st.GetSetting(ctx, "crm_enabled")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", v)

	// Overwrite.
	require.NoError(t, st.PutSetting(ctx, "crm_enabled", "false"))
	v, _, err = st.GetSetting(ctx, "crm_enabled")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	all, err := st.AllSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"crm_enabled":  "false",
		"crm_provider": "salesforce",
	}, all)
}

// --- Reports ---

func TestSQLite_Reports_WriteOnce(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	artifact := &model.ReportArtifact{
		ID: "rep-1",
		Report: model.TrendReport{
			SampleCount:      12,
			AverageSentiment: 0.458,
			Direction:        model.DirectionDeclining,
			Distribution:     model.Distribution{Positive: 5, Neutral: 2, Negative: 5},
			Recommendations:  []string{"review feedback"},
		},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, st.PutReport(ctx, artifact))

	got, err := st.GetReport(ctx, "rep-1")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Report.SampleCount)
	assert.InDelta(t, 0.458, got.Report.AverageSentiment, 0.0001)
	assert.Equal(t, model.DirectionDeclining, got.Report.Direction)

	// Write-once: inserting the same id again fails.
	err = st.PutReport(ctx, artifact)
	assert.Error(t, err)

	list, err := st.ListReports(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
