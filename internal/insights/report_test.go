package insights

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

type fakeNotion struct {
	pages []*notionapi.PageCreateRequest
	err   error
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pages = append(f.pages, req)
	return &notionapi.Page{ID: "page-1"}, nil
}

func (f *fakeNotion) AppendBlocks(context.Context, string, []notionapi.Block) error {
	return f.err
}

func seedObservations(t *testing.T, r *Reporter, scores []float64, base time.Time) {
	t.Helper()
	for i, score := range scores {
		require.NoError(t, r.store.PutObservation(context.Background(), &model.SentimentObservation{
			FeedbackID: fmt.Sprintf("fb-%d", i),
			CustomerID: "cust-1",
			Score:      score,
			Label:      model.LabelForScore(score),
			Method:     model.MethodModel,
			AnalyzedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
}

func TestTrendsEmptyWindow(t *testing.T) {
	r := NewReporter(testStore(t))

	report, err := r.Trends(context.Background(), WindowEndingNow(7, ""))
	require.NoError(t, err)

	assert.Equal(t, 0, report.SampleCount)
	assert.Equal(t, 0.5, report.AverageSentiment)
	assert.Equal(t, model.DirectionInsufficient, report.Direction)
	assert.False(t, report.Partial)
}

func TestTrendsCustomerFilter(t *testing.T) {
	st := testStore(t)
	r := NewReporter(st)
	base := time.Now().UTC().Add(-48 * time.Hour)
	seedObservations(t, r, []float64{0.9, 0.8}, base)
	require.NoError(t, st.PutObservation(context.Background(), &model.SentimentObservation{
		FeedbackID: "other-fb",
		CustomerID: "cust-2",
		Score:      0.1,
		Label:      model.LabelNegative,
		Method:     model.MethodModel,
		AnalyzedAt: base,
	}))

	criteria := WindowEndingNow(7, "cust-1")
	report, err := r.Trends(context.Background(), criteria)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SampleCount)
	assert.Equal(t, model.Distribution{Positive: 2}, report.Distribution)
}

func TestGeneratePersistsArtifact(t *testing.T) {
	st := testStore(t)
	r := NewReporter(st)
	seedObservations(t, r, []float64{0.2, 0.3, 0.25, 0.2}, time.Now().UTC().Add(-24*time.Hour))

	artifact, err := r.Generate(context.Background(), WindowEndingNow(7, ""))
	require.NoError(t, err)

	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, 4, artifact.Report.SampleCount)
	assert.Contains(t, artifact.Report.Recommendations, RecCritical)

	stored, err := st.GetReport(context.Background(), artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, artifact.Report.AverageSentiment, stored.Report.AverageSentiment)
}

func TestGeneratePublishesToNotion(t *testing.T) {
	sink := &fakeNotion{}
	r := NewReporter(testStore(t), WithNotionSink(sink, "db-123"))
	seedObservations(t, r, []float64{0.7, 0.8}, time.Now().UTC().Add(-24*time.Hour))

	_, err := r.Generate(context.Background(), WindowEndingNow(7, ""))
	require.NoError(t, err)

	require.Len(t, sink.pages, 1)
	assert.Equal(t, notionapi.DatabaseID("db-123"), sink.pages[0].Parent.DatabaseID)
	assert.NotEmpty(t, sink.pages[0].Children)
}

func TestGenerateSurvivesNotionFailure(t *testing.T) {
	sink := &fakeNotion{err: eris.New("notion: rate limit")}
	st := testStore(t)
	r := NewReporter(st, WithNotionSink(sink, "db-123"))
	seedObservations(t, r, []float64{0.7}, time.Now().UTC().Add(-24*time.Hour))

	artifact, err := r.Generate(context.Background(), WindowEndingNow(7, ""))
	require.NoError(t, err, "notion publish is best effort")

	_, err = st.GetReport(context.Background(), artifact.ID)
	assert.NoError(t, err)
}

func TestGenerateEmptyWindowStillPersists(t *testing.T) {
	st := testStore(t)
	r := NewReporter(st)

	artifact, err := r.Generate(context.Background(), WindowEndingNow(7, ""))
	require.NoError(t, err)

	stored, err := st.GetReport(context.Background(), artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Report.SampleCount)
	assert.Equal(t, 0.5, stored.Report.AverageSentiment)
}
