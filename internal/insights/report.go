package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/store"
	"github.com/sells-group/insights-cli/pkg/notion"
)

// Reporter runs the trend engine over a window and persists the result
// as a write-once report artifact.
type Reporter struct {
	store    store.Store
	notion   notion.Client
	notionDB string
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithNotionSink publishes each generated report to a Notion database.
func WithNotionSink(client notion.Client, databaseID string) ReporterOption {
	return func(r *Reporter) {
		r.notion = client
		r.notionDB = databaseID
	}
}

// NewReporter creates a reporter over the given store.
func NewReporter(st store.Store, opts ...ReporterOption) *Reporter {
	r := &Reporter{store: st}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WindowEndingNow builds criteria for the trailing window of the given
// number of days.
func WindowEndingNow(days int, customerID string) model.ReportCriteria {
	now := time.Now().UTC()
	return model.ReportCriteria{
		Start:      now.AddDate(0, 0, -days),
		End:        now,
		CustomerID: customerID,
	}
}

// Trends computes the trend report for the criteria window without
// persisting anything. A scan that fails before reading any rows is a
// storage error; a scan that fails mid-read yields the rows it got,
// marked partial, rather than fabricating an empty window.
func (r *Reporter) Trends(ctx context.Context, criteria model.ReportCriteria) (*model.TrendReport, error) {
	observations, err := r.store.ScanObservations(ctx, criteria.Start, criteria.End, criteria.CustomerID)
	if err != nil {
		if len(observations) == 0 {
			return nil, eris.Wrap(err, "insights: scan window")
		}
		zap.L().Warn("window scan incomplete, reporting partial data",
			zap.Int("observations", len(observations)),
			zap.Error(err))
		report := ComputeTrend(criteria, observations)
		report.Partial = true
		return &report, nil
	}

	report := ComputeTrend(criteria, observations)
	return &report, nil
}

// Generate computes the trend report and persists it as an artifact.
// Notion publishing, when configured, is best effort and never fails
// the generation.
func (r *Reporter) Generate(ctx context.Context, criteria model.ReportCriteria) (*model.ReportArtifact, error) {
	report, err := r.Trends(ctx, criteria)
	if err != nil {
		return nil, err
	}

	artifact := &model.ReportArtifact{
		ID:          uuid.NewString(),
		Report:      *report,
		GeneratedAt: time.Now().UTC(),
	}
	if err := r.store.PutReport(ctx, artifact); err != nil {
		return nil, eris.Wrap(err, "insights: store report")
	}

	if r.notion != nil {
		if err := r.publish(ctx, artifact); err != nil {
			zap.L().Warn("notion publish failed",
				zap.String("report_id", artifact.ID),
				zap.Error(err))
		}
	}

	zap.L().Info("generated report",
		zap.String("report_id", artifact.ID),
		zap.Int("sample_count", report.SampleCount),
		zap.Float64("average_sentiment", report.AverageSentiment))
	return artifact, nil
}

// publish writes the report as a page in the configured Notion database.
func (r *Reporter) publish(ctx context.Context, artifact *model.ReportArtifact) error {
	report := artifact.Report

	lines := []string{
		fmt.Sprintf("Window: %s to %s",
			report.Criteria.Start.Format(time.RFC3339), report.Criteria.End.Format(time.RFC3339)),
		fmt.Sprintf("Samples: %d", report.SampleCount),
		fmt.Sprintf("Average sentiment: %.3f (%s)", report.AverageSentiment, report.Direction),
		fmt.Sprintf("Distribution: %d positive / %d neutral / %d negative",
			report.Distribution.Positive, report.Distribution.Neutral, report.Distribution.Negative),
	}
	if report.Criteria.CustomerID != "" {
		lines = append(lines, "Customer: "+report.Criteria.CustomerID)
	}
	for _, rec := range report.Recommendations {
		lines = append(lines, "Recommendation: "+rec)
	}

	children := make([]notionapi.Block, 0, len(lines))
	for _, line := range lines {
		children = append(children, &notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{
				RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: line}}},
			},
		})
	}

	title := fmt.Sprintf("Sentiment report %s", artifact.GeneratedAt.Format("2006-01-02"))
	_, err := r.notion.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(r.notionDB),
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{
				Title: []notionapi.RichText{{Text: &notionapi.Text{Content: title}}},
			},
		},
		Children: children,
	})
	return err
}
