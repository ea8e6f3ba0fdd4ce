package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/insights-cli/internal/model"
)

// ImportOptions controls how a batch drop is parsed.
type ImportOptions struct {
	Format  string // "jsonl", "csv", or "xlsx"; empty = infer from extension
	Charset string // csv only; empty = utf-8. Legacy exports declare e.g. "windows-1252".
}

// ImportResult counts the outcome of one import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer loads batch feedback drops from local files or FTP URLs.
type Importer struct {
	service    *Service
	ftpTimeout time.Duration
}

// NewImporter creates an importer feeding the ingestion service.
func NewImporter(service *Service, ftpTimeout time.Duration) *Importer {
	if ftpTimeout == 0 {
		ftpTimeout = 30 * time.Second
	}
	return &Importer{service: service, ftpTimeout: ftpTimeout}
}

// Import reads every record in the source and submits it with
// origin=batch. Malformed records are skipped and counted; only a
// source-level failure (unreadable file, unknown format) aborts the run.
func (im *Importer) Import(ctx context.Context, source string, opts ImportOptions) (*ImportResult, error) {
	path := source
	if strings.HasPrefix(source, "ftp://") {
		local, cleanup, err := im.fetchFTP(ctx, source)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	}

	format := opts.Format
	if format == "" {
		switch strings.ToLower(filepath.Ext(source)) {
		case ".jsonl", ".json", ".ndjson":
			format = "jsonl"
		case ".csv":
			format = "csv"
		case ".xlsx":
			format = "xlsx"
		default:
			return nil, eris.Errorf("ingest: cannot infer format of %q", source)
		}
	}

	result := &ImportResult{}
	var err error
	switch format {
	case "jsonl":
		err = im.importJSONL(ctx, path, result)
	case "csv":
		err = im.importCSV(ctx, path, opts.Charset, result)
	case "xlsx":
		err = im.importXLSX(ctx, path, result)
	default:
		return nil, eris.Errorf("ingest: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("import finished",
		zap.String("source", source),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (im *Importer) importJSONL(ctx context.Context, path string, result *ImportResult) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrap(err, "ingest: open import file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var sub Submission
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			im.skip(result, line, eris.Wrap(err, "parse json"))
			continue
		}
		im.submit(ctx, sub, line, result)
	}
	return eris.Wrap(scanner.Err(), "ingest: read import file")
}

func (im *Importer) importCSV(ctx context.Context, path, charset string, result *ImportResult) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrap(err, "ingest: open import file")
	}
	defer f.Close()

	var reader io.Reader = f
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return eris.Wrapf(err, "ingest: unsupported charset %q", charset)
		}
		reader = enc.NewDecoder().Reader(f)
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return eris.Wrap(err, "ingest: read csv header")
	}
	columns := headerIndex(header)

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			im.skip(result, line, eris.Wrap(err, "read csv record"))
			continue
		}

		sub, err := rowSubmission(columns, record)
		if err != nil {
			im.skip(result, line, err)
			continue
		}
		im.submit(ctx, sub, line, result)
	}
}

func (im *Importer) importXLSX(ctx context.Context, path string, result *ImportResult) error {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return eris.New("ingest: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil
	}

	headerCells := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		headerCells[i] = cell.String()
	}
	columns := headerIndex(headerCells)

	for i, row := range sheet.Rows[1:] {
		line := i + 2
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}

		sub, err := rowSubmission(columns, cells)
		if err != nil {
			im.skip(result, line, err)
			continue
		}
		im.submit(ctx, sub, line, result)
	}
	return nil
}

func (im *Importer) submit(ctx context.Context, sub Submission, line int, result *ImportResult) {
	sub.Origin = model.OriginBatch
	if _, err := im.service.Submit(ctx, sub); err != nil {
		im.skip(result, line, err)
		return
	}
	result.Imported++
}

func (im *Importer) skip(result *ImportResult, line int, err error) {
	result.Skipped++
	zap.L().Warn("skipping import record",
		zap.Int("line", line),
		zap.Error(err))
}

// headerIndex maps normalized column names to their positions.
func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

// rowSubmission builds a submission from a tabular row. Recognized
// columns map to fields; any other column lands in metadata.
func rowSubmission(columns map[string]int, cells []string) (Submission, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	sub := Submission{
		CustomerID: field("customer_id"),
		Text:       field("feedback_text"),
		Channel:    field("channel"),
	}

	if raw := field("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return Submission{}, eris.Wrapf(err, "parse rating %q", raw)
		}
		sub.Rating = &rating
	}

	for name, idx := range columns {
		switch name {
		case "customer_id", "feedback_text", "channel", "rating":
			continue
		}
		if idx < len(cells) && strings.TrimSpace(cells[idx]) != "" {
			if sub.Metadata == nil {
				sub.Metadata = make(map[string]any)
			}
			sub.Metadata[name] = strings.TrimSpace(cells[idx])
		}
	}
	return sub, nil
}

// fetchFTP downloads an FTP drop to a temp file and returns its path
// with a cleanup func.
func (im *Importer) fetchFTP(ctx context.Context, rawURL string) (string, func(), error) {
	host, remotePath, err := parseFTPURL(rawURL)
	if err != nil {
		return "", nil, err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", remotePath))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(im.ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: ftp dial")
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return "", nil, eris.Wrap(err, "ingest: ftp login")
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: ftp retrieve")
	}
	defer resp.Close()

	tmp, err := os.CreateTemp("", "feedback-drop-*"+filepath.Ext(remotePath))
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: create temp file")
	}
	if _, err := io.Copy(tmp, resp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "ingest: download drop")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "ingest: close temp file")
	}

	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "ingest: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("ingest: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("ingest: empty path in ftp url")
	}

	return host, path, nil
}
