package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// TimeColumn is the CSV header holding each row's timestamp.
const TimeColumn = "Time"

var csvTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
}

// CSVFetcher reads audit exports dropped into a directory. The directory is
// the source's "path" setting, falling back to base_url.
type CSVFetcher struct{}

func (f *CSVFetcher) FetchEvents(ctx context.Context, source *models.Source) ([]RawEvent, error) {
	dir := source.Auth["path"]
	if dir == "" {
		dir = source.BaseURL
	}
	if dir == "" {
		return nil, apperrors.Misconfigured("csv source %d has no path", source.ID)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, apperrors.Misconfigured("csv source %d path %q: %v", source.ID, dir, err)
	}
	sort.Strings(files)

	var events []RawEvent
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileEvents, err := readCSVFile(path)
		if err != nil {
			return nil, err
		}
		events = append(events, fileEvents...)
	}
	return events, nil
}

func readCSVFile(path string) ([]RawEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	events, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return events, nil
}

// ParseCSV turns each row into a "header: value" block, one line per column
// in header order, stamped with the row's Time column.
func ParseCSV(r io.Reader) ([]RawEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	timeIdx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == TimeColumn {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return nil, apperrors.Invalid("missing %q column", TimeColumn)
	}

	var events []RawEvent
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if timeIdx >= len(record) {
			return nil, apperrors.Invalid("line %d: missing %s value", line, TimeColumn)
		}

		ts, err := parseCSVTime(record[timeIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var b strings.Builder
		for i, h := range header {
			value := ""
			if i < len(record) {
				value = record[i]
			}
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s: %s", h, value)
		}
		events = append(events, RawEvent{Timestamp: ts, Text: b.String()})
	}
	return events, nil
}

// parseCSVTime reads zone-less values as UTC.
func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.Invalid("unrecognized time %q", s)
}
