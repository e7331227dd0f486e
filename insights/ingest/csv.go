// Package ingest reads customer comments from CSV exports.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/theimaginaryfoundation/comment-insights/insights"
)

// DefaultColumn is the header of the comment column in the exports we receive.
const DefaultColumn = "Cuerpo"

// ErrMissingColumn is returned when the header has no comment column.
var ErrMissingColumn = errors.New("missing comment column")

type Stats struct {
	Rows    int `json:"rows"`
	Valid   int `json:"valid"`
	Skipped int `json:"skipped"`
}

// ReadCommentsFile reads the comment column of the CSV file at path.
func ReadCommentsFile(path, column string) ([]string, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadComments(f, column)
}

// ReadComments reads the column named column (case-sensitive, surrounding spaces
// ignored) from CSV data with a header row. Rows whose comment is empty or blank are
// skipped. It fails with insights.ErrInvalidInput when no comment survives.
func ReadComments(r io.Reader, column string) ([]string, Stats, error) {
	if column == "" {
		column = DefaultColumn
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, Stats{}, &insights.InvalidInputError{Reason: "csv is empty"}
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read csv header: %w", err)
	}

	idx := columnIndex(header, column)
	if idx < 0 {
		return nil, Stats{}, fmt.Errorf("%w: the csv must contain a %q column", ErrMissingColumn, column)
	}

	var (
		comments []string
		stats    Stats
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read csv row %d: %w", stats.Rows+2, err)
		}
		stats.Rows++
		if idx >= len(rec) || strings.TrimSpace(rec[idx]) == "" {
			stats.Skipped++
			continue
		}
		comments = append(comments, rec[idx])
	}
	stats.Valid = len(comments)

	if len(comments) == 0 {
		return nil, stats, &insights.InvalidInputError{Reason: fmt.Sprintf("no valid comments in column %q", column)}
	}
	return comments, stats, nil
}

func columnIndex(header []string, column string) int {
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.TrimSpace(h) == column {
			return i
		}
	}
	return -1
}
