package service

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/medlit/paperclass/internal/domain"
)

// requiredColumns must all be present in the header for a file to be
// processable at all.
var requiredColumns = []string{"title", "abstract"}

// delimiterCandidates are tried against the header line, most common first.
var delimiterCandidates = []rune{',', ';', '\t'}

// ParseRecords reads a delimited batch file into ordered records.
//
// The delimiter is sniffed from the header line, since source files do not
// share one convention. Malformed lines are skipped; only a header missing a
// required column fails the parse, with a *ValidationError.
// Parameters:
//   - r: the uploaded file contents.
// Returns:
//   - []domain.Record: surviving rows, indexed by post-skip position.
//   - error: *ValidationError if required columns are absent, or a read error.
func ParseRecords(r io.Reader) ([]domain.Record, error) {
	br := bufio.NewReader(r)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, NewValidationError("file is empty")
		}
		return nil, NewValidationError("failed to read header: %v", err)
	}

	titleIdx, abstractIdx := -1, -1
	for i, name := range header {
		switch normalizeColumn(name) {
		case "title":
			titleIdx = i
		case "abstract":
			abstractIdx = i
		}
	}

	var missing []string
	if titleIdx < 0 {
		missing = append(missing, "title")
	}
	if abstractIdx < 0 {
		missing = append(missing, "abstract")
	}
	if len(missing) > 0 {
		return nil, NewValidationError("file must contain %s columns (missing: %s)",
			quoteJoin(requiredColumns), strings.Join(missing, ", "))
	}

	var records []domain.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// individual malformed line; drop it and keep parsing
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, err
		}

		if titleIdx >= len(row) || abstractIdx >= len(row) {
			continue
		}

		title := strings.TrimSpace(row[titleIdx])
		abstract := strings.TrimSpace(row[abstractIdx])
		if title == "" && abstract == "" {
			continue
		}

		records = append(records, domain.Record{
			Index:    len(records),
			Title:    title,
			Abstract: abstract,
		})
	}

	return records, nil
}

// sniffDelimiter picks the candidate occurring most often in the header line.
// Falls back to comma.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	if idx := bytes.IndexByte(peek, '\n'); idx >= 0 {
		peek = peek[:idx]
	}

	best := ','
	bestCount := 0
	for _, cand := range delimiterCandidates {
		if n := bytes.Count(peek, []byte(string(cand))); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

// normalizeColumn lowercases a header cell and strips surrounding whitespace
// and a UTF-8 BOM.
func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, " and ")
}
