package core

// csvimport.go turns CSV text into flashcard inputs.
//
// Rows are handled in three ways:
//  1. Accepted: ukrainian and english are non-empty after trimming
//  2. Skipped: a required field is empty; counted, no diagnostic
//  3. Broken: the line cannot be parsed; a diagnostic is recorded, the
//     line counts as skipped and parsing resumes on the next line
//
// Diagnostics are formatted "<type>: <message>" with the types Quotes,
// FieldMismatch and Delimiter.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/flashcards/internal/logging"
)

// Diagnostic types reported for malformed CSV.
const (
	DiagQuotes        = "Quotes"
	DiagFieldMismatch = "FieldMismatch"
	DiagDelimiter     = "Delimiter"
)

// Recognized header names.
const (
	ColUkrainian = "ukrainian"
	ColEnglish   = "english"
	ColCategory  = "category"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// HeaderIndex maps lower-cased column names to their position.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are trimmed and lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// Field returns the trimmed value of column name in row, or "" when the
// column is absent from the header or the row is short.
func (h HeaderIndex) Field(row []string, name string) string {
	pos, ok := h[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// ParsedCSV is the result of parsing import text, before anything is stored.
type ParsedCSV struct {
	Items  []FlashcardInput
	Rows   int      // data rows in the input, empty lines excluded
	Errors []string // parse diagnostics
}

// Skipped returns the number of parsed rows that were not accepted.
func (p ParsedCSV) Skipped() int {
	return p.Rows - len(p.Items)
}

// ParseFlashcardsCSV parses CSV text with a header row into flashcard inputs.
// defaultCategory is used for rows whose category cell is empty; an empty
// defaultCategory leaves such rows without a category.
//
// Quotes inside unquoted fields are kept as literal text. A quoted field that
// is never closed would swallow the rest of the input, so the line it starts
// on is reported and counted as a skipped row, and parsing resumes on the
// following line.
func ParseFlashcardsCSV(text string, defaultCategory string) ParsedCSV {
	p := csvParser{defaultCategory: defaultCategory}
	data := cleanText([]byte(text))
	line := 1

	for len(data) > 0 {
		start, ok := unterminatedQuote(data)
		if !ok {
			p.parse(data, line)
			break
		}

		p.parse(data[:start], line)
		line += bytes.Count(data[:start], []byte{'\n'})
		p.reject(fmt.Sprintf("%s: Quoted field unterminated (line %d)", DiagQuotes, line))

		rest := data[start:]
		next := bytes.IndexByte(rest, '\n')
		if next < 0 {
			break
		}
		data = rest[next+1:]
		line++
	}

	return p.out
}

// csvParser accumulates rows across the segments of one import.
type csvParser struct {
	defaultCategory string
	header          HeaderIndex
	headerLen       int
	out             ParsedCSV
}

// parse reads every record of segment. firstLine is the input line the
// segment starts on and offsets the line numbers of diagnostics.
func (p *csvParser) parse(segment []byte, firstLine int) {
	r := csv.NewReader(bytes.NewReader(segment))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			p.reject(diagnostic(err, firstLine-1))
			continue
		}

		if p.header == nil {
			p.header = MakeHeaderIndex(row)
			p.headerLen = len(row)
			continue
		}

		if isEmptyRow(row) {
			continue
		}

		p.out.Rows++
		if len(row) != p.headerLen {
			p.out.Errors = append(p.out.Errors, fieldMismatch(p.headerLen, len(row)))
		}

		item, ok := buildItem(row, p.header, p.defaultCategory)
		if !ok {
			continue
		}
		p.out.Items = append(p.out.Items, item)
	}
}

// reject records a diagnostic for a line that yields no row. Once the header
// is known the line still counts as a data row.
func (p *csvParser) reject(msg string) {
	p.out.Errors = append(p.out.Errors, msg)
	if p.header != nil {
		p.out.Rows++
	}
}

// unterminatedQuote scans data with the quoting rules of a lazy-quotes
// csv.Reader and returns the offset of the record holding a quoted field
// that is never closed.
func unterminatedQuote(data []byte) (int, bool) {
	recordStart := 0
	fieldStart := true

	for i := 0; i < len(data); {
		c := data[i]
		if fieldStart && c == '"' {
			j := i + 1
			for {
				k := bytes.IndexByte(data[j:], '"')
				if k < 0 {
					return recordStart, true
				}
				j += k + 1
				if j < len(data) && data[j] == '"' {
					j++
					continue
				}
				if closesField(data, j) {
					break
				}
			}
			i = j
			fieldStart = false
			continue
		}

		switch c {
		case ',':
			fieldStart = true
		case '\n':
			fieldStart = true
			recordStart = i + 1
		default:
			fieldStart = false
		}
		i++
	}
	return 0, false
}

// closesField reports whether a quote ending just before data[j] closes its
// field: it must be followed by a comma, a line break or the end of input.
func closesField(data []byte, j int) bool {
	if j == len(data) {
		return true
	}
	switch data[j] {
	case ',', '\n':
		return true
	case '\r':
		return j+1 == len(data) || data[j+1] == '\n'
	}
	return false
}

// buildItem validates a row and returns the flashcard it describes.
func buildItem(row []string, header HeaderIndex, defaultCategory string) (FlashcardInput, bool) {
	ukrainian := header.Field(row, ColUkrainian)
	english := header.Field(row, ColEnglish)
	if ukrainian == "" || english == "" {
		return FlashcardInput{}, false
	}

	item := FlashcardInput{Ukrainian: ukrainian, English: english}
	if category := header.Field(row, ColCategory); category != "" {
		item.Category = &category
	} else if defaultCategory != "" {
		c := defaultCategory
		item.Category = &c
	}
	return item, true
}

// isEmptyRow reports whether a record is a single empty field. Lines holding
// only whitespace are not empty; they count as rows and are skipped later.
func isEmptyRow(row []string) bool {
	return len(row) == 1 && row[0] == ""
}

func fieldMismatch(expected, got int) string {
	kind := "Too few fields"
	if got > expected {
		kind = "Too many fields"
	}
	return fmt.Sprintf("%s: %s: expected %d fields but parsed %d", DiagFieldMismatch, kind, expected, got)
}

// diagnostic formats a csv.Reader error as "<type>: <message>", shifting
// its line number by lineOffset.
func diagnostic(err error, lineOffset int) string {
	var pe *csv.ParseError
	if !errors.As(err, &pe) {
		return fmt.Sprintf("%s: %v", DiagDelimiter, err)
	}
	line := pe.Line + lineOffset
	switch {
	case errors.Is(pe.Err, csv.ErrQuote), errors.Is(pe.Err, csv.ErrBareQuote):
		return fmt.Sprintf("%s: %v (line %d)", DiagQuotes, pe.Err, line)
	case errors.Is(pe.Err, csv.ErrFieldCount):
		return fmt.Sprintf("%s: %v (line %d)", DiagFieldMismatch, pe.Err, line)
	default:
		return fmt.Sprintf("%s: %v (line %d)", DiagDelimiter, pe.Err, line)
	}
}

// cleanText strips a UTF-8 BOM and replaces invalid UTF-8 with U+FFFD.
func cleanText(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.WriteRune(r)
		}
		data = data[size:]
	}

	return buf.Bytes()
}

// ImportCSV parses csvText and inserts every accepted row.
//
// When no row is accepted the store is not touched. Otherwise the rows go
// through CreateManyFlashcards; if an insert fails the returned result counts
// what was inserted before the failure, and the error is returned as well.
func (s *Service) ImportCSV(ctx context.Context, csvText string, defaultCategory string) (ImportResult, error) {
	logger := logging.WithFields(ctx, "op", "import_csv")

	parsed := ParseFlashcardsCSV(csvText, defaultCategory)
	result := ImportResult{Errors: parsed.Errors}
	if result.Errors == nil {
		result.Errors = []string{}
	}

	if len(parsed.Items) == 0 {
		result.Skipped = parsed.Skipped()
		logger.Info("import finished with nothing to insert",
			"rows", parsed.Rows,
			"diagnostics", len(parsed.Errors),
		)
		return result, nil
	}

	created, err := s.CreateManyFlashcards(ctx, parsed.Items)
	result.Inserted = created.Count
	result.Skipped = parsed.Rows - created.Count
	if err != nil {
		logger.Error("import aborted",
			"rows", parsed.Rows,
			"inserted", created.Count,
			"error", err,
		)
		return result, fmt.Errorf("import csv: %w", err)
	}

	logger.Info("import finished",
		"rows", parsed.Rows,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"diagnostics", len(result.Errors),
	)
	return result, nil
}
