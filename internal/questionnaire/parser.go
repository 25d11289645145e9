// Package questionnaire parses uploaded questionnaire CSV files into a
// metadata mapping and an ordered list of question/answer records.
//
// The expected file layout is a leading block of Key,Value metadata rows of
// arbitrary length, followed by a tabular block whose header row contains a
// question column and an answer column (and optionally a section column).
// Blank separator lines and ragged data rows are tolerated.
package questionnaire

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoColumns means no header row with question and answer columns was
	// found, so the file cannot be interpreted as a questionnaire.
	ErrNoColumns = errors.New("no question/answer columns identified")

	// ErrNoRecords means a header row was found but every data row was
	// missing its question or answer.
	ErrNoRecords = errors.New("no usable question/answer rows")
)

// DefaultSection is assigned to rows whose section cell is absent or empty.
const DefaultSection = "General"

// Columns names the header cells to read. Zero values fall back to the
// conventional labels; matching is case-insensitive.
type Columns struct {
	Section  string
	Question string
	Answer   string
}

func (c Columns) withDefaults() Columns {
	if c.Section == "" {
		c.Section = "Section"
	}
	if c.Question == "" {
		c.Question = "Question"
	}
	if c.Answer == "" {
		c.Answer = "Answer"
	}
	return c
}

// QA is one normalized questionnaire row.
type QA struct {
	Section  string `json:"section"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Document is the parsed form of an uploaded questionnaire.
type Document struct {
	// Metadata holds the Key,Value rows preceding the tabular header.
	Metadata map[string]string `json:"metadata"`
	// Records are the usable Q&A rows in file order.
	Records []QA `json:"records"`
	// Headers are the raw header cells, for user-driven column selection.
	Headers []string `json:"headers"`
}

// ClientName and ProductName are the metadata keys consulted on export.
const (
	ClientNameKey  = "Client Name"
	ProductNameKey = "Product Name"
)

// Parse splits raw CSV text into metadata and Q&A records.
//
// The header row is the first line that, parsed as CSV, contains both the
// question and answer column labels as cells. Lines before it with at least
// two cells contribute to the metadata mapping. Data rows missing a question
// or answer after trimming are dropped.
func Parse(raw string, cols Columns) (*Document, error) {
	cols = cols.withDefaults()
	lines := splitLines(raw)

	headerIdx := -1
	metadata := make(map[string]string)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells, err := parseLine(line)
		if err != nil || len(cells) == 0 {
			continue
		}
		if hasColumn(cells, cols.Question) && hasColumn(cells, cols.Answer) {
			headerIdx = i
			break
		}
		if len(cells) >= 2 {
			key := strings.TrimSpace(cells[0])
			value := strings.TrimSpace(cells[1])
			if key != "" {
				metadata[key] = value
			}
		}
	}

	if headerIdx == -1 {
		return nil, ErrNoColumns
	}

	table := strings.Join(lines[headerIdx:], "\n")
	r := csv.NewReader(strings.NewReader(table))
	r.FieldsPerRecord = -1 // ragged rows are fine
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading tabular block: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoColumns
	}

	headers := rows[0]
	sectionIdx := columnIndex(headers, cols.Section)
	questionIdx := columnIndex(headers, cols.Question)
	answerIdx := columnIndex(headers, cols.Answer)
	if questionIdx == -1 || answerIdx == -1 {
		return nil, ErrNoColumns
	}

	var records []QA
	for _, row := range rows[1:] {
		question := strings.TrimSpace(cell(row, questionIdx))
		answer := strings.TrimSpace(cell(row, answerIdx))
		if question == "" || answer == "" {
			continue
		}
		section := strings.TrimSpace(cell(row, sectionIdx))
		if section == "" {
			section = DefaultSection
		}
		records = append(records, QA{Section: section, Question: question, Answer: answer})
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	return &Document{
		Metadata: metadata,
		Records:  records,
		Headers:  headers,
	}, nil
}

// HeaderCandidates guesses the table header for inputs where the configured
// labels matched nothing, so the user has cells to pick a column mapping
// from. It returns the first line with more than two cells (metadata rows
// have two), falling back to the first non-empty line.
func HeaderCandidates(raw string) []string {
	var fallback []string
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells, err := parseLine(line)
		if err != nil || len(cells) == 0 {
			continue
		}
		if len(cells) > 2 {
			return cells
		}
		if fallback == nil {
			fallback = cells
		}
	}
	return fallback
}

// ClientName returns the client name from metadata, or "" when absent.
func (d *Document) ClientName() string {
	return d.Metadata[ClientNameKey]
}

// ProductName returns the product name from metadata, or "" when absent.
func (d *Document) ProductName() string {
	return d.Metadata[ProductNameKey]
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(raw, "\n")
}

// parseLine reads a single CSV line into its cells.
func parseLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	return r.Read()
}

func hasColumn(cells []string, label string) bool {
	return columnIndex(cells, label) != -1
}

func columnIndex(cells []string, label string) int {
	if label == "" {
		return -1
	}
	for i, c := range cells {
		if strings.EqualFold(strings.TrimSpace(c), label) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
