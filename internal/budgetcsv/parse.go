package budgetcsv

import (
	"errors"
	"strings"
)

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("input has no rows")

// Row is one data row. Number is the line on which the row starts (header = 1).
type Row struct {
	Number int
	Cells  []string
}

// Table is a parsed sheet.
type Table struct {
	Header HeaderMap
	Rows   []Row
}

// Parse splits text into rows, builds the header map from the first row and
// checks that every required header is present before any data row is looked at.
func Parse(text string) (*Table, error) {
	rows := Split(strings.TrimPrefix(text, "\ufeff"))
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	header := NewHeaderMap(rows[0].Cells)
	if missing := header.Missing(); len(missing) > 0 {
		return nil, &MissingHeaderError{Missing: missing}
	}
	return &Table{Header: header, Rows: rows[1:]}, nil
}

// Split cuts text into rows of cells.
//
// The dialect is deliberately small: ';' separates cells and every '"' toggles
// quote state and is dropped. There is no escape for a literal quote. Inside
// quotes ';' and newlines are cell content. '\r' is ignored and blank rows are
// skipped.
func Split(text string) []Row {
	var (
		rows     []Row
		cells    []string
		cell     strings.Builder
		inQuotes bool
		line     = 1
		start    = 1
		dirty    bool
	)

	endRow := func() {
		cells = append(cells, cell.String())
		cell.Reset()
		if !blank(cells) {
			rows = append(rows, Row{Number: start, Cells: cells})
		}
		cells = nil
		dirty = false
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\r':
		case c == '"':
			inQuotes = !inQuotes
			dirty = true
		case c == delimiter && !inQuotes:
			cells = append(cells, cell.String())
			cell.Reset()
			dirty = true
		case c == '\n' && inQuotes:
			cell.WriteByte(c)
			line++
			dirty = true
		case c == '\n':
			endRow()
			line++
			start = line
		default:
			cell.WriteByte(c)
			dirty = true
		}
	}
	if dirty {
		endRow()
	}
	return rows
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
