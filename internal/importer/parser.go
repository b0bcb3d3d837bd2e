package importer

import (
	"errors"
	"strings"
)

var (
	ErrMalformedCSV = errors.New("malformed CSV: expected a header row and at least one data row")
)

// Row maps a column header to the raw cell value for one CSV data row.
type Row map[string]string

// ParseCSV turns raw CSV text into its header list and ordered data rows.
// Quoted fields may contain commas; a doubled quote inside a quoted field
// emits a literal quote. Fields are trimmed after extraction. Lines that
// are empty or contain only blank fields are skipped. Multi-line quoted
// fields are not supported.
func ParseCSV(raw string) ([]string, []Row, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	// Drop leading blank lines so the header is the first real line.
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) < 2 {
		return nil, nil, ErrMalformedCSV
	}

	headers := parseLine(lines[0])

	var rows []Row
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := parseLine(line)
		if allBlank(fields) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				row[h] = fields[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, nil, ErrMalformedCSV
	}
	return headers, rows, nil
}

// parseLine scans a single CSV line character by character, tracking quote
// state. An unquoted comma ends the current field; "" inside quotes is a
// literal quote.
func parseLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

func allBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
