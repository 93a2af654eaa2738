package csv

import (
	"strconv"
	"strings"

	"github.com/hupe1980/gridgo"
)

// parseFields splits one line into trimmed fields in a single
// left-to-right scan. A backslash escapes the following character, a
// double quote toggles in-quotes mode (the delimiter is literal inside
// quotes), and the delimiter outside quotes separates fields.
//
// Delimiter and quote characters are ASCII, so scanning bytes is safe
// for UTF-8 input.
func parseFields(line string, delimiter byte) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
		escaped  bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == delimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}

// typedValue sniffs a field into an integer, float, or string value.
func typedValue(field string) gridgo.Value {
	if field == "" {
		return gridgo.String("")
	}
	if i, err := strconv.ParseInt(field, 10, 64); err == nil {
		return gridgo.Int(i)
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return gridgo.Float(f)
	}
	return gridgo.String(field)
}

// typedRow converts parsed fields into a row of exactly cols cells,
// padding with absent values or truncating as needed.
func typedRow(fields []string, cols int) gridgo.Row {
	row := make(gridgo.Row, cols)
	for i := 0; i < cols; i++ {
		if i >= len(fields) {
			row[i] = gridgo.Null()
			continue
		}
		row[i] = typedValue(fields[i])
	}
	return row
}
