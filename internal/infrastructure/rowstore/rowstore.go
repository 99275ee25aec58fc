// Package rowstore holds helpers shared by the ports.RowStore backends.
package rowstore

import (
	"fmt"
	"strconv"

	"github.com/routedesk/logistics-api/internal/core/ports"
)

// Fit validates row against the table schema and returns a copy padded to the
// schema width. Rows wider than the schema are rejected.
func Fit(table ports.TableSchema, row []string) ([]string, error) {
	if len(row) > table.Width() {
		return nil, fmt.Errorf("row has %d cells, table %s has %d columns", len(row), table.Name, table.Width())
	}
	out := make([]string, table.Width())
	copy(out, row)
	return out, nil
}

// ColumnLetter converts a 1-based column index to its A1 letter (1 -> A, 27 -> AA).
func ColumnLetter(n int) string {
	var s []byte
	for n > 0 {
		n--
		s = append([]byte{byte('A' + n%26)}, s...)
		n /= 26
	}
	return string(s)
}

// CellString renders a value decoded from a typed store (JSON numbers,
// booleans) as the string a positional row carries.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
