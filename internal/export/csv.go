package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// utf8BOM makes spreadsheet applications detect UTF-8 (Thai names survive the round trip).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the table as UTF-8 CSV with a byte-order mark.
func WriteCSV(w io.Writer, table Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row.Cells) {
				record[i] = formatCell(row.Cells[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case time.Time:
		return c.Format("2006-01-02 15:04:05")
	case *time.Time:
		if c == nil {
			return ""
		}
		return c.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v)
}
