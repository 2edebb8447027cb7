// Package export renders filtered ledger rows as CSV or XLSX files.
package export

// Row is one exported record. ImageURL is only used by the XLSX writer.
type Row struct {
	Cells    []interface{}
	ImageURL string
}

// Table is a fixed-column export.
type Table struct {
	Sheet   string
	Headers []string
	Rows    []Row
}
