package entity

// ExportTaskName is the machinery task that renders a spreadsheet export.
const ExportTaskName = "export"

// ExportRequest selects the ledger rows of an export. The filter fields
// mirror the list API query parameters.
type ExportRequest struct {
	Kind   Kind   `json:"kind"`
	Status string `json:"status,omitempty"`
	Text   string `json:"q,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Task   string `json:"task,omitempty"`
}

// ExportJob reports the state of a queued export.
type ExportJob struct {
	ID    string `json:"id"`
	State string `json:"state"` // PENDING, RECEIVED, STARTED, RETRY, SUCCESS, FAILURE
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}
