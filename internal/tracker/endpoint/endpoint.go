package endpoint

import (
	"context"

	"github.com/blankon/sitetrack/internal/monitoring"
	"github.com/blankon/sitetrack/internal/tracker/usecase"
)

// LoginRequest request parameter
type LoginRequest struct {
	Secret string `json:"secret"`
}

// StatusRequest request parameter for a single status change
type StatusRequest struct {
	Status interface{} `json:"status"`
}

// BulkRequest request parameter for a bulk edit
type BulkRequest struct {
	Rows []usecase.RowEdit `json:"rows"`
}

// BulkResponse response
type BulkResponse struct {
	Results []usecase.RowResult `json:"results"`
	Failed  int                 `json:"failed"`
}

// SiteInfo is served with the roster so the UI can pick its layout.
type SiteInfo struct {
	Title    string   `json:"title"`
	Theme    string   `json:"theme"`
	Layout   string   `json:"layout"`
	Timezone string   `json:"timezone"`
	Roster   []string `json:"roster"`
	Tags     []string `json:"related_to"`
	Statuses []string `json:"statuses"`
}

// InstanceLister reports running sitetrack processes.
type InstanceLister interface {
	Snapshot(ctx context.Context) (monitoring.InstanceListResponse, error)
}
