package monitoring

import "time"

// InstanceType represents the role of a sitetrack process
type InstanceType string

const (
	InstanceTypeServer InstanceType = "server"
	InstanceTypeWorker InstanceType = "worker"
)

// InstanceStatus represents the current state of an instance
type InstanceStatus string

const (
	StatusOnline  InstanceStatus = "online"
	StatusOffline InstanceStatus = "offline"
)

// InstanceInfo contains metadata about a running process
type InstanceInfo struct {
	InstanceID   string       `json:"instance_id"`
	InstanceType InstanceType `json:"instance_type"`
	Hostname     string       `json:"hostname"`
	PID          int          `json:"pid"`

	StartTime     time.Time `json:"start_time"`
	LastHeartbeat time.Time `json:"last_heartbeat"`

	Status InstanceStatus `json:"status"`

	Concurrency int `json:"concurrency"`
	ActiveTasks int `json:"active_tasks"`

	MemoryUsage uint64 `json:"memory_usage"`
	MemoryTotal uint64 `json:"memory_total"`
	DiskUsage   uint64 `json:"disk_usage"`
	DiskTotal   uint64 `json:"disk_total"`

	Version string `json:"version"`
}

// InstanceSummary provides aggregate statistics
type InstanceSummary struct {
	Total   int            `json:"total"`
	Online  int            `json:"online"`
	Offline int            `json:"offline"`
	ByType  map[string]int `json:"by_type"`
}

// InstanceListResponse is the response for listing instances
type InstanceListResponse struct {
	Instances []*InstanceInfo `json:"instances"`
	Summary   InstanceSummary `json:"summary"`
}
