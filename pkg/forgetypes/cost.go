package forgetypes

import "time"

// CostEntry records the token usage and price of a single provider call.
type CostEntry struct {
	Timestamp         time.Time `json:"ts"`
	Provider          string    `json:"provider"`
	Model             string    `json:"model"`
	InputTokens       int64     `json:"input_tokens"`
	OutputTokens      int64     `json:"output_tokens"`
	CacheReadTokens   int64     `json:"cache_read_tokens"`
	CacheCreateTokens int64     `json:"cache_creation_tokens"`
	CostUSD           float64   `json:"cost_usd"`
	RequestMS         int64     `json:"request_ms"`
	WorkerID          WorkerID  `json:"worker_id,omitempty"`
	TaskID            TaskID    `json:"task_id,omitempty"`
}

// GroupBy selects the aggregation dimension for Query.
type GroupBy string

const (
	GroupByDay    GroupBy = "day"
	GroupByWeek   GroupBy = "week"
	GroupByMonth  GroupBy = "month"
	GroupByModel  GroupBy = "model"
	GroupByWorker GroupBy = "worker"
	GroupByTask   GroupBy = "task"
)

// CostBucket is one aggregated row returned by Query.
type CostBucket struct {
	Key          string  `json:"key"`
	CostUSD      float64 `json:"cost_usd"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Requests     int64   `json:"requests"`
}

// TimeRange bounds a Query or forecast window.
type TimeRange struct {
	From time.Time
	To   time.Time
}
