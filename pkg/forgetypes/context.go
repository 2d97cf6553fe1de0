package forgetypes

import "time"

// DashboardContext is the snapshot of system state gathered before every
// provider call, so a chat turn can reference live worker, task, and
// cost information without the provider needing its own tools to ask.
type DashboardContext struct {
	Workers         []*WorkerStatus `json:"workers"`
	Tasks           []*TaskRecord   `json:"tasks"`
	TodayCostUSD    float64         `json:"today_cost_usd"`
	ProjectedCostUSD float64        `json:"projected_cost_usd"`
	Subscriptions   []string        `json:"subscriptions,omitempty"`
	RecentEvents    []string        `json:"recent_events,omitempty"`
	GatheredAt      time.Time       `json:"gathered_at"`
}
