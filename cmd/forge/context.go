package main

import (
	"time"

	"github.com/cuemby/forge/pkg/cost"
	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/ledger"
)

// gatherContext assembles the DashboardContext a chat turn's provider
// call is grounded in: the live worker snapshot plus today's spend and
// a trailing-average cost projection. Errors from the cost ledger are
// swallowed to zero rather than failing the whole turn — a stale cost
// figure is better than blocking chat on a sqlite hiccup.
func gatherContext(l *ledger.Ledger, costLedger *cost.Ledger) forgetypes.DashboardContext {
	snap := l.Snapshot()
	workers := make([]*forgetypes.WorkerStatus, 0, len(snap.Workers))
	for _, ws := range snap.Workers {
		workers = append(workers, ws)
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var todayCost float64
	if buckets, err := costLedger.Query(forgetypes.TimeRange{From: startOfDay, To: now}, forgetypes.GroupByDay); err == nil {
		for _, b := range buckets {
			todayCost += b.CostUSD
		}
	}

	projected, _ := costLedger.Forecast(30)

	return forgetypes.DashboardContext{
		Workers:          workers,
		TodayCostUSD:     todayCost,
		ProjectedCostUSD: projected,
		GatheredAt:       now,
	}
}
