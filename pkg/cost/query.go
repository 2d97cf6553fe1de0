package cost

import (
	"fmt"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// groupExprs maps each GroupBy dimension to the SQL expression used to
// bucket rows. Day/week/month bucket on the timestamp; the others
// bucket on their own column directly.
var groupExprs = map[forgetypes.GroupBy]string{
	forgetypes.GroupByDay:    "strftime('%Y-%m-%d', ts)",
	forgetypes.GroupByWeek:   "strftime('%Y-W%W', ts)",
	forgetypes.GroupByMonth:  "strftime('%Y-%m', ts)",
	forgetypes.GroupByModel:  "model",
	forgetypes.GroupByWorker: "COALESCE(worker_id, '')",
	forgetypes.GroupByTask:   "COALESCE(task_id, '')",
}

// Query aggregates cost_entries within rng, grouped by groupBy. No
// materialized rollups are kept — every call aggregates with SQL
// GROUP BY directly.
func (l *Ledger) Query(rng forgetypes.TimeRange, groupBy forgetypes.GroupBy) ([]forgetypes.CostBucket, error) {
	expr, ok := groupExprs[groupBy]
	if !ok {
		return nil, fmt.Errorf("cost: unknown group_by %q", groupBy)
	}

	q := fmt.Sprintf(`
		SELECT %s AS bucket,
		       SUM(cost_usd), SUM(input_tokens), SUM(output_tokens), COUNT(*)
		FROM cost_entries
		WHERE ts >= ? AND ts < ?
		GROUP BY bucket
		ORDER BY bucket`, expr)

	rows, err := l.db.Query(q, rng.From.UTC().Format(time.RFC3339Nano), rng.To.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("cost: query: %w", err)
	}
	defer rows.Close()

	var out []forgetypes.CostBucket
	for rows.Next() {
		var b forgetypes.CostBucket
		if err := rows.Scan(&b.Key, &b.CostUSD, &b.InputTokens, &b.OutputTokens, &b.Requests); err != nil {
			return nil, fmt.Errorf("cost: scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
