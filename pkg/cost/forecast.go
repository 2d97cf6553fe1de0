package cost

import (
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// DefaultForecastWindow is the trailing window forecast averages over
// when days <= 0 is passed.
const DefaultForecastWindow = 7

// Forecast projects cost_usd for the next `days` using the simple daily
// average over the trailing DefaultForecastWindow days (or `days` if
// it differs), per the spec's "trailing average" method — no external
// forecasting library, just a mean over Query's day buckets.
func (l *Ledger) Forecast(days int) (float64, error) {
	window := DefaultForecastWindow
	if days > 0 {
		window = days
	}

	now := time.Now().UTC()
	rng := forgetypes.TimeRange{From: now.AddDate(0, 0, -window), To: now}

	buckets, err := l.Query(rng, forgetypes.GroupByDay)
	if err != nil {
		return 0, err
	}
	if len(buckets) == 0 {
		return 0, nil
	}

	var total float64
	for _, b := range buckets {
		total += b.CostUSD
	}
	dailyAvg := total / float64(window)

	projectDays := days
	if projectDays <= 0 {
		projectDays = DefaultForecastWindow
	}
	return dailyAvg * float64(projectDays), nil
}
