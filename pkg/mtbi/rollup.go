package mtbi

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
)

// Ratio computes the MTBI for the given counts, rounded to two decimals.
// It returns 0 when there is no incident.
func Ratio(runtime int64, incidents int64) float64 {
	if incidents <= 0 {
		return 0
	}
	return math.Round(float64(runtime)/float64(incidents)*100) / 100
}

func WeekLabel(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func MonthLabel(date time.Time) string {
	return date.Format("2006-01")
}

func Weekly(daily []aggregates.DailyRecord) []aggregates.PeriodRecord {
	return rollup(daily, WeekLabel)
}

func Monthly(daily []aggregates.DailyRecord) []aggregates.PeriodRecord {
	return rollup(daily, MonthLabel)
}

// rollup sums the counts of every day of a period then computes the ratio
// from the sums. Days without counts are ignored.
func rollup(daily []aggregates.DailyRecord, label func(time.Time) string) []aggregates.PeriodRecord {
	sums := make(map[string]*aggregates.PeriodRecord)
	for _, record := range daily {
		if !record.CountsKnown || record.Date.IsZero() {
			continue
		}
		key := label(record.Date)
		period, ok := sums[key]
		if !ok {
			period = &aggregates.PeriodRecord{Label: key}
			sums[key] = period
		}
		period.RuntimeSum += record.Runtime
		period.IncidentSum += record.Incidents
	}
	result := make([]aggregates.PeriodRecord, 0, len(sums))
	for _, period := range sums {
		period.MTBI = Ratio(period.RuntimeSum, period.IncidentSum)
		result = append(result, *period)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})
	return result
}
