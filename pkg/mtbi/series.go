package mtbi

import (
	"sort"
	"time"

	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
)

func NewDailyRecord(date time.Time, runtime int64, incidents int64) aggregates.DailyRecord {
	return aggregates.DailyRecord{
		Date:        Day(date),
		Runtime:     runtime,
		Incidents:   incidents,
		MTBI:        Ratio(runtime, incidents),
		CountsKnown: true,
	}
}

// ClipAndDedupe removes the records more recent than the lag boundary of
// today. When several records share a date the last one wins. The result is
// sorted by date.
func ClipAndDedupe(daily []aggregates.DailyRecord, today time.Time) []aggregates.DailyRecord {
	boundary := LagBoundary(today)
	byDate := make(map[string]aggregates.DailyRecord)
	for _, record := range daily {
		day := Day(record.Date)
		if day.After(boundary) {
			continue
		}
		record.Date = day
		byDate[record.Day()] = record
	}
	result := make([]aggregates.DailyRecord, 0, len(byDate))
	for _, record := range byDate {
		result = append(result, record)
	}
	sortDaily(result)
	return result
}

// MergeOne replaces the record having the same date as record, or appends
// it.
func MergeOne(daily []aggregates.DailyRecord, record aggregates.DailyRecord) []aggregates.DailyRecord {
	record.Date = Day(record.Date)
	result := make([]aggregates.DailyRecord, 0, len(daily)+1)
	for _, existing := range daily {
		if Day(existing.Date).Equal(record.Date) {
			continue
		}
		result = append(result, existing)
	}
	result = append(result, record)
	sortDaily(result)
	return result
}

func NewSeries(daily []aggregates.DailyRecord) aggregates.Series {
	return aggregates.Series{
		Daily:   daily,
		Weekly:  Weekly(daily),
		Monthly: Monthly(daily),
	}
}

func sortDaily(daily []aggregates.DailyRecord) {
	sort.SliceStable(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})
}
