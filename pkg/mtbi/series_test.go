package mtbi_test

import (
	"testing"
	"time"

	"github.com/appclacks/mtbi/pkg/mtbi"
	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
	"github.com/stretchr/testify/assert"
)

func days(records []aggregates.DailyRecord) []string {
	result := []string{}
	for _, record := range records {
		result = append(result, record.Day())
	}
	return result
}

func TestLagBoundary(t *testing.T) {
	assert.Equal(t, date(t, "2025-06-08"), mtbi.LagBoundary(date(t, "2025-06-10")))
	assert.Equal(t, date(t, "2025-02-27"), mtbi.LagBoundary(date(t, "2025-03-01")))

	seoul, err := time.LoadLocation("Asia/Seoul")
	assert.NoError(t, err)
	// 00:30 in Seoul is still the previous day in UTC
	today := time.Date(2025, 6, 10, 0, 30, 0, 0, seoul)
	assert.Equal(t, date(t, "2025-06-08"), mtbi.LagBoundary(today))

	assert.True(t, mtbi.Eligible(date(t, "2025-06-08"), date(t, "2025-06-10")))
	assert.False(t, mtbi.Eligible(date(t, "2025-06-09"), date(t, "2025-06-10")))
	assert.False(t, mtbi.Eligible(date(t, "2025-06-10"), date(t, "2025-06-10")))
}

func TestClipAndDedupe(t *testing.T) {
	today := date(t, "2025-06-10")
	daily := []aggregates.DailyRecord{
		mtbi.NewDailyRecord(date(t, "2025-06-10"), 1, 1),
		mtbi.NewDailyRecord(date(t, "2025-06-07"), 10, 1),
		mtbi.NewDailyRecord(date(t, "2025-06-09"), 1, 1),
		mtbi.NewDailyRecord(date(t, "2025-06-08"), 20, 1),
		mtbi.NewDailyRecord(date(t, "2025-06-07"), 30, 1),
		mtbi.NewDailyRecord(date(t, "2025-06-11"), 1, 1),
		mtbi.NewDailyRecord(date(t, "2024-01-01"), 5, 1),
	}
	result := mtbi.ClipAndDedupe(daily, today)
	assert.Equal(t, []string{"2024-01-01", "2025-06-07", "2025-06-08"}, days(result))
	// the last record of a date wins
	assert.Equal(t, int64(30), result[1].Runtime)
	for _, record := range result {
		assert.True(t, record.Date.Before(today.AddDate(0, 0, -1)))
	}
	assert.Empty(t, mtbi.ClipAndDedupe(nil, today))
}

func TestMergeOne(t *testing.T) {
	daily := []aggregates.DailyRecord{
		mtbi.NewDailyRecord(date(t, "2025-06-06"), 10, 1),
		mtbi.NewDailyRecord(date(t, "2025-06-08"), 20, 1),
	}
	merged := mtbi.MergeOne(daily, mtbi.NewDailyRecord(date(t, "2025-06-07"), 30, 2))
	assert.Equal(t, []string{"2025-06-06", "2025-06-07", "2025-06-08"}, days(merged))
	assert.Equal(t, 15.0, merged[1].MTBI)

	replaced := mtbi.MergeOne(merged, mtbi.NewDailyRecord(date(t, "2025-06-08"), 99, 0))
	assert.Equal(t, []string{"2025-06-06", "2025-06-07", "2025-06-08"}, days(replaced))
	assert.Equal(t, int64(99), replaced[2].Runtime)
	assert.Equal(t, 0.0, replaced[2].MTBI)
	// the input is left untouched
	assert.Len(t, daily, 2)
}

func TestNewDailyRecord(t *testing.T) {
	record := mtbi.NewDailyRecord(time.Date(2025, 6, 8, 17, 45, 0, 0, time.UTC), 310, 11)
	assert.Equal(t, "2025-06-08", record.Day())
	assert.Equal(t, date(t, "2025-06-08"), record.Date)
	assert.Equal(t, 28.18, record.MTBI)
	assert.True(t, record.CountsKnown)

	zero := mtbi.NewDailyRecord(date(t, "2025-06-08"), 500, 0)
	assert.Equal(t, 0.0, zero.MTBI)
}
