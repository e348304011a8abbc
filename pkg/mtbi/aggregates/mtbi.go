package aggregates

import "time"

const DateLayout = "2006-01-02"

type DailyRecord struct {
	Date      time.Time
	Runtime   int64
	Incidents int64
	MTBI      float64
	// CountsKnown is false for records loaded from documents written before
	// runtime and incident counts were stored.
	CountsKnown bool
}

type PeriodRecord struct {
	Label       string
	RuntimeSum  int64
	IncidentSum int64
	MTBI        float64
}

type Series struct {
	Daily   []DailyRecord
	Weekly  []PeriodRecord
	Monthly []PeriodRecord
}

func (r DailyRecord) Day() string {
	return r.Date.Format(DateLayout)
}
