package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/appclacks/mtbi/pkg/mtbi"
	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
)

type dbDaily struct {
	Day  time.Time
	Work sql.NullInt64
	Err  sql.NullInt64
	MTBI float64
}

type dbPeriod struct {
	Label string
	Work  int64
	Err   int64
	MTBI  float64
}

func toDailyRecord(row dbDaily) aggregates.DailyRecord {
	day := mtbi.Day(row.Day)
	if row.Work.Valid && row.Err.Valid {
		return mtbi.NewDailyRecord(day, row.Work.Int64, row.Err.Int64)
	}
	return aggregates.DailyRecord{
		Date: day,
		MTBI: row.MTBI,
	}
}

func toDBDaily(record aggregates.DailyRecord) dbDaily {
	return dbDaily{
		Day:  mtbi.Day(record.Date),
		Work: sql.NullInt64{Int64: record.Runtime, Valid: record.CountsKnown},
		Err:  sql.NullInt64{Int64: record.Incidents, Valid: record.CountsKnown},
		MTBI: record.MTBI,
	}
}

func toDBPeriods(periods []aggregates.PeriodRecord) []dbPeriod {
	result := make([]dbPeriod, 0, len(periods))
	for _, period := range periods {
		result = append(result, dbPeriod{
			Label: period.Label,
			Work:  period.RuntimeSum,
			Err:   period.IncidentSum,
			MTBI:  period.MTBI,
		})
	}
	return result
}

func (c *Database) Load(ctx context.Context) ([]aggregates.DailyRecord, error) {
	rows := []dbDaily{}
	err := c.db.SelectContext(ctx, &rows, "SELECT day, work, err, mtbi FROM mtbi_daily ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("fail to list daily records: %w", err)
	}
	result := make([]aggregates.DailyRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDailyRecord(row))
	}
	return result, nil
}

func (c *Database) LoadPeriods(ctx context.Context, table string) ([]aggregates.PeriodRecord, error) {
	if table != "mtbi_weekly" && table != "mtbi_monthly" {
		return nil, fmt.Errorf("unknown period table %s", table)
	}
	rows := []dbPeriod{}
	err := c.db.SelectContext(ctx, &rows, fmt.Sprintf("SELECT label, work, err, mtbi FROM %s ORDER BY label", table))
	if err != nil {
		return nil, fmt.Errorf("fail to list %s records: %w", table, err)
	}
	result := make([]aggregates.PeriodRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, aggregates.PeriodRecord{
			Label:       row.Label,
			RuntimeSum:  row.Work,
			IncidentSum: row.Err,
			MTBI:        row.MTBI,
		})
	}
	return result, nil
}

// Save replaces the whole series in a single transaction.
func (c *Database) Save(ctx context.Context, series aggregates.Series) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fail to start transaction: %w", err)
	}
	shouldRollback := true
	defer func() {
		if shouldRollback {
			err := tx.Rollback()
			if err != nil {
				c.Logger.Error(err.Error())
			}
		}
	}()
	_, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", seriesLock)
	if err != nil {
		return err
	}
	for _, table := range []string{"mtbi_daily", "mtbi_weekly", "mtbi_monthly"} {
		_, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			return fmt.Errorf("fail to clean %s: %w", table, err)
		}
	}
	daily := make([]dbDaily, 0, len(series.Daily))
	for _, record := range series.Daily {
		daily = append(daily, toDBDaily(record))
	}
	if len(daily) > 0 {
		_, err = tx.NamedExecContext(ctx, "INSERT INTO mtbi_daily (day, work, err, mtbi) VALUES (:day, :work, :err, :mtbi)", daily)
		if err != nil {
			return fmt.Errorf("fail to insert daily records: %w", err)
		}
	}
	periods := map[string][]dbPeriod{
		"mtbi_weekly":  toDBPeriods(series.Weekly),
		"mtbi_monthly": toDBPeriods(series.Monthly),
	}
	for table, rows := range periods {
		if len(rows) == 0 {
			continue
		}
		_, err = tx.NamedExecContext(ctx, fmt.Sprintf("INSERT INTO %s (label, work, err, mtbi) VALUES (:label, :work, :err, :mtbi)", table), rows)
		if err != nil {
			return fmt.Errorf("fail to insert %s records: %w", table, err)
		}
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	shouldRollback = false
	return nil
}
