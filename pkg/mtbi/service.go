package mtbi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
	"github.com/google/uuid"
	er "github.com/mcorbin/corbierror"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ModeBackfill = "backfill"
	ModeUpdate   = "update"
	ModeRebuild  = "rebuild"
)

type Store interface {
	Load(ctx context.Context) ([]aggregates.DailyRecord, error)
	Save(ctx context.Context, series aggregates.Series) error
}

type DailyCalculator interface {
	Compute(ctx context.Context, date time.Time) aggregates.DailyRecord
}

type Service struct {
	logger       *slog.Logger
	calculator   DailyCalculator
	store        Store
	location     *time.Location
	runs         *prometheus.CounterVec
	lastSuccess  prometheus.Gauge
	dailyRecords prometheus.Gauge
}

func New(logger *slog.Logger, calculator DailyCalculator, store Store, location *time.Location, registry *prometheus.Registry) (*Service, error) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtbi_runs_total",
			Help: "Count the number of batch runs",
		},
		[]string{"mode", "status"})
	lastSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mtbi_last_success_timestamp_seconds",
			Help: "Timestamp of the last successful batch run",
		})
	dailyRecords := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mtbi_daily_records",
			Help: "Number of daily records in the persisted series",
		})
	for _, collector := range []prometheus.Collector{runs, lastSuccess, dailyRecords} {
		err := registry.Register(collector)
		if err != nil {
			return nil, err
		}
	}
	if location == nil {
		location = time.Local
	}
	return &Service{
		logger:       logger,
		calculator:   calculator,
		store:        store,
		location:     location,
		runs:         runs,
		lastSuccess:  lastSuccess,
		dailyRecords: dailyRecords,
	}, nil
}

// Today returns the current calendar date in the service time zone.
func (s *Service) Today() time.Time {
	return Day(time.Now().In(s.location))
}

// Load returns the persisted daily series. A missing or unreadable series
// is reported and treated as an empty one.
func (s *Service) Load(ctx context.Context) []aggregates.DailyRecord {
	daily, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("fail to load the series, starting from an empty one: %s", err.Error()))
		return []aggregates.DailyRecord{}
	}
	if daily == nil {
		return []aggregates.DailyRecord{}
	}
	return daily
}

func (s *Service) Persist(ctx context.Context, daily []aggregates.DailyRecord) error {
	series := NewSeries(daily)
	err := s.store.Save(ctx, series)
	if err != nil {
		return fmt.Errorf("fail to save the series: %w", err)
	}
	s.dailyRecords.Set(float64(len(series.Daily)))
	s.logger.Info(fmt.Sprintf("series saved (daily=%d, weekly=%d, monthly=%d)", len(series.Daily), len(series.Weekly), len(series.Monthly)))
	return nil
}

// Backfill computes the days ending at the lag boundary of today and
// replaces the whole series with them.
func (s *Service) Backfill(ctx context.Context, today time.Time, days int) error {
	if days < 1 {
		return er.Newf("invalid number of days %d, it should be greater than 0", er.BadRequest, true, days)
	}
	return s.run(ctx, ModeBackfill, func(ctx context.Context, logger *slog.Logger) error {
		end := LagBoundary(today)
		start := end.AddDate(0, 0, -(days - 1))
		logger.Info(fmt.Sprintf("backfilling from %s to %s (%d days, today and yesterday excluded)", start.Format(aggregates.DateLayout), end.Format(aggregates.DateLayout), days))
		daily := make([]aggregates.DailyRecord, 0, days)
		for i := 0; i < days; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			date := start.AddDate(0, 0, i)
			logger.Info(fmt.Sprintf("(%d/%d) computing %s", i+1, days, date.Format(aggregates.DateLayout)))
			daily = append(daily, s.calculator.Compute(ctx, date))
		}
		return s.Persist(ctx, ClipAndDedupe(daily, today))
	})
}

// Update computes the record of the lag boundary of today and merges it in
// the persisted series.
func (s *Service) Update(ctx context.Context, today time.Time) error {
	return s.run(ctx, ModeUpdate, func(ctx context.Context, logger *slog.Logger) error {
		target := LagBoundary(today)
		logger.Info(fmt.Sprintf("updating %s (today and yesterday excluded)", target.Format(aggregates.DateLayout)))
		record := s.calculator.Compute(ctx, target)
		daily := ClipAndDedupe(s.Load(ctx), today)
		return s.Persist(ctx, MergeOne(daily, record))
	})
}

// Rebuild re-applies the lag policy on the persisted series and recomputes
// the rollups, without querying the provider.
func (s *Service) Rebuild(ctx context.Context, today time.Time) error {
	return s.run(ctx, ModeRebuild, func(ctx context.Context, logger *slog.Logger) error {
		daily := ClipAndDedupe(s.Load(ctx), today)
		logger.Info(fmt.Sprintf("rebuilding the series from %d daily records", len(daily)))
		return s.Persist(ctx, daily)
	})
}

func (s *Service) run(ctx context.Context, mode string, fn func(ctx context.Context, logger *slog.Logger) error) error {
	runID := uuid.NewString()
	logger := s.logger.With("run-id", runID, "mode", mode)
	ctx, span := tracer.Start(ctx, "mtbi."+mode, trace.WithAttributes(attribute.String("run-id", runID)))
	defer span.End()

	start := time.Now()
	err := fn(ctx, logger)
	status := "success"
	if err != nil {
		status = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(fmt.Sprintf("%s failed after %s: %s", mode, time.Since(start).Round(time.Millisecond), err.Error()))
	} else {
		s.lastSuccess.SetToCurrentTime()
		logger.Info(fmt.Sprintf("%s done in %s", mode, time.Since(start).Round(time.Millisecond)))
	}
	s.runs.With(prometheus.Labels{"mode": mode, "status": status}).Inc()
	return err
}
