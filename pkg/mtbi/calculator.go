package mtbi

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	RuntimeColumn   = "use_time"
	WorkDateColumn  = "work_date"
	StartTimeColumn = "start_time"
	ErrorCodeColumn = "error_code"

	// incidents are counted on shifts, from 22:00 the day before to 22:00
	shiftBoundary   = 22 * time.Hour
	timestampLayout = "2006-01-02 15:04:05"
)

var tracer = otel.Tracer("github.com/appclacks/mtbi/pkg/mtbi")

type CalculatorConfig struct {
	RuntimeTable   string
	IncidentTable  string
	EquipmentClass string
}

type Calculator struct {
	logger       *slog.Logger
	provider     Provider
	config       CalculatorConfig
	degradations *prometheus.CounterVec
}

func NewCalculator(logger *slog.Logger, provider Provider, config CalculatorConfig, registry *prometheus.Registry) (*Calculator, error) {
	degradations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtbi_provider_degradations_total",
			Help: "Count the number of provider lookups replaced by a zero count",
		},
		[]string{"metric"})
	err := registry.Register(degradations)
	if err != nil {
		return nil, err
	}
	return &Calculator{
		logger:       logger,
		provider:     provider,
		config:       config,
		degradations: degradations,
	}, nil
}

func (c *Calculator) RuntimeQuery(date time.Time) Query {
	day := Day(date)
	return Query{
		Table:          c.config.RuntimeTable,
		EquipmentClass: c.config.EquipmentClass,
		DateFrom:       day,
		DateTo:         day,
		Match: map[string]string{
			WorkDateColumn: day.Format("060102"),
		},
	}
}

func (c *Calculator) IncidentQuery(date time.Time) Query {
	day := Day(date)
	start := day.AddDate(0, 0, -1).Add(shiftBoundary).Format(timestampLayout)
	end := day.Add(shiftBoundary).Format(timestampLayout)
	return Query{
		Table:          c.config.IncidentTable,
		EquipmentClass: c.config.EquipmentClass,
		Conditions: []Condition{
			{Column: StartTimeColumn, Operator: ">=", Value: start},
			{Column: StartTimeColumn, Operator: "<=", Value: end},
			// numeric codes only: blank and alphabetic codes are not incidents
			{Column: ErrorCodeColumn, Operator: ">=", Value: "0"},
			{Column: ErrorCodeColumn, Operator: "<", Value: "A"},
			{Column: ErrorCodeColumn, Operator: "!=", Value: " "},
		},
	}
}

func (c *Calculator) Runtime(ctx context.Context, date time.Time) CountResult {
	day := Day(date)
	fail := func(err error) CountResult {
		return CountResult{Err: &ProviderError{Metric: MetricRuntime, Date: day, Err: err}}
	}
	table, err := c.provider.Query(ctx, c.RuntimeQuery(day))
	if err != nil {
		return fail(err)
	}
	if table.Empty() {
		return fail(ErrEmptyResult)
	}
	if !table.HasColumn(RuntimeColumn) {
		return fail(fmt.Errorf("%w %s", ErrMissingColumn, RuntimeColumn))
	}
	var total int64
	for _, row := range table.Rows {
		value, err := toInt(row[RuntimeColumn])
		if err != nil {
			return fail(err)
		}
		total += value
	}
	return CountResult{Count: total}
}

// Incidents returns the number of incidents of the shift ending on date. An
// empty result means no incident.
func (c *Calculator) Incidents(ctx context.Context, date time.Time) CountResult {
	day := Day(date)
	table, err := c.provider.Query(ctx, c.IncidentQuery(day))
	if err != nil {
		return CountResult{Err: &ProviderError{Metric: MetricIncidents, Date: day, Err: err}}
	}
	if table == nil {
		return CountResult{}
	}
	return CountResult{Count: int64(len(table.Rows))}
}

func (c *Calculator) Compute(ctx context.Context, date time.Time) aggregates.DailyRecord {
	day := Day(date)
	ctx, span := tracer.Start(ctx, "mtbi.compute", trace.WithAttributes(attribute.String("date", day.Format(aggregates.DateLayout))))
	defer span.End()

	runtime := c.observe(span, MetricRuntime, c.Runtime(ctx, day))
	incidents := c.observe(span, MetricIncidents, c.Incidents(ctx, day))
	record := NewDailyRecord(day, runtime, incidents)
	c.logger.Info(fmt.Sprintf("%s mtbi=%.2f (runtime=%d, incidents=%d)", record.Day(), record.MTBI, record.Runtime, record.Incidents))
	return record
}

func (c *Calculator) observe(span trace.Span, metric Metric, result CountResult) int64 {
	if result.Err != nil {
		c.degradations.With(prometheus.Labels{"metric": string(metric)}).Inc()
		span.RecordError(result.Err)
		c.logger.Warn(fmt.Sprintf("%s, using 0", result.Err.Error()))
	}
	return result.Value()
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(math.Trunc(v)), nil
	case float32:
		return int64(math.Trunc(float64(v))), nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	}
	return 0, fmt.Errorf("%w %v for %s", ErrInvalidValue, value, RuntimeColumn)
}

// parseInt accepts decimal strings (NUMERIC columns are returned as text)
// and truncates them like the float values.
func parseInt(value string) (int64, error) {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w %q for %s", ErrInvalidValue, value, RuntimeColumn)
	}
	return int64(math.Trunc(result)), nil
}
