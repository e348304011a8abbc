package mtbi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
)

type Metric string

const (
	MetricRuntime   Metric = "runtime"
	MetricIncidents Metric = "incidents"
)

var (
	ErrEmptyResult   = errors.New("empty result")
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidValue  = errors.New("invalid value")
)

type Condition struct {
	Column   string
	Operator string
	Value    string
}

// Query describes a warehouse lookup. Zero values are not used as filters.
type Query struct {
	Table          string
	EquipmentClass string
	DateFrom       time.Time
	DateTo         time.Time
	Match          map[string]string
	Conditions     []Condition
}

type Table struct {
	Columns []string
	Rows    []map[string]any
}

func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

type Provider interface {
	Query(ctx context.Context, query Query) (*Table, error)
}

type ProviderError struct {
	Metric Metric
	Date   time.Time
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("fail to get %s for %s: %s", e.Metric, e.Date.Format(aggregates.DateLayout), e.Err.Error())
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// CountResult is the outcome of a provider lookup. A failed lookup still
// has a usable value: zero.
type CountResult struct {
	Count int64
	Err   error
}

func (r CountResult) Value() int64 {
	if r.Err != nil {
		return 0
	}
	return r.Count
}
