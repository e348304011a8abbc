package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/appclacks/mtbi/internal/validator"
	"github.com/appclacks/mtbi/pkg/mtbi"
	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	er "github.com/mcorbin/corbierror"
)

const (
	defaultClassColumn  = "large_class"
	defaultDateColumn   = "work_day"
	defaultQueryTimeout = 30 * time.Second
)

var operators = map[string]bool{
	"=":  true,
	"!=": true,
	"<":  true,
	"<=": true,
	">":  true,
	">=": true,
}

// Warehouse is the metrics provider backed by the SQL data warehouse.
type Warehouse struct {
	db          *sqlx.DB
	logger      *slog.Logger
	classColumn string
	dateColumn  string
	timeout     time.Duration
}

func New(logger *slog.Logger, config Configuration) (*Warehouse, error) {
	err := validator.Validator.Struct(config)
	if err != nil {
		return nil, err
	}
	timeout := defaultQueryTimeout
	if config.QueryTimeout != "" {
		timeout, err = time.ParseDuration(config.QueryTimeout)
		if err != nil || timeout <= 0 {
			return nil, er.Newf("invalid warehouse query timeout %s", er.BadRequest, true, config.QueryTimeout)
		}
	}
	connectionString := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s", config.Host, config.Port, config.Username, config.Database, config.Password, config.SSLMode)
	sqlDB, err := otelsql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("fail to open the warehouse connection: %w", err)
	}
	db := sqlx.NewDb(sqlDB, "postgres")
	db.SetConnMaxLifetime(time.Duration(60) * time.Second)
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	// an unreachable warehouse is not fatal: every lookup degrades to zero
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Warn(fmt.Sprintf("warehouse %s:%d is not reachable: %s", config.Host, config.Port, err.Error()))
	}
	return newWarehouse(logger, db, config, timeout), nil
}

func newWarehouse(logger *slog.Logger, db *sqlx.DB, config Configuration, timeout time.Duration) *Warehouse {
	classColumn := config.ClassColumn
	if classColumn == "" {
		classColumn = defaultClassColumn
	}
	dateColumn := config.DateColumn
	if dateColumn == "" {
		dateColumn = defaultDateColumn
	}
	return &Warehouse{
		db:          db,
		logger:      logger,
		classColumn: classColumn,
		dateColumn:  dateColumn,
		timeout:     timeout,
	}
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}

func (w *Warehouse) Query(ctx context.Context, query mtbi.Query) (*mtbi.Table, error) {
	statement, args, err := w.buildQuery(query)
	if err != nil {
		return nil, err
	}
	w.logger.Debug(fmt.Sprintf("warehouse query: %s %v", statement, args))
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	rows, err := w.db.QueryxContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("fail to query table %s: %w", query.Table, err)
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("fail to read columns of table %s: %w", query.Table, err)
	}
	table := &mtbi.Table{
		Columns: columns,
		Rows:    []map[string]any{},
	}
	for rows.Next() {
		row := make(map[string]any, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("fail to scan row of table %s: %w", query.Table, err)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fail to iterate on table %s: %w", query.Table, err)
	}
	return table, nil
}

func (w *Warehouse) buildQuery(query mtbi.Query) (string, []any, error) {
	if query.Table == "" {
		return "", nil, fmt.Errorf("missing table in warehouse query")
	}
	conditions := []string{}
	args := []any{}
	add := func(column string, operator string, value any) error {
		if !operators[operator] {
			return fmt.Errorf("unsupported operator %q on column %s", operator, column)
		}
		if column == "" {
			return fmt.Errorf("missing column for operator %q", operator)
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", pq.QuoteIdentifier(column), operator, len(args)))
		return nil
	}
	if query.EquipmentClass != "" {
		if err := add(w.classColumn, "=", query.EquipmentClass); err != nil {
			return "", nil, err
		}
	}
	if !query.DateFrom.IsZero() {
		if err := add(w.dateColumn, ">=", query.DateFrom.Format(aggregates.DateLayout)); err != nil {
			return "", nil, err
		}
	}
	if !query.DateTo.IsZero() {
		if err := add(w.dateColumn, "<=", query.DateTo.Format(aggregates.DateLayout)); err != nil {
			return "", nil, err
		}
	}
	columns := make([]string, 0, len(query.Match))
	for column := range query.Match {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		if err := add(column, "=", query.Match[column]); err != nil {
			return "", nil, err
		}
	}
	for _, condition := range query.Conditions {
		if err := add(condition.Column, condition.Operator, condition.Value); err != nil {
			return "", nil, err
		}
	}
	statement := fmt.Sprintf("SELECT * FROM %s", quoteTable(query.Table))
	if len(conditions) > 0 {
		statement = fmt.Sprintf("%s WHERE %s", statement, strings.Join(conditions, " AND "))
	}
	return statement, args, nil
}

// quoteTable quotes every part of a possibly schema qualified table name.
func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i := range parts {
		parts[i] = pq.QuoteIdentifier(parts[i])
	}
	return strings.Join(parts, ".")
}
