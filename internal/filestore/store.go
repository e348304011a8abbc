package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/appclacks/mtbi/internal/validator"
	"github.com/appclacks/mtbi/pkg/mtbi"
	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
)

type Configuration struct {
	Path string `validate:"required"`
}

// Store persists the series as a single JSON document. This document is the
// one read by the dashboard.
type Store struct {
	logger *slog.Logger
	path   string
}

func New(logger *slog.Logger, config Configuration) (*Store, error) {
	err := validator.Validator.Struct(config)
	if err != nil {
		return nil, err
	}
	return &Store{
		logger: logger,
		path:   config.Path,
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) ([]aggregates.DailyRecord, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info(fmt.Sprintf("series file %s does not exist yet", s.path))
			return []aggregates.DailyRecord{}, nil
		}
		return nil, fmt.Errorf("fail to read series file %s: %w", s.path, err)
	}
	var doc inputDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("fail to parse series file %s: %w", s.path, err)
	}
	result := make([]aggregates.DailyRecord, 0, len(doc.Daily))
	for i := range doc.Daily {
		record, err := toDailyRecord(doc.Daily[i])
		if err != nil {
			s.logger.Warn(fmt.Sprintf("ignoring daily entry %d of %s: %s", i, s.path, err.Error()))
			continue
		}
		result = append(result, record)
	}
	return result, nil
}

// Save writes the series in a temporary file then renames it, so readers
// never see a partially written document.
func (s *Store) Save(ctx context.Context, series aggregates.Series) error {
	content, err := json.MarshalIndent(toDocument(series), "", "  ")
	if err != nil {
		return fmt.Errorf("fail to serialize the series: %w", err)
	}
	content = append(content, '\n')
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fail to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("fail to create temporary file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	shouldRemove := true
	defer func() {
		if shouldRemove {
			err := os.Remove(tmpPath)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.logger.Error(err.Error())
			}
		}
	}()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("fail to write temporary file %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fail to sync temporary file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fail to close temporary file %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("fail to set permissions on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("fail to replace series file %s: %w", s.path, err)
	}
	shouldRemove = false
	s.logger.Debug(fmt.Sprintf("series written to %s", s.path))
	return nil
}

func toDailyRecord(entry dailyEntry) (aggregates.DailyRecord, error) {
	normalized := entry.normalize()
	err := validator.Validator.Struct(normalized)
	if err != nil {
		var validationErrors validatorErrors
		if !errors.As(err, &validationErrors) {
			return aggregates.DailyRecord{}, err
		}
		for _, fieldError := range validationErrors {
			switch fieldError.Field() {
			case "Date":
				return aggregates.DailyRecord{}, fmt.Errorf("invalid date %q", normalized.Date)
			case "Work", "Err":
				normalized.Work = nil
				normalized.Err = nil
			case "MTBI":
				normalized.MTBI = nil
			}
		}
	}
	date, err := time.Parse(aggregates.DateLayout, normalized.Date)
	if err != nil {
		return aggregates.DailyRecord{}, fmt.Errorf("invalid date %q", normalized.Date)
	}
	if normalized.Work != nil && normalized.Err != nil {
		return mtbi.NewDailyRecord(date, *normalized.Work, *normalized.Err), nil
	}
	// without counts the stored value is the only one available
	record := aggregates.DailyRecord{Date: date}
	if normalized.MTBI != nil {
		record.MTBI = *normalized.MTBI
	}
	return record, nil
}

func toDocument(series aggregates.Series) outputDocument {
	doc := outputDocument{
		Daily:   make([]dailyOutput, 0, len(series.Daily)),
		Weekly:  toPeriods(series.Weekly),
		Monthly: toPeriods(series.Monthly),
	}
	for _, record := range series.Daily {
		output := dailyOutput{
			Date: record.Day(),
			MTBI: record.MTBI,
		}
		if record.CountsKnown {
			work := record.Runtime
			incidents := record.Incidents
			output.Work = &work
			output.Err = &incidents
		}
		doc.Daily = append(doc.Daily, output)
	}
	return doc
}

func toPeriods(periods []aggregates.PeriodRecord) []periodOutput {
	result := make([]periodOutput, 0, len(periods))
	for _, period := range periods {
		result = append(result, periodOutput{
			Label: period.Label,
			Work:  period.RuntimeSum,
			Err:   period.IncidentSum,
			MTBI:  period.MTBI,
		})
	}
	return result
}
