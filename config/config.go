package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/appclacks/mtbi/internal/database"
	"github.com/appclacks/mtbi/internal/pushgateway"
	"github.com/appclacks/mtbi/internal/tracing"
	"github.com/appclacks/mtbi/internal/validator"
	"github.com/appclacks/mtbi/internal/warehouse"
	"github.com/appclacks/mtbi/pkg/scheduler"
	er "github.com/mcorbin/corbierror"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Series struct {
	Backend  string                  `validate:"omitempty,oneof=file postgres"`
	Path     string                  `validate:"required_unless=Backend postgres"`
	Database *database.Configuration `validate:"required_if=Backend postgres"`
}

type Scheduler struct {
	Slice string
}

type Configuration struct {
	Timezone    string
	Warehouse   warehouse.Configuration
	Series      Series
	Scheduler   Scheduler
	Pushgateway pushgateway.Configuration
	Tracing     tracing.Configuration
}

func Load(path string) (Configuration, error) {
	var config Configuration
	file, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("fail to read configuration file: %w", err)
	}
	if err := yaml.Unmarshal(file, &config); err != nil {
		return config, fmt.Errorf("fail to parse yaml configuration file: %w", err)
	}
	if err := validator.Validator.Struct(config); err != nil {
		return config, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := config.Location(); err != nil {
		return config, err
	}
	if _, err := config.SchedulerSlice(); err != nil {
		return config, err
	}
	return config, nil
}

func (c Configuration) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, er.Newf("invalid timezone %s", er.BadRequest, true, c.Timezone)
	}
	return location, nil
}

func (c Configuration) SchedulerSlice() (time.Duration, error) {
	if c.Scheduler.Slice == "" {
		return scheduler.DefaultSlice, nil
	}
	slice, err := time.ParseDuration(c.Scheduler.Slice)
	if err != nil || slice <= 0 {
		return 0, er.Newf("invalid scheduler slice %s", er.BadRequest, true, c.Scheduler.Slice)
	}
	return slice, nil
}

func (c Configuration) Backend() string {
	if c.Series.Backend == "" {
		return BackendFile
	}
	return c.Series.Backend
}
