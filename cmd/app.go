package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/appclacks/mtbi/config"
	"github.com/appclacks/mtbi/internal/database"
	"github.com/appclacks/mtbi/internal/filestore"
	"github.com/appclacks/mtbi/internal/pushgateway"
	"github.com/appclacks/mtbi/internal/tracing"
	"github.com/appclacks/mtbi/internal/warehouse"
	"github.com/appclacks/mtbi/pkg/mtbi"
	"github.com/prometheus/client_golang/prometheus"
)

type app struct {
	logger   *slog.Logger
	config   config.Configuration
	registry *prometheus.Registry
	service  *mtbi.Service
	pusher   *pushgateway.Pusher
	closers  []func(context.Context) error
}

// buildApp wires the components. withProvider is false for the commands
// which never query the warehouse.
func buildApp(ctx context.Context, logger *slog.Logger, withProvider bool) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{
		logger:   logger,
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdownTracing)

	store, err := a.buildStore()
	if err != nil {
		a.close()
		return nil, err
	}

	var calculator mtbi.DailyCalculator
	if withProvider {
		provider, err := warehouse.New(logger, cfg.Warehouse)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return provider.Close() })
		calculator, err = mtbi.NewCalculator(logger, provider, mtbi.CalculatorConfig{
			RuntimeTable:   cfg.Warehouse.RuntimeTable,
			IncidentTable:  cfg.Warehouse.IncidentTable,
			EquipmentClass: cfg.Warehouse.EquipmentClass,
		}, a.registry)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	a.service, err = mtbi.New(logger, calculator, store, location, a.registry)
	if err != nil {
		a.close()
		return nil, err
	}
	a.pusher, err = pushgateway.New(logger, cfg.Pushgateway, a.registry)
	if err != nil {
		a.close()
		return nil, err
	}
	logger.Info(fmt.Sprintf("configuration: runtime=%s, incidents=%s, class=%s, backend=%s, timezone=%s",
		cfg.Warehouse.RuntimeTable, cfg.Warehouse.IncidentTable, cfg.Warehouse.EquipmentClass, cfg.Backend(), location))
	return a, nil
}

func (a *app) buildStore() (mtbi.Store, error) {
	switch a.config.Backend() {
	case config.BackendPostgres:
		db, err := database.New(a.logger, *a.config.Series.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		return db, nil
	default:
		store, err := filestore.New(a.logger, filestore.Configuration{Path: a.config.Series.Path})
		if err != nil {
			return nil, err
		}
		a.logger.Info(fmt.Sprintf("series file: %s", store.Path()))
		return store, nil
	}
}

// execute runs one batch operation then pushes the metrics.
func (a *app) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.pusher.Push(pushCtx)
	return err
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		err := a.closers[i](ctx)
		if err != nil {
			a.logger.Error(err.Error())
		}
	}
}
