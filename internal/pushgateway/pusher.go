package pushgateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/appclacks/mtbi/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const defaultJob = "mtbi_batch"

type Configuration struct {
	URL string `validate:"omitempty,url"`
	Job string
}

// Pusher sends the batch metrics to a Prometheus pushgateway. A batch
// process does not live long enough to be scraped.
type Pusher struct {
	logger *slog.Logger
	pusher *push.Pusher
	url    string
}

func New(logger *slog.Logger, config Configuration, gatherer prometheus.Gatherer) (*Pusher, error) {
	err := validator.Validator.Struct(config)
	if err != nil {
		return nil, err
	}
	if config.URL == "" {
		return &Pusher{logger: logger}, nil
	}
	job := config.Job
	if job == "" {
		job = defaultJob
	}
	return &Pusher{
		logger: logger,
		pusher: push.New(config.URL, job).Gatherer(gatherer),
		url:    config.URL,
	}, nil
}

func (p *Pusher) Enabled() bool {
	return p.pusher != nil
}

// Push never fails the batch: errors are only logged.
func (p *Pusher) Push(ctx context.Context) {
	if !p.Enabled() {
		return
	}
	err := p.pusher.PushContext(ctx)
	if err != nil {
		p.logger.Error(fmt.Sprintf("fail to push metrics to %s: %s", p.url, err.Error()))
		return
	}
	p.logger.Debug(fmt.Sprintf("metrics pushed to %s", p.url))
}
