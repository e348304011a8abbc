package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	er "github.com/mcorbin/corbierror"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultSlice = 60 * time.Second

var ErrStopped = errors.New("scheduler stopped")

type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(value string) (TimeOfDay, error) {
	invalid := er.Newf("invalid time of day %q, the format is HH:MM (for example 06:05)", er.BadRequest, true, value)
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || !digits(parts[0], 1, 2) || !digits(parts[1], 2, 2) {
		return TimeOfDay{}, invalid
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, invalid
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, invalid
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func digits(value string, minLength int, maxLength int) bool {
	if len(value) < minLength || len(value) > maxLength {
		return false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns today at t if that instant is not in the past, tomorrow at t
// otherwise.
func (t TimeOfDay) Next(now time.Time) time.Time {
	y, m, d := now.Date()
	candidate := time.Date(y, m, d, t.Hour, t.Minute, 0, 0, now.Location())
	if now.After(candidate) {
		candidate = time.Date(y, m, d+1, t.Hour, t.Minute, 0, 0, now.Location())
	}
	return candidate
}

type Job func(ctx context.Context) error

// Scheduler runs a job every day at a fixed time of day until it is
// stopped. Job failures never stop the scheduler.
type Scheduler struct {
	logger     *slog.Logger
	at         TimeOfDay
	slice      time.Duration
	job        Job
	iterations *prometheus.CounterVec
	last       time.Time
	stop       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup

	// injectable for deterministic tests
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New builds a scheduler firing at the time of day at in location.
func New(logger *slog.Logger, at TimeOfDay, location *time.Location, slice time.Duration, job Job, registry *prometheus.Registry) (*Scheduler, error) {
	if slice <= 0 {
		slice = DefaultSlice
	}
	if location == nil {
		location = time.Local
	}
	iterations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtbi_scheduler_iterations_total",
			Help: "Count the number of scheduled executions",
		},
		[]string{"status"})
	err := registry.Register(iterations)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		logger:     logger,
		at:         at,
		slice:      slice,
		job:        job,
		iterations: iterations,
		stop:       make(chan struct{}),
		now: func() time.Time {
			return time.Now().In(location)
		},
		after: time.After,
	}, nil
}

// Run blocks until the context is cancelled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info(fmt.Sprintf("scheduler started, running every day at %s", s.at))
	for {
		err := s.Iterate(ctx)
		if err != nil {
			if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
				s.logger.Info("scheduler stopped")
				return nil
			}
			return err
		}
	}
}

// Iterate waits for the next trigger then executes the job once.
func (s *Scheduler) Iterate(ctx context.Context) error {
	next := s.nextTrigger()
	s.logger.Info(fmt.Sprintf("next run at %s (in %s)", next.Format(time.RFC3339), next.Sub(s.now()).Round(time.Second)))
	err := s.wait(ctx, next)
	if err != nil {
		return err
	}
	s.last = next
	s.execute(ctx)
	return nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.Run(ctx)
		if err != nil {
			s.logger.Error(fmt.Sprintf("scheduler error: %s", err.Error()))
		}
	}()
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}

// nextTrigger never returns the trigger which was just executed, even if
// the job completed within the same second.
func (s *Scheduler) nextTrigger() time.Time {
	next := s.at.Next(s.now())
	if !s.last.IsZero() && !next.After(s.last) {
		next = s.at.Next(s.last.Add(time.Minute))
	}
	return next
}

// wait sleeps in bounded slices so a stop request is handled quickly. The
// remaining time is computed from the clock after each slice.
func (s *Scheduler) wait(ctx context.Context, next time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := next.Sub(s.now())
		if remaining <= 0 {
			return nil
		}
		nap := min(remaining, s.slice)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return ErrStopped
		case <-s.after(nap):
		}
	}
}

func (s *Scheduler) execute(ctx context.Context) {
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			status = "failure"
			s.logger.Error(fmt.Sprintf("scheduled run panicked: %v", r))
		}
		s.iterations.With(prometheus.Labels{"status": status}).Inc()
	}()
	err := s.job(ctx)
	if err != nil {
		status = "failure"
		s.logger.Error(fmt.Sprintf("scheduled run failed: %s", err.Error()))
	}
}
