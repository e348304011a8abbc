package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock moves forward by the requested duration each time the
// scheduler waits on it.
type fakeClock struct {
	lock    sync.Mutex
	current time.Time
	naps    []time.Duration
}

func (c *fakeClock) now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.current
}

func (c *fakeClock) after(d time.Duration) <-chan time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.naps = append(c.naps, d)
	c.current = c.current.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.current
	return ch
}

func newTestScheduler(t *testing.T, clock *fakeClock, at TimeOfDay, job Job) *Scheduler {
	t.Helper()
	s, err := New(slog.Default(), at, time.UTC, time.Minute, job, prometheus.NewRegistry())
	require.NoError(t, err)
	s.now = clock.now
	s.after = clock.after
	return s
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		value    string
		expected TimeOfDay
	}{
		{value: "06:05", expected: TimeOfDay{Hour: 6, Minute: 5}},
		{value: "6:05", expected: TimeOfDay{Hour: 6, Minute: 5}},
		{value: "00:00", expected: TimeOfDay{}},
		{value: "23:59", expected: TimeOfDay{Hour: 23, Minute: 59}},
		{value: " 12:30 ", expected: TimeOfDay{Hour: 12, Minute: 30}},
	}
	for _, c := range cases {
		result, err := ParseTimeOfDay(c.value)
		require.NoError(t, err, c.value)
		assert.Equal(t, c.expected, result, c.value)
	}

	invalid := []string{"", "24:00", "12:60", "12", "12:5", "ab:cd", "-1:30", "12:30:00", "123:00", "+1:30"}
	for _, value := range invalid {
		_, err := ParseTimeOfDay(value)
		assert.Error(t, err, value)
	}
	assert.Equal(t, "06:05", TimeOfDay{Hour: 6, Minute: 5}.String())
}

func TestNext(t *testing.T) {
	at := TimeOfDay{Hour: 6, Minute: 5}
	cases := []struct {
		now      time.Time
		expected time.Time
	}{
		{
			now:      time.Date(2025, 6, 10, 5, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 10, 6, 5, 0, 0, time.UTC),
		},
		{
			now:      time.Date(2025, 6, 10, 6, 5, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 10, 6, 5, 0, 0, time.UTC),
		},
		{
			now:      time.Date(2025, 6, 10, 6, 5, 1, 0, time.UTC),
			expected: time.Date(2025, 6, 11, 6, 5, 0, 0, time.UTC),
		},
		{
			now:      time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC),
			expected: time.Date(2026, 1, 1, 6, 5, 0, 0, time.UTC),
		},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, at.Next(c.now), c.now.String())
	}
}

func TestIterate(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 10, 5, 0, 0, 0, time.UTC)}
	var runs []time.Time
	s := newTestScheduler(t, clock, TimeOfDay{Hour: 6, Minute: 5}, func(ctx context.Context) error {
		runs = append(runs, clock.now())
		return nil
	})

	require.NoError(t, s.Iterate(context.Background()))
	assert.Equal(t, []time.Time{time.Date(2025, 6, 10, 6, 5, 0, 0, time.UTC)}, runs)
	assert.Len(t, clock.naps, 65)
	for _, nap := range clock.naps {
		assert.LessOrEqual(t, nap, time.Minute)
	}

	// the trigger which just ran is not executed again
	require.NoError(t, s.Iterate(context.Background()))
	assert.Equal(t, []time.Time{
		time.Date(2025, 6, 10, 6, 5, 0, 0, time.UTC),
		time.Date(2025, 6, 11, 6, 5, 0, 0, time.UTC),
	}, runs)
	assert.Equal(t, 2.0, testutil.ToFloat64(s.iterations.WithLabelValues("success")))
}

func TestRunSurvivesFailures(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 10, 5, 0, 0, 0, time.UTC)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	s := newTestScheduler(t, clock, TimeOfDay{Hour: 6, Minute: 5}, func(ctx context.Context) error {
		calls++
		switch calls {
		case 1:
			return errors.New("warehouse unavailable")
		case 2:
			panic("boom")
		}
		cancel()
		return nil
	})

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 3, calls)
	assert.Equal(t, time.Date(2025, 6, 12, 6, 5, 0, 0, time.UTC), clock.now())
	assert.Equal(t, 2.0, testutil.ToFloat64(s.iterations.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.iterations.WithLabelValues("success")))
}

func TestStartStop(t *testing.T) {
	s, err := New(slog.Default(), TimeOfDay{Hour: 6, Minute: 5}, time.UTC, time.Hour, func(ctx context.Context) error {
		return errors.New("should not run")
	}, prometheus.NewRegistry())
	require.NoError(t, err)
	// the trigger is always far away
	s.now = func() time.Time {
		return time.Date(2025, 6, 10, 6, 6, 0, 0, time.UTC)
	}

	s.Start(context.Background())
	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("the scheduler did not stop")
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(s.iterations.WithLabelValues("failure")))
}

func TestNewDefaultSlice(t *testing.T) {
	s, err := New(slog.Default(), TimeOfDay{}, nil, 0, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, DefaultSlice, s.slice)
	assert.Equal(t, time.Local, s.now().Location())
}

func TestSchedulerUsesLocation(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	s, err := New(slog.Default(), TimeOfDay{Hour: 6, Minute: 5}, seoul, time.Minute, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, seoul, s.now().Location())

	// 2025-06-09 22:00 UTC is 2025-06-10 07:00 in Seoul
	clock := &fakeClock{current: time.Date(2025, 6, 9, 22, 0, 0, 0, time.UTC)}
	s.now = func() time.Time {
		return clock.now().In(seoul)
	}
	next := s.nextTrigger()
	assert.True(t, time.Date(2025, 6, 11, 6, 5, 0, 0, seoul).Equal(next))
	assert.True(t, time.Date(2025, 6, 10, 21, 5, 0, 0, time.UTC).Equal(next))
}
