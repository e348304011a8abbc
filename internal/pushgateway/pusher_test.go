package pushgateway_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/appclacks/mtbi/internal/pushgateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	method string
	path   string
	body   string
}

func TestPush(t *testing.T) {
	var lock sync.Mutex
	requests := []request{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lock.Lock()
		requests = append(requests, request{method: r.Method, path: r.URL.Path, body: string(body)})
		lock.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mtbi_runs_total",
		Help: "Count the number of batch runs",
	})
	reg.MustRegister(counter)
	counter.Inc()

	pusher, err := pushgateway.New(slog.Default(), pushgateway.Configuration{URL: server.URL}, reg)
	require.NoError(t, err)
	assert.True(t, pusher.Enabled())
	pusher.Push(context.Background())

	lock.Lock()
	defer lock.Unlock()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPut, requests[0].method)
	assert.Equal(t, "/metrics/job/mtbi_batch", requests[0].path)
	assert.NotEmpty(t, requests[0].body)
}

func TestPushCustomJob(t *testing.T) {
	paths := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pusher, err := pushgateway.New(slog.Default(), pushgateway.Configuration{URL: server.URL, Job: "mtbi_nightly"}, prometheus.NewRegistry())
	require.NoError(t, err)
	pusher.Push(context.Background())
	assert.Equal(t, "/metrics/job/mtbi_nightly", <-paths)
}

func TestPushErrorsAreIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	pusher, err := pushgateway.New(slog.Default(), pushgateway.Configuration{URL: server.URL}, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		pusher.Push(context.Background())
	})
}

func TestPushDisabled(t *testing.T) {
	pusher, err := pushgateway.New(slog.Default(), pushgateway.Configuration{}, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.False(t, pusher.Enabled())
	pusher.Push(context.Background())

	_, err = pushgateway.New(slog.Default(), pushgateway.Configuration{URL: "not an url"}, prometheus.NewRegistry())
	assert.Error(t, err)
}
