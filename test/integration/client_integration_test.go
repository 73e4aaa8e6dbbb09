//go:build integration

package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-filter/internal/adapters/clients"
	"github.com/jsamuelsen/quote-filter/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/platform/config"
)

const sampleDataset = "quote,author,category\nim here,Jane,life\n"

// testFetcherConfig returns a client config with short intervals.
func testFetcherConfig() config.ClientConfig {
	return config.ClientConfig{
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 2,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     time.Second,
		},
	}
}

func newFetcher(t *testing.T, cfg config.ClientConfig) *clients.DatasetFetcher {
	t.Helper()

	fetcher, err := clients.NewDatasetFetcher(cfg, discardLogger())
	require.NoError(t, err)

	return fetcher
}

func fetchAll(ctx context.Context, fetcher *clients.DatasetFetcher, url string) (string, error) {
	body, err := fetcher.FetchDataset(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	return string(data), err
}

// TestDatasetFetcher_RetriesTransientFailures verifies that the fetcher
// retries server errors and returns the dataset once the source recovers.
func TestDatasetFetcher_RetriesTransientFailures(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, sampleDataset)
	}))
	defer server.Close()

	data, err := fetchAll(context.Background(), newFetcher(t, testFetcherConfig()), server.URL+"/quotes.csv")
	require.NoError(t, err)

	assert.Equal(t, sampleDataset, data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "expected 2 failures and 1 success")
}

// TestDatasetFetcher_CircuitBreaker verifies the breaker opens after repeated
// failures, reports the source unhealthy, and closes again after recovery.
func TestDatasetFetcher_CircuitBreaker(t *testing.T) {
	var calls int32
	var failing atomic.Bool
	failing.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, sampleDataset)
	}))
	defer server.Close()

	cfg := testFetcherConfig()
	cfg.Retry.MaxAttempts = 1
	cfg.CircuitBreaker.MaxFailures = 2
	cfg.CircuitBreaker.Timeout = 50 * time.Millisecond

	fetcher := newFetcher(t, cfg)
	ctx := context.Background()
	url := server.URL + "/quotes.csv"

	for range 2 {
		_, err := fetchAll(ctx, fetcher, url)
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	}

	assert.Equal(t, clients.StateOpen, fetcher.CircuitState())
	assert.Error(t, fetcher.Check(ctx), "open circuit marks the source unhealthy")

	callsBefore := atomic.LoadInt32(&calls)
	_, err := fetchAll(ctx, fetcher, url)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, callsBefore, atomic.LoadInt32(&calls), "no request while the circuit is open")

	time.Sleep(60 * time.Millisecond)
	failing.Store(false)

	for range 2 {
		_, err := fetchAll(ctx, fetcher, url)
		require.NoError(t, err)
	}

	assert.Equal(t, clients.StateClosed, fetcher.CircuitState())
	assert.NoError(t, fetcher.Check(ctx))
}

// TestDatasetFetcher_Timeout verifies a slow source fails within the client timeout.
func TestDatasetFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := testFetcherConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.Retry.MaxAttempts = 1

	start := time.Now()
	_, err := fetchAll(context.Background(), newFetcher(t, cfg), server.URL)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 300*time.Millisecond, "should time out quickly")
}

// TestDatasetFetcher_Concurrent verifies one fetcher serves concurrent runs.
func TestDatasetFetcher_Concurrent(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		_, _ = io.WriteString(w, sampleDataset)
	}))
	defer server.Close()

	fetcher := newFetcher(t, testFetcherConfig())

	const workers = 10
	var (
		wg        sync.WaitGroup
		successes int32
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if data, err := fetchAll(context.Background(), fetcher, server.URL); err == nil && data == sampleDataset {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(workers), atomic.LoadInt32(&successes))
	assert.Equal(t, int32(workers), atomic.LoadInt32(&calls))
	assert.Equal(t, clients.StateClosed, fetcher.CircuitState())
}

// TestDatasetFetcher_HeaderPropagation verifies the request and correlation
// ids of the context and the bearer token reach the source.
func TestDatasetFetcher_HeaderPropagation(t *testing.T) {
	var requestID, correlationID, auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get(middleware.HeaderRequestID)
		correlationID = r.Header.Get(middleware.HeaderCorrelationID)
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, sampleDataset)
	}))
	defer server.Close()

	cfg := testFetcherConfig()
	cfg.AuthToken = "s3cret"

	ctx := middleware.ContextWithRequestID(context.Background(), "req-integration-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-integration-456")

	_, err := fetchAll(ctx, newFetcher(t, cfg), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "req-integration-123", requestID)
	assert.Equal(t, "corr-integration-456", correlationID)
	assert.Equal(t, "Bearer s3cret", auth)
}

// TestDatasetFetcher_ContextCancellation verifies cancellation reaches the
// source promptly and is returned unwrapped.
func TestDatasetFetcher_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	completed := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
		close(completed)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	start := time.Now()
	_, err := fetchAll(ctx, newFetcher(t, testFetcherConfig()), server.URL)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancellation should be prompt")

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("source did not observe the cancellation")
	}
}

// TestLoadConfig_RepositoryProfiles verifies the shipped config files load
// and validate for every profile.
func TestLoadConfig_RepositoryProfiles(t *testing.T) {
	for _, profile := range []string{"", "local", "test"} {
		t.Run("profile="+profile, func(t *testing.T) {
			cfg, err := config.LoadFrom("../../configs", profile)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			assert.Equal(t, "quotefilter", cfg.App.Name)
			assert.Equal(t, domain.DefaultMaxAuthorSpaces, cfg.Pipeline.MaxAuthorSpaces)
		})
	}
}
