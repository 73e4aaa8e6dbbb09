package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/platform/config"
)

// DatasetServiceName identifies the remote dataset source in logs, spans
// and readiness checks.
const DatasetServiceName = "dataset-source"

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

// DatasetFetcher downloads delimited quote tables over HTTP.
// It implements ports.DatasetFetcher and ports.HealthChecker.
type DatasetFetcher struct {
	client *Client
}

// NewDatasetFetcher creates a fetcher from the client section of the config.
// A non-empty auth token is sent as a bearer token on every attempt.
func NewDatasetFetcher(cfg config.ClientConfig, logger *slog.Logger) (*DatasetFetcher, error) {
	clientCfg := &Config{
		ServiceName: DatasetServiceName,
		Timeout:     cfg.Timeout,
		Retry:       cfg.Retry,
		Circuit:     cfg.CircuitBreaker,
		Transport:   cfg.Transport,
		Logger:      logger,
	}

	if token := cfg.AuthToken; token != "" {
		clientCfg.AuthFunc = func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}

	client, err := New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating dataset client: %w", err)
	}

	return &DatasetFetcher{client: client}, nil
}

// FetchDataset returns the body of a successful GET on url. The caller closes it.
// Transport failures and an open circuit map to domain.UnavailableError.
func (f *DatasetFetcher) FetchDataset(ctx context.Context, url string) (io.ReadCloser, error) {
	if !IsRemote(url) {
		return nil, domain.NewValidationErrorWithValue("input", "is not an http(s) url", url)
	}

	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, translateError(err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, string(snippet))
	}

	return resp.Body, nil
}

// Name implements ports.HealthChecker.
func (f *DatasetFetcher) Name() string {
	return DatasetServiceName
}

// Check implements ports.HealthChecker. The source is unhealthy while the
// circuit breaker is open.
func (f *DatasetFetcher) Check(context.Context) error {
	if f.client.CircuitState() == StateOpen {
		return domain.NewUnavailableError(DatasetServiceName, ErrCircuitOpen.Error())
	}

	return nil
}

// CircuitState exposes the breaker state of the underlying client.
func (f *DatasetFetcher) CircuitState() State {
	return f.client.CircuitState()
}

func translateError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrCircuitOpen):
		return domain.NewUnavailableError(DatasetServiceName, "circuit breaker open")
	default:
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(DatasetServiceName, "request failed"), err)
	}
}

func statusError(status int, body string) error {
	reason := fmt.Sprintf("unexpected status %d", status)
	if body != "" {
		reason += ": " + body
	}

	if status == http.StatusNotFound || status == http.StatusForbidden || status == http.StatusUnauthorized {
		return domain.NewValidationErrorWithValue("input", reason, status)
	}

	return domain.NewUnavailableError(DatasetServiceName, reason)
}
