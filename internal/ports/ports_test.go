package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(ctx context.Context) error { return s.err }

// blockingChecker waits for its context to end.
type blockingChecker struct {
	name string
}

func (b *blockingChecker) Name() string { return b.name }

func (b *blockingChecker) Check(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNewHealthRegistry(t *testing.T) {
	registry := NewHealthRegistry(time.Second)

	require.NotNil(t, registry)
	assert.Zero(t, registry.Len())
	assert.Equal(t, time.Second, registry.checkTimeout)
}

func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry(0)

	require.NoError(t, registry.Register(&stubChecker{name: "dataset-source"}))

	err := registry.Register(&stubChecker{name: "dataset-source"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "dataset-source")
	assert.Equal(t, 1, registry.Len())
}

func TestCheckAll_NoCheckers(t *testing.T) {
	result := NewHealthRegistry(0).CheckAll(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Empty(t, result.Checks)
	assert.False(t, result.Timestamp.IsZero())
}

func TestCheckAll_Statuses(t *testing.T) {
	tests := []struct {
		name     string
		checkers []HealthChecker
		expected HealthStatus
		failing  string
	}{
		{
			name: "all healthy",
			checkers: []HealthChecker{
				&stubChecker{name: "dataset-source"},
				CheckerFunc{CheckName: "telemetry", Fn: func(context.Context) error { return nil }},
			},
			expected: HealthStatusHealthy,
		},
		{
			name: "one unhealthy",
			checkers: []HealthChecker{
				&stubChecker{name: "dataset-source", err: errors.New("connection refused")},
				&stubChecker{name: "telemetry"},
			},
			expected: HealthStatusUnhealthy,
			failing:  "dataset-source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry(0)
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			assert.Equal(t, tt.expected, result.Status)
			assert.Len(t, result.Checks, len(tt.checkers))
			if tt.failing != "" {
				assert.Equal(t, HealthStatusUnhealthy, result.Checks[tt.failing].Status)
				assert.Equal(t, "connection refused", result.Checks[tt.failing].Message)
			}
		})
	}
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry(0)
	require.NoError(t, registry.Register(&blockingChecker{name: "slow"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "context canceled")
}

func TestCheckAll_PerCheckTimeout(t *testing.T) {
	registry := NewHealthRegistry(20 * time.Millisecond)
	require.NoError(t, registry.Register(&blockingChecker{name: "slow"}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "deadline exceeded")
}
