package settle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllPreservesSubmissionOrder(t *testing.T) {
	results := All(context.Background(),
		func(ctx context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			return "slow", nil
		},
		func(ctx context.Context) (string, error) {
			return "fast", nil
		},
	)

	require.Len(t, results.Outcomes, 2)
	assert.Equal(t, []string{"slow", "fast"}, results.Successes())
}

func TestAllCollectsFailuresWithoutCancelling(t *testing.T) {
	boom := errors.New("boom")
	results := All(context.Background(),
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 7, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
	)

	assert.Equal(t, []int{7}, results.Successes())
	assert.Len(t, results.Failures(), 2)
	assert.False(t, results.AllFailed())
}

func TestAllFailed(t *testing.T) {
	boom := errors.New("boom")
	results := All(context.Background(),
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 0, boom },
	)
	assert.True(t, results.AllFailed())

	empty := All[int](context.Background())
	assert.False(t, empty.AllFailed())
}

func TestAllRunsConcurrently(t *testing.T) {
	start := time.Now()
	All(context.Background(),
		func(ctx context.Context) (struct{}, error) {
			time.Sleep(50 * time.Millisecond)
			return struct{}{}, nil
		},
		func(ctx context.Context) (struct{}, error) {
			time.Sleep(50 * time.Millisecond)
			return struct{}{}, nil
		},
		func(ctx context.Context) (struct{}, error) {
			time.Sleep(50 * time.Millisecond)
			return struct{}{}, nil
		},
	)

	// Sequential execution would take at least 150ms.
	assert.Less(t, time.Since(start), 120*time.Millisecond)
}
