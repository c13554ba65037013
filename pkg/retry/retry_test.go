package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapex/pkg/retry"
)

var errTemp = errors.New("temporary")

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	p := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}

	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errTemp
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	p := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}

	err := p.Do(context.Background(), func() error {
		calls++
		return errTemp
	})
	assert.ErrorIs(t, err, errTemp)
	assert.Equal(t, 3, calls)
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	p := retry.Policy{
		MaxAttempts: 5,
		Delay:       time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errTemp) },
	}

	err := p.Do(context.Background(), func() error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	err := retry.Policy{}.Do(context.Background(), func() error {
		calls++
		return errTemp
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoValue(t *testing.T) {
	calls := 0
	p := retry.Policy{MaxAttempts: 2, Delay: time.Millisecond}

	v, err := retry.DoValue(context.Background(), p, func() (string, error) {
		calls++
		if calls == 1 {
			return "", errTemp
		}
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestDoNotifiesBeforeEachRetry(t *testing.T) {
	var attempts []int
	p := retry.Policy{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		OnRetry:     func(attempt int, err error) { attempts = append(attempts, attempt) },
	}

	err := p.Do(context.Background(), func() error { return errTemp })
	assert.ErrorIs(t, err, errTemp)
	assert.Equal(t, []int{2, 3}, attempts)
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	p := retry.Policy{MaxAttempts: 3, Delay: 50 * time.Millisecond}
	err := p.Do(ctx, func() error {
		calls++
		return errTemp
	})
	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}
