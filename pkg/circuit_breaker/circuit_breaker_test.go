package circuit_breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/urveshtaral/library-management-system/pkg/circuit_breaker"
)

func Test_circuitBreaker_Call(t *testing.T) {
	successfulService := func() error {
		return nil
	}
	failingService := func() error {
		return errors.New("service error")
	}

	cb := circuit_breaker.New(10, 100*time.Millisecond, 0.30, 3)

	for i := 0; i < 20; i++ {
		require.NoError(t, cb.Call(successfulService))
	}

	// push the failure ratio over the threshold: breaker opens
	for i := 0; i < 4; i++ {
		err := cb.Call(failingService)
		require.Error(t, err)
	}
	require.ErrorIs(t, cb.Call(successfulService), circuit_breaker.ErrOpenCB)

	// after the timeout the breaker half-opens and probes pass through
	time.Sleep(150 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, cb.Call(successfulService))
	}

	// one failure in half-open trips it back open
	for i := 0; i < 4; i++ {
		_ = cb.Call(failingService)
	}
	time.Sleep(150 * time.Millisecond)
	err := cb.Call(failingService)
	require.Error(t, err)
	require.NotErrorIs(t, err, circuit_breaker.ErrOpenCB)
	require.ErrorIs(t, cb.Call(successfulService), circuit_breaker.ErrOpenCB)

	cb.Reset()
	require.NoError(t, cb.Call(successfulService))
}
