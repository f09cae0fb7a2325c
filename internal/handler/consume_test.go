package handler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/internal/handler"
)

// The consumer group re-joins after every rebalance, so Setup runs once
// per session. A second session must not trip over the first one's
// closed ready channel.
func TestConsumer_SurvivesRebalance(t *testing.T) {
	t.Parallel()
	c := handler.NewConsumer(
		func(context.Context, string, string) error { return nil },
		zap.NewExample().Named("test"),
	)

	require.NoError(t, c.Setup(nil))
	require.NoError(t, c.Cleanup(nil))

	require.NotPanics(t, func() {
		require.NoError(t, c.Setup(nil))
		require.NoError(t, c.Cleanup(nil))
	})
}
