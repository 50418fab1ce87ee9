package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tabKey struct{}

func TestCombineContext(t *testing.T) {
	t.Run("keeps tab values", func(t *testing.T) {
		tab := context.WithValue(context.Background(), tabKey{}, "target-1")
		ctx, cancel := CombineContext(tab, context.Background())
		defer cancel()

		assert.Equal(t, "target-1", ctx.Value(tabKey{}))
		assert.NoError(t, ctx.Err())
	})

	t.Run("tab closed", func(t *testing.T) {
		tab, closeTab := context.WithCancel(context.Background())
		ctx, cancel := CombineContext(tab, context.Background())
		defer cancel()

		closeTab()
		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("operation deadline", func(t *testing.T) {
		tab, closeTab := context.WithTimeout(context.Background(), time.Minute)
		defer closeTab()
		op, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer stop()

		ctx, cancel := CombineContext(tab, op)
		defer cancel()

		<-ctx.Done()
		assert.ErrorIs(t, op.Err(), context.DeadlineExceeded)
		// The combined context is canceled, not timed out, when the operation side ends.
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		assert.NoError(t, tab.Err())
	})

	t.Run("inherits tab deadline", func(t *testing.T) {
		deadline := time.Now().Add(time.Hour)
		tab, closeTab := context.WithDeadline(context.Background(), deadline)
		defer closeTab()

		ctx, cancel := CombineContext(tab, context.Background())
		defer cancel()

		got, ok := ctx.Deadline()
		require.True(t, ok)
		assert.True(t, got.Equal(deadline))
	})
}
