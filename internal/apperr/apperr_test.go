package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	notFound := NotFound("listing not found")
	wrapped := fmt.Errorf("resolving: %w", notFound)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, NotFound("listing not found")))
	assert.False(t, errors.Is(wrapped, NotFound("profile not found")))
	assert.False(t, errors.Is(wrapped, ErrInvalidOperation))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSend, KindOf(Wrap(KindSend, "failed to send", errors.New("boom"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, "internal error", MessageOf(errors.New("plain")))
}

func TestClassify(t *testing.T) {
	t.Run("keeps user-facing kinds", func(t *testing.T) {
		err := Classify(KindLoad, "failed to load", Unauthenticated("sign in"))
		require.Equal(t, KindUnauthenticated, KindOf(err))
	})

	t.Run("wraps infrastructure errors", func(t *testing.T) {
		err := Classify(KindLoad, "failed to load", context.DeadlineExceeded)
		require.Equal(t, KindLoad, KindOf(err))
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, Classify(KindSend, "x", nil))
	})
}
