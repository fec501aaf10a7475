package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmocks "github.com/narrai/narrai-web/internal/mocks/auth"
)

func TestOnboardingService_DismissPersistsOncePerAction(t *testing.T) {
	for _, action := range []DismissAction{DismissComplete, DismissSkip} {
		t.Run(string(action), func(t *testing.T) {
			store := authmocks.NewMemoryOnboardingStore()
			svc := NewOnboardingService(store, nil)
			ctx := context.Background()

			assert.False(t, svc.HasSeenCarousel(ctx, "u-1"))
			require.NoError(t, svc.Dismiss(ctx, "u-1", action))

			assert.Equal(t, 1, store.MarkCalls("u-1"))
			assert.True(t, svc.HasSeenCarousel(ctx, "u-1"))
		})
	}
}

func TestOnboardingService_SecondDismissIsHarmless(t *testing.T) {
	store := authmocks.NewMemoryOnboardingStore()
	svc := NewOnboardingService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.Dismiss(ctx, "u-1", DismissComplete))
	require.NoError(t, svc.Dismiss(ctx, "u-1", DismissSkip))

	assert.Equal(t, 2, store.MarkCalls("u-1"))
	assert.True(t, svc.HasSeenCarousel(ctx, "u-1"))
}

func TestOnboardingService_DismissRejectsBadInput(t *testing.T) {
	store := authmocks.NewMemoryOnboardingStore()
	svc := NewOnboardingService(store, nil)

	require.Error(t, svc.Dismiss(context.Background(), "", DismissSkip))
	require.Error(t, svc.Dismiss(context.Background(), "u-1", "later"))
	assert.Equal(t, 0, store.MarkCalls("u-1"))
}

func TestOnboardingService_StoreFailures(t *testing.T) {
	store := authmocks.NewMemoryOnboardingStore()
	store.Err = errors.New("db down")
	svc := NewOnboardingService(store, nil)
	ctx := context.Background()

	assert.True(t, svc.HasSeenCarousel(ctx, "u-1"), "lookup failure must not trap the user in onboarding")
	err := svc.Dismiss(ctx, "u-1", DismissComplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark carousel seen")
}

func TestOnboardingService_Reset(t *testing.T) {
	store := authmocks.NewMemoryOnboardingStore()
	svc := NewOnboardingService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.Dismiss(ctx, "u-1", DismissComplete))
	require.NoError(t, svc.Reset(ctx, "u-1"))
	assert.False(t, svc.HasSeenCarousel(ctx, "u-1"))
}
