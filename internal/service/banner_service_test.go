package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"estatehub/bff/internal/cache"
	"estatehub/bff/internal/repository"
	"estatehub/bff/internal/upstream"
)

func TestBannerService_ListIsCached(t *testing.T) {
	ctx := context.Background()
	api := new(MockListingsAPI)
	api.On("Banners", mock.Anything, "home").
		Return([]upstream.Banner{{ID: "b1", ImageURL: "https://cdn.example.test/b1.jpg"}}, nil).
		Once()

	svc := NewBannerService(api, repository.NewMemoryStateStore(), time.Minute, time.Hour, zap.NewNop())

	for i := 0; i < 3; i++ {
		banners, err := svc.List(ctx, "home")
		require.NoError(t, err)
		require.Len(t, banners, 1)
		assert.Equal(t, "b1", banners[0].ID)
	}
	api.AssertExpectations(t)
}

func TestBannerService_ServesStaleOnUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	api := new(MockListingsAPI)
	api.On("Banners", mock.Anything, "").
		Return([]upstream.Banner{{ID: "b1", ImageURL: "https://cdn.example.test/b1.jpg"}}, nil).Once()
	api.On("Banners", mock.Anything, "").Return(nil, upstream.ErrRequestFailed)

	svc := NewBannerService(api, repository.NewMemoryStateStore(), time.Minute, time.Hour, zap.NewNop(), cache.WithClock(clock))

	_, err := svc.List(ctx, "")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	banners, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, banners, 1)
	assert.Equal(t, "b1", banners[0].ID)
	api.AssertNumberOfCalls(t, "Banners", 2)
}

func TestBannerService_ListFailsWithoutCopy(t *testing.T) {
	api := new(MockListingsAPI)
	api.On("Banners", mock.Anything, "footer").Return(nil, upstream.ErrRequestFailed)

	svc := NewBannerService(api, repository.NewMemoryStateStore(), time.Minute, time.Hour, zap.NewNop())
	_, err := svc.List(context.Background(), "footer")
	assert.ErrorIs(t, err, upstream.ErrRequestFailed)
}

func TestBannerService_RecordEventOncePerSession(t *testing.T) {
	ctx := context.Background()
	api := new(MockListingsAPI)
	api.On("RecordBannerEvent", mock.Anything, "b1", BannerEventImpression).Return(nil).Twice()
	api.On("RecordBannerEvent", mock.Anything, "b1", BannerEventClick).Return(nil).Once()

	svc := NewBannerService(api, repository.NewMemoryStateStore(), time.Minute, time.Hour, zap.NewNop())

	recorded, err := svc.RecordEvent(ctx, "s1", "b1", BannerEventImpression)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = svc.RecordEvent(ctx, "s1", "b1", BannerEventImpression)
	require.NoError(t, err)
	assert.False(t, recorded)

	recorded, err = svc.RecordEvent(ctx, "s1", "b1", BannerEventClick)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = svc.RecordEvent(ctx, "s2", "b1", BannerEventImpression)
	require.NoError(t, err)
	assert.True(t, recorded)

	api.AssertExpectations(t)
}

func TestBannerService_RecordEventFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	api := new(MockListingsAPI)
	api.On("RecordBannerEvent", mock.Anything, "b1", BannerEventClick).Return(upstream.ErrRequestFailed).Once()
	api.On("RecordBannerEvent", mock.Anything, "b1", BannerEventClick).Return(nil).Once()

	svc := NewBannerService(api, repository.NewMemoryStateStore(), time.Minute, time.Hour, zap.NewNop())

	_, err := svc.RecordEvent(ctx, "s1", "b1", BannerEventClick)
	assert.ErrorIs(t, err, upstream.ErrRequestFailed)

	recorded, err := svc.RecordEvent(ctx, "s1", "b1", BannerEventClick)
	require.NoError(t, err)
	assert.True(t, recorded)
}

func TestBannerService_RejectsUnknownEvent(t *testing.T) {
	svc := NewBannerService(new(MockListingsAPI), repository.NewMemoryStateStore(), time.Minute, time.Hour, zap.NewNop())
	_, err := svc.RecordEvent(context.Background(), "s1", "b1", "hover")
	assert.ErrorIs(t, err, ErrInvalidBannerEvent)
}
