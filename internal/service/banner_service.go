package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"estatehub/bff/internal/cache"
	"estatehub/bff/internal/repository"
	"estatehub/bff/internal/upstream"
)

const (
	BannerNamespace      = "banner"
	BannerStatsNamespace = "banner-stats"

	BannerEventImpression = "impression"
	BannerEventClick      = "click"
)

type bannerList struct {
	Items []upstream.Banner `json:"items" validate:"dive"`
}

type bannerMark struct {
	Kind string `json:"kind" validate:"required,oneof=impression click"`
}

type BannerService interface {
	List(ctx context.Context, placement string) ([]upstream.Banner, error)
	// RecordEvent forwards a banner impression or click once per session and
	// reports whether it was forwarded.
	RecordEvent(ctx context.Context, session, bannerID, kind string) (bool, error)
	CacheSections() []CacheSection
}

type bannerService struct {
	api      ListingsAPI
	banners  *cache.Store[bannerList]
	marks    *cache.Store[bannerMark]
	ttl      time.Duration
	statsTTL time.Duration
	logger   *zap.Logger
}

func NewBannerService(
	api ListingsAPI,
	backend repository.StateStore,
	ttl, statsTTL time.Duration,
	logger *zap.Logger,
	opts ...cache.Option,
) BannerService {
	opts = append(opts, cache.WithLogger(logger))
	return &bannerService{
		api:      api,
		banners:  cache.New[bannerList](backend, BannerNamespace, opts...),
		marks:    cache.New[bannerMark](backend, BannerStatsNamespace, opts...),
		ttl:      ttl,
		statsTTL: statsTTL,
		logger:   logger,
	}
}

func (s *bannerService) List(ctx context.Context, placement string) ([]upstream.Banner, error) {
	key := placement
	if key == "" {
		key = "all"
	}
	cached, ok := s.banners.Lookup(ctx, key, 0)
	if ok && s.banners.Fresh(cached, s.ttl) {
		return cached.Value.Items, nil
	}

	banners, err := s.api.Banners(ctx, placement)
	if err != nil {
		// A stale list beats an empty slot on the page.
		if ok {
			s.logger.Warn("serving stale banners", zap.String("placement", key), zap.Error(err))
			return cached.Value.Items, nil
		}
		return nil, fmt.Errorf("list banners: %w", err)
	}
	if banners == nil {
		banners = []upstream.Banner{}
	}

	s.banners.Set(ctx, key, bannerList{Items: banners})
	return banners, nil
}

func (s *bannerService) RecordEvent(ctx context.Context, session, bannerID, kind string) (bool, error) {
	if kind != BannerEventImpression && kind != BannerEventClick {
		return false, ErrInvalidBannerEvent
	}

	key := session + ":" + bannerID + ":" + kind
	if _, seen := s.marks.Get(ctx, key, s.statsTTL); seen {
		return false, nil
	}

	if err := s.api.RecordBannerEvent(ctx, bannerID, kind); err != nil {
		return false, fmt.Errorf("record banner event: %w", err)
	}
	s.marks.Set(ctx, key, bannerMark{Kind: kind})
	return true, nil
}

func (s *bannerService) CacheSections() []CacheSection {
	return []CacheSection{
		storeSection(s.banners, s.ttl),
		storeSection(s.marks, s.statsTTL),
	}
}
