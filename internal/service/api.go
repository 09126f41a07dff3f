package service

import (
	"context"

	"estatehub/bff/internal/upstream"
)

// ListingsAPI is the part of the upstream client the services depend on.
type ListingsAPI interface {
	RevealPhone(ctx context.Context, kind, id string) (*upstream.PhoneNumbers, error)
	SendMessage(ctx context.Context, msg upstream.Message) error
	Banners(ctx context.Context, placement string) ([]upstream.Banner, error)
	RecordBannerEvent(ctx context.Context, bannerID, kind string) error
	BlogPosts(ctx context.Context, page int) ([]upstream.BlogPost, error)
	BlogPost(ctx context.Context, slug string) (*upstream.BlogPost, error)
}

var _ ListingsAPI = (*upstream.Client)(nil)
