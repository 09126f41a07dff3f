package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"estatehub/bff/internal/model"
	"estatehub/bff/internal/upstream"
)

type MockListingsAPI struct {
	mock.Mock
}

func (m *MockListingsAPI) RevealPhone(ctx context.Context, kind, id string) (*upstream.PhoneNumbers, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.PhoneNumbers), args.Error(1)
}

func (m *MockListingsAPI) SendMessage(ctx context.Context, msg upstream.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockListingsAPI) Banners(ctx context.Context, placement string) ([]upstream.Banner, error) {
	args := m.Called(ctx, placement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.Banner), args.Error(1)
}

func (m *MockListingsAPI) RecordBannerEvent(ctx context.Context, bannerID, kind string) error {
	args := m.Called(ctx, bannerID, kind)
	return args.Error(0)
}

func (m *MockListingsAPI) BlogPosts(ctx context.Context, page int) ([]upstream.BlogPost, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.BlogPost), args.Error(1)
}

func (m *MockListingsAPI) BlogPost(ctx context.Context, slug string) (*upstream.BlogPost, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.BlogPost), args.Error(1)
}

type MockContactMessageRepository struct {
	mock.Mock
}

func (m *MockContactMessageRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockContactMessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContactMessageStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
