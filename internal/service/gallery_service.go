package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"estatehub/bff/internal/preload"
)

const maxImagesPerRequest = 100

type ImageStatus struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

type GalleryFocus struct {
	ListingID string   `json:"listing_id"`
	Center    int      `json:"center"`
	Window    []string `json:"window"`
}

type GalleryService interface {
	// Focus moves a session's gallery viewer to center and warms the images around it.
	Focus(session, listingID string, images []string, center int) (*GalleryFocus, error)
	Preload(ctx context.Context, urls []string) ([]ImageStatus, error)
	Status(url string) ImageStatus
	// Sweep closes viewers not focused for idle.
	Sweep(idle time.Duration) int
	Close()
}

type galleryViewer struct {
	listingID string
	images    []string
	window    *preload.Window
	lastSeen  time.Time
}

type galleryService struct {
	images     *preload.Cache
	validate   func(string) error
	radius     int
	windowOpts []preload.WindowOption
	now        func() time.Time
	logger     *zap.Logger

	mu      sync.Mutex
	viewers map[string]*galleryViewer
}

func NewGalleryService(
	images *preload.Cache,
	validate func(string) error,
	radius int,
	logger *zap.Logger,
	windowOpts ...preload.WindowOption,
) GalleryService {
	if validate == nil {
		validate = func(string) error { return nil }
	}
	return &galleryService{
		images:     images,
		validate:   validate,
		radius:     radius,
		windowOpts: append(windowOpts, preload.WithWindowLogger(logger)),
		now:        time.Now,
		logger:     logger,
		viewers:    make(map[string]*galleryViewer),
	}
}

func (s *galleryService) Focus(session, listingID string, images []string, center int) (*GalleryFocus, error) {
	if err := s.checkURLs(images); err != nil {
		return nil, err
	}

	s.mu.Lock()
	v, ok := s.viewers[session]
	if !ok || v.listingID != listingID || !slices.Equal(v.images, images) {
		if ok {
			v.window.Close()
		}
		v = &galleryViewer{
			listingID: listingID,
			images:    append([]string(nil), images...),
			window:    preload.NewWindow(s.images, images, s.radius, s.windowOpts...),
		}
		s.viewers[session] = v
	}
	v.lastSeen = s.now()
	window := v.window
	s.mu.Unlock()

	window.Focus(center)
	current := window.Center()

	span := preload.Span(len(images), current, s.radius)
	ids := make([]string, 0, len(span))
	for _, i := range span {
		ids = append(ids, images[i])
	}
	return &GalleryFocus{ListingID: listingID, Center: current, Window: ids}, nil
}

func (s *galleryService) Preload(ctx context.Context, urls []string) ([]ImageStatus, error) {
	if err := s.checkURLs(urls); err != nil {
		return nil, err
	}
	s.images.PreloadMany(ctx, urls)

	out := make([]ImageStatus, 0, len(urls))
	for _, u := range urls {
		out = append(out, s.Status(u))
	}
	return out, nil
}

func (s *galleryService) Status(url string) ImageStatus {
	return ImageStatus{URL: url, Status: s.images.Status(url).String()}
}

func (s *galleryService) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for session, v := range s.viewers {
		if v.lastSeen.Before(cutoff) {
			v.window.Close()
			delete(s.viewers, session)
			removed++
		}
	}
	return removed
}

func (s *galleryService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for session, v := range s.viewers {
		v.window.Close()
		delete(s.viewers, session)
	}
}

func (s *galleryService) checkURLs(urls []string) error {
	if len(urls) > maxImagesPerRequest {
		return fmt.Errorf("%w: %d > %d", ErrTooManyImages, len(urls), maxImagesPerRequest)
	}
	for _, u := range urls {
		if err := s.validate(u); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	return nil
}
