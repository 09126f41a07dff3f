package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"estatehub/bff/internal/cache"
	"estatehub/bff/internal/config"
	"estatehub/bff/internal/repository"
	"estatehub/bff/internal/upstream"
)

const (
	BlogNamespace     = "blog"
	BlogPostNamespace = "blog-post"
)

type blogPage struct {
	Posts []upstream.BlogPost `json:"posts" validate:"dive"`
}

type BlogService interface {
	List(ctx context.Context, page int) ([]upstream.BlogPost, error)
	// Get returns a post with its markdown body rendered to BodyHTML.
	Get(ctx context.Context, slug string) (*upstream.BlogPost, error)
	// Feed renders the first page of posts as RSS.
	Feed(ctx context.Context) (string, error)
	CacheSections() []CacheSection
}

type blogService struct {
	api      ListingsAPI
	pages    *cache.Store[blogPage]
	posts    *cache.Store[upstream.BlogPost]
	site     config.SiteConfig
	markdown goldmark.Markdown
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewBlogService(
	api ListingsAPI,
	backend repository.StateStore,
	site config.SiteConfig,
	ttl time.Duration,
	logger *zap.Logger,
	opts ...cache.Option,
) BlogService {
	opts = append(opts, cache.WithLogger(logger))
	return &blogService{
		api:      api,
		pages:    cache.New[blogPage](backend, BlogNamespace, opts...),
		posts:    cache.New[upstream.BlogPost](backend, BlogPostNamespace, opts...),
		site:     site,
		markdown: goldmark.New(), // raw HTML in posts is escaped
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *blogService) List(ctx context.Context, page int) ([]upstream.BlogPost, error) {
	if page < 1 {
		page = 1
	}
	key := strconv.Itoa(page)
	if cached, ok := s.pages.Get(ctx, key, s.ttl); ok {
		return cached.Posts, nil
	}

	posts, err := s.api.BlogPosts(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	if posts == nil {
		posts = []upstream.BlogPost{}
	}
	s.pages.Set(ctx, key, blogPage{Posts: posts})
	return posts, nil
}

func (s *blogService) Get(ctx context.Context, slug string) (*upstream.BlogPost, error) {
	if cached, ok := s.posts.Get(ctx, slug, s.ttl); ok {
		return &cached, nil
	}

	post, err := s.api.BlogPost(ctx, slug)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, ErrBlogPostNotFound
		}
		return nil, fmt.Errorf("get blog post: %w", err)
	}
	if post.BodyHTML == "" && post.Body != "" {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(post.Body), &buf); err != nil {
			s.logger.Warn("blog post markdown render failed", zap.String("slug", slug), zap.Error(err))
		} else {
			post.BodyHTML = buf.String()
		}
	}
	s.posts.Set(ctx, slug, *post)
	return post, nil
}

func (s *blogService) Feed(ctx context.Context) (string, error) {
	posts, err := s.List(ctx, 1)
	if err != nil {
		return "", err
	}

	base := strings.TrimRight(s.site.BaseURL, "/")
	feed := &feeds.Feed{
		Title:       s.site.Title,
		Link:        &feeds.Link{Href: base + "/blog"},
		Description: s.site.Description,
		Created:     s.now(),
	}
	for _, p := range posts {
		link := base + "/blog/" + p.Slug
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Description: p.Excerpt,
			Created:     p.PublishedAt,
		})
	}
	return feed.ToRss()
}

func (s *blogService) CacheSections() []CacheSection {
	return []CacheSection{
		storeSection(s.pages, s.ttl),
		storeSection(s.posts, s.ttl),
	}
}
