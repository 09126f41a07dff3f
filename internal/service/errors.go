package service

import "errors"

var (
	ErrInvalidContextKey   = errors.New("context key must look like listing:<id> or project:<id>")
	ErrInvalidMessage      = errors.New("contact message is incomplete")
	ErrInvalidBannerEvent  = errors.New("banner event must be impression or click")
	ErrBlogPostNotFound    = errors.New("blog post not found")
	ErrListingNotFound     = errors.New("listing not found")
	ErrInvalidImage        = errors.New("image url rejected")
	ErrTooManyImages       = errors.New("too many images in one request")
	ErrUnknownCacheSection = errors.New("unknown cache namespace")
)
