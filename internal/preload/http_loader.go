package preload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrInvalidResource = errors.New("invalid resource url")
	ErrHostNotAllowed  = errors.New("resource host not allowed")
	ErrLoadFailed      = errors.New("resource load failed")
)

// HTTPLoader warms image URLs by fetching and discarding them, so CDN and
// resizer caches are hot before the browser asks.
type HTTPLoader struct {
	client  *http.Client
	allowed map[string]struct{}
}

// NewHTTPLoader returns a loader restricted to allowedHosts. An empty list allows any host.
func NewHTTPLoader(client *http.Client, allowedHosts []string) *HTTPLoader {
	if client == nil {
		client = http.DefaultClient
	}
	allowed := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = struct{}{}
		}
	}
	return &HTTPLoader{client: client, allowed: allowed}
}

// Validate checks that raw is an absolute http(s) URL on an allowed host.
func (l *HTTPLoader) Validate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidResource, raw)
	}
	if len(l.allowed) > 0 {
		if _, ok := l.allowed[strings.ToLower(u.Hostname())]; !ok {
			return fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
		}
	}
	return nil
}

func (l *HTTPLoader) Load(ctx context.Context, raw string) error {
	if err := l.Validate(raw); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrLoadFailed, resp.StatusCode)
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return nil
}
