package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"estatehub/bff/internal/config"
)

var (
	// ErrRequestFailed covers non-2xx answers, transport errors, timeouts and malformed bodies.
	ErrRequestFailed = errors.New("upstream request failed")
	ErrNotFound      = errors.New("upstream resource not found")
)

const maxBodyBytes = 4 << 20

// PhoneNumbers is the reveal response for a listing or project.
type PhoneNumbers struct {
	DisplayNumber  string `json:"stph2"`
	WhatsappNumber string `json:"stph3"`
}

// Message is a contact enquiry forwarded to the listing owner.
type Message struct {
	Kind  string
	ID    string
	Name  string
	Email string
	Phone string
	Body  string
}

type Banner struct {
	ID       string `json:"id" validate:"required"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url" validate:"required"`
	LinkURL  string `json:"link_url"`
	Position int    `json:"position"`
}

type BlogPost struct {
	Slug        string    `json:"slug" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Excerpt     string    `json:"excerpt"`
	Body        string    `json:"body,omitempty"` // markdown
	BodyHTML    string    `json:"body_html,omitempty"`
	CoverURL    string    `json:"cover_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Client talks to the upstream listings API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg config.UpstreamConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
	}
}

func (c *Client) RevealPhone(ctx context.Context, kind, id string) (*PhoneNumbers, error) {
	form := url.Values{"id": {id}}
	var out PhoneNumbers
	path := fmt.Sprintf("/%ss/%s/phone", kind, url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, formBody(form), &out); err != nil {
		return nil, err
	}
	if out.DisplayNumber == "" && out.WhatsappNumber == "" {
		return nil, fmt.Errorf("%w: empty phone response", ErrRequestFailed)
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	form := url.Values{
		"type":    {msg.Kind},
		"id":      {msg.ID},
		"name":    {msg.Name},
		"email":   {msg.Email},
		"phone":   {msg.Phone},
		"message": {msg.Body},
	}
	return c.do(ctx, http.MethodPost, "/contact", formBody(form), nil)
}

func (c *Client) Banners(ctx context.Context, placement string) ([]Banner, error) {
	q := url.Values{}
	if placement != "" {
		q.Set("placement", placement)
	}
	var out struct {
		Data []Banner `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/banners?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) RecordBannerEvent(ctx context.Context, bannerID, kind string) error {
	body, err := json.Marshal(map[string]string{"event": kind})
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/banners/%s/events", url.PathEscape(bannerID))
	return c.do(ctx, http.MethodPost, path, jsonBody(body), nil)
}

func (c *Client) BlogPosts(ctx context.Context, page int) ([]BlogPost, error) {
	if page < 1 {
		page = 1
	}
	var out struct {
		Data []BlogPost `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/blog?page="+strconv.Itoa(page), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) BlogPost(ctx context.Context, slug string) (*BlogPost, error) {
	var out struct {
		Data BlogPost `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/blog/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

type requestBody struct {
	contentType string
	data        []byte
}

func formBody(v url.Values) *requestBody {
	return &requestBody{contentType: "application/x-www-form-urlencoded", data: []byte(v.Encode())}
}

func jsonBody(data []byte) *requestBody {
	return &requestBody{contentType: "application/json", data: data}
}

func (c *Client) do(ctx context.Context, method, path string, body *requestBody, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s %s: status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRequestFailed, path, err)
	}
	return nil
}
