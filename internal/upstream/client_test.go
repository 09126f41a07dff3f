package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/bff/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.UpstreamConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, nil)
}

func TestClient_RevealPhone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/listings/42/phone", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("id"))
		_, _ = io.WriteString(w, `{"stph2":"0244000000","stph3":"0244000001"}`)
	})

	got, err := c.RevealPhone(context.Background(), "listing", "42")
	require.NoError(t, err)
	assert.Equal(t, &PhoneNumbers{DisplayNumber: "0244000000", WhatsappNumber: "0244000001"}, got)
}

func TestClient_RevealPhoneFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>oops</html>")
		},
		"empty numbers": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestClient(t, h).RevealPhone(context.Background(), "project", "7")
			assert.ErrorIs(t, err, ErrRequestFailed)
		})
	}
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.BlogPost(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c := NewClient(config.UpstreamConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil)

	err := c.SendMessage(context.Background(), Message{Kind: "listing", ID: "1"})
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_SendMessageIsFormEncoded(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contact", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.SendMessage(context.Background(), Message{
		Kind: "listing", ID: "42", Name: "Ama", Email: "ama@example.test", Body: "Is it available?",
	})
	require.NoError(t, err)
	assert.Equal(t, "listing", got.Get("type"))
	assert.Equal(t, "Ama", got.Get("name"))
	assert.Equal(t, "Is it available?", got.Get("message"))
}

func TestClient_BannersAndEvents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/banners":
			assert.Equal(t, "home", r.URL.Query().Get("placement"))
			_, _ = io.WriteString(w, `{"data":[{"id":"b1","image_url":"https://cdn/b1.jpg","position":1}]}`)
		case "/banners/b1/events":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"event":"click"}`, string(body))
			w.WriteHeader(http.StatusAccepted)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	banners, err := c.Banners(context.Background(), "home")
	require.NoError(t, err)
	require.Len(t, banners, 1)
	assert.Equal(t, "b1", banners[0].ID)

	require.NoError(t, c.RecordBannerEvent(context.Background(), "b1", "click"))
}

func TestClient_BlogPosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = io.WriteString(w, `{"data":[{"slug":"buying-guide","title":"Buying guide"}]}`)
	})

	posts, err := c.BlogPosts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "buying-guide", posts[0].Slug)
}
