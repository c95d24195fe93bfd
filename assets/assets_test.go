package assets

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lemmi/glubapi/internal/sitetest"
	"github.com/lemmi/glubapi/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	b, err := NewURLBuilder("https://example.org/site/")
	require.NoError(t, err)

	u, err := b.URL(store.Asset{Path: "images/logo.png"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/site/static/images/logo.png", u)

	u, err = b.URL(store.Asset{Path: "images/logo.png"}, &Transform{Height: 100})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/site/static/images/logo.png?height=100", u)

	_, err = b.URL(store.Asset{}, nil)
	assert.Error(t, err)
}

func TestNewURLBuilderNeedsAbsolute(t *testing.T) {
	_, err := NewURLBuilder("/relative")
	assert.Error(t, err)
}

func TestPage(t *testing.T) {
	b, err := NewURLBuilder("https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/", b.Page(""))
	assert.Equal(t, "https://example.org/blog/", b.Page("blog/"))
	assert.Equal(t, "https://example.org/blog/first.json", b.Page("blog/first.json"))
}

func TestFiles(t *testing.T) {
	site := sitetest.New(t)
	site.Asset("images/a.jpg")
	site.Asset(".secret")
	site.Asset(".git/config")
	h := http.StripPrefix("/static", NewFiles(site.Backend()).Sub("static"))

	for _, tc := range []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/static/images/a.jpg", http.StatusOK},
		{http.MethodHead, "/static/images/a.jpg", http.StatusOK},
		{http.MethodPost, "/static/images/a.jpg", http.StatusMethodNotAllowed},
		{http.MethodGet, "/static/images/", http.StatusNotFound},
		{http.MethodGet, "/static/images/b.jpg", http.StatusNotFound},
		{http.MethodGet, "/static/../pages", http.StatusNotFound},
		{http.MethodGet, "/static/.secret", http.StatusNotFound},
		{http.MethodGet, "/static/.git/config", http.StatusNotFound},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.code, rec.Code, tc.method+" "+tc.path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/images/a.jpg", nil))
	assert.Equal(t, "asset", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
