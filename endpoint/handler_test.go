package endpoint

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lemmi/glubapi/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandlerOK(t *testing.T) {
	h := NewHandler(newItemResolver(t, newMemStore(2), itemTransform), quietLogger(), false)

	rec := serve(h, http.MethodGet, "/one.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"n":1,"meta":{"type":"single"}}`, rec.Body.String())

	rec = serve(h, http.MethodHead, "/one.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandlerKeepsRequestID(t *testing.T) {
	h := NewHandler(newItemResolver(t, newMemStore(1), itemTransform), quietLogger(), false)
	req := httptest.NewRequest(http.MethodGet, "/one.json", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandlerErrors(t *testing.T) {
	failing := func(context.Context, store.Element) (Document, error) {
		return nil, errors.New("malformed")
	}
	ok := NewHandler(newItemResolver(t, newMemStore(0), itemTransform), quietLogger(), true)
	broken := NewHandler(newItemResolver(t, newMemStore(3), failing), quietLogger(), true)

	for _, tc := range []struct {
		name   string
		h      http.Handler
		method string
		target string
		code   int
	}{
		{"no route", ok, http.MethodGet, "/nope.json", http.StatusNotFound},
		{"no entity", ok, http.MethodGet, "/one.json", http.StatusNotFound},
		{"bad page", ok, http.MethodGet, "/list.json?page=x", http.StatusBadRequest},
		{"method", ok, http.MethodPost, "/one.json", http.StatusMethodNotAllowed},
		{"transformer", broken, http.MethodGet, "/one.json", http.StatusInternalServerError},
		{"transformer in list", broken, http.MethodGet, "/list.json", http.StatusInternalServerError},
	} {
		rec := serve(tc.h, tc.method, tc.target)
		assert.Equal(t, tc.code, rec.Code, tc.name)
		assert.Equal(t, tc.code, errorCode(t, rec), tc.name)
		assert.NotContains(t, rec.Body.String(), "data", tc.name)
	}
}

func TestHandlerUnencodableDocument(t *testing.T) {
	bad := func(context.Context, store.Element) (Document, error) {
		return Document{"f": func() {}}, nil
	}
	h := NewHandler(newItemResolver(t, newMemStore(1), bad), quietLogger(), false)
	rec := serve(h, http.MethodGet, "/one.json")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusInternalServerError, errorCode(t, rec))
}

func TestHandlerSite(t *testing.T) {
	site, res := newSite(t)
	site.Entry("blog", "my-first-post", store.Meta{
		Title:   "My first post",
		Excerpt: "Hello",
		Content: []store.Content{{Type: "text", Inline: "Hi"}, {Type: "image"}},
	})
	h := NewHandler(res, quietLogger(), false)

	rec := serve(h, http.MethodGet, "/blog/my-first-post.json")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Excerpt string `json:"excerpt"`
		Meta    struct {
			Type string `json:"type"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Hello", doc.Excerpt)
	assert.Equal(t, "blogpost", doc.Meta.Type)

	rec = serve(h, http.MethodGet, "/home.json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
