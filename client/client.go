// Package client fetches the JSON documents of a site and keeps the state
// of a rendered view.
package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lemmi/glubapi/wire"
	"github.com/pkg/errors"
)

// RequestIDHeader is forwarded to the API when the context carries an id.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = 0

// WithRequestID attaches id to ctx. Fetches made with the returned context
// send it in RequestIDHeader.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// StatusError is returned for responses outside of 2xx.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return "GET " + e.URL + ": " + http.StatusText(e.Code)
}

// Client talks to the JSON endpoints below a base url.
type Client struct {
	base url.URL
	hc   *http.Client
	log  *slog.Logger
}

// New returns a client for the API at base. A nil hc uses
// http.DefaultClient.
func New(base string, hc *http.Client, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot parse api url: %q", base)
	}
	if !u.IsAbs() {
		return nil, errors.Errorf("api url must be absolute: %q", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{base: *u, hc: hc, log: log}, nil
}

// JSONPath maps a page path to the path of its document: "/" becomes
// "/.json", "/blog/" becomes "/blog.json".
func JSONPath(p string) string {
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return "/.json"
	}
	return p + ".json"
}

// FetchSite loads the site settings document.
func (c *Client) FetchSite(ctx context.Context) (*wire.SiteDocument, error) {
	var doc wire.SiteDocument
	if err := c.get(ctx, "/site.json", "", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FetchPage loads the document for path with the given raw query.
func (c *Client) FetchPage(ctx context.Context, path, rawQuery string) (*wire.Document, error) {
	var doc wire.Document
	if err := c.get(ctx, JSONPath(path), rawQuery, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) get(ctx context.Context, p, rawQuery string, v interface{}) error {
	u := c.base
	u.Path += p
	u.RawQuery = rawQuery
	target := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrapf(err, "Cannot create request for %q", target)
	}
	req.Header.Set("Accept", "application/json")
	if id := requestID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: target, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrapf(err, "Cannot decode %s", target)
	}
	c.log.Debug("Fetched document", "url", target)
	return nil
}
