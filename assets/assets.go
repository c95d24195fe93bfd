// Package assets turns asset references and site locations into public
// URLs and serves the asset files.
package assets

import (
	"net/url"
	"path"
	"strconv"

	"github.com/lemmi/glubapi/store"
	"github.com/pkg/errors"
)

// Transform describes image transform parameters. They are handed to
// whatever serves the asset; nothing here resizes images.
type Transform struct {
	Width  int
	Height int
	Mode   string
}

func (t *Transform) query() url.Values {
	v := url.Values{}
	if t == nil {
		return v
	}
	if t.Width > 0 {
		v.Set("width", strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		v.Set("height", strconv.Itoa(t.Height))
	}
	if t.Mode != "" {
		v.Set("mode", t.Mode)
	}
	return v
}

type Service interface {
	URL(a store.Asset, t *Transform) (string, error)
}

// URLBuilder builds absolute URLs below <base>/static/.
type URLBuilder struct {
	base url.URL
}

func NewURLBuilder(base string) (*URLBuilder, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot parse base url: %q", base)
	}
	if !u.IsAbs() {
		return nil, errors.Errorf("base url must be absolute: %q", base)
	}
	return &URLBuilder{base: *u}, nil
}

func (b *URLBuilder) URL(a store.Asset, t *Transform) (string, error) {
	if a.Path == "" {
		return "", errors.New("asset without path")
	}
	u := b.base
	u.Path = path.Join("/", u.Path, store.StaticDir, a.Path)
	u.RawQuery = t.query().Encode()
	return u.String(), nil
}

// Page builds absolute URLs for site relative locations.
func (b *URLBuilder) Page(uri string) string {
	u := b.base
	u.Path = path.Join("/", u.Path, uri)
	if uri == "" || uri[len(uri)-1] == '/' {
		if u.Path[len(u.Path)-1] != '/' {
			u.Path += "/"
		}
	}
	return u.String()
}
