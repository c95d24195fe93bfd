package store

import (
	"bytes"
	"io"
	"net/url"
	"path"

	"github.com/lemmi/glubapi/backend"
	"github.com/pkg/errors"

	bm "github.com/microcosm-cc/bluemonday"
	bf "github.com/russross/blackfriday"
)

// ContentRenderer resolves rich text to HTML.
type ContentRenderer interface {
	Render() ([]byte, error)
}

// mdRenderer points relative image links into the static directory and
// uses the alt text as title and vice versa when one of them is missing.
type mdRenderer struct {
	bf.Renderer
}

func staticLink(link []byte) []byte {
	u, err := url.Parse(string(link))
	if err != nil || u.IsAbs() || u.Host != "" || path.IsAbs(u.Path) || u.Path == "" {
		return link
	}
	u.Path = path.Join("/", StaticDir, u.Path)
	return []byte(u.String())
}

func (md mdRenderer) Image(out *bytes.Buffer, link []byte, title []byte, alt []byte) {
	if len(title) == 0 {
		title = alt
	}
	if len(alt) == 0 {
		alt = title
	}
	md.Renderer.Image(out, staticLink(link), title, alt)
}

func markdown(b []byte, unsafe bool) []byte {
	html := bf.Markdown(b,
		mdRenderer{bf.HtmlRenderer(0, "", "")},
		bf.EXTENSION_TABLES)
	if !unsafe {
		html = bm.UGCPolicy().SanitizeBytes(html)
	}
	return html
}

type inlineRenderer struct {
	md     string
	unsafe bool
}

func (i inlineRenderer) Render() ([]byte, error) {
	return markdown([]byte(i.md), i.unsafe), nil
}

type fileRenderer struct {
	fs      backend.Backend
	md_path string
	unsafe  bool
}

func (a fileRenderer) Render() ([]byte, error) {
	md, err := a.fs.Open(a.md_path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open markdown file: %q", a.md_path)
	}
	defer md.Close()

	b, err := io.ReadAll(md)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read markdown file: %q", a.md_path)
	}
	return markdown(b, a.unsafe), nil
}
