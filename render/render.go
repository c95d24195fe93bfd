// Package render turns wire documents into HTML.
//
// Pages are rendered by the strategy registered for their meta.type,
// content blocks by the function registered for their type. Unknown
// types are logged and produce no output, so a new page or block type
// never breaks a renderer that does not know it yet.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"log/slog"

	"github.com/lemmi/glubapi/wire"
	"github.com/pkg/errors"
	"github.com/raymondbutcher/tidyhtml"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DateLayout formats the publishing date of a blog post.
const DateLayout = "Mon Jan 02 2006"

func datestring(d *wire.Document) string {
	t := d.Published()
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// BlockFunc renders one content block.
type BlockFunc func(r *Renderer, b wire.RawBlock) (template.HTML, error)

// PageFunc renders the main area for one page document.
type PageFunc func(r *Renderer, doc *wire.Document) (template.HTML, error)

type Renderer struct {
	tmpl   *template.Template
	blocks map[string]BlockFunc
	pages  map[string]PageFunc
	log    *slog.Logger
}

func New(log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	tmpl := template.Must(template.New("_").Funcs(template.FuncMap{
		"datestring": datestring,
	}).ParseFS(templateFS, "templates/*.tmpl"))

	return &Renderer{
		tmpl: tmpl,
		blocks: map[string]BlockFunc{
			wire.BlockText:  textBlock,
			wire.BlockImage: imageBlock,
		},
		pages: map[string]PageFunc{
			wire.TypePage:     page,
			wire.TypeBlogList: blogList,
			wire.TypeBlogPost: blogPost,
		},
		log: log,
	}
}

// HandleBlock registers f for blocks of type kind.
func (r *Renderer) HandleBlock(kind string, f BlockFunc) {
	r.blocks[kind] = f
}

// HandlePage registers f for documents with the given meta type.
func (r *Renderer) HandlePage(metaType string, f PageFunc) {
	r.pages[metaType] = f
}

// Execute runs the named template.
func (r *Renderer) Execute(name string, data interface{}) (template.HTML, error) {
	buf := bytes.Buffer{}
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "template execution failed: %q", name)
	}
	return template.HTML(buf.String()), nil
}

// RenderBlocks renders the known blocks in order. Unknown or broken
// blocks are logged and left out.
func (r *Renderer) RenderBlocks(blocks []wire.RawBlock) []template.HTML {
	ret := make([]template.HTML, 0, len(blocks))
	for i, b := range blocks {
		f, ok := r.blocks[b.Type]
		if !ok {
			r.log.Error("Content type not recognized", "type", b.Type, "index", i)
			continue
		}
		html, err := f(r, b)
		if err != nil {
			r.log.Error("Cannot render block", "type", b.Type, "index", i, "error", err)
			continue
		}
		ret = append(ret, html)
	}
	return ret
}

// RenderPage renders the main area for doc. A nil doc, an unknown meta
// type or a failing strategy render nothing.
func (r *Renderer) RenderPage(doc *wire.Document) template.HTML {
	if doc == nil {
		return ""
	}
	f, ok := r.pages[doc.Meta.Type]
	if !ok {
		r.log.Error("Unknown content type", "type", doc.Meta.Type)
		return ""
	}
	html, err := f(r, doc)
	if err != nil {
		r.log.Error("Cannot render page", "type", doc.Meta.Type, "error", err)
		return ""
	}
	return html
}

type shellData struct {
	Title string
	Site  *wire.SiteDocument
	Main  template.HTML
}

// RenderShell writes the complete page: navigation and footer from site,
// main area from page. Either may be nil.
func (r *Renderer) RenderShell(w io.Writer, site *wire.SiteDocument, page *wire.Document) error {
	data := shellData{
		Site: site,
		Main: r.RenderPage(page),
	}
	if page != nil {
		data.Title = page.Title
	}
	buf := bytes.Buffer{}
	if err := r.tmpl.ExecuteTemplate(&buf, "shell", data); err != nil {
		return errors.Wrap(err, "template execution failed: \"shell\"")
	}
	return errors.Wrap(tidyhtml.Copy(w, &buf), "tidyhtml failed")
}

func textBlock(r *Renderer, b wire.RawBlock) (template.HTML, error) {
	var t wire.TextBlock
	if err := b.Decode(&t); err != nil {
		return "", err
	}
	// the text was sanitized when it was produced
	return r.Execute("text", template.HTML(t.Text))
}

func imageBlock(r *Renderer, b wire.RawBlock) (template.HTML, error) {
	var img wire.ImageBlock
	if err := b.Decode(&img); err != nil {
		return "", err
	}
	src := ""
	if img.Image != nil {
		src = *img.Image
	}
	return r.Execute("image", src)
}

func page(r *Renderer, doc *wire.Document) (template.HTML, error) {
	return r.Execute("page", struct {
		Content []template.HTML
	}{r.RenderBlocks(doc.Content)})
}

func blogList(r *Renderer, doc *wire.Document) (template.HTML, error) {
	return r.Execute("bloglist", struct {
		Blogs []wire.Summary
	}{doc.Data})
}

func blogPost(r *Renderer, doc *wire.Document) (template.HTML, error) {
	return r.Execute("blogpost", struct {
		Doc     *wire.Document
		Content []template.HTML
	}{doc, r.RenderBlocks(doc.Content)})
}
