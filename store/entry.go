package store

import (
	"path"
	"strings"
	"sync"
	"time"
)

// Element kinds
const (
	KindEntry     = "entry"
	KindGlobalSet = "globalset"
)

// Element is a single record returned by a Store.
type Element interface {
	Kind() string
}

// Asset is a file below static/.
type Asset struct {
	Path    string
	ModTime time.Time
}

type Section struct {
	Handle string
	meta   SectionMeta
}

func (s *Section) Type() string {
	if s.meta.Type == "" {
		return SectionChannel
	}
	return s.meta.Type
}
func (s *Section) Title() string {
	if s.meta.Title == "" {
		return s.Handle
	}
	return s.meta.Title
}
func (s *Section) uriFormat() string {
	switch {
	case s.meta.URIFormat != "":
		return s.meta.URIFormat
	case s.Type() == SectionSingle:
		return "{slug}"
	}
	return s.Handle + "/{slug}"
}

// Block is one body block of an entry, in the order of meta.json.
type Block struct {
	kind   string
	text   ContentRenderer
	asset  string
	assets *FS

	once sync.Once
	html []byte
	err  error
}

func (b *Block) Kind() string {
	return b.kind
}

// Text returns the rendered HTML of a text block. Markdown is rendered
// on first use.
func (b *Block) Text() (string, error) {
	if b.text == nil {
		return "", nil
	}
	b.once.Do(func() {
		b.html, b.err = b.text.Render()
	})
	return string(b.html), b.err
}

// Asset returns the referenced asset, or nil if there is no reference
// or the referenced file is gone.
func (b *Block) Asset() (*Asset, error) {
	return b.assets.asset(b.asset)
}

type Entry struct {
	meta    Meta
	section *Section
	slug    string
	dir     string
	updated time.Time
	blocks  []*Block
	fs      *FS
}

type Entries []*Entry

// Default ordering: priority first, then newest first.
func (e Entries) Less(i, j int) bool {
	ei, ej := e[i], e[j]
	switch {
	case ei.Priority() != ej.Priority():
		return ei.Priority() > ej.Priority()
	case !ei.PostDate().Equal(ej.PostDate()):
		return ei.PostDate().After(ej.PostDate())
	}
	return ei.slug < ej.slug
}
func (e Entries) Len() int {
	return len(e)
}
func (e Entries) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
}

func (e *Entry) Kind() string {
	return KindEntry
}
func (e *Entry) Author() string {
	return e.meta.Author
}
func (e *Entry) Title() string {
	return e.meta.Title
}
func (e *Entry) Slug() string {
	return e.slug
}
func (e *Entry) Section() *Section {
	return e.section
}
func (e *Entry) Priority() int {
	return e.meta.Priority
}
func (e *Entry) Excerpt() string {
	return e.meta.Excerpt
}
func (e *Entry) PostDate() time.Time {
	return time.Time(e.meta.Date)
}

// DateUpdated falls back to the modification time of meta.json.
func (e *Entry) DateUpdated() time.Time {
	if e.meta.Updated != nil && !e.meta.Updated.IsZero() {
		return time.Time(*e.meta.Updated)
	}
	return e.updated
}
func (e *Entry) Blocks() []*Block {
	return e.blocks
}
func (e *Entry) FeatureImage() (*Asset, error) {
	return e.fs.asset(e.meta.FeatureImage)
}

// URI is the site relative location of the entry without leading slash.
// The home entry has an empty URI.
func (e *Entry) URI() string {
	uri := strings.ReplaceAll(e.section.uriFormat(), "{slug}", e.slug)
	if uri == HomeURI {
		return ""
	}
	return strings.Trim(uri, "/")
}

func (e *Entry) newBlocks() {
	e.blocks = make([]*Block, 0, len(e.meta.Content))
	for _, c := range e.meta.Content {
		b := &Block{kind: c.Type, assets: e.fs}
		switch {
		case c.Type == "image":
			b.asset = c.Path
		case c.Inline != "":
			b.text = inlineRenderer{md: c.Inline, unsafe: e.meta.Unsafe}
		case c.Path != "":
			b.text = fileRenderer{
				fs:      e.fs.fs,
				md_path: path.Join(e.dir, c.Path),
				unsafe:  e.meta.Unsafe,
			}
		}
		e.blocks = append(e.blocks, b)
	}
}

type GlobalSet struct {
	handle string
	meta   GlobalMeta
	fs     *FS
}

func (g *GlobalSet) Kind() string {
	return KindGlobalSet
}
func (g *GlobalSet) Handle() string {
	return g.handle
}
func (g *GlobalSet) FooterText() string {
	return g.meta.FooterText
}
func (g *GlobalSet) Logo() (*Asset, error) {
	return g.fs.asset(g.meta.Logo)
}
