package client

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/lemmi/glubapi/render"
	"github.com/lemmi/glubapi/wire"
)

// Fetcher is what a View loads its documents from. *Client implements it.
type Fetcher interface {
	FetchSite(ctx context.Context) (*wire.SiteDocument, error)
	FetchPage(ctx context.Context, path, rawQuery string) (*wire.Document, error)
}

type State int

const (
	NotLoaded State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "not loaded"
}

// View holds the site document and the document of the current path. Both
// are loaded in the background, independent of each other. Rendering uses
// whatever has arrived so far.
type View struct {
	f   Fetcher
	r   *render.Renderer
	log *slog.Logger

	wg       sync.WaitGroup
	siteOnce sync.Once

	mu        sync.Mutex
	site      *wire.SiteDocument
	siteState State
	gen       uint64
	path      string
	query     string
	page      *wire.Document
	pageState State
	pageErr   error
}

func NewView(f Fetcher, r *render.Renderer, log *slog.Logger) *View {
	if log == nil {
		log = slog.Default()
	}
	return &View{f: f, r: r, log: log}
}

// LoadSite starts loading the site document. Only the first call fetches.
func (v *View) LoadSite(ctx context.Context) {
	v.siteOnce.Do(func() {
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			site, err := v.f.FetchSite(ctx)

			v.mu.Lock()
			defer v.mu.Unlock()
			if err != nil {
				v.log.Error("Cannot load site", "error", err)
				v.siteState = Failed
				return
			}
			v.site = site
			v.siteState = Loaded
		}()
	})
}

// Navigate makes path and query current and starts loading their
// document. A response arriving after a later Navigate is dropped.
func (v *View) Navigate(ctx context.Context, path, rawQuery string) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.path = path
	v.query = rawQuery
	v.page = nil
	v.pageState = NotLoaded
	v.pageErr = nil
	v.mu.Unlock()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		page, err := v.f.FetchPage(ctx, path, rawQuery)

		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.gen {
			v.log.Debug("Discarding stale page", "path", path, "current", v.path)
			return
		}
		if err != nil {
			v.log.Error("Cannot load page", "path", path, "error", err)
			v.pageState = Failed
			v.pageErr = err
			return
		}
		v.page = page
		v.pageState = Loaded
	}()
}

// Wait blocks until all fetches started so far have finished.
func (v *View) Wait() {
	v.wg.Wait()
}

func (v *View) Site() (*wire.SiteDocument, State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.site, v.siteState
}

func (v *View) Page() (*wire.Document, State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.pageState
}

// PageErr returns why the current page failed to load.
func (v *View) PageErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageErr
}

// Path returns the current path and query.
func (v *View) Path() (string, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path, v.query
}

// Render writes the page with the documents loaded so far.
func (v *View) Render(w io.Writer) error {
	site, _ := v.Site()
	page, _ := v.Page()
	return v.r.RenderShell(w, site, page)
}
