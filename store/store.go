// Package store reads entries, sections and global sets from a backend.
//
// The tree looks like this:
//
//	globals/<handle>.json
//	pages/<section>/section.json
//	pages/<section>/<slug>/meta.json
//	pages/<section>/<slug>/*.md
//	static/...
//
// Every call reads the backend again; nothing is cached between calls.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/lemmi/glubapi/backend"
	"github.com/pkg/errors"
)

const (
	PagesDir   = "pages"
	GlobalsDir = "globals"
	StaticDir  = "static"
)

var ErrNotFound = errors.New("element not found")

// Criteria filters elements. Entries understand section, slug,
// sectionType and orderBy; global sets understand handle.
type Criteria map[string]interface{}

type Store interface {
	// FindOne returns the first match or ErrNotFound.
	FindOne(ctx context.Context, kind string, c Criteria) (Element, error)
	// FindMany returns the page-th slice of pageSize matches and whether
	// more follow. A pageSize of 0 returns all matches.
	FindMany(ctx context.Context, kind string, c Criteria, page, pageSize int) ([]Element, bool, error)
}

// FS is a Store on top of a backend.
type FS struct {
	fs  backend.Backend
	log *slog.Logger
}

func New(fs backend.Backend, log *slog.Logger) *FS {
	if log == nil {
		log = slog.Default()
	}
	return &FS{fs: fs, log: log}
}

func (s *FS) FindOne(ctx context.Context, kind string, c Criteria) (Element, error) {
	els, _, err := s.FindMany(ctx, kind, c, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNotFound
	}
	return els[0], nil
}

func (s *FS) FindMany(ctx context.Context, kind string, c Criteria, page, pageSize int) ([]Element, bool, error) {
	if page < 1 {
		return nil, false, errors.Errorf("invalid page %d", page)
	}
	if pageSize < 0 {
		return nil, false, errors.Errorf("invalid page size %d", pageSize)
	}

	var all []Element
	switch kind {
	case KindEntry:
		q, err := parseEntryQuery(c)
		if err != nil {
			return nil, false, err
		}
		entries, err := s.findEntries(ctx, q)
		if err != nil {
			return nil, false, err
		}
		for _, e := range entries {
			all = append(all, e)
		}
	case KindGlobalSet:
		g, err := s.findGlobalSet(c)
		if err != nil {
			return nil, false, err
		}
		if g != nil {
			all = append(all, g)
		}
	default:
		return nil, false, errors.Errorf("unknown element kind %q", kind)
	}

	if pageSize == 0 {
		return all, false, nil
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, false, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], end < len(all), nil
}

type entryQuery struct {
	section     string
	slug        string
	sectionType string
	orderBy     string
}

func criteriaString(c Criteria, key string) (string, error) {
	v, ok := c[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("criteria %q: expected string, got %T", key, v)
	}
	return s, nil
}

func parseEntryQuery(c Criteria) (entryQuery, error) {
	var q entryQuery
	fields := map[string]*string{
		"section":     &q.section,
		"slug":        &q.slug,
		"sectionType": &q.sectionType,
		"orderBy":     &q.orderBy,
	}
	for key := range c {
		dst, ok := fields[key]
		if !ok {
			return q, errors.Errorf("unknown entry criteria %q", key)
		}
		s, err := criteriaString(c, key)
		if err != nil {
			return q, err
		}
		*dst = s
	}
	if _, ok := orderings[q.orderBy]; !ok {
		return q, errors.Errorf("unknown ordering %q", q.orderBy)
	}
	return q, nil
}

var orderings = map[string]func(a, b *Entry) bool{
	"": nil,
	"postDate desc": func(a, b *Entry) bool {
		return a.PostDate().After(b.PostDate())
	},
	"postDate asc": func(a, b *Entry) bool {
		return a.PostDate().Before(b.PostDate())
	},
	"title asc": func(a, b *Entry) bool {
		return a.Title() < b.Title()
	},
	"title desc": func(a, b *Entry) bool {
		return a.Title() > b.Title()
	},
	"priority": func(a, b *Entry) bool {
		return a.Priority() > b.Priority()
	},
}

func (s *FS) findEntries(ctx context.Context, q entryQuery) (Entries, error) {
	sections, err := s.sections()
	if err != nil {
		return nil, err
	}

	var ret Entries
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if q.section != "" && sec.Handle != q.section {
			continue
		}
		if q.sectionType != "" && sec.Type() != q.sectionType {
			continue
		}
		entries, err := s.entries(sec)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.meta.Hidden {
				continue
			}
			if q.slug != "" && e.slug != q.slug {
				continue
			}
			ret = append(ret, e)
		}
	}

	sort.Sort(ret)
	if less := orderings[q.orderBy]; less != nil {
		sort.SliceStable(ret, func(i, j int) bool {
			return less(ret[i], ret[j])
		})
	}
	return ret, nil
}

func (s *FS) findGlobalSet(c Criteria) (*GlobalSet, error) {
	for key := range c {
		if key != "handle" {
			return nil, errors.Errorf("unknown global set criteria %q", key)
		}
	}
	handle, err := criteriaString(c, "handle")
	if err != nil {
		return nil, err
	}
	if handle == "" || strings.ContainsAny(handle, "/\\") {
		return nil, errors.Errorf("invalid global set handle %q", handle)
	}

	g := &GlobalSet{handle: handle, fs: s}
	_, err = s.decode(path.Join(GlobalsDir, handle+".json"), &g.meta)
	if os.IsNotExist(errors.Cause(err)) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *FS) readdir(dir string) ([]os.FileInfo, error) {
	d, err := s.fs.Open(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open directory: %q", dir)
	}
	defer d.Close()
	fis, err := d.Readdir(-1)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read directory: %q", dir)
	}
	sort.Slice(fis, func(i, j int) bool {
		return fis[i].Name() < fis[j].Name()
	})
	return fis, nil
}

// decode parses the json file at name into v and returns its stat.
func (s *FS) decode(name string, v interface{}) (os.FileInfo, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open file: %q", name)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot stat file: %q", name)
	}
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return nil, &os.PathError{
			Op:   "Parsing json in",
			Path: name,
			Err:  err,
		}
	}
	return fi, nil
}

func (s *FS) sections() ([]*Section, error) {
	fis, err := s.readdir(PagesDir)
	if os.IsNotExist(errors.Cause(err)) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ret []*Section
	for _, fi := range fis {
		if !fi.IsDir() {
			continue
		}
		sec := &Section{Handle: fi.Name()}
		_, err := s.decode(path.Join(PagesDir, fi.Name(), "section.json"), &sec.meta)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
		ret = append(ret, sec)
	}
	return ret, nil
}

// entries skips directories with broken or missing meta.json.
func (s *FS) entries(sec *Section) (Entries, error) {
	dir := path.Join(PagesDir, sec.Handle)
	fis, err := s.readdir(dir)
	if err != nil {
		return nil, err
	}

	var ret Entries
	for _, fi := range fis {
		if !fi.IsDir() {
			continue
		}
		e := &Entry{
			section: sec,
			slug:    fi.Name(),
			dir:     path.Join(dir, fi.Name()),
			fs:      s,
		}
		mfi, err := s.decode(path.Join(e.dir, "meta.json"), &e.meta)
		if err != nil {
			if !os.IsNotExist(errors.Cause(err)) {
				s.log.Warn("skipping entry", "dir", e.dir, "error", err)
			}
			continue
		}
		e.updated = mfi.ModTime()
		e.newBlocks()
		ret = append(ret, e)
	}
	return ret, nil
}

func (s *FS) asset(name string) (*Asset, error) {
	if name == "" {
		return nil, nil
	}
	name = path.Clean("/" + name)[1:]
	f, err := s.fs.Open(path.Join(StaticDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "Cannot open asset: %q", name)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot stat asset: %q", name)
	}
	if fi.IsDir() {
		return nil, nil
	}
	return &Asset{Path: name, ModTime: fi.ModTime()}, nil
}

var _ Store = (*FS)(nil)
