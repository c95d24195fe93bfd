// Package sitetest builds content trees in a temporary directory.
package sitetest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lemmi/glubapi/backend"
	"github.com/lemmi/glubapi/store"
	"github.com/stretchr/testify/require"
)

type Site struct {
	t    testing.TB
	Root string
}

func New(t testing.TB) *Site {
	return &Site{t: t, Root: t.TempDir()}
}

// Backend returns a directory backend rooted at the site.
func (s *Site) Backend() backend.Backend {
	b, err := backend.Dir(s.Root)
	require.NoError(s.t, err)
	return b
}

func (s *Site) Store() *store.FS {
	return store.New(s.Backend(), nil)
}

func (s *Site) WriteFile(name string, data []byte) {
	p := filepath.Join(s.Root, filepath.FromSlash(name))
	require.NoError(s.t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(s.t, os.WriteFile(p, data, 0644))
}

func (s *Site) WriteJSON(name string, v interface{}) {
	b, err := json.MarshalIndent(v, "", "\t")
	require.NoError(s.t, err)
	s.WriteFile(name, b)
}

func (s *Site) Section(handle, typ, uriFormat string) {
	s.WriteJSON(filepath.Join("pages", handle, "section.json"), store.SectionMeta{
		Type:      typ,
		URIFormat: uriFormat,
	})
}

func (s *Site) Entry(section, slug string, meta store.Meta) {
	s.WriteJSON(filepath.Join("pages", section, slug, "meta.json"), meta)
}

func (s *Site) Global(handle string, meta store.GlobalMeta) {
	s.WriteJSON(filepath.Join("globals", handle+".json"), meta)
}

// Asset writes a placeholder file below static/.
func (s *Site) Asset(name string) {
	s.WriteFile(filepath.Join("static", name), []byte("asset"))
}

// Date is a shorthand for GCTime values.
func Date(year int, month time.Month, day int) store.GCTime {
	return store.GCTime(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// Blog lays out the sections of the default site: a home single, an
// about single and a blog channel.
func (s *Site) Blog() {
	s.Section("home", store.SectionSingle, store.HomeURI)
	s.Section("about", store.SectionSingle, "")
	s.Section("blog", store.SectionChannel, "blog/{slug}")
	s.Global("siteSettings", store.GlobalMeta{
		Logo:       "images/logo.png",
		FooterText: "glub glub",
	})
	s.Asset("images/logo.png")
}
