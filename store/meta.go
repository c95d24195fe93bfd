package store

import (
	"strings"
	"time"
)

// GCTime is the timestamp format used in meta.json files.
type GCTime time.Time

const GCTimeLayout = "2006-01-02 15:04"

func (t *GCTime) UnmarshalJSON(b []byte) error {
	tmp, err := time.Parse(GCTimeLayout, strings.Trim(string(b), "\""))
	*t = GCTime(tmp)
	return err
}

func (t GCTime) String() string {
	return time.Time(t).Format(GCTimeLayout)
}
func (t GCTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}
func (t GCTime) IsZero() bool {
	return time.Time(t).IsZero()
}

// Meta is the content of an entry's meta.json.
type Meta struct {
	Author  string
	Date    GCTime
	Updated *GCTime `json:",omitempty"`
	Title   string

	Priority     int
	Hidden       bool      `json:",omitempty"`
	Unsafe       bool      `json:",omitempty"`
	Excerpt      string    `json:",omitempty"`
	FeatureImage string    `json:",omitempty"`
	Content      []Content `json:",omitempty"`
}

// Content describes one body block. Text blocks use either Inline
// markdown or the markdown file at Path, image blocks reference an asset
// below static/ by Path.
type Content struct {
	Type   string
	Inline string `json:",omitempty"`
	Path   string `json:",omitempty"`
}

// GlobalMeta is the content of globals/<handle>.json.
type GlobalMeta struct {
	Logo       string `json:",omitempty"`
	FooterText string
}

const (
	SectionSingle  = "single"
	SectionChannel = "channel"
)

// HomeURI marks the entry served at the site root.
const HomeURI = "__home__"

// SectionMeta is the content of pages/<section>/section.json.
type SectionMeta struct {
	Type      string
	Title     string `json:",omitempty"`
	URIFormat string `json:",omitempty"`
}
