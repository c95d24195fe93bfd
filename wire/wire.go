// Package wire describes the JSON documents served by the endpoints and
// consumed by the renderer. Every envelope carries a meta.type tag, which
// is the only coupling between a route and the component that renders it.
package wire

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// meta.type values
const (
	TypeSiteData = "sitedata"
	TypePage     = "page"
	TypeBlogList = "bloglist"
	TypeBlogPost = "blogpost"
)

// Block kinds
const (
	BlockText  = "text"
	BlockImage = "image"
)

// DateLayout is used for date_published and date_modified.
const DateLayout = time.RFC3339

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

type Meta struct {
	Type       string      `json:"type"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Count       int   `json:"count"`
	HasMore     bool  `json:"has_more"`
	Links       Links `json:"links"`
}

type Links struct {
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

// Block is one entry of a content array.
type Block interface {
	BlockType() string
}

type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewTextBlock(text string) TextBlock {
	return TextBlock{Type: BlockText, Text: text}
}

func (TextBlock) BlockType() string { return BlockText }

// ImageBlock has a nil Image if the referenced asset is absent.
type ImageBlock struct {
	Type  string  `json:"type"`
	Image *string `json:"image"`
}

func NewImageBlock(url *string) ImageBlock {
	return ImageBlock{Type: BlockImage, Image: url}
}

func (ImageBlock) BlockType() string { return BlockImage }

// RawBlock keeps the undecoded block so that kinds unknown to this
// version survive decoding.
type RawBlock struct {
	Type string
	Raw  json.RawMessage
}

func (b *RawBlock) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return errors.Wrap(err, "decoding block type")
	}
	b.Type = tag.Type
	b.Raw = append(b.Raw[:0], data...)
	return nil
}

func (b RawBlock) MarshalJSON() ([]byte, error) {
	if b.Raw == nil {
		return []byte("null"), nil
	}
	return b.Raw, nil
}

func (b RawBlock) BlockType() string { return b.Type }

// Decode unmarshals the block into v, one of the concrete block types.
func (b RawBlock) Decode(v interface{}) error {
	return errors.Wrapf(json.Unmarshal(b.Raw, v), "decoding %q block", b.Type)
}

type PageInfo struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	JSONURL string `json:"jsonUrl"`
}

type SiteDocument struct {
	Logo       *string    `json:"logo"`
	FooterText string     `json:"footerText"`
	Pages      []PageInfo `json:"pages"`
	Meta       Meta       `json:"meta"`
}

// Summary is one item of a bloglist.
type Summary struct {
	Title         string  `json:"title"`
	DatePublished string  `json:"date_published"`
	DateModified  string  `json:"date_modified"`
	URL           string  `json:"url"`
	JSONURL       string  `json:"jsonUrl"`
	Excerpt       string  `json:"excerpt"`
	FeatureImage  *string `json:"featureImage"`
}

// Document is the union of the page, bloglist and blogpost envelopes as
// seen by a client. Which fields are set depends on Meta.Type.
type Document struct {
	Title         string     `json:"title,omitempty"`
	DatePublished string     `json:"date_published,omitempty"`
	DateModified  string     `json:"date_modified,omitempty"`
	Content       []RawBlock `json:"content,omitempty"`
	Data          []Summary  `json:"data,omitempty"`
	URL           string     `json:"url,omitempty"`
	JSONURL       string     `json:"jsonUrl,omitempty"`
	Excerpt       string     `json:"excerpt,omitempty"`
	FeatureImage  *string    `json:"featureImage,omitempty"`
	Meta          Meta       `json:"meta"`
}

// Published parses DatePublished, returning the zero time on failure.
func (d Document) Published() time.Time {
	t, err := time.Parse(DateLayout, d.DatePublished)
	if err != nil {
		return time.Time{}
	}
	return t
}
