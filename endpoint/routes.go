package endpoint

import (
	"context"

	"github.com/lemmi/glubapi/assets"
	"github.com/lemmi/glubapi/content"
	"github.com/lemmi/glubapi/store"
	"github.com/lemmi/glubapi/wire"
	"github.com/pkg/errors"
)

const (
	SiteSettingsHandle = "siteSettings"
	BlogSection        = "blog"
	BlogPageSize       = 5
)

// PageURLs builds absolute URLs for site relative locations.
type PageURLs interface {
	Page(uri string) string
}

// Site holds what the site routes read from.
type Site struct {
	Store  store.Store
	Assets assets.Service
	URLs   PageURLs
	Blocks *content.Transformer
}

// Routes returns the routes of the site, in registration order.
func (s Site) Routes() []Route {
	return []Route{
		{
			Name:     "site",
			Patterns: []string{"site.json"},
			Query: func(Params) QueryDescriptor {
				return QueryDescriptor{
					Kind:     store.KindGlobalSet,
					Criteria: store.Criteria{"handle": SiteSettingsHandle},
				}
			},
			Transform: s.siteData,
			MetaType:  wire.TypeSiteData,
		},
		{
			Name:     "home",
			Patterns: []string{"home.json", ".json"},
			Query: func(Params) QueryDescriptor {
				return QueryDescriptor{
					Kind:     store.KindEntry,
					Criteria: store.Criteria{"slug": "home"},
				}
			},
			Transform: s.page,
			MetaType:  wire.TypePage,
		},
		{
			Name:     "blog",
			Patterns: []string{"blog.json"},
			Query: func(Params) QueryDescriptor {
				return QueryDescriptor{
					Kind: store.KindEntry,
					Criteria: store.Criteria{
						"section": BlogSection,
						"orderBy": "postDate desc",
					},
					Cardinality: Many,
					PageSize:    BlogPageSize,
				}
			},
			Transform: s.blogSummary,
			MetaType:  wire.TypeBlogList,
		},
		{
			Name:     "blogpost",
			Patterns: []string{"blog/{slug}.json"},
			Query: func(p Params) QueryDescriptor {
				return QueryDescriptor{
					Kind: store.KindEntry,
					Criteria: store.Criteria{
						"section": BlogSection,
						"slug":    p["slug"],
					},
				}
			},
			Transform: s.blogPost,
			MetaType:  wire.TypeBlogPost,
		},
		{
			Name:     "single",
			Patterns: []string{"{slug}.json"},
			Query: func(p Params) QueryDescriptor {
				return QueryDescriptor{
					Kind: store.KindEntry,
					Criteria: store.Criteria{
						"sectionType": store.SectionSingle,
						"slug":        p["slug"],
					},
				}
			},
			Transform: s.page,
			MetaType:  wire.TypePage,
		},
	}
}

// Registry compiles Routes.
func (s Site) Registry() (*Registry, error) {
	return NewRegistry(s.Routes()...)
}

func asEntry(el store.Element) (*store.Entry, error) {
	e, ok := el.(*store.Entry)
	if !ok {
		return nil, errors.Errorf("expected entry, got %s", el.Kind())
	}
	return e, nil
}

func (s Site) assetURL(a *store.Asset, err error) (*string, error) {
	return s.transformedURL(nil, a, err)
}

// transformedURL resolves an asset lookup to a URL, nil for no asset.
func (s Site) transformedURL(t *assets.Transform, a *store.Asset, err error) (*string, error) {
	if err != nil || a == nil {
		return nil, err
	}
	u, err := s.Assets.URL(*a, t)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s Site) siteData(ctx context.Context, el store.Element) (Document, error) {
	g, ok := el.(*store.GlobalSet)
	if !ok {
		return nil, errors.Errorf("expected global set, got %s", el.Kind())
	}
	a, err := g.Logo()
	logo, err := s.transformedURL(&assets.Transform{Height: 100}, a, err)
	if err != nil {
		return nil, errors.Wrap(err, "logo")
	}

	singles, _, err := s.Store.FindMany(ctx, store.KindEntry, store.Criteria{
		"sectionType": store.SectionSingle,
	}, 1, 0)
	if err != nil {
		return nil, errors.Wrap(err, "listing single pages")
	}
	pages := make([]wire.PageInfo, 0, len(singles)+1)
	for _, el := range singles {
		e, err := asEntry(el)
		if err != nil {
			return nil, err
		}
		pages = append(pages, wire.PageInfo{
			Title:   e.Title(),
			URL:     s.URLs.Page(e.URI()),
			JSONURL: s.URLs.Page(e.Slug() + ".json"),
		})
	}
	pages = append(pages, wire.PageInfo{
		Title:   "Blog",
		URL:     s.URLs.Page(BlogSection + "/"),
		JSONURL: s.URLs.Page(BlogSection + ".json"),
	})

	return Document{
		"logo":       logo,
		"footerText": g.FooterText(),
		"pages":      pages,
	}, nil
}

func dates(e *store.Entry, doc Document) Document {
	doc["title"] = e.Title()
	doc["date_published"] = wire.FormatDate(e.PostDate())
	doc["date_modified"] = wire.FormatDate(e.DateUpdated())
	return doc
}

func (s Site) page(ctx context.Context, el store.Element) (Document, error) {
	e, err := asEntry(el)
	if err != nil {
		return nil, err
	}
	blocks, err := s.Blocks.TransformBlocks(ctx, e.Blocks())
	if err != nil {
		return nil, err
	}
	return dates(e, Document{"content": blocks}), nil
}

func (s Site) blogSummary(_ context.Context, el store.Element) (Document, error) {
	e, err := asEntry(el)
	if err != nil {
		return nil, err
	}
	feature, err := s.assetURL(e.FeatureImage())
	if err != nil {
		return nil, errors.Wrap(err, "feature image")
	}
	return dates(e, Document{
		"url":          s.URLs.Page(e.URI()),
		"jsonUrl":      s.URLs.Page(BlogSection + "/" + e.Slug() + ".json"),
		"excerpt":      e.Excerpt(),
		"featureImage": feature,
	}), nil
}

func (s Site) blogPost(ctx context.Context, el store.Element) (Document, error) {
	doc, err := s.page(ctx, el)
	if err != nil {
		return nil, err
	}
	e, _ := asEntry(el)
	feature, err := s.assetURL(e.FeatureImage())
	if err != nil {
		return nil, errors.Wrap(err, "feature image")
	}
	doc["excerpt"] = e.Excerpt()
	doc["featureImage"] = feature
	return doc, nil
}
