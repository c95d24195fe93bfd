package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lemmi/glubapi/internal/sitetest"
	"github.com/lemmi/glubapi/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOneEntry(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Asset("images/a.jpg")
	site.WriteFile("pages/blog/first/article.md", []byte("# Head\n\nbody"))
	site.Entry("blog", "first", store.Meta{
		Title:   "First",
		Date:    sitetest.Date(2020, 1, 2),
		Excerpt: "Hello",
		Content: []store.Content{
			{Type: "text", Inline: "Hi"},
			{Type: "image", Path: "images/a.jpg"},
			{Type: "text", Path: "article.md"},
			{Type: "image"},
			{Type: "quote", Inline: "ignored by the store"},
		},
	})

	el, err := site.Store().FindOne(context.Background(), store.KindEntry, store.Criteria{
		"section": "blog",
		"slug":    "first",
	})
	require.NoError(t, err)
	e, ok := el.(*store.Entry)
	require.True(t, ok)
	assert.Equal(t, "First", e.Title())
	assert.Equal(t, "Hello", e.Excerpt())
	assert.Equal(t, "blog/first", e.URI())
	assert.False(t, e.DateUpdated().IsZero(), "falls back to modification time")

	blocks := e.Blocks()
	require.Len(t, blocks, 5)
	kinds := []string{}
	for _, b := range blocks {
		kinds = append(kinds, b.Kind())
	}
	assert.Equal(t, []string{"text", "image", "text", "image", "quote"}, kinds)

	text, err := blocks[0].Text()
	require.NoError(t, err)
	assert.Contains(t, text, "<p>Hi</p>")

	a, err := blocks[1].Asset()
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "images/a.jpg", a.Path)

	text, err = blocks[2].Text()
	require.NoError(t, err)
	assert.Contains(t, text, "Head</h1>")
	assert.Contains(t, text, "<p>body</p>")

	a, err = blocks[3].Asset()
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestTextIsSanitized(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Entry("blog", "xss", store.Meta{
		Title:   "XSS",
		Content: []store.Content{{Type: "text", Inline: "<script>alert(1)</script>ok"}},
	})
	site.Entry("blog", "trusted", store.Meta{
		Title:   "Trusted",
		Unsafe:  true,
		Content: []store.Content{{Type: "text", Inline: "<div class=\"x\">ok</div>"}},
	})

	s := site.Store()
	el, err := s.FindOne(context.Background(), store.KindEntry, store.Criteria{"slug": "xss"})
	require.NoError(t, err)
	text, err := el.(*store.Entry).Blocks()[0].Text()
	require.NoError(t, err)
	assert.NotContains(t, text, "<script>")

	el, err = s.FindOne(context.Background(), store.KindEntry, store.Criteria{"slug": "trusted"})
	require.NoError(t, err)
	text, err = el.(*store.Entry).Blocks()[0].Text()
	require.NoError(t, err)
	assert.Contains(t, text, `<div class="x">`)
}

func TestMarkdownImages(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Entry("blog", "images", store.Meta{
		Title: "Images",
		Content: []store.Content{{Type: "text", Inline: "![cat](images/cat.jpg) " +
			"![](https://example.org/logo.png \"Logo\") ![abs](/static/x.png)"}},
	})

	el, err := site.Store().FindOne(context.Background(), store.KindEntry, store.Criteria{"slug": "images"})
	require.NoError(t, err)
	text, err := el.(*store.Entry).Blocks()[0].Text()
	require.NoError(t, err)
	assert.Contains(t, text, `src="/static/images/cat.jpg"`)
	assert.Contains(t, text, `title="cat"`)
	assert.Contains(t, text, `src="https://example.org/logo.png"`)
	assert.Contains(t, text, `alt="Logo"`)
	assert.Contains(t, text, `src="/static/x.png"`)
}

func TestMissingMarkdownFails(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Entry("blog", "broken", store.Meta{
		Title:   "Broken",
		Content: []store.Content{{Type: "text", Path: "missing.md"}},
	})

	el, err := site.Store().FindOne(context.Background(), store.KindEntry, store.Criteria{"slug": "broken"})
	require.NoError(t, err)
	_, err = el.(*store.Entry).Blocks()[0].Text()
	assert.Error(t, err)
}

func TestFindOneNotFound(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Entry("blog", "hidden", store.Meta{Title: "Hidden", Hidden: true})

	s := site.Store()
	_, err := s.FindOne(context.Background(), store.KindEntry, store.Criteria{"slug": "home"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindOne(context.Background(), store.KindEntry, store.Criteria{"slug": "hidden"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindOne(context.Background(), store.KindGlobalSet, store.Criteria{"handle": "nope"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmptyTree(t *testing.T) {
	site := sitetest.New(t)
	els, more, err := site.Store().FindMany(context.Background(), store.KindEntry, nil, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, els)
	assert.False(t, more)
}

func TestFindManyPages(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	for i := 1; i <= 12; i++ {
		site.Entry("blog", fmt.Sprintf("post-%02d", i), store.Meta{
			Title: fmt.Sprintf("Post %d", i),
			Date:  sitetest.Date(2020, time.January, i),
		})
	}
	c := store.Criteria{"section": "blog", "orderBy": "postDate desc"}
	s := site.Store()

	var titles []string
	for page, want := range []struct {
		n    int
		more bool
	}{{5, true}, {5, true}, {2, false}} {
		els, more, err := s.FindMany(context.Background(), store.KindEntry, c, page+1, 5)
		require.NoError(t, err)
		assert.Len(t, els, want.n)
		assert.Equal(t, want.more, more)
		for _, el := range els {
			titles = append(titles, el.(*store.Entry).Title())
		}
	}
	require.Len(t, titles, 12)
	assert.Equal(t, "Post 12", titles[0])
	assert.Equal(t, "Post 1", titles[11])

	els, more, err := s.FindMany(context.Background(), store.KindEntry, c, 4, 5)
	require.NoError(t, err)
	assert.Empty(t, els)
	assert.False(t, more)
}

func TestDefaultOrder(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Entry("home", "home", store.Meta{Title: "Home", Priority: 10})
	site.Entry("about", "about", store.Meta{Title: "About"})

	els, _, err := site.Store().FindMany(context.Background(), store.KindEntry,
		store.Criteria{"sectionType": store.SectionSingle}, 1, 0)
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Equal(t, "Home", els[0].(*store.Entry).Title())
	assert.Equal(t, "", els[0].(*store.Entry).URI())
	assert.Equal(t, "about", els[1].(*store.Entry).URI())
}

func TestOrderBy(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Entry("blog", "a", store.Meta{Title: "Beta", Date: sitetest.Date(2020, 1, 1), Priority: 1})
	site.Entry("blog", "b", store.Meta{Title: "Alpha", Date: sitetest.Date(2020, 1, 3)})
	site.Entry("blog", "c", store.Meta{Title: "Gamma", Date: sitetest.Date(2020, 1, 2), Priority: 2})

	s := site.Store()
	for orderBy, want := range map[string][]string{
		"":              {"c", "a", "b"},
		"priority":      {"c", "a", "b"},
		"postDate desc": {"b", "c", "a"},
		"postDate asc":  {"a", "c", "b"},
		"title asc":     {"b", "a", "c"},
		"title desc":    {"c", "a", "b"},
	} {
		els, _, err := s.FindMany(context.Background(), store.KindEntry,
			store.Criteria{"section": "blog", "orderBy": orderBy}, 1, 0)
		require.NoError(t, err, orderBy)
		slugs := []string{}
		for _, el := range els {
			slugs = append(slugs, el.(*store.Entry).Slug())
		}
		assert.Equal(t, want, slugs, orderBy)
	}
}

func TestCriteriaErrors(t *testing.T) {
	s := sitetest.New(t).Store()
	ctx := context.Background()

	_, _, err := s.FindMany(ctx, store.KindEntry, store.Criteria{"colour": "red"}, 1, 0)
	assert.Error(t, err)
	_, _, err = s.FindMany(ctx, store.KindEntry, store.Criteria{"slug": 3}, 1, 0)
	assert.Error(t, err)
	_, _, err = s.FindMany(ctx, store.KindEntry, store.Criteria{"orderBy": "random"}, 1, 0)
	assert.Error(t, err)
	_, _, err = s.FindMany(ctx, "category", nil, 1, 0)
	assert.Error(t, err)
	_, _, err = s.FindMany(ctx, store.KindEntry, nil, 0, 5)
	assert.Error(t, err)
	_, err = s.FindOne(ctx, store.KindGlobalSet, store.Criteria{"handle": "../x"})
	assert.Error(t, err)
}

func TestGlobalSet(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.Global("broken", store.GlobalMeta{Logo: "images/gone.png"})

	s := site.Store()
	el, err := s.FindOne(context.Background(), store.KindGlobalSet, store.Criteria{"handle": "siteSettings"})
	require.NoError(t, err)
	g := el.(*store.GlobalSet)
	assert.Equal(t, "glub glub", g.FooterText())
	logo, err := g.Logo()
	require.NoError(t, err)
	require.NotNil(t, logo)
	assert.Equal(t, "images/logo.png", logo.Path)

	el, err = s.FindOne(context.Background(), store.KindGlobalSet, store.Criteria{"handle": "broken"})
	require.NoError(t, err)
	logo, err = el.(*store.GlobalSet).Logo()
	require.NoError(t, err)
	assert.Nil(t, logo)
}

func TestSkipsBrokenMeta(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	site.WriteFile("pages/blog/bad/meta.json", []byte("{"))
	site.Entry("blog", "good", store.Meta{Title: "Good"})

	els, _, err := site.Store().FindMany(context.Background(), store.KindEntry,
		store.Criteria{"section": "blog"}, 1, 0)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "Good", els[0].(*store.Entry).Title())
}

func TestExplicitUpdated(t *testing.T) {
	site := sitetest.New(t)
	site.Blog()
	updated := sitetest.Date(2021, 5, 6)
	site.Entry("blog", "p", store.Meta{Title: "P", Date: sitetest.Date(2021, 5, 1), Updated: &updated})

	el, err := site.Store().FindOne(context.Background(), store.KindEntry, store.Criteria{"slug": "p"})
	require.NoError(t, err)
	assert.True(t, el.(*store.Entry).DateUpdated().Equal(time.Time(updated)))
}
