// Package content turns the body blocks of an entry into wire blocks.
//
// Block kinds are looked up by name. Kinds without a registered handler
// are left out of the result: older consumers keep working when a new
// kind is introduced in the content tree.
package content

import (
	"context"

	"github.com/lemmi/glubapi/assets"
	"github.com/lemmi/glubapi/store"
	"github.com/lemmi/glubapi/wire"
	"github.com/pkg/errors"
)

// Source is the part of a store block the handlers read.
type Source interface {
	Kind() string
	Text() (string, error)
	Asset() (*store.Asset, error)
}

// Handler converts one block of its kind.
type Handler interface {
	Transform(ctx context.Context, b Source) (wire.Block, error)
}

type HandlerFunc func(ctx context.Context, b Source) (wire.Block, error)

func (f HandlerFunc) Transform(ctx context.Context, b Source) (wire.Block, error) {
	return f(ctx, b)
}

type Transformer struct {
	handlers map[string]Handler
}

// New returns a Transformer knowing the text and image kinds.
func New(svc assets.Service) *Transformer {
	return &Transformer{
		handlers: map[string]Handler{
			wire.BlockText:  HandlerFunc(text),
			wire.BlockImage: imageHandler{svc},
		},
	}
}

// Handle registers h for kind, replacing any earlier handler.
func (t *Transformer) Handle(kind string, h Handler) {
	t.handlers[kind] = h
}

// TransformBlocks converts blocks in order. Unknown kinds are skipped,
// any handler error aborts the whole conversion.
func (t *Transformer) TransformBlocks(ctx context.Context, blocks []*store.Block) ([]wire.Block, error) {
	ret := make([]wire.Block, 0, len(blocks))
	for i, b := range blocks {
		h, ok := t.handlers[b.Kind()]
		if !ok {
			continue
		}
		wb, err := h.Transform(ctx, b)
		if err != nil {
			return nil, errors.Wrapf(err, "block %d (%s)", i, b.Kind())
		}
		ret = append(ret, wb)
	}
	return ret, nil
}

func text(_ context.Context, b Source) (wire.Block, error) {
	html, err := b.Text()
	if err != nil {
		return nil, err
	}
	return wire.NewTextBlock(html), nil
}

type imageHandler struct {
	svc assets.Service
}

func (h imageHandler) Transform(_ context.Context, b Source) (wire.Block, error) {
	a, err := b.Asset()
	if err != nil {
		return nil, err
	}
	if a == nil {
		return wire.NewImageBlock(nil), nil
	}
	u, err := h.svc.URL(*a, nil)
	if err != nil {
		return nil, err
	}
	return wire.NewImageBlock(&u), nil
}
