// Package endpoint serves content as JSON documents. Each request path is
// matched against a Registry of routes, the route's query is run against
// the store and every element found is handed to the route's transformer.
package endpoint

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lemmi/glubapi/store"
	"github.com/lemmi/glubapi/wire"
	"github.com/pkg/errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// ServerError reports a failure while building a response. Nothing of
// the response is usable.
type ServerError struct {
	Route string
	Err   error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("route %q: %v", e.Route, e.Err)
}
func (e *ServerError) Cause() error  { return e.Err }
func (e *ServerError) Unwrap() error { return e.Err }

// ListEnvelope is the body of Many routes.
type ListEnvelope struct {
	Data []Document `json:"data"`
	Meta wire.Meta  `json:"meta"`
}

type Response struct {
	Route string
	// Body is a Document with a meta entry for One routes and a
	// *ListEnvelope for Many routes.
	Body interface{}
}

type Resolver struct {
	routes *Registry
	store  store.Store
}

func NewResolver(routes *Registry, st store.Store) *Resolver {
	return &Resolver{routes: routes, store: st}
}

// Match reports the route name for path, or "" if there is none.
func (r *Resolver) Match(path string) string {
	route, _, ok := r.routes.Match(trimPath(path))
	if !ok {
		return ""
	}
	return route.Name
}

func trimPath(path string) string {
	return strings.TrimPrefix(path, "/")
}

// Resolve answers a request for path. The error is ErrNotFound or
// ErrBadRequest (possibly wrapped), or a *ServerError.
func (r *Resolver) Resolve(ctx context.Context, path string, query url.Values) (*Response, error) {
	route, params, ok := r.routes.Match(trimPath(path))
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "no route for %q", path)
	}

	q := route.Query(params)
	if err := q.Validate(); err != nil {
		return nil, &ServerError{Route: route.Name, Err: err}
	}

	switch q.Cardinality {
	case One:
		return r.one(ctx, route, q)
	case Many:
		page, err := pageParam(query)
		if err != nil {
			return nil, err
		}
		return r.many(ctx, route, q, path, query, page)
	}
	return nil, &ServerError{Route: route.Name, Err: errors.Errorf("unknown cardinality %d", q.Cardinality)}
}

func pageParam(query url.Values) (int, error) {
	s := query.Get("page")
	if s == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 0, errors.Wrapf(ErrBadRequest, "invalid page %q", s)
	}
	return page, nil
}

func (r *Resolver) one(ctx context.Context, route *Route, q QueryDescriptor) (*Response, error) {
	el, err := r.store.FindOne(ctx, q.Kind, q.Criteria)
	if errors.Cause(err) == store.ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "route %q", route.Name)
	}
	if err != nil {
		return nil, &ServerError{Route: route.Name, Err: err}
	}

	doc, err := transform(ctx, route, el)
	if err != nil {
		return nil, err
	}
	doc["meta"] = wire.Meta{Type: route.MetaType}
	return &Response{Route: route.Name, Body: doc}, nil
}

func (r *Resolver) many(ctx context.Context, route *Route, q QueryDescriptor, path string, query url.Values, page int) (*Response, error) {
	els, more, err := r.store.FindMany(ctx, q.Kind, q.Criteria, page, q.PageSize)
	if err != nil {
		return nil, &ServerError{Route: route.Name, Err: err}
	}

	env := &ListEnvelope{
		Data: make([]Document, 0, len(els)),
		Meta: wire.Meta{Type: route.MetaType},
	}
	for _, el := range els {
		doc, err := transform(ctx, route, el)
		if err != nil {
			return nil, err
		}
		env.Data = append(env.Data, doc)
	}

	if q.PageSize > 0 {
		p := &wire.Pagination{
			CurrentPage: page,
			PerPage:     q.PageSize,
			Count:       len(env.Data),
			HasMore:     more,
		}
		if page > 1 {
			p.Links.Previous = pageLink(path, query, page-1)
		}
		if more {
			p.Links.Next = pageLink(path, query, page+1)
		}
		env.Meta.Pagination = p
	}
	return &Response{Route: route.Name, Body: env}, nil
}

func pageLink(path string, query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return "/" + trimPath(path) + "?" + q.Encode()
}

// transform runs the route's transformer. Failures and panics become a
// *ServerError.
func transform(ctx context.Context, route *Route, el store.Element) (doc Document, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc = nil
			err = &ServerError{Route: route.Name, Err: errors.Errorf("transformer panic: %v", p)}
		}
	}()
	doc, err = route.Transform(ctx, el)
	if err != nil {
		return nil, &ServerError{Route: route.Name, Err: err}
	}
	if doc == nil {
		return nil, &ServerError{Route: route.Name, Err: errors.New("transformer returned no document")}
	}
	return doc, nil
}
