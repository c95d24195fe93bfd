package endpoint

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/lemmi/glubapi/store"
	"github.com/pkg/errors"
)

type Cardinality int

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// QueryDescriptor tells the resolver what to fetch for a route.
type QueryDescriptor struct {
	Kind        string
	Criteria    store.Criteria
	Cardinality Cardinality
	// PageSize is only used with Many. Zero means unpaginated.
	PageSize int
}

func (q QueryDescriptor) Validate() error {
	switch {
	case q.Kind == "":
		return errors.New("query without element kind")
	case q.PageSize < 0:
		return errors.Errorf("negative page size %d", q.PageSize)
	case q.PageSize > 0 && q.Cardinality != Many:
		return errors.New("page size requires cardinality many")
	}
	return nil
}

// Params holds the values of a pattern's placeholders.
type Params map[string]string

// Document is a transformed element. It is serialized as a JSON object.
type Document map[string]interface{}

// Transformer converts one element. It must not modify the element.
type Transformer func(ctx context.Context, el store.Element) (Document, error)

// Route binds path patterns to a query and a transformer. Patterns are
// relative to the endpoint root and may contain {name} placeholders
// matching a single slug-like segment. All patterns of a route are
// aliases.
type Route struct {
	Name      string
	Patterns  []string
	Query     func(Params) QueryDescriptor
	Transform Transformer
	MetaType  string
}

type pattern struct {
	raw     string
	re      *regexp.Regexp
	literal bool
	route   *Route
}

var placeholderName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const placeholderValue = `[A-Za-z0-9_-]+`

func compilePattern(raw string) (*regexp.Regexp, bool, error) {
	var (
		buf     strings.Builder
		seen    = map[string]bool{}
		literal = true
		rest    = raw
	)
	buf.WriteString("^")
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, false, errors.Errorf("pattern %q: unbalanced '}'", raw)
			}
			buf.WriteString(regexp.QuoteMeta(rest))
			break
		}
		if strings.IndexByte(rest[:open], '}') >= 0 {
			return nil, false, errors.Errorf("pattern %q: unbalanced '}'", raw)
		}
		buf.WriteString(regexp.QuoteMeta(rest[:open]))
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, false, errors.Errorf("pattern %q: unterminated placeholder", raw)
		}
		name := rest[open+1 : open+end]
		if !placeholderName.MatchString(name) {
			return nil, false, errors.Errorf("pattern %q: invalid placeholder %q", raw, name)
		}
		if seen[name] {
			return nil, false, errors.Errorf("pattern %q: duplicate placeholder %q", raw, name)
		}
		seen[name] = true
		literal = false
		buf.WriteString("(?P<" + name + ">" + placeholderValue + ")")
		rest = rest[open+end+1:]
	}
	buf.WriteString("$")
	re, err := regexp.Compile(buf.String())
	if err != nil {
		return nil, false, errors.Wrapf(err, "pattern %q", raw)
	}
	return re, literal, nil
}

// Registry is an ordered, immutable set of routes. Literal patterns are
// tried before parameterized ones; otherwise registration order decides.
type Registry struct {
	routes   []Route
	patterns []pattern
}

func NewRegistry(routes ...Route) (*Registry, error) {
	r := &Registry{routes: make([]Route, len(routes))}
	copy(r.routes, routes)

	seen := map[string]string{}
	for i := range r.routes {
		route := &r.routes[i]
		switch {
		case route.Name == "":
			return nil, errors.Errorf("route %d without name", i)
		case len(route.Patterns) == 0:
			return nil, errors.Errorf("route %q without patterns", route.Name)
		case route.Query == nil:
			return nil, errors.Errorf("route %q without query", route.Name)
		case route.Transform == nil:
			return nil, errors.Errorf("route %q without transformer", route.Name)
		case route.MetaType == "":
			return nil, errors.Errorf("route %q without meta type", route.Name)
		}
		for _, raw := range route.Patterns {
			if other, ok := seen[raw]; ok {
				return nil, errors.Errorf("pattern %q registered by %q and %q", raw, other, route.Name)
			}
			seen[raw] = route.Name
			re, literal, err := compilePattern(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "route %q", route.Name)
			}
			r.patterns = append(r.patterns, pattern{
				raw:     raw,
				re:      re,
				literal: literal,
				route:   route,
			})
		}
	}
	sort.SliceStable(r.patterns, func(i, j int) bool {
		return r.patterns[i].literal && !r.patterns[j].literal
	})
	return r, nil
}

// Match finds the route for path, which is relative to the endpoint root.
func (r *Registry) Match(path string) (*Route, Params, bool) {
	for _, p := range r.patterns {
		m := p.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := Params{}
		for i, name := range p.re.SubexpNames() {
			if name != "" {
				params[name] = m[i]
			}
		}
		return p.route, params, true
	}
	return nil, nil, false
}

// Patterns lists the patterns in the order they are tried.
func (r *Registry) Patterns() []string {
	ret := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		ret[i] = p.raw
	}
	return ret
}
