package menu

import (
	"fmt"
	"sort"

	"github.com/aretw0/motherlink/pkg/domain"
)

// Catalog is an immutable menu graph rendered for one locale.
type Catalog struct {
	locale domain.Locale
	root   string
	nodes  map[string]domain.MenuNode
}

// Locale is the language every prompt was rendered in.
func (c *Catalog) Locale() domain.Locale {
	return c.locale
}

// Root returns the entry node.
func (c *Catalog) Root() domain.MenuNode {
	return c.nodes[c.root]
}

// Node looks up a node by ID.
func (c *Catalog) Node(id string) (domain.MenuNode, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// Nodes returns every node sorted by ID.
func (c *Catalog) Nodes() []domain.MenuNode {
	out := make([]domain.MenuNode, 0, len(c.nodes))
	for _, n := range c.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Catalogs holds one catalog per supported locale.
type Catalogs struct {
	byLocale map[domain.Locale]*Catalog
}

// NewCatalogs indexes already built catalogs by their locale.
func NewCatalogs(catalogs ...*Catalog) *Catalogs {
	c := &Catalogs{byLocale: make(map[domain.Locale]*Catalog, len(catalogs))}
	for _, cat := range catalogs {
		c.byLocale[cat.Locale()] = cat
	}
	return c
}

// For returns the catalog for locale.
func (c *Catalogs) For(locale domain.Locale) (*Catalog, error) {
	cat, ok := c.byLocale[locale]
	if !ok {
		return nil, fmt.Errorf("%w: no catalog for %q", domain.ErrInvalidLocale, locale)
	}
	return cat, nil
}

// All returns the catalogs ordered like domain.SupportedLocales.
func (c *Catalogs) All() []*Catalog {
	out := make([]*Catalog, 0, len(c.byLocale))
	for _, l := range domain.SupportedLocales {
		if cat, ok := c.byLocale[l]; ok {
			out = append(out, cat)
		}
	}
	return out
}
