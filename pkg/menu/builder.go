package menu

import (
	"fmt"
	"strings"

	"github.com/aretw0/motherlink/pkg/domain"
)

// Builder manages the catalog construction for one locale.
type Builder struct {
	locale domain.Locale
	root   string
	order  []string
	nodes  map[string]*NodeBuilder
}

// NewBuilder creates a new catalog builder rooted at domain.RootNodeID.
func NewBuilder(locale domain.Locale) *Builder {
	return &Builder{
		locale: locale,
		root:   domain.RootNodeID,
		nodes:  make(map[string]*NodeBuilder),
	}
}

// Root overrides the entry node.
func (b *Builder) Root(id string) *Builder {
	b.root = id
	return b
}

// Add creates a new node in the catalog.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		id:      id,
		choices: make(map[string]domain.Successor),
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build renders every prompt and freezes the graph.
func (b *Builder) Build() (*Catalog, error) {
	if _, ok := b.nodes[b.root]; !ok {
		return nil, fmt.Errorf("root node %q is not defined", b.root)
	}

	nodes := make(map[string]domain.MenuNode, len(b.nodes))
	for _, id := range b.order {
		nb := b.nodes[id]
		if nb.freeText {
			if _, ok := nb.choices[domain.WildcardKey]; !ok {
				return nil, fmt.Errorf("node %q accepts free text but has no input route", id)
			}
		}
		nodes[id] = nb.node()
	}

	return &Catalog{
		locale: b.locale,
		root:   b.root,
		nodes:  nodes,
	}, nil
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	id         string
	title      []string
	lines      []string
	choices    map[string]domain.Successor
	freeText   bool
	capturesAs string
	end        bool
}

// Title appends header lines shown above the options.
func (n *NodeBuilder) Title(lines ...string) *NodeBuilder {
	n.title = append(n.title, lines...)
	return n
}

// Option adds a numbered, labelled choice. Options render in insertion order.
func (n *NodeBuilder) Option(key, label string, next domain.Successor) *NodeBuilder {
	n.lines = append(n.lines, key+". "+label)
	n.choices[key] = next
	return n
}

// Route adds a choice that is not listed on screen.
func (n *NodeBuilder) Route(key string, next domain.Successor) *NodeBuilder {
	n.choices[key] = next
	return n
}

// Input marks the node as free-text and routes any non-empty text to next.
func (n *NodeBuilder) Input(next domain.Successor) *NodeBuilder {
	n.freeText = true
	n.choices[domain.WildcardKey] = next
	return n
}

// CapturesAs stores the typed text under key instead of the node ID.
func (n *NodeBuilder) CapturesAs(key string) *NodeBuilder {
	n.capturesAs = key
	return n
}

// End marks the node as an information screen that terminates the session.
func (n *NodeBuilder) End() *NodeBuilder {
	n.end = true
	return n
}

func (n *NodeBuilder) node() domain.MenuNode {
	marker := domain.ContinuePrefix
	if n.end {
		marker = domain.EndPrefix
	}

	body := make([]string, 0, len(n.title)+len(n.lines))
	body = append(body, n.title...)
	body = append(body, n.lines...)

	choices := make(map[string]domain.Successor, len(n.choices))
	for k, v := range n.choices {
		choices[k] = v
	}

	return domain.MenuNode{
		ID:              n.id,
		Prompt:          marker + strings.Join(body, "\n"),
		Choices:         choices,
		AcceptsFreeText: n.freeText,
		CapturesAs:      n.capturesAs,
	}
}
