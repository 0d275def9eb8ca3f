package menu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/motherlink/pkg/domain"
)

// ErrUnreachable is reported for nodes that no path from the root can reach.
var ErrUnreachable = errors.New("unreachable menu node")

// ActionIndex reports which action IDs are registered.
// *registry.Registry satisfies it.
type ActionIndex interface {
	HasImmediate(id string) bool
	HasTerminal(id string) bool
}

// Validate checks for dangling references and unreachable nodes starting from the root.
// Every problem is reported; the result joins them so errors.Is works on each sentinel.
// A nil actions skips the action table checks.
func Validate(c *Catalog, actions ActionIndex) error {
	var errs []error

	visited := make(map[string]bool)
	queue := []string{c.root}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node, ok := c.nodes[currentID]
		if !ok {
			continue // reported on the edge that led here
		}

		for _, key := range sortedKeys(node.Choices) {
			next := node.Choices[key]
			if err := checkEdge(c, actions, currentID, key, next); err != nil {
				errs = append(errs, err)
				continue
			}
			if next.Kind == domain.SuccessorMenu && !visited[next.Target] {
				queue = append(queue, next.Target)
			}
		}
	}

	ids := make([]string, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !visited[id] {
			errs = append(errs, fmt.Errorf("%w: %s [%s]", ErrUnreachable, id, c.locale))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog %s: found %d errors: %w", c.locale, len(errs), errors.Join(errs...))
	}
	return nil
}

// ValidateAll validates every catalog and joins the results.
func ValidateAll(cs *Catalogs, actions ActionIndex) error {
	var errs []error
	for _, c := range cs.All() {
		if err := Validate(c, actions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkEdge(c *Catalog, actions ActionIndex, from, key string, next domain.Successor) error {
	switch next.Kind {
	case domain.SuccessorMenu:
		if _, ok := c.nodes[next.Target]; !ok {
			return fmt.Errorf("%w: %s --%s--> %s", domain.ErrDanglingReference, from, key, next.Target)
		}
		if next.Locale != "" && !next.Locale.Valid() {
			return fmt.Errorf("%w: %s --%s--> %s", domain.ErrInvalidLocale, from, key, next)
		}
	case domain.SuccessorImmediate:
		if actions != nil && !actions.HasImmediate(next.Target) {
			return fmt.Errorf("%w: %s --%s--> %s", domain.ErrDanglingReference, from, key, next)
		}
	case domain.SuccessorTerminal:
		if actions != nil && !actions.HasTerminal(next.Target) {
			return fmt.Errorf("%w: %s --%s--> %s", domain.ErrDanglingReference, from, key, next)
		}
	default:
		return fmt.Errorf("%w: %s --%s--> invalid successor", domain.ErrDanglingReference, from, key)
	}
	return nil
}

func sortedKeys(m map[string]domain.Successor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
