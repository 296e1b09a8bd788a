package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/atinyakov/FlightDesk/internal/identity"
)

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse builds a registry from a YAML document such as
//
//	Flights:
//	  path: /flights/:page
//	  link: /flights/1/
//	  content: flights
//	Account:
//	  restricted_to: [anon]
//	  Login:    {path: /login/, content: login}
//	  Register: {path: /register/, content: register}
//
// A mapping with a path key is a page; a mapping whose other values are
// all mappings is a group. Declaration order is preserved. Anything else
// is rejected.
func Parse(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: top level must be a mapping", ErrInvalid, root.Line)
	}

	var entries []Entry
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		e, err := parseEntry(key.Value, val)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return New(entries...)
}

func parseEntry(label string, n *yaml.Node) (Entry, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: %q must be a mapping", ErrInvalid, n.Line, label)
	}
	if hasKey(n, "path") {
		return parsePage(label, n)
	}

	g := Group{Name: label}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Value == "restricted_to" {
			types, err := parseTypes(val)
			if err != nil {
				return nil, fmt.Errorf("%w: group %q: %v", ErrInvalid, label, err)
			}
			g.RestrictedTo = types
			continue
		}
		if val.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: line %d: %q is neither a page nor a group", ErrInvalid, n.Line, label)
		}
		if !hasKey(val, "path") {
			return nil, fmt.Errorf("%w: line %d: group %q: %q must be a page, groups do not nest", ErrInvalid, val.Line, label, key.Value)
		}
		p, err := parsePage(key.Value, val)
		if err != nil {
			return nil, err
		}
		g.Children = append(g.Children, p)
	}
	return g, nil
}

func parsePage(label string, n *yaml.Node) (PageEntry, error) {
	p := PageEntry{Label: label}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch key.Value {
		case "path":
			err = val.Decode(&p.Path)
		case "link":
			err = val.Decode(&p.Link)
		case "content":
			err = val.Decode(&p.Content)
		case "show_in_nav":
			show := true
			err = val.Decode(&show)
			p.NavHidden = !show
		case "restricted_to":
			p.RestrictedTo, err = parseTypes(val)
		default:
			err = fmt.Errorf("unknown key %q", key.Value)
		}
		if err != nil {
			return PageEntry{}, fmt.Errorf("%w: line %d: page %q: %v", ErrInvalid, key.Line, label, err)
		}
	}
	return p, nil
}

// parseTypes accepts either a single type name or a list of them.
func parseTypes(n *yaml.Node) ([]identity.Type, error) {
	var names []string
	switch n.Kind {
	case yaml.ScalarNode:
		names = []string{n.Value}
	case yaml.SequenceNode:
		if err := n.Decode(&names); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("restricted_to must be a type name or a list of them")
	}
	types := make([]identity.Type, 0, len(names))
	for _, name := range names {
		t, err := identity.ParseType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}
