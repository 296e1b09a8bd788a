// Package navigation computes the navigation bar a viewer is allowed to see.
package navigation

import (
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/registry"
)

// Item is one element of the navigation bar: a Link or a Dropdown.
type Item interface {
	ItemLabel() string
	item()
}

// Link points at a single page.
type Link struct {
	Label string
	Href  string
}

// Dropdown groups several links under one title.
type Dropdown struct {
	Label string
	Items []Link
}

func (l Link) ItemLabel() string     { return l.Label }
func (Link) item()                   {}
func (d Dropdown) ItemLabel() string { return d.Label }
func (Dropdown) item()               {}

// Visible reports whether page p belongs in the navigation bar of a viewer
// of type t.
func Visible(p registry.PageEntry, t identity.Type) bool {
	return p.ShowInNav() && p.Allows(t)
}

// Resolve returns the navigation items for ident, in registry order.
//
// Hidden pages and pages restricted to other viewer types are skipped.
// A dropdown is emitted only when the viewer passes the group restriction
// and at least one of its pages is visible. Resolve is pure: the same
// inputs always give the same output.
func Resolve(reg *registry.Registry, ident identity.Identity) []Item {
	t := ident.Type
	var items []Item
	for _, e := range reg.Entries() {
		switch e := e.(type) {
		case registry.PageEntry:
			if Visible(e, t) {
				items = append(items, link(e))
			}
		case registry.Group:
			if !e.Allows(t) {
				continue
			}
			var links []Link
			for _, c := range e.Children {
				if Visible(c, t) {
					links = append(links, link(c))
				}
			}
			if len(links) > 0 {
				items = append(items, Dropdown{Label: e.Name, Items: links})
			}
		}
	}
	return items
}

// Labels flattens items into their labels, dropdown children included.
func Labels(items []Item) []string {
	var out []string
	for _, it := range items {
		switch it := it.(type) {
		case Link:
			out = append(out, it.Label)
		case Dropdown:
			for _, l := range it.Items {
				out = append(out, l.Label)
			}
		}
	}
	return out
}

func link(p registry.PageEntry) Link {
	return Link{Label: p.Label, Href: p.Href()}
}
