// Package registry holds the declarative page table of the site: which
// pages exist, where they live, who sees them in the navigation bar and
// which view renders them.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/atinyakov/FlightDesk/internal/identity"
)

// ErrInvalid is returned for registries that violate the page table rules.
var ErrInvalid = errors.New("invalid registry")

// Entry is one top-level registry item. It is either a PageEntry (a leaf)
// or a Group of leaves shown as a dropdown.
type Entry interface {
	// EntryLabel is the registry key and display name of the entry.
	EntryLabel() string
	entry()
}

// PageEntry is a single navigable destination.
type PageEntry struct {
	// Label is the registry key and the text of the navigation link.
	Label string
	// Path is the route pattern, possibly with :param segments.
	Path string
	// Link overrides Path in navigation, for parametric paths.
	Link string
	// NavHidden keeps the page routable but out of the navigation bar.
	NavHidden bool
	// RestrictedTo limits navigation visibility; nil means everyone.
	RestrictedTo []identity.Type
	// Content names the view that renders the page.
	Content string
}

// Group is a named dropdown of pages. It has no path or content of its own.
type Group struct {
	Name string
	// RestrictedTo hides the whole dropdown from other viewer types.
	RestrictedTo []identity.Type
	Children     []PageEntry
}

func (p PageEntry) EntryLabel() string { return p.Label }
func (PageEntry) entry()                {}

func (g Group) EntryLabel() string { return g.Name }
func (Group) entry()                {}

// ShowInNav reports whether the page may appear in the navigation bar.
func (p PageEntry) ShowInNav() bool { return !p.NavHidden }

// Href is the URL used when linking to the page from the navigation bar.
func (p PageEntry) Href() string {
	if p.Link != "" {
		return p.Link
	}
	return p.Path
}

// Allows reports whether a viewer of type t passes the page restriction.
func (p PageEntry) Allows(t identity.Type) bool {
	return allows(p.RestrictedTo, t)
}

// Allows reports whether a viewer of type t may see the dropdown at all.
func (g Group) Allows(t identity.Type) bool {
	return allows(g.RestrictedTo, t)
}

func allows(set []identity.Type, t identity.Type) bool {
	return set == nil || slices.Contains(set, t)
}

// Registry is an immutable, ordered page table.
type Registry struct {
	entries []Entry
}

// New validates entries and returns a Registry preserving their order.
func New(entries ...Entry) (*Registry, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		label := e.EntryLabel()
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("%w: entry with empty label", ErrInvalid)
		}
		if seen[label] {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrInvalid, label)
		}
		seen[label] = true

		switch e := e.(type) {
		case PageEntry:
			if err := validatePage(e); err != nil {
				return nil, err
			}
			out = append(out, clonePage(e))
		case Group:
			if err := validateGroup(e); err != nil {
				return nil, err
			}
			g := Group{Name: e.Name, RestrictedTo: slices.Clone(e.RestrictedTo)}
			for _, c := range e.Children {
				g.Children = append(g.Children, clonePage(c))
			}
			out = append(out, g)
		default:
			return nil, fmt.Errorf("%w: unsupported entry %T", ErrInvalid, e)
		}
	}
	return &Registry{entries: out}, nil
}

// MustNew is New for package-level tables known to be valid.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Entries returns the registry entries in declaration order. The slice is
// a copy; the entries themselves must be treated as read-only.
func (r *Registry) Entries() []Entry {
	return slices.Clone(r.entries)
}

// Len returns the number of top-level entries.
func (r *Registry) Len() int { return len(r.entries) }

// Pages returns every leaf, with group children flattened in place.
func (r *Registry) Pages() []PageEntry {
	var pages []PageEntry
	for _, e := range r.entries {
		switch e := e.(type) {
		case PageEntry:
			pages = append(pages, e)
		case Group:
			pages = append(pages, e.Children...)
		}
	}
	return pages
}

// Page returns the first page in declaration order rendered by content.
func (r *Registry) Page(content string) (PageEntry, bool) {
	for _, p := range r.Pages() {
		if p.Content == content {
			return p, true
		}
	}
	return PageEntry{}, false
}

// PathFor returns the URL to link to the page rendered by content. A
// :param segment left in the href is filled with 1, the first page of a
// listing.
func (r *Registry) PathFor(content string) (string, bool) {
	p, ok := r.Page(content)
	if !ok {
		return "", false
	}
	segs := strings.Split(p.Href(), "/")
	for i, seg := range segs {
		if strings.HasPrefix(seg, ":") {
			segs[i] = "1"
		}
	}
	return strings.Join(segs, "/"), true
}

func validatePage(p PageEntry) error {
	if !strings.HasPrefix(p.Path, "/") {
		return fmt.Errorf("%w: page %q: path %q must start with /", ErrInvalid, p.Label, p.Path)
	}
	if p.Link != "" && !strings.HasPrefix(p.Link, "/") {
		return fmt.Errorf("%w: page %q: link %q must start with /", ErrInvalid, p.Label, p.Link)
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("%w: page %q has no content", ErrInvalid, p.Label)
	}
	return validateTypes(p.Label, p.RestrictedTo)
}

func validateGroup(g Group) error {
	if len(g.Children) == 0 {
		return fmt.Errorf("%w: group %q has no pages", ErrInvalid, g.Name)
	}
	seen := make(map[string]bool, len(g.Children))
	for _, c := range g.Children {
		if strings.TrimSpace(c.Label) == "" {
			return fmt.Errorf("%w: group %q: page with empty label", ErrInvalid, g.Name)
		}
		if seen[c.Label] {
			return fmt.Errorf("%w: group %q: duplicate page %q", ErrInvalid, g.Name, c.Label)
		}
		seen[c.Label] = true
		if err := validatePage(c); err != nil {
			return err
		}
	}
	return validateTypes(g.Name, g.RestrictedTo)
}

func validateTypes(label string, types []identity.Type) error {
	if types != nil && len(types) == 0 {
		return fmt.Errorf("%w: %q is restricted to nobody", ErrInvalid, label)
	}
	for _, t := range types {
		if !t.Valid() {
			return fmt.Errorf("%w: %q restricted to unknown type %q", ErrInvalid, label, t)
		}
	}
	return nil
}

func clonePage(p PageEntry) PageEntry {
	p.RestrictedTo = slices.Clone(p.RestrictedTo)
	return p
}
