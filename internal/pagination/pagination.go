// Package pagination builds the page-number strip shown under list pages.
package pagination

import "strconv"

// span is how many page numbers are shown on each side of the current one.
const span = 2

// Link is one entry of the strip.
type Link struct {
	Label  string
	Href   string
	Active bool
}

// Pager is the strip for one list page. Nil links are not shown.
type Pager struct {
	First *Link
	Prev  *Link
	// LeadingEllipsis is set when pages before the numbered window exist.
	LeadingEllipsis bool
	Pages           []Link
	// TrailingEllipsis is set when pages after the numbered window exist.
	TrailingEllipsis bool
	Next             *Link
	Last             *Link
}

// Empty reports whether the pager has nothing to show.
func (p Pager) Empty() bool {
	return p.First == nil && p.Prev == nil && p.Next == nil && p.Last == nil && len(p.Pages) <= 1
}

// Window builds the strip for page current out of last, with hrefs under
// base (for example "/flights"). Numbered and First links end with a slash.
func Window(current, last int, base string) Pager {
	from := max(1, current-span)
	to := min(last, current+span)

	p := Pager{
		LeadingEllipsis:  from >= 2,
		TrailingEllipsis: to <= last-1,
	}
	if current > 2 {
		p.First = &Link{Label: "«", Href: base + "/1/"}
	}
	if current >= 2 {
		p.Prev = &Link{Label: "‹", Href: base + "/" + strconv.Itoa(current-1)}
	}
	for i := from; i <= to; i++ {
		n := strconv.Itoa(i)
		p.Pages = append(p.Pages, Link{Label: n, Href: base + "/" + n + "/", Active: i == current})
	}
	if current <= last-1 {
		p.Next = &Link{Label: "›", Href: base + "/" + strconv.Itoa(current+1)}
	}
	if current < last-1 {
		p.Last = &Link{Label: "»", Href: base + "/" + strconv.Itoa(last)}
	}
	return p
}
