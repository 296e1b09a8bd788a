// Package ui renders the FlightDesk site as server-side HTML.
package ui

import (
	"net/http"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Render writes node as an HTML response with the given status.
func Render(w http.ResponseWriter, status int, node Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// ErrorPage is a standalone page for failures that happen before the
// navigation bar can be built.
func ErrorPage(title, message string) Node {
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(Text(title+" | FlightDesk")),
				Link(Rel("icon"), Href("data:,")),
				StyleEl(Raw(stylesheet)),
			),
			Body(
				Main(
					Class("content"),
					H1(Class("page-title"), Text(title)),
					P(Text(message)),
					P(A(Href("/"), Text("Back to home"))),
				),
			),
		),
	)
}

// Alert is an inline error shown in place of content that failed to load.
func Alert(message string) Node {
	if message == "" {
		return nil
	}
	return Div(Class("alert"), Attr("role", "alert"), Text(message))
}

// Notice is an inline confirmation message.
func Notice(message string) Node {
	if message == "" {
		return nil
	}
	return Div(Class("notice"), Attr("role", "status"), Text(message))
}

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;color:#1f2328;background:#f6f8fa}
.navbar{display:flex;align-items:center;gap:1.5rem;padding:.75rem 1.5rem;background:#0b3d91;color:#fff}
.navbar a{color:#fff;text-decoration:none}
.brand{font-weight:700;font-size:1.2rem}
.nav{display:flex;gap:1rem;flex:1;align-items:center}
.nav-link.active{text-decoration:underline}
details.dropdown{position:relative}
details.dropdown summary{cursor:pointer;list-style:none}
details.dropdown ul{position:absolute;margin:0;padding:.5rem 1rem;list-style:none;background:#0b3d91;z-index:10}
.welcome-bar{display:flex;gap:.75rem;align-items:center}
.offline{color:#ffd33d}
.btn{padding:.3rem .8rem;border:1px solid #d0d7de;border-radius:6px;background:#fff;color:#0b3d91;cursor:pointer}
.navbar .btn{color:#0b3d91}
form.inline{display:inline}
.content{max-width:64rem;margin:1.5rem auto;padding:0 1rem}
table{width:100%;border-collapse:collapse;background:#fff}
th,td{text-align:left;padding:.5rem;border-bottom:1px solid #d0d7de}
.alert{padding:.75rem;border:1px solid #cf222e;background:#ffebe9;margin:1rem 0}
.notice{padding:.75rem;border:1px solid #1a7f37;background:#dafbe1;margin:1rem 0}
.field{display:flex;flex-direction:column;margin-bottom:.75rem;max-width:24rem}
.field-error{color:#cf222e;font-size:.85rem}
.filters{display:flex;gap:.75rem;align-items:flex-end;margin-bottom:1rem}
.pager{display:flex;gap:.5rem;margin:1rem 0}
.pager .active{font-weight:700}
`
