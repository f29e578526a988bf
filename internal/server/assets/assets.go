// Package assets embeds the static files of the web index.
package assets

import _ "embed"

// IndexTemplate is the html/template source of the index page.
//
//go:embed index.html.tpl
var IndexTemplate string

// Style is the stylesheet inlined into the index page.
//
//go:embed style.css
var Style string
