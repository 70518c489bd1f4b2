// Package assets embeds the static files served by the web server.
package assets

//go:generate go run ../cmd/minify --dir .

import _ "embed"

// Index is the layer panel page.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed favicon.ico
var Favicon []byte
