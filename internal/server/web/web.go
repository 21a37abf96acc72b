// Package web holds the browser form served at / and its assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var content embed.FS

// Assets serves the files under static/ for mounting at /static.
func Assets() http.FileSystem {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// IndexPage is the HTML form page.
func IndexPage() []byte {
	page, err := content.ReadFile("static/index.html")
	if err != nil {
		panic(err)
	}
	return page
}
