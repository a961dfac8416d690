// Package webui embeds the upload page served next to the HTTP API.
package webui

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v5"
)

//go:embed static/*
var staticFS embed.FS

// StaticFS returns an http.FileSystem for the embedded static files.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Register serves the page at / and its assets under /ui/.
func Register(e *echo.Echo) {
	files := http.FileServer(StaticFS())
	serve := func(c *echo.Context) error {
		files.ServeHTTP(c.Response(), c.Request())
		return nil
	}
	e.GET("/", serve)
	e.GET("/ui/*", func(c *echo.Context) error {
		http.StripPrefix("/ui", files).ServeHTTP(c.Response(), c.Request())
		return nil
	})
}
