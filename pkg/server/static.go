package server

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/labstack/echo/v4"

	"github.com/aretw0/journal/pkg/core"
)

const (
	contentTypeHTML     = "text/html; charset=utf-8"
	contentTypeManifest = "application/manifest+json"
	contentTypeJS       = "application/javascript"
)

// Page maps a route to a file in the static directory.
type Page struct {
	Path        string
	File        string
	ContentType string
}

// DefaultPages are the site pages served next to the API.
var DefaultPages = []Page{
	{"/", "index.html", contentTypeHTML},
	{"/index.html", "index.html", contentTypeHTML},
	{"/journal", "journal.html", contentTypeHTML},
	{"/journal.html", "journal.html", contentTypeHTML},
	{"/about", "about.html", contentTypeHTML},
	{"/about.html", "about.html", contentTypeHTML},
	{"/projects", "projects.html", contentTypeHTML},
	{"/projects.html", "projects.html", contentTypeHTML},
	{"/manifest.json", "manifest.json", contentTypeManifest},
	{"/sw.js", "sw.js", contentTypeJS},
}

func (s *Server) registerPages() {
	for _, p := range DefaultPages {
		s.Static(p.Path, p.File, p.ContentType)
	}
}

// Static serves file from the static directory at urlPath with the given
// content type. A missing file is a 404.
func (s *Server) Static(urlPath, file, contentType string) {
	s.echo.GET(urlPath, func(c echo.Context) error {
		return s.serveFile(c, file, contentType)
	})
}

func (s *Server) serveFile(c echo.Context, file, contentType string) error {
	full := filepath.Join(s.config.StaticDir, filepath.FromSlash(file))
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound, core.ErrNotFound.Error())
	}
	if err != nil {
		s.logger.Error("failed to read static file", "file", full, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read resource")
	}
	return c.Blob(http.StatusOK, contentType, data)
}

// handleAsset serves /static/<rel> when rel matches one of the allowed
// patterns. Anything else, including traversal attempts, is a 404.
func (s *Server) handleAsset(c echo.Context) error {
	rel := strings.TrimPrefix(path.Clean("/"+c.Param("*")), "/")
	if rel == "" || !s.assetAllowed(rel) {
		return echo.NewHTTPError(http.StatusNotFound, core.ErrNotFound.Error())
	}

	contentType := mime.TypeByExtension(path.Ext(rel))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return s.serveFile(c, path.Join("static", rel), contentType)
}

func (s *Server) assetAllowed(rel string) bool {
	for _, pattern := range s.config.Assets {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
