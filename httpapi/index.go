package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed assets/*
var embeddedAssets embed.FS

// assetsFS holds the console page and its static files.
var assetsFS = subAssets(embeddedAssets, "assets")

func subAssets(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return fsys
	}
	return sub
}

// mount is where the API lives when served behind a reverse proxy.
type mount struct {
	// prefix is "" at the root, otherwise "/a/b" with no trailing slash.
	prefix string
	// href feeds the page's <base href>; "" leaves it out.
	href string
}

func newMount(baseURL, basePath string) mount {
	prefix := cleanPrefix(basePath)
	origin := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	m := mount{prefix: prefix}
	if origin+prefix != "" {
		m.href = origin + prefix + "/"
	}
	return m
}

func cleanPrefix(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	cleaned := path.Clean("/" + value)
	if cleaned == "/" {
		return ""
	}
	return cleaned
}

// wrap serves handler under the mount prefix and redirects the bare prefix.
func (m mount) wrap(handler http.Handler) http.Handler {
	if m.prefix == "" {
		return handler
	}
	root := http.NewServeMux()
	root.Handle(m.prefix+"/", http.StripPrefix(m.prefix, handler))
	root.HandleFunc(m.prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != m.prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, m.prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

const baseHrefMarker = "<!-- BASE_HREF -->"

// renderIndex fills the base href marker of the console page.
func (m mount) renderIndex(page []byte) []byte {
	tag := ""
	if m.href != "" {
		tag = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(m.href))
	}
	return bytes.ReplaceAll(page, []byte(baseHrefMarker), []byte(tag))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := fs.ReadFile(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	stat, err := fs.Stat(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, "index.html", stat.ModTime(), bytes.NewReader(s.mount.renderIndex(page)))
}
