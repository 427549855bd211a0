// Package server implements the live development server: on-demand
// document rendering, category pages, asset lookup and the livereload
// channel browsers subscribe to.
package server

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/lithos/internal/build"
	"git.home.luguber.info/inful/lithos/internal/config"
	"git.home.luguber.info/inful/lithos/internal/convert"
	"git.home.luguber.info/inful/lithos/internal/meta"
	"git.home.luguber.info/inful/lithos/internal/metrics"
	"git.home.luguber.info/inful/lithos/internal/site"
	"git.home.luguber.info/inful/lithos/internal/templates"
	"git.home.luguber.info/inful/lithos/internal/util/sets"
)

//go:embed livereload.js
var reloadScript []byte

const reloadScriptTag = `<script src="/livereload.js" defer></script>`

// Config collects everything a dev server instance needs.
type Config struct {
	Paths     site.Paths
	Site      *config.Site
	RoutesURL string
	Drafts    bool
	Recorder  metrics.Recorder
	Metrics   http.Handler // optional /metrics endpoint
}

// State is the shared mutable state of a dev server: the hot-swappable
// template engine, the current listing snapshot and the reload hub.
type State struct {
	paths     site.Paths
	cfg       *config.Site
	routesURL string
	drafts    bool
	engine    *templates.Shared
	hub       *ReloadHub
	recorder  metrics.Recorder
	metricsH  http.Handler

	mu      sync.RWMutex
	listing []meta.Map
}

// NewState loads the template engine and the initial listing snapshot.
func NewState(c Config) (*State, error) {
	engine, err := templates.Load(c.Paths.Templates, c.Paths.ThemeTemplates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	rec := c.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	s := &State{
		paths:     c.Paths,
		cfg:       c.Site,
		routesURL: c.RoutesURL,
		drafts:    c.Drafts,
		engine:    templates.NewShared(engine),
		hub:       NewReloadHub(rec),
		recorder:  rec,
		metricsH:  c.Metrics,
	}
	if err := s.RefreshListing(); err != nil {
		return nil, err
	}
	return s, nil
}

// Hub returns the reload hub browsers subscribe to.
func (s *State) Hub() *ReloadHub { return s.hub }

// Listing returns the current listing snapshot.
func (s *State) Listing() []meta.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listing
}

// RefreshListing rebuilds the listing snapshot from the intermediate
// cache.
func (s *State) RefreshListing() error {
	listing, err := build.CollectListing(s.paths, s.cfg.RootURL, s.drafts)
	if err != nil {
		return fmt.Errorf("collect listing: %w", err)
	}
	s.mu.Lock()
	s.listing = listing
	s.mu.Unlock()
	return nil
}

// Handler assembles the dev server routes behind the logging and
// recovery middleware.
func (s *State) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livereload.js", s.handleReloadScript)
	mux.HandleFunc("/assets/", s.handleAsset)
	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/categories/", s.handleCategory)
	if s.metricsH != nil {
		mux.Handle("/metrics", s.metricsH)
	}
	mux.HandleFunc("/", s.handleDocument)
	return chain(s.recorder, mux)
}

func (s *State) handleReloadScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write(reloadScript)
}

// handleAsset serves static assets, site assets shadowing theme assets.
func (s *State) handleAsset(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/assets/")
	rel = path.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		http.NotFound(w, r)
		return
	}
	for _, dir := range []string{s.paths.Assets, s.paths.ThemeAssets} {
		candidate := filepath.Join(dir, filepath.FromSlash(rel))
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, candidate)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *State) handleCategories(w http.ResponseWriter, _ *http.Request) {
	listing := s.Listing()
	body, err := s.engine.Render("categories.html", map[string]any{
		"Config":     s.cfg.Clone(),
		"Posts":      listing,
		"Categories": sets.SortedStrings(build.CollectCategories(listing)),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	s.writePage(w, []byte(body))
}

func (s *State) handleCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.Trim(strings.TrimPrefix(r.URL.Path, "/categories/"), "/")
	if category == "" {
		s.handleCategories(w, r)
		return
	}
	listing := s.Listing()
	if !build.CollectCategories(listing).Has(strings.ToLower(category)) {
		http.NotFound(w, r)
		return
	}
	body, err := s.engine.Render("category.html", map[string]any{
		"Config":   s.cfg.Clone(),
		"Category": strings.ToLower(category),
		"Posts":    build.FilterByCategory(listing, category),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	s.writePage(w, []byte(body))
}

// handleDocument resolves a request path to a content document and
// renders it on demand from the intermediate cache.
func (s *State) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	src, err := s.resolveDocument(r.URL.Path)
	if err != nil {
		httpError(w, err)
		return
	}

	html, metadata, err := s.loadArtifacts(src)
	if err != nil {
		httpError(w, err)
		return
	}
	if metadata.Draft() && !s.drafts {
		http.NotFound(w, r)
		return
	}

	body, err := s.engine.Render(metadata.Layout()+".html", build.RenderContext(s.cfg, metadata, html, s.Listing()))
	if err != nil {
		httpError(w, err)
		return
	}
	s.writePage(w, []byte(body))
}

// resolveDocument maps a URL path to a source document: <path>.md first,
// <path>/index.md second.
func (s *State) resolveDocument(urlPath string) (string, error) {
	rel := path.Clean(strings.Trim(urlPath, "/"))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fs.ErrNotExist
	}

	var candidates []string
	if rel == "." || rel == "" {
		candidates = []string{"index" + convert.Ext}
	} else {
		candidates = []string{rel + convert.Ext, path.Join(rel, "index"+convert.Ext)}
	}
	for _, c := range candidates {
		full := filepath.Join(s.paths.Content, filepath.FromSlash(c))
		if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
			return full, nil
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fs.ErrNotExist
}

// loadArtifacts reads the intermediate pair for a source document,
// converting on demand when the cache is cold.
func (s *State) loadArtifacts(src string) ([]byte, meta.Map, error) {
	rel, err := filepath.Rel(s.paths.Content, src)
	if err != nil {
		return nil, nil, err
	}
	stem := filepath.Join(s.paths.Build, strings.TrimSuffix(rel, convert.Ext))

	html, err := os.ReadFile(stem + ".html")
	if errors.Is(err, fs.ErrNotExist) {
		if err := build.ConvertOne(src, s.paths, s.drafts, s.cfg.RootURL); err != nil {
			return nil, nil, err
		}
		html, err = os.ReadFile(stem + ".html")
	}
	if err != nil {
		return nil, nil, err
	}

	metadata, err := build.ReadArtifactMeta(stem + ".meta")
	if err != nil {
		return nil, nil, err
	}
	return html, metadata, nil
}

// writePage finalizes a rendered page: root-relative links rewritten to
// the dev URL and the livereload client injected before </body>.
func (s *State) writePage(w http.ResponseWriter, page []byte) {
	out := convert.RewriteRootRelative(page, s.routesURL)
	out = injectReloadScript(out)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(out); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}

func injectReloadScript(page []byte) []byte {
	idx := bytes.LastIndex(page, []byte("</body>"))
	if idx < 0 {
		return append(page, []byte(reloadScriptTag)...)
	}
	out := make([]byte, 0, len(page)+len(reloadScriptTag))
	out = append(out, page[:idx]...)
	out = append(out, reloadScriptTag...)
	out = append(out, page[idx:]...)
	return out
}

// httpError maps an error to the closest HTTP status. The dev server
// shows error text; it only ever serves localhost.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.Error(w, "404 page not found", http.StatusNotFound)
	case errors.Is(err, fs.ErrPermission):
		http.Error(w, "403 forbidden", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
