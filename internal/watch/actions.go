// Package watch observes a site tree for changes and reduces raw filesystem
// events into the actions the dev server has to take.
package watch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/lithos/internal/convert"
	"git.home.luguber.info/inful/lithos/internal/site"
	"git.home.luguber.info/inful/lithos/internal/util/sets"
)

// Actions is the reduced outcome of a burst of filesystem events. Rebuild and
// Cleanup hold absolute content file paths, deduplicated.
type Actions struct {
	ReloadTemplates bool
	ReloadAssets    bool
	Rebuild         []string
	Cleanup         []string
}

// Empty reports whether the batch requires no work at all.
func (a Actions) Empty() bool {
	return !a.ReloadTemplates && !a.ReloadAssets && len(a.Rebuild) == 0 && len(a.Cleanup) == 0
}

// Classifier maps event paths onto site areas.
type Classifier struct {
	paths site.Paths
}

// NewClassifier returns a classifier for the given site layout.
func NewClassifier(paths site.Paths) *Classifier {
	return &Classifier{paths: paths}
}

// Reduce folds a burst of events into a single Actions batch. Irrelevant
// events (chmod, editor temp files, non-content files in the content tree)
// are dropped.
func (c *Classifier) Reduce(events []fsnotify.Event) Actions {
	var out Actions
	rebuild := sets.New[string]()
	cleanup := sets.New[string]()

	for _, ev := range events {
		if ev.Op == fsnotify.Chmod || shouldIgnore(ev.Name) {
			continue
		}
		switch {
		case under(ev.Name, c.paths.Templates), under(ev.Name, c.paths.ThemeTemplates):
			out.ReloadTemplates = true
		case under(ev.Name, c.paths.Assets), under(ev.Name, c.paths.ThemeAssets):
			out.ReloadAssets = true
		case under(ev.Name, c.paths.Content):
			if filepath.Ext(ev.Name) != convert.Ext {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				cleanup.Add(ev.Name)
				rebuild.Delete(ev.Name)
			} else {
				rebuild.Add(ev.Name)
			}
		}
	}

	// A path can show up as both write and remove inside one debounce
	// window (editors that replace-by-rename). If it still exists on disk
	// it is a rebuild, otherwise a cleanup.
	for _, p := range sets.SortedStrings(cleanup) {
		if _, err := os.Stat(p); err == nil {
			rebuild.Add(p)
			cleanup.Delete(p)
		}
	}

	out.Rebuild = sets.SortedStrings(rebuild)
	out.Cleanup = sets.SortedStrings(cleanup)
	return out
}

// under reports whether path sits inside dir.
func under(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// shouldIgnore filters hidden files and common editor artifacts.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return true
	}
	return false
}
