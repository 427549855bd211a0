// Package build implements the document conversion pipeline and the
// one-shot production build orchestrator.
package build

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/lithos/internal/convert"
	"git.home.luguber.info/inful/lithos/internal/site"
)

const (
	htmlExt = ".html"
	metaExt = ".meta"
)

// ConvertTree recursively converts every document under the content
// directory into intermediate artifacts. A conversion failure for one
// document is logged and does not abort the walk; only a failure of the
// walk itself is returned.
func ConvertTree(paths site.Paths, includeDrafts bool, rootURL string) error {
	failed := 0
	err := filepath.WalkDir(paths.Content, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, convert.Ext) {
			return nil
		}
		if convErr := ConvertOne(path, paths, includeDrafts, rootURL); convErr != nil {
			failed++
			slog.Error("document conversion failed", "path", path, "error", convErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk content tree: %w", err)
	}
	if failed > 0 {
		slog.Warn("some documents failed to convert", "count", failed)
	}
	return nil
}

// ConvertOne converts a single document, mirroring exactly the per-document
// step of ConvertTree: draft short-circuit before any disk write, and
// artifacts rewritten only when their content actually changed.
func ConvertOne(path string, paths site.Paths, includeDrafts bool, rootURL string) error {
	if !strings.HasSuffix(path, convert.Ext) {
		return nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// The file vanished between the event and the rebuild.
			return nil
		}
		return fmt.Errorf("read document: %w", err)
	}

	rel, err := filepath.Rel(paths.Content, path)
	if err != nil {
		return fmt.Errorf("document %s is not under content directory %s: %w", path, paths.Content, err)
	}

	metadata, body, err := convert.ExtractMeta(src)
	if err != nil {
		return fmt.Errorf("extract metadata: %w", err)
	}
	html, toc, err := convert.Convert(body, rootURL)
	if err != nil {
		return fmt.Errorf("convert document: %w", err)
	}

	metadata["permalink"] = Permalink(rel, rootURL)
	metadata["toc"] = convert.TOCValue(toc)

	// Draft filtering happens before any disk I/O.
	if metadata.Draft() && !includeDrafts {
		return nil
	}

	metaRaw, err := yaml.Marshal(map[string]any(metadata))
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	base := strings.TrimSuffix(rel, convert.Ext)
	htmlPath := filepath.Join(paths.Build, base+htmlExt)
	metaPath := filepath.Join(paths.Build, base+metaExt)

	if _, err := writeIfChanged(htmlPath, html); err != nil {
		return err
	}
	if _, err := writeIfChanged(metaPath, metaRaw); err != nil {
		return err
	}
	return nil
}

// writeIfChanged writes data to path only when it differs byte-for-byte
// from what is already on disk. This is the system's sole caching
// primitive: rewriting unchanged artifacts would re-trigger filesystem
// watchers and cause reload storms.
func writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write artifact %s: %w", path, err)
	}
	return true, nil
}

// CleanupOrphans deletes intermediate artifacts whose source document no
// longer exists. It runs once per full rebuild, not per event.
func CleanupOrphans(paths site.Paths) error {
	if _, err := os.Stat(paths.Build); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(paths.Build, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != htmlExt && ext != metaExt {
			return nil
		}
		rel, err := filepath.Rel(paths.Build, path)
		if err != nil {
			return err
		}
		source := filepath.Join(paths.Content, strings.TrimSuffix(rel, ext)+convert.Ext)
		if _, err := os.Stat(source); err == nil {
			return nil
		}
		slog.Debug("removing orphaned artifact", "path", path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove orphaned artifact %s: %w", path, err)
		}
		return nil
	})
}

// RemoveArtifacts deletes the intermediate artifacts of one removed source
// document. Used by the watcher's cleanup action.
func RemoveArtifacts(sourcePath string, paths site.Paths) error {
	rel, err := filepath.Rel(paths.Content, sourcePath)
	if err != nil {
		return fmt.Errorf("source %s is not under content directory: %w", sourcePath, err)
	}
	base := strings.TrimSuffix(rel, convert.Ext)
	for _, ext := range []string{htmlExt, metaExt} {
		p := filepath.Join(paths.Build, base+ext)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove artifact %s: %w", p, err)
		}
	}
	return nil
}

// Permalink derives the absolute URL of a document from its path relative
// to the content directory. Index documents collapse to their parent
// directory's URL; every other document becomes "<slug>/".
func Permalink(rel, rootURL string) string {
	p := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	if p == "index" || strings.HasSuffix(p, "/index") {
		p = strings.TrimSuffix(strings.TrimSuffix(p, "index"), "/")
	}
	root := strings.TrimSuffix(rootURL, "/")
	if p == "" || p == "." {
		return root + "/"
	}
	return root + "/" + p + "/"
}
