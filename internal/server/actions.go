package server

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/lithos/internal/build"
	"git.home.luguber.info/inful/lithos/internal/convert"
	"git.home.luguber.info/inful/lithos/internal/schema"
	"git.home.luguber.info/inful/lithos/internal/templates"
	"git.home.luguber.info/inful/lithos/internal/watch"
)

// Apply executes one debounced action batch. Failures are logged, never
// fatal: the server keeps serving the last good state. A pulse goes out
// only when something user-visible changed.
func (s *State) Apply(batch watch.Actions) {
	changed := batch.ReloadAssets

	if batch.ReloadTemplates {
		engine, err := templates.Load(s.paths.Templates, s.paths.ThemeTemplates)
		if err != nil {
			slog.Error("template reload failed, keeping previous engine", "error", err)
		} else {
			s.engine.Replace(engine)
			slog.Info("templates reloaded")
			changed = true
		}
	}

	for _, src := range batch.Rebuild {
		if err := build.ConvertOne(src, s.paths, s.drafts, s.cfg.RootURL); err != nil {
			slog.Error("document rebuild failed", "path", src, "error", err)
			continue
		}
		s.reportViolations(src)
		changed = true
	}

	for _, src := range batch.Cleanup {
		if err := build.RemoveArtifacts(src, s.paths); err != nil {
			slog.Warn("artifact cleanup failed", "path", src, "error", err)
			continue
		}
		slog.Info("document removed", "path", src)
		changed = true
	}

	if len(batch.Rebuild) > 0 || len(batch.Cleanup) > 0 {
		if err := s.RefreshListing(); err != nil {
			slog.Error("listing refresh failed", "error", err)
		}
	}

	if changed {
		s.hub.Pulse()
	}
}

// reportViolations runs schema validation for one rebuilt document. In
// dev mode violations are warnings; the page still serves.
func (s *State) reportViolations(src string) {
	if s.cfg.ContentSchema == nil {
		return
	}
	rel, err := filepath.Rel(s.paths.Content, src)
	if err != nil {
		return
	}
	docPath := filepath.ToSlash(strings.TrimSuffix(rel, convert.Ext))

	metaPath := filepath.Join(s.paths.Build, filepath.FromSlash(docPath)+".meta")
	if _, err := os.Stat(metaPath); err != nil {
		// Draft short-circuited before writing artifacts; nothing to check.
		return
	}
	metadata, err := build.ReadArtifactMeta(metaPath)
	if err != nil {
		slog.Warn("schema validation skipped", "doc", docPath, "error", err)
		return
	}
	merged := schema.MergeHierarchy(s.cfg.ContentSchema.ResolvePath(docPath))
	if vs := schema.Validate(metadata, merged); len(vs) > 0 {
		slog.Warn("schema violations", "doc", docPath, "report", strings.TrimSpace(schema.FormatViolations(docPath, vs)))
	}
}
