package build

import (
	"context"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/lithos/internal/config"
	"git.home.luguber.info/inful/lithos/internal/convert"
	"git.home.luguber.info/inful/lithos/internal/meta"
	"git.home.luguber.info/inful/lithos/internal/metrics"
	"git.home.luguber.info/inful/lithos/internal/minify"
	"git.home.luguber.info/inful/lithos/internal/schema"
	"git.home.luguber.info/inful/lithos/internal/site"
	"git.home.luguber.info/inful/lithos/internal/templates"
	"git.home.luguber.info/inful/lithos/internal/util/sets"
)

// Options tune a one-shot production build.
type Options struct {
	Minify   bool
	Recorder metrics.Recorder
}

// Orchestrator runs the linear production build:
// PrepareOutput → ConvertAll → CollectListing → RenderAll →
// GenerateListingPages → CopyAssets → [GenerateFeed].
type Orchestrator struct {
	paths    site.Paths
	cfg      *config.Site
	opts     Options
	engine   *templates.Engine
	recorder metrics.Recorder
	listing  []meta.Map
}

// New prepares an orchestrator for the site rooted at paths.Root.
func New(paths site.Paths, cfg *config.Site, opts Options) (*Orchestrator, error) {
	engine, err := templates.Load(paths.Templates, paths.ThemeTemplates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Orchestrator{paths: paths, cfg: cfg, opts: opts, engine: engine, recorder: rec}, nil
}

// Run executes the whole build. Stage I/O errors are fatal; schema
// violations are collected across all documents and reported together.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()
	minifyOut := o.opts.Minify || o.cfg.Minify

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"prepare_output", o.prepareOutput},
		{"convert_all", o.convertAll},
		{"collect_listing", o.collectListing},
		{"render_all", func(ctx context.Context) error { return o.renderAll(ctx, minifyOut) }},
		{"listing_pages", o.generateListingPages},
		{"copy_assets", func(ctx context.Context) error { return o.copyAssets(ctx, minifyOut) }},
		{"feed", o.generateFeed},
	}
	for _, stage := range stages {
		stageStart := time.Now()
		if err := stage.fn(ctx); err != nil {
			o.recorder.IncStageResult(stage.name, metrics.ResultFatal)
			o.recorder.IncBuildOutcome("failed")
			return fmt.Errorf("%s: %w", stage.name, err)
		}
		o.recorder.ObserveStageDuration(stage.name, time.Since(stageStart))
		o.recorder.IncStageResult(stage.name, metrics.ResultSuccess)
	}

	o.recorder.ObserveBuildDuration(time.Since(start))
	o.recorder.IncBuildOutcome("success")
	slog.Info("site build finished", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// prepareOutput deletes and recreates the output directory. Production
// builds are not incremental from the output's perspective, only from the
// intermediate cache's.
func (o *Orchestrator) prepareOutput(context.Context) error {
	if err := os.RemoveAll(o.paths.Public); err != nil {
		return fmt.Errorf("clear output directory: %w", err)
	}
	if err := os.MkdirAll(o.paths.Public, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

func (o *Orchestrator) convertAll(context.Context) error {
	if err := ConvertTree(o.paths, false, o.cfg.RootURL); err != nil {
		return err
	}
	return CleanupOrphans(o.paths)
}

func (o *Orchestrator) collectListing(context.Context) error {
	listing, err := CollectListing(o.paths, o.cfg.RootURL, false)
	if err != nil {
		return err
	}
	o.listing = listing
	return nil
}

// renderAll renders every intermediate artifact through the template
// engine on a bounded worker pool. Schema violations never fail a single
// worker; they are collected and fail the build afterwards.
func (o *Orchestrator) renderAll(ctx context.Context, minifyOut bool) error {
	// A site whose documents are all drafts never produces a cache.
	if _, err := os.Stat(o.paths.Build); os.IsNotExist(err) {
		return nil
	}
	var artifacts []string
	err := filepath.WalkDir(o.paths.Build, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == htmlExt {
			artifacts = append(artifacts, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk intermediate cache: %w", err)
	}

	var (
		mu         sync.Mutex
		violations []string
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, artifact := range artifacts {
		artifact := artifact
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := o.renderOne(artifact, minifyOut)
			if err != nil {
				return err
			}
			if report != "" {
				mu.Lock()
				violations = append(violations, report)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("schema validation failed:\n%s", strings.Join(violations, ""))
	}
	return nil
}

// renderOne renders a single intermediate artifact to its output path.
// The returned string is a non-empty violation report when the document's
// metadata fails schema validation.
func (o *Orchestrator) renderOne(artifact string, minifyOut bool) (string, error) {
	rel, err := filepath.Rel(o.paths.Build, artifact)
	if err != nil {
		return "", err
	}

	html, err := os.ReadFile(artifact)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	metadata, err := ReadArtifactMeta(strings.TrimSuffix(artifact, htmlExt) + metaExt)
	if err != nil {
		return "", err
	}

	// Drafts never reach production output; intermediate artifacts from a
	// previous drafts-enabled dev session may still be cached.
	if metadata.Draft() {
		return "", nil
	}

	docPath := filepath.ToSlash(strings.TrimSuffix(rel, htmlExt))
	if report := o.validate(docPath, metadata); report != "" {
		return report, nil
	}

	rendered, err := o.engine.Render(metadata.Layout()+".html", RenderContext(o.cfg, metadata, html, o.listing))
	if err != nil {
		// Render failures exclude the document, not the build.
		slog.Error("render failed, document excluded from output", "doc", docPath, "error", err)
		return "", nil
	}

	out := convert.RewriteRootRelative([]byte(rendered), o.cfg.RootURL)
	if minifyOut {
		if out, err = minify.HTML(out); err != nil {
			return "", fmt.Errorf("minify %s: %w", rel, err)
		}
	}
	return "", writeOutput(o.outputPath(rel), out)
}

// outputPath maps an intermediate artifact's relative path to its
// SEO-friendly output path: non-index documents become <name>/index.html,
// index documents keep their parent's path.
func (o *Orchestrator) outputPath(rel string) string {
	stem := strings.TrimSuffix(filepath.Base(rel), htmlExt)
	if stem == "index" {
		return filepath.Join(o.paths.Public, rel)
	}
	return filepath.Join(o.paths.Public, filepath.Dir(rel), stem, "index.html")
}

func (o *Orchestrator) validate(docPath string, metadata meta.Map) string {
	if o.cfg.ContentSchema == nil {
		return ""
	}
	merged := schema.MergeHierarchy(o.cfg.ContentSchema.ResolvePath(docPath))
	if vs := schema.Validate(metadata, merged); len(vs) > 0 {
		return schema.FormatViolations(docPath, vs)
	}
	return ""
}

// generateListingPages emits the category index plus one page per
// category under the reserved categories/ output prefix.
func (o *Orchestrator) generateListingPages(context.Context) error {
	listing := o.listing
	if len(listing) == 0 {
		return nil
	}

	categories := CollectCategories(listing)
	categoriesDir := filepath.Join(o.paths.Public, "categories")

	body, err := o.engine.Render("categories.html", map[string]any{
		"Config":     o.cfg.Clone(),
		"Posts":      listing,
		"Categories": sets.SortedStrings(categories),
	})
	if err != nil {
		return err
	}
	if err := writeOutput(filepath.Join(categoriesDir, "index.html"), convert.RewriteRootRelative([]byte(body), o.cfg.RootURL)); err != nil {
		return err
	}

	for _, category := range sets.SortedStrings(categories) {
		body, err := o.engine.Render("category.html", map[string]any{
			"Config":   o.cfg.Clone(),
			"Category": category,
			"Posts":    FilterByCategory(listing, category),
		})
		if err != nil {
			return err
		}
		out := filepath.Join(categoriesDir, category, "index.html")
		if err := writeOutput(out, convert.RewriteRootRelative([]byte(body), o.cfg.RootURL)); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

// ReadArtifactMeta loads a metadata artifact, falling back to empty
// metadata when the file is missing or unparseable.
func ReadArtifactMeta(path string) (meta.Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("metadata artifact missing, using empty metadata", "path", path)
			return meta.Map{}, nil
		}
		return nil, fmt.Errorf("read metadata artifact: %w", err)
	}
	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		slog.Error("metadata artifact unparseable, using empty metadata", "path", path, "error", err)
		return meta.Map{}, nil
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return meta.Map(fields), nil
}

// RenderContext assembles the context map handed to layout templates.
func RenderContext(cfg *config.Site, metadata meta.Map, content []byte, listing []meta.Map) map[string]any {
	return map[string]any{
		"Config":   cfg.Clone(),
		"Metadata": metadata.Clone(),
		"Content":  htmltemplate.HTML(content),
		"Posts":    listing,
	}
}
