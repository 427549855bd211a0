// Package templates implements the template engine collaborator: named
// layouts rendered against a context map, with whole-instance reload.
//
// Hot-patching a parsed template set in place proved unreliable, so Load
// always returns a fresh Engine and callers swap it atomically through a
// Shared holder.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed defaults/*.html
var defaultFS embed.FS

var funcs = map[string]any{
	"now": func(layout string) string { return time.Now().Format(layout) },
	"dateFormat": func(layout, value string) string {
		for _, l := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(l, value); err == nil {
				return t.Format(layout)
			}
		}
		return value
	},
	"lower": strings.ToLower,
	"title": cases.Title(language.Und).String,
}

// Engine is an immutable set of parsed templates. HTML layouts use
// html/template; feed templates (*.xml) use text/template so XML content
// is not HTML-escaped.
type Engine struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// Load parses theme templates first and site templates second, so a site
// template of the same name overrides the theme's. A missing theme
// directory is fine; a missing site templates directory leaves only the
// embedded defaults.
func Load(templatesDir, themeTemplatesDir string) (*Engine, error) {
	e := &Engine{
		html: htmltemplate.New("").Funcs(funcs),
		text: texttemplate.New("").Funcs(funcs),
	}

	if err := e.parseDefaults(); err != nil {
		return nil, err
	}
	for _, dir := range []string{themeTemplatesDir, templatesDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := e.parseDir(dir); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Render executes the named template against ctx.
func (e *Engine) Render(name string, ctx any) (string, error) {
	var buf bytes.Buffer
	if strings.HasSuffix(name, ".xml") {
		t := e.text.Lookup(name)
		if t == nil {
			return "", fmt.Errorf("template %q not found", name)
		}
		if err := t.Execute(&buf, ctx); err != nil {
			return "", fmt.Errorf("render template %q: %w", name, err)
		}
		return buf.String(), nil
	}
	t := e.html.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return buf.String(), nil
}

// Has reports whether a template with the given name is loaded.
func (e *Engine) Has(name string) bool {
	if strings.HasSuffix(name, ".xml") {
		return e.text.Lookup(name) != nil
	}
	return e.html.Lookup(name) != nil
}

func (e *Engine) parseDefaults() error {
	return fs.WalkDir(defaultFS, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := defaultFS.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		_, err = e.html.New(name).Parse(string(raw))
		return err
	})
}

func (e *Engine) parseDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".html" && ext != ".xml" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}
		// Parsing a name that already exists replaces it; that is what
		// gives site templates priority over theme templates.
		if ext == ".xml" {
			_, err = e.text.New(name).Parse(string(raw))
		} else {
			_, err = e.html.New(name).Parse(string(raw))
		}
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		return nil
	})
}
