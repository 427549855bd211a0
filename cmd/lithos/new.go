package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/lithos/internal/convert"
	"git.home.luguber.info/inful/lithos/internal/site"
)

const newDocument = `---
title: %s
description: ""
categories: []
date: %s
draft: true
---

# %s
`

// runNew scaffolds a file inside an existing site. The extension picks
// the kind: markdown documents go under content/, js and css stubs under
// assets/js/ and assets/css/. A missing extension means a document.
func runNew(name string, open bool) error {
	root, err := site.FindRoot()
	if err != nil {
		return err
	}
	paths := site.ResolvePaths(root)

	rel := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if filepath.IsAbs(name) || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return fmt.Errorf("invalid target path %q", name)
	}

	var target string
	switch ext := filepath.Ext(rel); ext {
	case "", convert.Ext:
		if ext == "" {
			rel += convert.Ext
		}
		target = filepath.Join(paths.Content, filepath.FromSlash(rel))
		err = scaffoldDocument(target, rel)
	case ".js", ".css":
		target = filepath.Join(paths.Assets, ext[1:], filepath.FromSlash(rel))
		err = scaffoldStub(target)
	default:
		err = fmt.Errorf("unsupported kind %q: expected %s, .js or .css", ext, convert.Ext)
	}
	if err != nil {
		return err
	}

	slog.Info("scaffolded", "path", target)
	if open {
		openBrowser(target)
	}
	return nil
}

func scaffoldDocument(target, rel string) error {
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("refusing to overwrite existing document %s", target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	title := documentTitle(rel)
	doc := fmt.Sprintf(newDocument, title, time.Now().Format(time.RFC3339), title)
	return os.WriteFile(target, []byte(doc), 0o644)
}

func scaffoldStub(target string) error {
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("refusing to overwrite existing asset %s", target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, nil, 0o644)
}

// documentTitle derives a human-readable title from the document's path
// under content/: dashes and underscores become spaces, nested directories
// join with " | ", and an index document takes its parent's name.
func documentTitle(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), convert.Ext)
	parts := strings.Split(rel, "/")
	if len(parts) > 1 && parts[len(parts)-1] == "index" {
		parts = parts[:len(parts)-1]
	}
	cleaner := strings.NewReplacer("-", " ", "_", " ")
	for i, part := range parts {
		parts[i] = cleaner.Replace(part)
	}
	return strings.Join(parts, " | ")
}
