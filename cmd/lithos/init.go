package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/lithos/internal/site"
)

const initConfig = `rootUrl: http://localhost:3030
title: %s
language: en
author: ""
`

const initIndex = `---
title: Home
layout: default
---
# Welcome

This site was scaffolded by lithos. Edit content/index.md to get going.
`

const initPostsIndex = `---
title: Posts
layout: default
---
# Posts
`

const initLayout = `<!DOCTYPE html>
<html lang="{{ .Config.Language }}">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Metadata.title }} — {{ .Config.Title }}</title>
  <link rel="stylesheet" href="/assets/style.css">
</head>
<body>
  <main>
    {{ .Content }}
  </main>
</body>
</html>
`

const initStylesheet = `body {
  max-width: 48rem;
  margin: 0 auto;
  padding: 1rem;
  font-family: sans-serif;
}
`

// runInit scaffolds a fresh site skeleton in a new directory.
func runInit(name string) error {
	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("refusing to scaffold into existing path %s", name)
	}

	files := map[string]string{
		site.ConfigFileName:                           fmt.Sprintf(initConfig, filepath.Base(name)),
		filepath.Join("content", "index.md"):          initIndex,
		filepath.Join("content", "posts", "index.md"): initPostsIndex,
		filepath.Join("templates", "default.html"):    initLayout,
		filepath.Join("assets", "style.css"):          initStylesheet,
	}
	for rel, content := range files {
		full := filepath.Join(name, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return err
		}
	}

	slog.Info("site scaffolded", "dir", name)
	fmt.Printf("Created %s. Next:\n\n  cd %s\n  lithos dev\n\n", name, name)
	return nil
}
