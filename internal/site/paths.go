// Package site resolves the fixed directory layout of a lithos site.
package site

import "path/filepath"

// ConfigFileName is the marker file identifying a site root.
const ConfigFileName = "lithos.yaml"

// Paths holds the absolute directories of a site. It is constructed once
// from the root and never mutated afterwards.
type Paths struct {
	Root           string
	Content        string
	Assets         string
	Templates      string
	ThemeAssets    string
	ThemeTemplates string
	Build          string // intermediate artifact cache
	Public         string // final output
}

// ResolvePaths joins the well-known subdirectory names onto root.
func ResolvePaths(root string) Paths {
	return Paths{
		Root:           root,
		Content:        filepath.Join(root, "content"),
		Assets:         filepath.Join(root, "assets"),
		Templates:      filepath.Join(root, "templates"),
		ThemeAssets:    filepath.Join(root, "theme", "assets"),
		ThemeTemplates: filepath.Join(root, "theme", "templates"),
		Build:          filepath.Join(root, ".build"),
		Public:         filepath.Join(root, "public"),
	}
}
