package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/lithos/internal/minify"
)

// copyAssets copies theme assets first and site assets second, so a
// site-provided file overwrites a theme-provided file of the same
// relative path. Recognized text types are minified when enabled;
// everything else is copied verbatim.
func (o *Orchestrator) copyAssets(_ context.Context, minifyOut bool) error {
	dest := filepath.Join(o.paths.Public, "assets")
	for _, src := range []string{o.paths.ThemeAssets, o.paths.Assets} {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyAssetTree(src, dest, minifyOut); err != nil {
			return err
		}
	}
	return nil
}

func copyAssetTree(srcDir, destDir string, minifyOut bool) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read asset %s: %w", path, err)
		}
		if minifyOut {
			if mt := minify.TypeForPath(path); mt != "" {
				if content, err = minify.Bytes(mt, content); err != nil {
					return fmt.Errorf("minify asset %s: %w", rel, err)
				}
			}
		}
		return writeOutput(filepath.Join(destDir, rel), content)
	})
}
