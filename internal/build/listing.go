package build

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/lithos/internal/convert"
	"git.home.luguber.info/inful/lithos/internal/meta"
	"git.home.luguber.info/inful/lithos/internal/site"
	"git.home.luguber.info/inful/lithos/internal/util/sets"
)

// postsDir is the collection subtree aggregated into the listing.
const postsDir = "posts"

// CollectListing gathers metadata for every document of the posts
// collection, attaches the rendered HTML under "raw" and the permalink,
// and returns the records sorted by date descending. Documents without a
// parseable date sort last. Drafts are excluded unless includeDrafts.
func CollectListing(paths site.Paths, rootURL string, includeDrafts bool) ([]meta.Map, error) {
	collection := filepath.Join(paths.Content, postsDir)
	if _, err := os.Stat(collection); os.IsNotExist(err) {
		return nil, nil
	}

	var listing []meta.Map
	err := filepath.WalkDir(collection, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, convert.Ext) {
			return nil
		}
		rel, err := filepath.Rel(paths.Content, path)
		if err != nil {
			return err
		}
		// The collection's own index page is a listing, not a member.
		if filepath.ToSlash(rel) == postsDir+"/index"+convert.Ext {
			return nil
		}

		record, err := LoadRecord(path, rel, rootURL)
		if err != nil {
			slog.Error("skipping unreadable post", "path", path, "error", err)
			return nil
		}
		if record.Draft() && !includeDrafts {
			return nil
		}
		listing = append(listing, record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk posts collection: %w", err)
	}

	sort.SliceStable(listing, func(i, j int) bool {
		return listing[i].Date().After(listing[j].Date())
	})
	return listing, nil
}

// LoadRecord converts one source document and returns its metadata map
// augmented with the rendered HTML ("raw") and computed permalink.
func LoadRecord(path, rel, rootURL string) (meta.Map, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	metadata, body, err := convert.ExtractMeta(src)
	if err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}
	html, toc, err := convert.Convert(body, rootURL)
	if err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	metadata["raw"] = string(html)
	metadata["toc"] = convert.TOCValue(toc)
	metadata["permalink"] = Permalink(rel, rootURL)
	return metadata, nil
}

// CollectCategories returns the lower-cased, de-duplicated union of every
// record's categories.
func CollectCategories(listing []meta.Map) sets.Set[string] {
	categories := sets.New[string]()
	for _, record := range listing {
		for _, c := range record.Strings("categories") {
			categories.Add(strings.ToLower(c))
		}
	}
	return categories
}

// FilterByCategory returns the records carrying the given category.
func FilterByCategory(listing []meta.Map, category string) []meta.Map {
	var out []meta.Map
	for _, record := range listing {
		for _, c := range record.Strings("categories") {
			if strings.EqualFold(c, category) {
				out = append(out, record)
				break
			}
		}
	}
	return out
}
