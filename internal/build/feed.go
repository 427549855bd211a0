package build

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/lithos/internal/util/sets"
)

const feedTemplate = "rss.xml"

// generateFeed renders the syndication template from the listing and
// verifies the result is well-formed XML before writing it. The stage is
// a no-op unless the configuration enables the feed.
func (o *Orchestrator) generateFeed(context.Context) error {
	if o.cfg.RSS == nil || !o.cfg.RSS.Enable {
		return nil
	}
	if !o.engine.Has(feedTemplate) {
		return fmt.Errorf("feed enabled but template %q not found", feedTemplate)
	}

	body, err := o.engine.Render(feedTemplate, map[string]any{
		"Config":     o.cfg.Clone(),
		"Posts":      o.listing,
		"Categories": sets.SortedStrings(CollectCategories(o.listing)),
	})
	if err != nil {
		return err
	}
	if err := checkWellFormedXML(body); err != nil {
		return fmt.Errorf("generated feed is not well-formed: %w", err)
	}
	return writeOutput(filepath.Join(o.paths.Public, "rss.xml"), []byte(body))
}

func checkWellFormedXML(doc string) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		if _, err := dec.Token(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
