// Package config loads and validates the site configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/lithos/internal/schema"
	"git.home.luguber.info/inful/lithos/internal/site"
)

// RSS configures the optional syndication feed.
type RSS struct {
	Enable      bool   `yaml:"enable"`
	TTL         int    `yaml:"ttl"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

// Site is the deserialized project configuration. Orchestrators own their
// loaded copy; render contexts receive clones because rendering runs
// concurrently.
type Site struct {
	RootURL       string          `yaml:"rootUrl"`
	Language      string          `yaml:"language"`
	Title         string          `yaml:"title"`
	Author        string          `yaml:"author"`
	Minify        bool            `yaml:"minify"`
	ContentSchema *schema.Content `yaml:"content_schema"`
	RSS           *RSS            `yaml:"rss"`
	Extra         map[string]any  `yaml:"extra"`
}

// Load reads the site configuration from root. `.env`/`.env.local` files
// next to the configuration are loaded first so LITHOS_* variables can
// override file values. An unparseable configuration is fatal at startup.
func Load(root string) (*Site, error) {
	loadEnvFiles(root)

	path := filepath.Join(root, site.ConfigFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site configuration %s: %w", path, err)
	}

	var cfg Site
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse site configuration %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid site configuration %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Site) validate() error {
	if c.RootURL == "" {
		return fmt.Errorf("rootUrl is required")
	}
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// Clone returns a deep-enough copy for a concurrent render context.
func (c *Site) Clone() *Site {
	out := *c
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

func loadEnvFiles(root string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			// Existing process environment wins over file values.
			_ = godotenv.Load(path)
		}
	}
}

func applyEnvOverrides(cfg *Site) {
	if v := os.Getenv("LITHOS_ROOT_URL"); v != "" {
		cfg.RootURL = v
	}
	if v := os.Getenv("LITHOS_TITLE"); v != "" {
		cfg.Title = v
	}
	if v := os.Getenv("LITHOS_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("LITHOS_AUTHOR"); v != "" {
		cfg.Author = v
	}
}
