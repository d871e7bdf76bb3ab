package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"dailyregister/internal/core"
)

//go:embed seed.yaml
var seedYAML []byte

type seedEntry struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Material string `yaml:"material"`
}

// SeedDefaults inserts the default item codes into an empty catalog. A
// catalog with any codes at all is left alone, so operator deletions of
// the defaults stick.
func (c *Catalog) SeedDefaults(ctx context.Context) error {
	n, err := c.repo.CountCodes(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if n > 0 {
		return nil
	}

	var seeds []seedEntry
	if err := yaml.Unmarshal(seedYAML, &seeds); err != nil {
		return fmt.Errorf("parse seed catalog: %w", err)
	}

	for _, s := range seeds {
		material, err := core.ParseMaterial(s.Material)
		if err != nil {
			return fmt.Errorf("seed catalog entry %s: %w", s.Code, err)
		}
		if err := c.Upsert(ctx, core.CatalogEntry{Code: s.Code, Name: s.Name, Material: material}); err != nil {
			return fmt.Errorf("seed catalog entry %s: %w", s.Code, err)
		}
	}

	slog.InfoContext(ctx, "Catalog seeded with defaults", "codes", len(seeds))
	return nil
}
