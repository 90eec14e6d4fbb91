package main

import (
	"fmt"
	"os"

	"qahwa/internal/model"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk catalogue layout.
type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

type catalogEntry struct {
	ID            int64   `yaml:"id"`
	NameAR        string  `yaml:"name_ar"`
	DescriptionAR string  `yaml:"description_ar"`
	Price         string  `yaml:"price"`
	Image         string  `yaml:"image"`
	Available     *bool   `yaml:"available"`
	Rating        float64 `yaml:"rating"`
}

// loadCatalog reads and validates a catalogue file.
func loadCatalog(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return parseCatalog(data)
}

// parseCatalog converts catalogue YAML into products. Prices are kept as
// strings in the file so they reach the decimal type without float rounding.
func parseCatalog(data []byte) ([]model.Product, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[int64]bool, len(file.Products))
	products := make([]model.Product, 0, len(file.Products))
	for i, e := range file.Products {
		if e.ID <= 0 {
			return nil, fmt.Errorf("product %d: id must be positive", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("product %d: duplicate id", e.ID)
		}
		seen[e.ID] = true

		if e.NameAR == "" {
			return nil, fmt.Errorf("product %d: name_ar is required", e.ID)
		}

		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d: invalid price %q: %w", e.ID, e.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %d: price cannot be negative", e.ID)
		}

		if e.Rating < 0 || e.Rating > 5 {
			return nil, fmt.Errorf("product %d: rating must be between 0 and 5", e.ID)
		}

		available := true
		if e.Available != nil {
			available = *e.Available
		}

		products = append(products, model.Product{
			ID:            e.ID,
			NameAR:        e.NameAR,
			DescriptionAR: e.DescriptionAR,
			Price:         price.Round(2),
			ImageRef:      e.Image,
			Available:     available,
			Rating:        e.Rating,
		})
	}

	return products, nil
}
