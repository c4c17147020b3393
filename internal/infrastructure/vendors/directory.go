// Package vendors holds the hand-curated shopping links shown next to
// detected furniture.
package vendors

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/decorlens/backend/internal/domain"
)

//go:embed directory.yaml
var builtin []byte

// Directory maps a furniture category to its vendor links. It is read-only
// after construction.
type Directory struct {
	links map[string][]domain.VendorLink
}

// Load returns the directory from path, or the built-in one when path is empty
func Load(path string) (*Directory, error) {
	data := builtin
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read vendor directory: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes a YAML document of category -> links
func Parse(data []byte) (*Directory, error) {
	links := make(map[string][]domain.VendorLink)
	if err := yaml.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("decode vendor directory: %w", err)
	}
	return &Directory{links: links}, nil
}

// Links returns a copy of the links for category, empty if unknown
func (d *Directory) Links(category string) []domain.VendorLink {
	links := d.links[category]
	out := make([]domain.VendorLink, len(links))
	copy(out, links)
	return out
}

// Categories returns the categories with links in sorted order
func (d *Directory) Categories() []string {
	categories := make([]string, 0, len(d.links))
	for category := range d.links {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
