package thresholds

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
)

// File is the on-disk layout of the threshold file
type File struct {
	Default    *int64           `yaml:"default"`
	Warehouses map[string]int64 `yaml:"warehouses"`
	Products   []ProductRule    `yaml:"products"`
}

// ProductRule sets the minimum for a product. An empty WarehouseID applies to
// every warehouse; an empty VariantID applies to every variant.
type ProductRule struct {
	WarehouseID string `yaml:"warehouseId"`
	ProductID   string `yaml:"productId"`
	VariantID   string `yaml:"variantId"`
	Min         int64  `yaml:"min"`
}

// Provider resolves the minimum available quantity of a balance row. The most
// specific product rule wins, then the warehouse default, then the global default.
type Provider struct {
	def        *int64
	warehouses map[string]int64
	rules      map[ruleKey]int64
}

type ruleKey struct {
	warehouseID string
	productID   string
	variantID   string
}

// Load reads the threshold file at path. A missing file yields a provider
// without thresholds, so no low-stock alert fires.
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Provider{}, nil
		}
		return nil, fmt.Errorf("failed to read thresholds file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a threshold document
func LoadFromBytes(data []byte) (*Provider, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file: %w", err)
	}
	return New(f)
}

// New validates f and builds a Provider from it
func New(f File) (*Provider, error) {
	if f.Default != nil && *f.Default < 0 {
		return nil, fmt.Errorf("default threshold cannot be negative: %d", *f.Default)
	}

	p := &Provider{
		def:        f.Default,
		warehouses: make(map[string]int64, len(f.Warehouses)),
		rules:      make(map[ruleKey]int64, len(f.Products)),
	}
	for id, min := range f.Warehouses {
		if min < 0 {
			return nil, fmt.Errorf("threshold for warehouse %s cannot be negative: %d", id, min)
		}
		p.warehouses[id] = min
	}
	for i, r := range f.Products {
		if r.ProductID == "" {
			return nil, fmt.Errorf("product rule %d has no productId", i)
		}
		if r.Min < 0 {
			return nil, fmt.Errorf("threshold for product %s cannot be negative: %d", r.ProductID, r.Min)
		}
		k := ruleKey{warehouseID: r.WarehouseID, productID: r.ProductID, variantID: r.VariantID}
		if _, dup := p.rules[k]; dup {
			return nil, fmt.Errorf("product rule %d duplicates an earlier rule for %s", i, r.ProductID)
		}
		p.rules[k] = r.Min
	}
	return p, nil
}

// MinThreshold implements application.ThresholdProvider
func (p *Provider) MinThreshold(key domain.StockKey) (int64, bool) {
	candidates := []ruleKey{
		{key.WarehouseID, key.ProductID, key.VariantID},
		{key.WarehouseID, key.ProductID, ""},
		{"", key.ProductID, key.VariantID},
		{"", key.ProductID, ""},
	}
	for _, c := range candidates {
		if min, ok := p.rules[c]; ok {
			return min, true
		}
	}
	if min, ok := p.warehouses[key.WarehouseID]; ok {
		return min, true
	}
	if p.def != nil {
		return *p.def, true
	}
	return 0, false
}
