package thresholds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
)

const sample = `
default: 5
warehouses:
  wh-north: 8
products:
  - productId: sku-1
    min: 20
  - productId: sku-1
    variantId: red
    min: 30
  - warehouseId: wh-north
    productId: sku-1
    min: 50
`

func TestMinThresholdResolution(t *testing.T) {
	p, err := LoadFromBytes([]byte(sample))
	require.NoError(t, err)

	tests := []struct {
		name string
		key  domain.StockKey
		want int64
	}{
		{"warehouse product rule beats variant rule", domain.StockKey{WarehouseID: "wh-north", ProductID: "sku-1", VariantID: "red"}, 50},
		{"variant rule in any warehouse", domain.StockKey{WarehouseID: "wh-south", ProductID: "sku-1", VariantID: "red"}, 30},
		{"product rule in any warehouse", domain.StockKey{WarehouseID: "wh-south", ProductID: "sku-1"}, 20},
		{"warehouse default", domain.StockKey{WarehouseID: "wh-north", ProductID: "sku-2"}, 8},
		{"global default", domain.StockKey{WarehouseID: "wh-south", ProductID: "sku-2"}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.MinThreshold(tt.key)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinThresholdWithoutDefault(t *testing.T) {
	p, err := LoadFromBytes([]byte("products:\n  - productId: sku-1\n    min: 3\n"))
	require.NoError(t, err)

	_, ok := p.MinThreshold(domain.StockKey{WarehouseID: "wh-1", ProductID: "sku-2"})
	assert.False(t, ok)
}

func TestLoadMissingFileHasNoThresholds(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	_, ok := p.MinThreshold(domain.StockKey{WarehouseID: "wh-1", ProductID: "sku-1"})
	assert.False(t, ok)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	got, ok := p.MinThreshold(domain.StockKey{WarehouseID: "any", ProductID: "sku-9"})
	assert.True(t, ok)
	assert.EqualValues(t, 5, got)
}

func TestLoadRejectsBadRules(t *testing.T) {
	bad := map[string]string{
		"negative default":  "default: -1\n",
		"negative product":  "products:\n  - productId: sku-1\n    min: -2\n",
		"missing product":   "products:\n  - min: 2\n",
		"duplicate rule":    "products:\n  - productId: sku-1\n    min: 1\n  - productId: sku-1\n    min: 2\n",
		"negative location": "warehouses:\n  wh-1: -4\n",
		"not yaml":          "products: [",
	}
	for name, doc := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}
