package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	data := []byte(`
products:
  - id: 7
    name_ar: بن يمني
    description_ar: تحميص متوسط
    price: "85.10"
    image: products/yemeni.png
    rating: 4.5
  - id: 8
    name_ar: هيل
    price: "12"
    available: false
`)

	products, err := parseCatalog(data)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, int64(7), products[0].ID)
	assert.Equal(t, "بن يمني", products[0].NameAR)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("85.10")))
	assert.Equal(t, "products/yemeni.png", products[0].ImageRef)
	assert.True(t, products[0].Available)
	assert.Equal(t, 4.5, products[0].Rating)

	assert.False(t, products[1].Available)
	assert.True(t, products[1].Price.Equal(decimal.NewFromInt(12)))
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "Malformed yaml", data: "products: [", wantErr: "failed to parse catalog"},
		{name: "Missing id", data: "products:\n  - name_ar: x\n    price: \"1\"\n", wantErr: "id must be positive"},
		{name: "Duplicate id", data: "products:\n  - id: 1\n    name_ar: x\n    price: \"1\"\n  - id: 1\n    name_ar: y\n    price: \"2\"\n", wantErr: "duplicate id"},
		{name: "Missing name", data: "products:\n  - id: 1\n    price: \"1\"\n", wantErr: "name_ar is required"},
		{name: "Bad price", data: "products:\n  - id: 1\n    name_ar: x\n    price: abc\n", wantErr: "invalid price"},
		{name: "Negative price", data: "products:\n  - id: 1\n    name_ar: x\n    price: \"-1\"\n", wantErr: "price cannot be negative"},
		{name: "Rating out of range", data: "products:\n  - id: 1\n    name_ar: x\n    price: \"1\"\n    rating: 6\n", wantErr: "rating must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalog([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	products, err := loadCatalog("catalog.yaml")
	require.NoError(t, err)
	assert.Len(t, products, 4)
	assert.False(t, products[3].Available)

	_, err = loadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
