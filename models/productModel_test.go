package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, price string, stock int) *Product {
	t.Helper()
	p, err := NewProduct(nil, ProductInput{
		Title:    "Widget",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "tools",
	})
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	seller := uuid.New()
	p, err := NewProduct(&seller, ProductInput{
		Title:    "  Widget  ",
		Price:    decimal.RequireFromString("10.005"),
		Stock:    3,
		Category: " tools ",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Widget", p.Title)
	assert.Equal(t, "tools", p.CategoryName())
	assert.True(t, p.IsActive)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("10.01")))
	assert.Equal(t, &seller, p.SellerID)
	assert.Empty(t, p.MainImageURL())
}

func TestNewProductRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input ProductInput
		field string
	}{
		{"missing title", ProductInput{Price: decimal.NewFromInt(1)}, "title"},
		{"negative stock", ProductInput{Title: "x", Stock: -1}, "stock"},
		{"negative price", ProductInput{Title: "x", Price: decimal.NewFromInt(-1)}, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(nil, tt.input)
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var de *DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestProductStock(t *testing.T) {
	p := newTestProduct(t, "10.00", 3)
	assert.True(t, p.IsAvailable())
	assert.True(t, p.HasStock(3))
	assert.False(t, p.HasStock(4))

	require.NoError(t, p.DecreaseStock(2))
	assert.Equal(t, 1, p.Stock)

	err := p.DecreaseStock(2)
	require.Error(t, err)
	assert.True(t, IsInsufficientStock(err))
	assert.Equal(t, 1, p.Stock, "failed decrease must not change stock")

	require.NoError(t, p.DecreaseStock(1))
	assert.Equal(t, 0, p.Stock)
	assert.False(t, p.IsAvailable())

	require.NoError(t, p.IncreaseStock(5))
	assert.Equal(t, 5, p.Stock)

	assert.True(t, IsValidation(p.IncreaseStock(-7)))
	assert.True(t, IsValidation(p.IncreaseStock(0)))
	assert.Equal(t, 5, p.Stock, "rejected increase must not change stock")
	assert.True(t, p.IsAvailable())

	err = p.DecreaseStock(0)
	assert.True(t, IsValidation(err))
}

func TestProductInactiveIsUnavailable(t *testing.T) {
	p := newTestProduct(t, "1.00", 10)
	p.SetActive(false)
	assert.False(t, p.IsAvailable())
}

func TestProductImages(t *testing.T) {
	p := newTestProduct(t, "1.00", 1)
	p.AddImageURL("https://cdn.example.com/a.png")
	p.AddImageURL("https://cdn.example.com/b.png")
	assert.Equal(t, "https://cdn.example.com/a.png", p.MainImageURL())
	assert.Len(t, p.ImageURLs, 2)
}

func TestProductUpdateClearsCategory(t *testing.T) {
	p := newTestProduct(t, "1.00", 1)
	require.NoError(t, p.Update(ProductInput{Title: "Renamed", Price: decimal.NewFromInt(2), Stock: 4}))
	assert.Equal(t, "Renamed", p.Title)
	assert.Nil(t, p.Category)
	assert.Equal(t, 4, p.Stock)
}
