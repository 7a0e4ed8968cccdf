package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

// MinStockRatio proporción del stock usada como mínimo cuando no se indica uno explícito.
const MinStockRatio = 0.3

// DefaultCategory categoría asignada a productos sin categoría.
const DefaultCategory = "general"

// Product representa un producto del catálogo.
// Category guarda el nombre de la categoría; CategoryID es opcional (lo devuelve el backend REST).
type Product struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"userId,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	CategoryID    string          `json:"categoryId,omitempty"`
	BrandID       string          `json:"brandId"`
	LineID        string          `json:"lineId,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image"`
	StockQuantity int             `json:"stockQuantity"`
	MinStock      int             `json:"minStock"`
}

// DefaultMinStock calcula floor(0.3 * stock); nunca negativo.
func DefaultMinStock(stock int) int {
	if stock <= 0 {
		return 0
	}
	return int(math.Floor(float64(stock) * MinStockRatio))
}

// IsLowStock indica si el stock está en o por debajo del mínimo.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStock
}
