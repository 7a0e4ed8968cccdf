package dto

import "github.com/shopspring/decimal"

// ProductInput entrada para crear o editar un producto.
// MinStock nil deriva el mínimo del stock; Category es el nombre (se crea si no existe).
type ProductInput struct {
	ID            string
	Name          string
	Description   string
	Category      string
	BrandID       string
	LineID        string
	Price         decimal.Decimal
	Image         string
	StockQuantity int
	MinStock      *int
}

// LineInput entrada para crear o editar una línea de productos.
type LineInput struct {
	ID          string
	Name        string
	BrandID     string
	Description string
}
