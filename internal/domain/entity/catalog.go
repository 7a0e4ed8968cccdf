package entity

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// FilterAll valor de category/brandId que desactiva el filtro.
const FilterAll = "all"

// CatalogFilter estado de búsqueda del catálogo (sólo UI; se persiste localmente).
type CatalogFilter struct {
	Query    string          `json:"query"`
	Category string          `json:"category"`
	BrandID  string          `json:"brandId"`
	MinPrice decimal.Decimal `json:"minPrice"`
	MaxPrice decimal.Decimal `json:"maxPrice"`
}

// DefaultCatalogFilter filtros iniciales.
func DefaultCatalogFilter() CatalogFilter {
	return CatalogFilter{Category: FilterAll, BrandID: FilterAll}
}

var fold = cases.Fold()

// Match indica si el producto cumple el filtro.
func (f CatalogFilter) Match(p Product) bool {
	if q := strings.TrimSpace(f.Query); q != "" {
		needle := fold.String(q)
		if !strings.Contains(fold.String(p.Name), needle) && !strings.Contains(fold.String(p.Description), needle) {
			return false
		}
	}
	if f.Category != "" && f.Category != FilterAll && p.Category != f.Category {
		return false
	}
	if f.BrandID != "" && f.BrandID != FilterAll && p.BrandID != f.BrandID {
		return false
	}
	if f.MinPrice.IsPositive() && p.Price.LessThan(f.MinPrice) {
		return false
	}
	if f.MaxPrice.IsPositive() && p.Price.GreaterThan(f.MaxPrice) {
		return false
	}
	return true
}

// Apply devuelve los productos que cumplen el filtro ordenados por nombre.
func (f CatalogFilter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return fold.String(out[i].Name) < fold.String(out[j].Name)
	})
	return out
}
