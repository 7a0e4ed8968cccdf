package state_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

func TestReduce_DeleteBrandReferenciadaEsNoOp(t *testing.T) {
	s := state.Initial()
	s = state.Reduce(s, state.SetBrands{Items: []entity.Brand{{ID: "b1", Name: "Nike"}, {ID: "b2", Name: "Puma"}}})
	s = state.Reduce(s, state.SetProducts{Items: []entity.Product{{ID: "p1", Name: "Air", BrandID: "b1"}}})

	after := state.Reduce(s, state.DeleteBrand{ID: "b1"})
	assert.Len(t, after.Brands, 2, "marca en uso no se elimina")

	after = state.Reduce(s, state.DeleteBrand{ID: "b2"})
	require.Len(t, after.Brands, 1)
	assert.Equal(t, "b1", after.Brands[0].ID)
}

func TestReduce_SetConNilDejaSliceVacio(t *testing.T) {
	s := state.Reduce(state.Initial(), state.SetProducts{Items: []entity.Product{{ID: "p1"}}})

	s = state.Reduce(s, state.SetProducts{Items: nil})
	s = state.Reduce(s, state.SetBrands{Items: nil})
	s = state.Reduce(s, state.SetCategories{Items: nil})
	s = state.Reduce(s, state.SetLines{Items: nil})

	assert.NotNil(t, s.Products)
	assert.Empty(t, s.Products)
	assert.NotNil(t, s.Brands)
	assert.NotNil(t, s.Categories)
	assert.NotNil(t, s.Lines)
}

func TestReduce_UpsertProduct(t *testing.T) {
	s := state.Reduce(state.Initial(), state.UpsertProduct{Product: entity.Product{Name: "Air", OwnerID: "u1", StockQuantity: 10}})
	require.Len(t, s.Products, 1)
	id := s.Products[0].ID
	assert.True(t, strings.HasPrefix(id, "prd_"))

	s = state.Reduce(s, state.UpsertProduct{Product: entity.Product{ID: id, Name: "Air Max", StockQuantity: 4}})
	require.Len(t, s.Products, 1)
	assert.Equal(t, "Air Max", s.Products[0].Name)
	assert.Equal(t, 4, s.Products[0].StockQuantity)
	assert.Equal(t, "u1", s.Products[0].OwnerID)

	s = state.Reduce(s, state.DeleteProduct{ID: id})
	assert.Empty(t, s.Products)
}

func TestReduce_UpsertProductReemplazaElRegistro(t *testing.T) {
	s := state.Reduce(state.Initial(), state.SetProducts{Items: []entity.Product{
		{ID: "p1", Name: "Air", BrandID: "b1", Category: "Calzado", Price: decimal.NewFromInt(100), StockQuantity: 10, MinStock: 3, OwnerID: "u1"},
	}})

	s = state.Reduce(s, state.UpsertProduct{Product: entity.Product{ID: "p1", Name: "Air", StockQuantity: 2}})
	require.Len(t, s.Products, 1)
	p := s.Products[0]
	assert.Empty(t, p.BrandID, "los campos ausentes no se conservan")
	assert.True(t, p.Price.IsZero())
	assert.Equal(t, "u1", p.OwnerID, "sólo OwnerID vacío hereda el anterior")
}

func TestReduce_SetProductStockConservaLoDemas(t *testing.T) {
	s := state.Reduce(state.Initial(), state.SetProducts{Items: []entity.Product{
		{ID: "p1", Name: "Air", BrandID: "b1", Category: "Calzado", Price: decimal.NewFromInt(100), StockQuantity: 10, MinStock: 3},
	}})

	s = state.Reduce(s, state.SetProductStock{ID: "p1", StockQuantity: 0, MinStock: 1})
	require.Len(t, s.Products, 1)
	p := s.Products[0]
	assert.Equal(t, 0, p.StockQuantity)
	assert.Equal(t, 1, p.MinStock)
	assert.Equal(t, "b1", p.BrandID)
	assert.Equal(t, "Calzado", p.Category)
	assert.True(t, decimal.NewFromInt(100).Equal(p.Price))

	before := s
	s = state.Reduce(s, state.SetProductStock{ID: "otro", StockQuantity: 5})
	assert.Equal(t, before.Products, s.Products)
}

func TestReduce_DeleteCategoryPorIDONombre(t *testing.T) {
	s := state.Reduce(state.Initial(), state.SetCategories{Items: []entity.Category{
		{ID: "c1", Name: "Calzado"}, {ID: "c2", Name: "Ropa"},
	}})

	s = state.Reduce(s, state.DeleteCategory{Key: "Ropa"})
	require.Len(t, s.Categories, 1)
	s = state.Reduce(s, state.DeleteCategory{Key: "c1"})
	assert.Empty(t, s.Categories)
}

func TestReduce_Lineas(t *testing.T) {
	s := state.Reduce(state.Initial(), state.AddLine{Line: entity.Line{ID: "l1", Name: "Running", BrandID: "b1"}})
	s = state.Reduce(s, state.AddLine{Line: entity.Line{ID: "l2", Name: "Casual", BrandID: "b1"}})
	s = state.Reduce(s, state.UpdateLine{Line: entity.Line{ID: "l1", Name: "Trail", BrandID: "b1"}})

	require.Len(t, s.Lines, 2)
	assert.Equal(t, "Trail", s.Lines[0].Name)

	s = state.Reduce(s, state.DeleteLine{ID: "l2"})
	assert.Len(t, s.Lines, 1)
}

func TestReduce_FiltrosParciales(t *testing.T) {
	q := "air"
	minPrice := decimal.NewFromInt(100)
	s := state.Reduce(state.Initial(), state.SetCatalogFilters{Patch: state.CatalogFilterPatch{Query: &q, MinPrice: &minPrice}})

	assert.Equal(t, "air", s.Catalog.Query)
	assert.True(t, s.Catalog.MinPrice.Equal(minPrice))
	assert.Equal(t, entity.FilterAll, s.Catalog.Category, "campos sin patch se conservan")
	assert.Equal(t, entity.FilterAll, s.Catalog.BrandID)
}

func TestReduce_ResetCatalogVaciaColecciones(t *testing.T) {
	s := state.Reduce(state.Initial(), state.SetBrands{Items: []entity.Brand{{ID: "b1"}}})
	s = state.Reduce(s, state.SetLines{Items: []entity.Line{{ID: "l1"}}})
	s = state.Reduce(s, state.SetSession{Session: &entity.Session{AccessToken: "t"}})

	s = state.Reduce(s, state.ResetCatalog{})
	assert.Empty(t, s.Brands)
	assert.Empty(t, s.Lines)
	assert.NotNil(t, s.Session, "la sesión no forma parte del catálogo")
}
