package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

func TestDefaultMinStock(t *testing.T) {
	assert.Equal(t, 3, entity.DefaultMinStock(10), "floor(0.3 * 10)")
	assert.Equal(t, 0, entity.DefaultMinStock(3))
	assert.Equal(t, 4, entity.DefaultMinStock(15))
	assert.Equal(t, 0, entity.DefaultMinStock(-5))
}

func TestCatalogFilter_Apply(t *testing.T) {
	products := []entity.Product{
		{ID: "1", Name: "Teclado", Description: "mecánico", Category: "perifericos", BrandID: "b1", Price: decimal.NewFromInt(50)},
		{ID: "2", Name: "Monitor", Description: "24 pulgadas", Category: "pantallas", BrandID: "b2", Price: decimal.NewFromInt(200)},
		{ID: "3", Name: "mouse", Description: "inalámbrico", Category: "perifericos", BrandID: "b1", Price: decimal.NewFromInt(20)},
	}

	all := entity.DefaultCatalogFilter().Apply(products)
	assert.Equal(t, []string{"2", "3", "1"}, ids(all), "ordenado por nombre sin distinguir mayúsculas")

	f := entity.DefaultCatalogFilter()
	f.Category = "perifericos"
	f.MinPrice = decimal.NewFromInt(30)
	assert.Equal(t, []string{"1"}, ids(f.Apply(products)))

	f = entity.DefaultCatalogFilter()
	f.Query = "PULGADAS"
	assert.Equal(t, []string{"2"}, ids(f.Apply(products)), "busca también en la descripción")

	f = entity.DefaultCatalogFilter()
	f.BrandID = "b1"
	f.MaxPrice = decimal.NewFromInt(30)
	assert.Equal(t, []string{"3"}, ids(f.Apply(products)))
}

func TestSaleNotes_Codec(t *testing.T) {
	n := entity.SaleNotes{PaymentMethod: entity.PaymentCard, CustomerData: entity.CustomerData{Name: "Luz", Email: "luz@x.co"}}
	assert.Equal(t, n, entity.DecodeSaleNotes(n.Encode()))
	assert.Equal(t, entity.SaleNotes{}, entity.DecodeSaleNotes("{corrupto"))
	assert.Equal(t, entity.SaleNotes{}, entity.DecodeSaleNotes(""))
}

func TestSumItems(t *testing.T) {
	items := []entity.SaleItem{
		{ProductID: "a", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: "b", Quantity: 1, UnitPrice: decimal.RequireFromString("5.5")},
	}
	assert.True(t, entity.SumItems(items).Equal(decimal.RequireFromString("25.5")))
}

func ids(ps []entity.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
