package repository

import (
	"context"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

// CatalogGateway puerto hacia el backend remoto de colecciones del catálogo.
// Las escrituras devuelven el registro normalizado que confirmó el servidor.
type CatalogGateway interface {
	FetchBrands(ctx context.Context) ([]entity.Brand, error)
	FetchCategories(ctx context.Context) ([]entity.Category, error)
	FetchLines(ctx context.Context) ([]entity.Line, error)
	FetchProducts(ctx context.Context) ([]entity.Product, error)
	FetchProduct(ctx context.Context, id string) (*entity.Product, error)
	// FetchProductsByIds omite los ids que fallen o no existan.
	FetchProductsByIds(ctx context.Context, ids []string) ([]entity.Product, error)
	FetchLowStockProducts(ctx context.Context) ([]entity.Product, error)

	SaveBrand(ctx context.Context, b entity.Brand) (entity.Brand, error)
	DeleteBrand(ctx context.Context, id string) error
	SaveCategory(ctx context.Context, c entity.Category) (entity.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	SaveLine(ctx context.Context, l entity.Line) (string, error)
	DeleteLine(ctx context.Context, id string) error
	CheckLineExists(ctx context.Context, name, brandID string) (bool, error)
	SaveProduct(ctx context.Context, p entity.Product, newCategory string) (entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateProductStock(ctx context.Context, id string, stock, minStock int) (*entity.Product, error)
}

// SalesGateway puerto hacia el libro de ventas remoto.
type SalesGateway interface {
	FetchSalesByEmployee(ctx context.Context, employeeID string) ([]entity.Sale, error)
	CreateSale(ctx context.Context, s entity.Sale) (*entity.Sale, error)
	UpdateSale(ctx context.Context, s entity.Sale) (entity.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	CreateClient(ctx context.Context, c entity.Customer) (*entity.Customer, error)
}
