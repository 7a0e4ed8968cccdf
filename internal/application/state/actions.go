package state

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

// Action transición tipada del store. Sólo los tipos de este paquete la implementan.
type Action interface {
	Type() string
}

type (
	// Hydrate aplica el subconjunto persistido localmente.
	Hydrate struct{ Snapshot Persisted }
	// SetSession reemplaza sesión y usuario (login, logout, refresh de token).
	SetSession struct {
		Session *entity.Session
		User    *entity.User
	}
	SetUser struct{ User *entity.User }

	// UpsertProduct reemplaza el registro completo con ese id (salvo OwnerID vacío).
	UpsertProduct struct{ Product entity.Product }
	// SetProductStock cambia sólo stock y mínimo; sin producto con ese id es un no-op.
	SetProductStock struct {
		ID            string
		StockQuantity int
		MinStock      int
	}
	// DeleteProduct elimina sin condiciones; el servidor decide si se permite.
	DeleteProduct struct{ ID string }
	UpsertBrand   struct{ Brand entity.Brand }
	// DeleteBrand es un no-op mientras algún producto referencie la marca.
	DeleteBrand    struct{ ID string }
	UpsertCategory struct{ Category entity.Category }
	// DeleteCategory acepta id o nombre.
	DeleteCategory struct{ Key string }

	SetProducts   struct{ Items []entity.Product }
	SetBrands     struct{ Items []entity.Brand }
	SetCategories struct{ Items []entity.Category }
	SetLines      struct{ Items []entity.Line }

	AddLine    struct{ Line entity.Line }
	UpdateLine struct{ Line entity.Line }
	DeleteLine struct{ ID string }

	SetCatalogFilters struct{ Patch CatalogFilterPatch }
	// ResetCatalog vacía las cuatro colecciones (sin sesión o refresco fallido).
	ResetCatalog struct{}
)

// CatalogFilterPatch cambios parciales sobre los filtros; nil no modifica.
type CatalogFilterPatch struct {
	Query    *string
	Category *string
	BrandID  *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

func (Hydrate) Type() string           { return "HYDRATE" }
func (SetSession) Type() string        { return "SET_SESSION" }
func (SetUser) Type() string           { return "SET_USER" }
func (UpsertProduct) Type() string     { return "UPSERT_PRODUCT" }
func (SetProductStock) Type() string   { return "SET_PRODUCT_STOCK" }
func (DeleteProduct) Type() string     { return "DELETE_PRODUCT" }
func (UpsertBrand) Type() string       { return "UPSERT_BRAND" }
func (DeleteBrand) Type() string       { return "DELETE_BRAND" }
func (UpsertCategory) Type() string    { return "UPSERT_CATEGORY" }
func (DeleteCategory) Type() string    { return "DELETE_CATEGORY" }
func (SetProducts) Type() string       { return "SET_PRODUCTS" }
func (SetBrands) Type() string         { return "SET_BRANDS" }
func (SetCategories) Type() string     { return "SET_CATEGORIES" }
func (SetLines) Type() string          { return "SET_LINES" }
func (AddLine) Type() string           { return "ADD_LINE" }
func (UpdateLine) Type() string        { return "UPDATE_LINE" }
func (DeleteLine) Type() string        { return "DELETE_LINE" }
func (SetCatalogFilters) Type() string { return "SET_CATALOG_FILTERS" }
func (ResetCatalog) Type() string      { return "RESET_CATALOG" }
