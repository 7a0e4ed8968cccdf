package state

import (
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

// State árbol único de estado del cliente. Los slices nunca se mutan en sitio:
// cada transición devuelve slices nuevos, por lo que un State es una instantánea segura.
type State struct {
	Session    *entity.Session
	User       *entity.User
	Products   []entity.Product
	Brands     []entity.Brand
	Categories []entity.Category
	Lines      []entity.Line
	Catalog    entity.CatalogFilter
}

// Initial estado inicial: sin sesión, colecciones vacías y filtros por defecto.
func Initial() State {
	return State{
		Products:   []entity.Product{},
		Brands:     []entity.Brand{},
		Categories: []entity.Category{},
		Lines:      []entity.Line{},
		Catalog:    entity.DefaultCatalogFilter(),
	}
}

// Reduce aplica una acción de forma pura (sin I/O). Acciones desconocidas devuelven el estado tal cual.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case Hydrate:
		s.Products = orEmpty(act.Snapshot.Products)
		s.Brands = orEmpty(act.Snapshot.Brands)
		s.Categories = orEmpty(act.Snapshot.Categories)
		if act.Snapshot.Catalog != nil {
			s.Catalog = *act.Snapshot.Catalog
		} else {
			s.Catalog = entity.DefaultCatalogFilter()
		}
	case SetSession:
		s.Session = act.Session
		s.User = act.User
	case SetUser:
		s.User = act.User
	case UpsertProduct:
		s.Products = upsertProduct(s.Products, act.Product)
	case SetProductStock:
		s.Products = mapSlice(s.Products, func(p entity.Product) entity.Product {
			if p.ID == act.ID {
				p.StockQuantity, p.MinStock = act.StockQuantity, act.MinStock
			}
			return p
		})
	case DeleteProduct:
		s.Products = filter(s.Products, func(p entity.Product) bool { return p.ID != act.ID })
	case UpsertBrand:
		s.Brands = Reconcile(s.Brands, act.Brand, BrandPolicy)
	case DeleteBrand:
		if brandInUse(s.Products, act.ID) {
			return s
		}
		s.Brands = filter(s.Brands, func(b entity.Brand) bool { return b.ID != act.ID })
	case UpsertCategory:
		s.Categories = Reconcile(s.Categories, act.Category, CategoryPolicy)
	case DeleteCategory:
		if act.Key == "" {
			return s
		}
		s.Categories = filter(s.Categories, func(c entity.Category) bool {
			return c.ID != act.Key && c.Name != act.Key
		})
	case SetProducts:
		s.Products = orEmpty(act.Items)
	case SetBrands:
		s.Brands = orEmpty(act.Items)
	case SetCategories:
		s.Categories = orEmpty(act.Items)
	case SetLines:
		s.Lines = orEmpty(act.Items)
	case AddLine:
		s.Lines = append(clone(s.Lines), act.Line)
	case UpdateLine:
		s.Lines = mapSlice(s.Lines, func(l entity.Line) entity.Line {
			if l.ID == act.Line.ID {
				return act.Line
			}
			return l
		})
	case DeleteLine:
		s.Lines = filter(s.Lines, func(l entity.Line) bool { return l.ID != act.ID })
	case SetCatalogFilters:
		s.Catalog = applyFilterPatch(s.Catalog, act.Patch)
	case ResetCatalog:
		s.Products = []entity.Product{}
		s.Brands = []entity.Brand{}
		s.Categories = []entity.Category{}
		s.Lines = []entity.Line{}
	}
	return s
}

func upsertProduct(products []entity.Product, p entity.Product) []entity.Product {
	if p.ID != "" {
		for i, x := range products {
			if x.ID != p.ID {
				continue
			}
			out := clone(products)
			merged := p
			if merged.OwnerID == "" {
				merged.OwnerID = x.OwnerID
			}
			out[i] = merged
			return out
		}
	}
	if p.ID == "" {
		p.ID = NewLocalID("prd_")
	}
	return append(clone(products), p)
}

func brandInUse(products []entity.Product, brandID string) bool {
	for _, p := range products {
		if p.BrandID == brandID {
			return true
		}
	}
	return false
}

func applyFilterPatch(f entity.CatalogFilter, p CatalogFilterPatch) entity.CatalogFilter {
	if p.Query != nil {
		f.Query = *p.Query
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.BrandID != nil {
		f.BrandID = *p.BrandID
	}
	if p.MinPrice != nil {
		f.MinPrice = *p.MinPrice
	}
	if p.MaxPrice != nil {
		f.MaxPrice = *p.MaxPrice
	}
	return f
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return clone(items)
}

func clone[T any](items []T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	return out
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func mapSlice[T any](items []T, fn func(T) T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}
