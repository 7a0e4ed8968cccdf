package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// UseCase operaciones de catálogo. Toda escritura va primero al servidor y,
// con la respuesta confirmada, se refleja en el store.
type UseCase struct {
	gw    repository.CatalogGateway
	store *state.Store
	log   *logger.Logger
}

// NewUseCase construye el caso de uso de catálogo.
func NewUseCase(gw repository.CatalogGateway, store *state.Store, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{gw: gw, store: store, log: log.Component("catalog")}
}

func (uc *UseCase) currentUserID() string {
	if u := uc.store.State().User; u != nil {
		return u.ID
	}
	return ""
}

// requireAdmin la gestión del catálogo es del nivel admin; un rol sin verificar
// devuelve ErrRoleUnresolved en lugar de ErrForbidden.
func (uc *UseCase) requireAdmin() error {
	u := uc.store.State().User
	if u == nil {
		return domain.ErrUnauthorized
	}
	if err := u.Resolution().Require(role.TierAdmin); err != nil {
		return fmt.Errorf("gestionar catálogo: %w", err)
	}
	return nil
}

func findBrandByName(brands []entity.Brand, name string) (entity.Brand, bool) {
	key := state.FoldName(name)
	for _, b := range brands {
		if state.FoldName(b.Name) == key {
			return b, true
		}
	}
	return entity.Brand{}, false
}

func findCategoryByName(categories []entity.Category, name string) (entity.Category, bool) {
	key := state.FoldName(name)
	for _, c := range categories {
		if state.FoldName(c.Name) == key {
			return c, true
		}
	}
	return entity.Category{}, false
}

// ── Marcas ───────────────────────────────────────────────────────────────────

// SaveBrand crea o edita una marca. Un nombre ya usado por otra marca devuelve ErrDuplicate.
func (uc *UseCase) SaveBrand(ctx context.Context, b entity.Brand) (entity.Brand, error) {
	if err := uc.requireAdmin(); err != nil {
		return entity.Brand{}, err
	}
	b.Name = state.NormalizeName(b.Name)
	if b.Name == "" {
		return entity.Brand{}, fmt.Errorf("nombre de marca obligatorio: %w", domain.ErrInvalidInput)
	}
	if existing, ok := findBrandByName(uc.store.State().Brands, b.Name); ok && existing.ID != b.ID {
		return entity.Brand{}, fmt.Errorf("marca %q: %w", b.Name, domain.ErrDuplicate)
	}
	if b.OwnerID == "" {
		b.OwnerID = uc.currentUserID()
	}

	saved, err := uc.gw.SaveBrand(ctx, b)
	if err != nil {
		return entity.Brand{}, fmt.Errorf("guardar marca: %w", err)
	}
	uc.store.Dispatch(state.UpsertBrand{Brand: saved})
	return saved, nil
}

// QuickCreateBrand devuelve la marca con ese nombre, creándola si no existe.
// Se usa desde el formulario de producto; el store unifica el registro aunque
// un refresco concurrente traiga la misma marca con otro id.
func (uc *UseCase) QuickCreateBrand(ctx context.Context, name string) (entity.Brand, error) {
	if err := uc.requireAdmin(); err != nil {
		return entity.Brand{}, err
	}
	name = state.NormalizeName(name)
	if name == "" {
		return entity.Brand{}, fmt.Errorf("nombre de marca obligatorio: %w", domain.ErrInvalidInput)
	}
	if existing, ok := findBrandByName(uc.store.State().Brands, name); ok {
		return existing, nil
	}
	saved, err := uc.gw.SaveBrand(ctx, entity.Brand{Name: name, OwnerID: uc.currentUserID()})
	if err != nil {
		return entity.Brand{}, fmt.Errorf("crear marca: %w", err)
	}
	st := uc.store.Dispatch(state.UpsertBrand{Brand: saved})
	if b, ok := findBrandByName(st.Brands, name); ok {
		return b, nil
	}
	return saved, nil
}

// DeleteBrand elimina la marca si ningún producto la referencia.
func (uc *UseCase) DeleteBrand(ctx context.Context, id string) error {
	if err := uc.requireAdmin(); err != nil {
		return err
	}
	for _, p := range uc.store.State().Products {
		if p.BrandID == id {
			return fmt.Errorf("marca %s: %w", id, domain.ErrBrandInUse)
		}
	}
	if err := uc.gw.DeleteBrand(ctx, id); err != nil {
		return fmt.Errorf("eliminar marca: %w", err)
	}
	uc.store.Dispatch(state.DeleteBrand{ID: id})
	return nil
}

// ── Categorías ───────────────────────────────────────────────────────────────

func (uc *UseCase) SaveCategory(ctx context.Context, c entity.Category) (entity.Category, error) {
	if err := uc.requireAdmin(); err != nil {
		return entity.Category{}, err
	}
	c.Name = state.NormalizeName(c.Name)
	if c.Name == "" {
		return entity.Category{}, fmt.Errorf("nombre de categoría obligatorio: %w", domain.ErrInvalidInput)
	}
	saved, err := uc.gw.SaveCategory(ctx, c)
	if err != nil {
		return entity.Category{}, fmt.Errorf("guardar categoría: %w", err)
	}
	uc.store.Dispatch(state.UpsertCategory{Category: saved})
	return saved, nil
}

func (uc *UseCase) DeleteCategory(ctx context.Context, id string) error {
	if err := uc.requireAdmin(); err != nil {
		return err
	}
	if err := uc.gw.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("eliminar categoría: %w", err)
	}
	uc.store.Dispatch(state.DeleteCategory{Key: id})
	return nil
}

// ── Líneas ───────────────────────────────────────────────────────────────────

// SaveLine crea o edita una línea. La marca debe existir y el nombre no puede repetirse dentro de ella.
func (uc *UseCase) SaveLine(ctx context.Context, in dto.LineInput) (entity.Line, error) {
	if err := uc.requireAdmin(); err != nil {
		return entity.Line{}, err
	}
	in.Name = state.NormalizeName(in.Name)
	if in.Name == "" || in.BrandID == "" {
		return entity.Line{}, fmt.Errorf("nombre y marca obligatorios: %w", domain.ErrInvalidInput)
	}
	st := uc.store.State()
	if !hasBrand(st.Brands, in.BrandID) {
		return entity.Line{}, fmt.Errorf("marca %s: %w", in.BrandID, domain.ErrNotFound)
	}
	if in.ID == "" {
		exists, err := uc.gw.CheckLineExists(ctx, in.Name, in.BrandID)
		if err != nil {
			return entity.Line{}, fmt.Errorf("verificar línea: %w", err)
		}
		if exists {
			return entity.Line{}, fmt.Errorf("línea %q: %w", in.Name, domain.ErrDuplicate)
		}
	}

	line := entity.Line{
		ID:          in.ID,
		Name:        in.Name,
		BrandID:     in.BrandID,
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   uc.currentUserID(),
	}
	id, err := uc.gw.SaveLine(ctx, line)
	if err != nil {
		return entity.Line{}, fmt.Errorf("guardar línea: %w", err)
	}

	if in.ID != "" {
		uc.store.Dispatch(state.UpdateLine{Line: line})
		return line, nil
	}
	line.ID = id
	if line.ID == "" {
		line.ID = state.NewLocalID("ln_")
	}
	uc.store.Dispatch(state.AddLine{Line: line})
	return line, nil
}

func (uc *UseCase) DeleteLine(ctx context.Context, id string) error {
	if err := uc.requireAdmin(); err != nil {
		return err
	}
	if err := uc.gw.DeleteLine(ctx, id); err != nil {
		return fmt.Errorf("eliminar línea: %w", err)
	}
	uc.store.Dispatch(state.DeleteLine{ID: id})
	return nil
}

// LinesOf líneas de una marca según el store.
func (uc *UseCase) LinesOf(brandID string) []entity.Line {
	var out []entity.Line
	for _, l := range uc.store.State().Lines {
		if l.BrandID == brandID {
			out = append(out, l)
		}
	}
	return out
}

func hasBrand(brands []entity.Brand, id string) bool {
	for _, b := range brands {
		if b.ID == id {
			return true
		}
	}
	return false
}

// ── Productos ────────────────────────────────────────────────────────────────

// SaveProduct valida y guarda el producto. Sin MinStock explícito se usa floor(0.3*stock).
func (uc *UseCase) SaveProduct(ctx context.Context, in dto.ProductInput) (entity.Product, error) {
	if err := uc.requireAdmin(); err != nil {
		return entity.Product{}, err
	}
	p, newCategory, err := uc.buildProduct(in)
	if err != nil {
		return entity.Product{}, err
	}
	saved, err := uc.gw.SaveProduct(ctx, p, newCategory)
	if err != nil {
		return entity.Product{}, fmt.Errorf("guardar producto: %w", err)
	}

	uc.store.Dispatch(state.UpsertProduct{Product: saved})
	if newCategory != "" {
		uc.store.Dispatch(state.UpsertCategory{Category: entity.Category{ID: saved.CategoryID, Name: newCategory}})
	}
	uc.log.Debug().Str("product_id", saved.ID).Int("min_stock", saved.MinStock).Msg("producto guardado")
	return saved, nil
}

func (uc *UseCase) buildProduct(in dto.ProductInput) (entity.Product, string, error) {
	name := state.NormalizeName(in.Name)
	switch {
	case name == "":
		return entity.Product{}, "", fmt.Errorf("nombre de producto obligatorio: %w", domain.ErrInvalidInput)
	case in.Price.IsNegative():
		return entity.Product{}, "", fmt.Errorf("precio negativo: %w", domain.ErrInvalidInput)
	case in.StockQuantity < 0:
		return entity.Product{}, "", fmt.Errorf("stock negativo: %w", domain.ErrInvalidInput)
	case in.MinStock != nil && *in.MinStock < 0:
		return entity.Product{}, "", fmt.Errorf("stock mínimo negativo: %w", domain.ErrInvalidInput)
	}

	st := uc.store.State()
	if !hasBrand(st.Brands, in.BrandID) {
		return entity.Product{}, "", fmt.Errorf("marca %q: %w", in.BrandID, domain.ErrNotFound)
	}

	minStock := entity.DefaultMinStock(in.StockQuantity)
	if in.MinStock != nil {
		minStock = *in.MinStock
	}

	p := entity.Product{
		ID:            in.ID,
		OwnerID:       uc.currentUserID(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Category:      state.NormalizeName(in.Category),
		BrandID:       in.BrandID,
		LineID:        in.LineID,
		Price:         in.Price,
		Image:         strings.TrimSpace(in.Image),
		StockQuantity: in.StockQuantity,
		MinStock:      minStock,
	}
	if p.Category == "" {
		p.Category = entity.DefaultCategory
	}

	newCategory := ""
	if c, ok := findCategoryByName(st.Categories, p.Category); ok {
		p.Category = c.Name
		p.CategoryID = c.ID
	} else {
		newCategory = p.Category
	}
	return p, newCategory, nil
}

func (uc *UseCase) DeleteProduct(ctx context.Context, id string) error {
	if err := uc.requireAdmin(); err != nil {
		return err
	}
	if err := uc.gw.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("eliminar producto: %w", err)
	}
	uc.store.Dispatch(state.DeleteProduct{ID: id})
	return nil
}

// UpdateStock reescribe stock y mínimo; minStock nil lo deriva del nuevo stock.
func (uc *UseCase) UpdateStock(ctx context.Context, id string, stock int, minStock *int) (*entity.Product, error) {
	if err := uc.requireAdmin(); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, fmt.Errorf("stock negativo: %w", domain.ErrInvalidInput)
	}
	minimum := entity.DefaultMinStock(stock)
	if minStock != nil {
		minimum = *minStock
	}
	p, err := uc.gw.UpdateProductStock(ctx, id, stock, minimum)
	if err != nil {
		return nil, fmt.Errorf("actualizar stock: %w", err)
	}
	confirmed := state.SetProductStock{ID: id, StockQuantity: stock, MinStock: minimum}
	if p != nil {
		confirmed.StockQuantity, confirmed.MinStock = p.StockQuantity, p.MinStock
	}
	uc.store.Dispatch(confirmed)
	return p, nil
}

// LowStock productos en o bajo su mínimo según el backend.
func (uc *UseCase) LowStock(ctx context.Context) ([]entity.Product, error) {
	products, err := uc.gw.FetchLowStockProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("productos con stock bajo: %w", err)
	}
	return products, nil
}

// Filter aplica el patch a los filtros guardados y devuelve los productos que los cumplen.
func (uc *UseCase) Filter(patch state.CatalogFilterPatch) []entity.Product {
	st := uc.store.Dispatch(state.SetCatalogFilters{Patch: patch})
	return st.Catalog.Apply(st.Products)
}
