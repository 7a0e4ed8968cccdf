// Package sales registra y consulta el libro de ventas del empleado autenticado.
package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// LedgerRenderer genera el PDF del libro de ventas.
type LedgerRenderer interface {
	RenderSalesLedger(ctx context.Context, ledger dto.SalesLedger) ([]byte, error)
}

var paymentMethods = map[string]struct{}{
	entity.PaymentCash:     {},
	entity.PaymentCard:     {},
	entity.PaymentTransfer: {},
}

// UseCase ventas del empleado. Los precios salen del catálogo cargado, nunca de la petición.
type UseCase struct {
	gw       repository.SalesGateway
	catalog  repository.CatalogGateway
	store    *state.Store
	renderer LedgerRenderer
	log      *logger.Logger
}

// NewUseCase construye el caso de uso. renderer puede ser nil (Report devuelve ErrNotConfigured).
func NewUseCase(gw repository.SalesGateway, catalog repository.CatalogGateway, store *state.Store, renderer LedgerRenderer, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{gw: gw, catalog: catalog, store: store, renderer: renderer, log: log.Component("sales")}
}

func (uc *UseCase) currentUser() (*entity.User, error) {
	u := uc.store.State().User
	if u == nil {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

// requireStaff exige nivel empleado o admin con el rol ya resuelto.
func requireStaff(u *entity.User) error {
	if err := u.Resolution().Require(role.TierAdmin, role.TierEmployee); err != nil {
		return fmt.Errorf("registrar ventas: %w", err)
	}
	return nil
}

// canModify el dueño de la venta o un admin.
func canModify(u *entity.User, s entity.Sale) error {
	if s.EmployeeID == u.ID || u.Resolution().Tier() == role.TierAdmin {
		return nil
	}
	return fmt.Errorf("venta %s pertenece a otro empleado: %w", s.ID, domain.ErrForbidden)
}

// ToView interpreta las notas de la venta.
func ToView(s entity.Sale) dto.SaleView {
	notes := entity.DecodeSaleNotes(s.Notes)
	name := notes.CustomerData.Name
	if name == "" {
		name = s.CustomerName
	}
	return dto.SaleView{
		ID:            s.ID,
		EmployeeID:    s.EmployeeID,
		CustomerID:    s.CustomerID,
		CustomerName:  name,
		CustomerEmail: notes.CustomerData.Email,
		PaymentMethod: notes.PaymentMethod,
		TotalAmount:   s.TotalAmount,
		SaleDate:      s.SaleDate,
		ItemCount:     len(s.Items),
	}
}

// ListMine ventas del usuario actual, más recientes primero.
func (uc *UseCase) ListMine(ctx context.Context) ([]entity.Sale, error) {
	u, err := uc.currentUser()
	if err != nil {
		return nil, err
	}
	list, err := uc.gw.FetchSalesByEmployee(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].SaleDate.After(list[j].SaleDate) })
	return list, nil
}

// Views convierte las ventas en vistas.
func Views(list []entity.Sale) []dto.SaleView {
	out := make([]dto.SaleView, 0, len(list))
	for _, s := range list {
		out = append(out, ToView(s))
	}
	return out
}

// Summary totales por método de pago. Ventas sin método cuentan como "sin especificar".
func Summary(views []dto.SaleView) dto.SalesSummary {
	sum := dto.SalesSummary{Total: decimal.Zero, ByPayment: map[string]decimal.Decimal{}}
	for _, v := range views {
		method := v.PaymentMethod
		if method == "" {
			method = "sin especificar"
		}
		sum.Count++
		sum.Total = sum.Total.Add(v.TotalAmount)
		sum.ByPayment[method] = sum.ByPayment[method].Add(v.TotalAmount)
	}
	return sum
}

// Create registra la venta, da de alta al cliente si es nuevo y descuenta el stock vendido.
func (uc *UseCase) Create(ctx context.Context, req dto.CreateSaleRequest) (*entity.Sale, error) {
	u, err := uc.currentUser()
	if err != nil {
		return nil, err
	}
	if err := requireStaff(u); err != nil {
		return nil, err
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = entity.PaymentCash
	}
	if _, ok := paymentMethods[method]; !ok {
		return nil, fmt.Errorf("método de pago %q: %w", req.PaymentMethod, domain.ErrInvalidInput)
	}

	items, sold, err := uc.priceItems(req.Items)
	if err != nil {
		return nil, err
	}

	customerID := req.CustomerID
	if customerID == "" && strings.TrimSpace(req.CustomerName) != "" {
		customerID = uc.registerCustomer(ctx, req.CustomerName, req.CustomerEmail)
	}

	date := req.SaleDate
	if date.IsZero() {
		date = time.Now()
	}
	sale := entity.Sale{
		EmployeeID:   u.ID,
		CustomerID:   customerID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		TotalAmount:  entity.SumItems(items),
		SaleDate:     date,
		Items:        items,
		Notes: entity.SaleNotes{
			PaymentMethod: method,
			CustomerData:  entity.CustomerData{Name: strings.TrimSpace(req.CustomerName), Email: strings.TrimSpace(req.CustomerEmail)},
		}.Encode(),
	}

	created, err := uc.gw.CreateSale(ctx, sale)
	if err != nil {
		return nil, fmt.Errorf("registrar venta: %w", err)
	}
	if created == nil {
		created = &sale
	}
	uc.log.Info().
		Str("sale_id", created.ID).
		Str("employee_id", u.ID).
		Str("total", created.TotalAmount.String()).
		Msg("venta registrada")

	uc.decrementStock(ctx, sold)
	return created, nil
}

// priceItems toma precios del store y verifica stock. sold acumula unidades por producto.
func (uc *UseCase) priceItems(reqItems []dto.SaleItemRequest) ([]entity.SaleItem, map[string]int, error) {
	if len(reqItems) == 0 {
		return nil, nil, fmt.Errorf("la venta no tiene productos: %w", domain.ErrInvalidInput)
	}
	products := map[string]entity.Product{}
	for _, p := range uc.store.State().Products {
		products[p.ID] = p
	}

	items := make([]entity.SaleItem, 0, len(reqItems))
	sold := map[string]int{}
	for _, it := range reqItems {
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("cantidad inválida para %s: %w", it.ProductID, domain.ErrInvalidInput)
		}
		p, ok := products[it.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("producto %s: %w", it.ProductID, domain.ErrNotFound)
		}
		sold[p.ID] += it.Quantity
		if sold[p.ID] > p.StockQuantity {
			return nil, nil, fmt.Errorf("%s: pedido %d, disponible %d: %w", p.Name, sold[p.ID], p.StockQuantity, domain.ErrInsufficientStock)
		}
		items = append(items, entity.SaleItem{ProductID: p.ID, Quantity: it.Quantity, UnitPrice: p.Price})
	}
	return items, sold, nil
}

// registerCustomer intenta crear el cliente en el backend; si falla queda como cliente local.
func (uc *UseCase) registerCustomer(ctx context.Context, name, email string) string {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	created, err := uc.gw.CreateClient(ctx, entity.Customer{
		FirstName: first,
		LastName:  strings.TrimSpace(last),
		Email:     strings.TrimSpace(email),
	})
	if err == nil && created != nil && created.ID != "" {
		return created.ID
	}
	if err != nil {
		uc.log.Warn().Err(err).Str("customer", name).Msg("no se pudo registrar el cliente; se usa un id local")
	}
	return entity.LocalCustomerPrefix + uuid.NewString()
}

// decrementStock descuenta lo vendido. La venta ya quedó registrada: los fallos sólo se registran.
func (uc *UseCase) decrementStock(ctx context.Context, sold map[string]int) {
	if uc.catalog == nil {
		return
	}
	current := map[string]entity.Product{}
	for _, p := range uc.store.State().Products {
		current[p.ID] = p
	}
	ids := make([]string, 0, len(sold))
	for id := range sold {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p, ok := current[id]
		if !ok {
			continue
		}
		remaining := p.StockQuantity - sold[id]
		updated, err := uc.catalog.UpdateProductStock(ctx, id, remaining, p.MinStock)
		if err != nil {
			ev := uc.log.Warn()
			if errors.Is(err, domain.ErrMissingLine) {
				ev = uc.log.Info()
			}
			ev.Err(err).Str("product_id", id).Msg("no se pudo descontar stock")
			continue
		}
		confirmed := state.SetProductStock{ID: id, StockQuantity: remaining, MinStock: p.MinStock}
		if updated != nil {
			confirmed.StockQuantity, confirmed.MinStock = updated.StockQuantity, updated.MinStock
		}
		uc.store.Dispatch(confirmed)
	}
}

// Update cambia método de pago, cliente o fecha. Sólo el dueño o un admin.
func (uc *UseCase) Update(ctx context.Context, current entity.Sale, req dto.UpdateSaleRequest) (entity.Sale, error) {
	u, err := uc.currentUser()
	if err != nil {
		return entity.Sale{}, err
	}
	if err := canModify(u, current); err != nil {
		return entity.Sale{}, err
	}

	notes := entity.DecodeSaleNotes(current.Notes)
	if req.PaymentMethod != nil {
		method := strings.ToLower(strings.TrimSpace(*req.PaymentMethod))
		if _, ok := paymentMethods[method]; !ok {
			return entity.Sale{}, fmt.Errorf("método de pago %q: %w", *req.PaymentMethod, domain.ErrInvalidInput)
		}
		notes.PaymentMethod = method
	}
	if req.CustomerName != nil {
		notes.CustomerData.Name = strings.TrimSpace(*req.CustomerName)
		current.CustomerName = notes.CustomerData.Name
	}
	if req.CustomerEmail != nil {
		notes.CustomerData.Email = strings.TrimSpace(*req.CustomerEmail)
	}
	if req.SaleDate != nil {
		current.SaleDate = *req.SaleDate
	}
	current.Notes = notes.Encode()

	updated, err := uc.gw.UpdateSale(ctx, current)
	if err != nil {
		return entity.Sale{}, fmt.Errorf("actualizar venta: %w", err)
	}
	return updated, nil
}

// Delete elimina la venta. Sólo el dueño o un admin.
func (uc *UseCase) Delete(ctx context.Context, s entity.Sale) error {
	u, err := uc.currentUser()
	if err != nil {
		return err
	}
	if err := canModify(u, s); err != nil {
		return err
	}
	if err := uc.gw.DeleteSale(ctx, s.ID); err != nil {
		return fmt.Errorf("eliminar venta: %w", err)
	}
	uc.log.Info().Str("sale_id", s.ID).Str("user_id", u.ID).Msg("venta eliminada")
	return nil
}

// Report PDF con las ventas del usuario actual y sus totales.
func (uc *UseCase) Report(ctx context.Context) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("reporte PDF: %w", domain.ErrNotConfigured)
	}
	list, err := uc.ListMine(ctx)
	if err != nil {
		return nil, err
	}
	u, _ := uc.currentUser()
	views := Views(list)
	return uc.renderer.RenderSalesLedger(ctx, dto.SalesLedger{
		EmployeeName: u.DisplayName(),
		GeneratedAt:  time.Now(),
		Sales:        views,
		Summary:      Summary(views),
	})
}
