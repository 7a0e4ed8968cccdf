package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/application/sales"
	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
)

// fakeSales libro de ventas en memoria.
type fakeSales struct {
	mu        sync.Mutex
	sales     []entity.Sale
	created   []entity.Sale
	updated   []entity.Sale
	deleted   []string
	customers []entity.Customer
	clientErr error
}

func (f *fakeSales) FetchSalesByEmployee(_ context.Context, id string) ([]entity.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Sale
	for _, s := range f.sales {
		if s.EmployeeID == id {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSales) CreateSale(_ context.Context, s entity.Sale) (*entity.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = "sale-1"
	f.created = append(f.created, s)
	return &s, nil
}

func (f *fakeSales) UpdateSale(_ context.Context, s entity.Sale) (entity.Sale, error) {
	f.updated = append(f.updated, s)
	return s, nil
}

func (f *fakeSales) DeleteSale(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSales) CreateClient(_ context.Context, c entity.Customer) (*entity.Customer, error) {
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	f.customers = append(f.customers, c)
	c.ID = "cli-1"
	return &c, nil
}

type stockUpdate struct {
	id              string
	stock, minStock int
}

// fakeStock sólo implementa UpdateProductStock; el resto del gateway no se usa.
type fakeStock struct {
	repository.CatalogGateway
	updates []stockUpdate
	failFor map[string]error
}

func (f *fakeStock) UpdateProductStock(_ context.Context, id string, stock, minStock int) (*entity.Product, error) {
	if err := f.failFor[id]; err != nil {
		return nil, err
	}
	f.updates = append(f.updates, stockUpdate{id: id, stock: stock, minStock: minStock})
	return &entity.Product{ID: id, Name: "actualizado", StockQuantity: stock, MinStock: minStock}, nil
}

type fakeRenderer struct {
	ledger dto.SalesLedger
}

func (r *fakeRenderer) RenderSalesLedger(_ context.Context, l dto.SalesLedger) ([]byte, error) {
	r.ledger = l
	return []byte("%PDF-fake"), nil
}

func newStore(userRole string, status role.Status) *state.Store {
	store := state.NewStore(nil)
	user := &entity.User{ID: "emp-1", Email: "ana@example.com", Role: userRole, RoleStatus: status}
	store.Dispatch(state.SetSession{Session: &entity.Session{AccessToken: "t"}, User: user})
	store.Dispatch(state.SetProducts{Items: []entity.Product{
		{ID: "p1", Name: "Camiseta", BrandID: "b1", LineID: "l1", Price: decimal.RequireFromString("25.50"), StockQuantity: 10, MinStock: 3},
		{ID: "p2", Name: "Gorra", BrandID: "b1", Price: decimal.NewFromInt(10), StockQuantity: 1, MinStock: 0},
	}})
	return store
}

func TestCreate_PreciosDelCatalogoYDescuentaStock(t *testing.T) {
	gw := &fakeSales{}
	stock := &fakeStock{}
	store := newStore("empleado", role.Resolved)
	uc := sales.NewUseCase(gw, stock, store, nil, nil)

	sale, err := uc.Create(context.Background(), dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		PaymentMethod: "Tarjeta",
		CustomerName:  "Leo Marín",
		CustomerEmail: "leo@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "sale-1", sale.ID)
	assert.True(t, decimal.RequireFromString("61").Equal(sale.TotalAmount), "2*25.50 + 10")
	assert.Equal(t, "emp-1", sale.EmployeeID)
	assert.Equal(t, "cli-1", sale.CustomerID)
	assert.False(t, sale.SaleDate.IsZero())

	notes := entity.DecodeSaleNotes(sale.Notes)
	assert.Equal(t, entity.PaymentCard, notes.PaymentMethod)
	assert.Equal(t, "leo@example.com", notes.CustomerData.Email)

	require.Len(t, gw.customers, 1)
	assert.Equal(t, "Leo", gw.customers[0].FirstName)
	assert.Equal(t, "Marín", gw.customers[0].LastName)

	assert.Equal(t, []stockUpdate{{id: "p1", stock: 8, minStock: 3}, {id: "p2", stock: 0, minStock: 0}}, stock.updates)
	for _, p := range store.State().Products {
		if p.ID == "p1" {
			assert.Equal(t, 8, p.StockQuantity)
			assert.Equal(t, "Camiseta", p.Name, "la respuesta parcial del backend no pisa el producto")
			assert.Equal(t, "b1", p.BrandID)
			assert.True(t, decimal.RequireFromString("25.50").Equal(p.Price))
		}
	}
}

func TestCreate_ClienteNoRegistradoQuedaLocal(t *testing.T) {
	gw := &fakeSales{clientErr: errors.New("503")}
	uc := sales.NewUseCase(gw, &fakeStock{}, newStore("admin", role.Resolved), nil, nil)

	sale, err := uc.Create(context.Background(), dto.CreateSaleRequest{
		Items:        []dto.SaleItemRequest{{ProductID: "p1", Quantity: 1}},
		CustomerName: "Eva",
	})
	require.NoError(t, err)
	assert.True(t, entity.IsLocalCustomerID(sale.CustomerID), sale.CustomerID)
	assert.Equal(t, entity.PaymentCash, entity.DecodeSaleNotes(sale.Notes).PaymentMethod)
}

func TestCreate_FalloDeStockNoAnulaLaVenta(t *testing.T) {
	stock := &fakeStock{failFor: map[string]error{"p2": domain.ErrMissingLine}}
	uc := sales.NewUseCase(&fakeSales{}, stock, newStore("admin", role.Resolved), nil, nil)

	_, err := uc.Create(context.Background(), dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "p2", Quantity: 1}}})
	require.NoError(t, err)
	assert.Empty(t, stock.updates)
}

func TestCreate_Validaciones(t *testing.T) {
	ctx := context.Background()
	uc := sales.NewUseCase(&fakeSales{}, &fakeStock{}, newStore("empleado", role.Resolved), nil, nil)

	_, err := uc.Create(ctx, dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: 0}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "nope", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Create(ctx, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "p2", Quantity: 1}, {ProductID: "p2", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "las cantidades del mismo producto se suman")

	_, err = uc.Create(ctx, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: 1}}, PaymentMethod: "bitcoin"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_RequierePersonal(t *testing.T) {
	ctx := context.Background()
	req := dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: 1}}}

	_, err := sales.NewUseCase(&fakeSales{}, nil, newStore("cliente", role.Resolved), nil, nil).Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = sales.NewUseCase(&fakeSales{}, nil, newStore("admin", role.Unresolved), nil, nil).Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrRoleUnresolved, "rol pendiente no habilita")
	assert.NotErrorIs(t, err, domain.ErrForbidden)

	gw := &fakeSales{}
	_, err = sales.NewUseCase(gw, nil, newStore("", role.Failed), nil, nil).Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrRoleUnresolved)
	assert.NotErrorIs(t, err, domain.ErrForbidden, "una consulta de rol fallida no es una denegación")
	assert.Empty(t, gw.created)

	_, err = sales.NewUseCase(&fakeSales{}, nil, state.NewStore(nil), nil, nil).Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateDelete_DuenoOAdmin(t *testing.T) {
	ctx := context.Background()
	other := entity.Sale{ID: "s9", EmployeeID: "emp-2", Notes: `{"paymentMethod":"efectivo","customerData":{"name":"Leo","email":""}}`}

	gw := &fakeSales{}
	uc := sales.NewUseCase(gw, nil, newStore("empleado", role.Resolved), nil, nil)
	_, err := uc.Update(ctx, other, dto.UpdateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, uc.Delete(ctx, other), domain.ErrForbidden)

	admin := sales.NewUseCase(gw, nil, newStore("admin", role.Resolved), nil, nil)
	method := "transferencia"
	updated, err := admin.Update(ctx, other, dto.UpdateSaleRequest{PaymentMethod: &method})
	require.NoError(t, err)
	notes := entity.DecodeSaleNotes(updated.Notes)
	assert.Equal(t, entity.PaymentTransfer, notes.PaymentMethod)
	assert.Equal(t, "Leo", notes.CustomerData.Name, "las notas no tocadas se conservan")

	require.NoError(t, admin.Delete(ctx, other))
	assert.Equal(t, []string{"s9"}, gw.deleted)

	own := entity.Sale{ID: "s1", EmployeeID: "emp-1"}
	require.NoError(t, uc.Delete(ctx, own))
}

func TestListMineYReporte(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	gw := &fakeSales{sales: []entity.Sale{
		{ID: "a", EmployeeID: "emp-1", TotalAmount: decimal.NewFromInt(100), SaleDate: day(1), Notes: `{"paymentMethod":"efectivo","customerData":{"name":"Leo","email":"l@x.co"}}`},
		{ID: "b", EmployeeID: "emp-1", TotalAmount: decimal.NewFromInt(50), SaleDate: day(3), Notes: `{"paymentMethod":"tarjeta"}`},
		{ID: "c", EmployeeID: "emp-1", TotalAmount: decimal.NewFromInt(25), SaleDate: day(2), CustomerName: "Eva"},
		{ID: "z", EmployeeID: "emp-2", TotalAmount: decimal.NewFromInt(999)},
	}}
	renderer := &fakeRenderer{}
	uc := sales.NewUseCase(gw, nil, newStore("empleado", role.Resolved), renderer, nil)

	list, err := uc.ListMine(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	views := sales.Views(list)
	assert.Equal(t, "Eva", views[1].CustomerName, "sin notas se usa el nombre de la venta")
	assert.Equal(t, "l@x.co", views[2].CustomerEmail)

	sum := sales.Summary(views)
	assert.Equal(t, 3, sum.Count)
	assert.True(t, decimal.NewFromInt(175).Equal(sum.Total))
	assert.True(t, decimal.NewFromInt(25).Equal(sum.ByPayment["sin especificar"]))

	out, err := uc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	assert.Equal(t, "ana", renderer.ledger.EmployeeName)
	assert.Len(t, renderer.ledger.Sales, 3)
}

func TestReport_SinRenderer(t *testing.T) {
	uc := sales.NewUseCase(&fakeSales{}, nil, newStore("empleado", role.Resolved), nil, nil)
	_, err := uc.Report(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
