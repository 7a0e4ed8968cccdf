package tui_test

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/desktop"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
	"github.com/jhoicas/ventas-xp/internal/interfaces/tui"
)

type fakeSales struct {
	list  []entity.Sale
	calls int
}

func (f *fakeSales) ListMine(context.Context) ([]entity.Sale, error) {
	f.calls++
	return f.list, nil
}

type fakeSession struct {
	applied []*entity.Session
}

func (f *fakeSession) Apply(_ context.Context, sess *entity.Session) {
	f.applied = append(f.applied, sess)
}

type harness struct {
	model   tea.Model
	windows *desktop.Manager
	store   *state.Store
	sales   *fakeSales
	session *fakeSession
}

func newHarness(t *testing.T, u *entity.User) *harness {
	t.Helper()
	h := &harness{
		windows: desktop.NewManager(),
		store:   state.NewStore(nil),
		sales:   &fakeSales{},
		session: &fakeSession{},
	}
	if u != nil {
		h.store.Dispatch(state.SetSession{Session: &entity.Session{AccessToken: "tok"}, User: u})
	}
	h.model = tui.NewModel(context.Background(), tui.Deps{
		Store:   h.store,
		Windows: h.windows,
		Session: h.session,
		Sales:   h.sales,
	})
	h.model, _ = h.model.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	return h
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// press envía las teclas en orden y devuelve el último comando.
func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		h.model, cmd = h.model.Update(key(k))
	}
	return cmd
}

// openApp mueve la selección al ícono en la posición idx y lo abre.
func (h *harness) openApp(idx int) tea.Cmd {
	keys := make([]string, 0, idx+1)
	for i := 0; i < idx; i++ {
		keys = append(keys, "right")
	}
	keys = append(keys, "enter")
	cmd := h.press(keys...)
	for i := 0; i < idx; i++ {
		h.press("left")
	}
	return cmd
}

func appIndex(t *testing.T, id string) int {
	t.Helper()
	for i, a := range tui.Apps {
		if a.ID == id {
			return i
		}
	}
	t.Fatalf("app %q no registrada", id)
	return -1
}

func user(r string, status role.Status) *entity.User {
	return &entity.User{ID: "u1", Email: "ana@example.com", Role: r, RoleStatus: status}
}

func TestDesktop_EnterAbreVentanaAlFrente(t *testing.T) {
	h := newHarness(t, user("admin", role.Resolved))

	h.openApp(appIndex(t, tui.AppCatalog))

	assert.Equal(t, tui.AppCatalog, h.windows.Active())
	assert.Contains(t, h.model.View(), "Catálogo")
}

func TestDesktop_MinimizarYRestaurarDesdeBarra(t *testing.T) {
	h := newHarness(t, user("admin", role.Resolved))
	h.openApp(appIndex(t, tui.AppCatalog))

	h.press("m")
	w, ok := h.windows.Get(tui.AppCatalog)
	require.True(t, ok)
	assert.True(t, w.Minimized)
	assert.Empty(t, h.windows.Active())

	h.press("t", "enter")
	w, _ = h.windows.Get(tui.AppCatalog)
	assert.False(t, w.Minimized)
	assert.Equal(t, tui.AppCatalog, h.windows.Active())
}

func TestDesktop_TabAlternaFoco(t *testing.T) {
	h := newHarness(t, user("admin", role.Resolved))
	h.openApp(appIndex(t, tui.AppCatalog))
	h.openApp(appIndex(t, tui.AppBrands))
	require.Equal(t, tui.AppBrands, h.windows.Active())

	h.press("tab")
	assert.Equal(t, tui.AppCatalog, h.windows.Active())

	h.press("tab")
	assert.Equal(t, tui.AppBrands, h.windows.Active())
}

func TestDesktop_MaximizarYCerrar(t *testing.T) {
	h := newHarness(t, user("admin", role.Resolved))
	h.openApp(appIndex(t, tui.AppAccount))

	h.press("x")
	w, _ := h.windows.Get(tui.AppAccount)
	assert.True(t, w.Maximized)

	h.press("c")
	_, ok := h.windows.Get(tui.AppAccount)
	assert.False(t, ok)
	assert.Empty(t, h.windows.Active())
}

func TestDesktop_VentanaAdminSegunRol(t *testing.T) {
	cases := map[string]struct {
		user *entity.User
		want string
	}{
		"pendiente":   {user("", role.Unresolved), "Verificando permisos"},
		"cliente":     {user("cliente", role.Resolved), "Acceso denegado"},
		"fallido":     {user("", role.Failed), "No se pudo verificar"},
		"empleado":    {user("empleado", role.Resolved), "Acceso denegado"},
		"admin":       {user("admin", role.Resolved), "Productos:"},
		"manager":     {user("manager", role.Resolved), "Productos:"},
		"sin usuario": {nil, "Verificando permisos"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, tc.user)
			h.openApp(appIndex(t, tui.AppAdmin))
			assert.Contains(t, h.model.View(), tc.want)
		})
	}
}

func TestDesktop_VentasCargaSoloParaPersonal(t *testing.T) {
	h := newHarness(t, user("empleado", role.Resolved))
	h.sales.list = []entity.Sale{{
		ID:           "s1",
		EmployeeID:   "u1",
		CustomerName: "Bruno Díaz",
		TotalAmount:  decimal.NewFromInt(1500),
		SaleDate:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Notes:        entity.SaleNotes{PaymentMethod: entity.PaymentCard}.Encode(),
	}}

	cmd := h.openApp(appIndex(t, tui.AppSales))
	require.NotNil(t, cmd)
	assert.Contains(t, h.model.View(), "Cargando ventas")

	h.model, _ = h.model.Update(cmd())
	view := h.model.View()
	assert.Contains(t, view, "Bruno Díaz")
	assert.Contains(t, view, "1500.00")

	client := newHarness(t, user("cliente", role.Resolved))
	assert.Nil(t, client.openApp(appIndex(t, tui.AppSales)))
	assert.Equal(t, 0, client.sales.calls)
	assert.Contains(t, client.model.View(), "Acceso denegado")
}

func TestDesktop_RefrescarConRolFallidoReaplicaLaSesion(t *testing.T) {
	h := newHarness(t, user("", role.Failed))

	cmd := h.press("r")
	require.NotNil(t, cmd)
	cmd()
	require.Len(t, h.session.applied, 1)
	assert.Equal(t, "tok", h.session.applied[0].AccessToken)
}

func TestDesktop_CambiosDelStoreSeReflejan(t *testing.T) {
	h := newHarness(t, user("admin", role.Resolved))
	h.openApp(appIndex(t, tui.AppLowStock))
	assert.Contains(t, h.model.View(), "No hay productos")

	h.store.Dispatch(state.SetProducts{Items: []entity.Product{
		{ID: "p1", Name: "Shampoo", Category: "general", Price: decimal.NewFromInt(10), StockQuantity: 1, MinStock: 3},
	}})
	h.model, _ = h.model.Update(tui.StateChanged())
	assert.Contains(t, h.model.View(), "Shampoo")
}

func TestDesktop_QSale(t *testing.T) {
	h := newHarness(t, nil)
	cmd := h.press("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestGate(t *testing.T) {
	ok, msg := tui.Gate(role.Of("cliente"))
	assert.True(t, ok, "sin niveles exigidos cualquier usuario entra")
	assert.Empty(t, msg)

	ok, _ = tui.Gate(role.FailedWith("empleado"), role.TierAdmin, role.TierEmployee)
	assert.True(t, ok, "el rol base conocido sigue contando tras un fallo")

	ok, msg = tui.Gate(role.Of("cliente"), role.TierAdmin)
	assert.False(t, ok)
	assert.Contains(t, msg, "cliente")
}
