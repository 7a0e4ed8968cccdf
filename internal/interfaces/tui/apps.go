package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/ventas-xp/internal/application/sales"
	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
)

// App icono del escritorio y la ventana que abre.
type App struct {
	ID    string
	Title string
	Icon  string
	// Allowed niveles con acceso; vacío significa cualquier usuario autenticado.
	Allowed []role.Tier
}

// Identificadores de las ventanas del escritorio.
const (
	AppCatalog  = "catalog"
	AppBrands   = "brands"
	AppLowStock = "lowstock"
	AppSales    = "sales"
	AppAdmin    = "admin"
	AppAccount  = "account"
)

// Apps iconos en el orden en que aparecen en el escritorio y la barra de tareas.
var Apps = []App{
	{ID: AppCatalog, Title: "Catálogo", Icon: "[#]"},
	{ID: AppBrands, Title: "Marcas y líneas", Icon: "[M]"},
	{ID: AppLowStock, Title: "Stock bajo", Icon: "[!]"},
	{ID: AppSales, Title: "Ventas", Icon: "[$]", Allowed: []role.Tier{role.TierAdmin, role.TierEmployee}},
	{ID: AppAdmin, Title: "Administración", Icon: "[A]", Allowed: []role.Tier{role.TierAdmin}},
	{ID: AppAccount, Title: "Mi cuenta", Icon: "[@]"},
}

func findApp(id string) (App, bool) {
	for _, a := range Apps {
		if a.ID == id {
			return a, true
		}
	}
	return App{}, false
}

// Gate decide si la vista puede mostrarse. Sin acceso devuelve el mensaje a mostrar en su lugar.
func Gate(res role.Resolution, allowed ...role.Tier) (bool, string) {
	if len(allowed) == 0 {
		return true, ""
	}
	switch res.Access(allowed...) {
	case role.AccessGranted:
		return true, ""
	case role.AccessPending:
		return false, "Verificando permisos..."
	case role.AccessInconclusive:
		return false, "No se pudo verificar tu rol. Pulsa r para reintentar."
	default:
		return false, fmt.Sprintf("Acceso denegado: tu rol (%s) no tiene permiso para esta vista.", displayRole(res.Role))
	}
}

func displayRole(r string) string {
	if r == "" {
		return "sin rol"
	}
	return r
}

// maxRows filas visibles por tabla dentro de una ventana.
const maxRows = 12

func renderProducts(products []entity.Product) string {
	if len(products) == 0 {
		return "No hay productos."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-12s %10s %6s\n", "Nombre", "Categoría", "Precio", "Stock")
	for i, p := range products {
		if i == maxRows {
			fmt.Fprintf(&b, "... y %d más\n", len(products)-maxRows)
			break
		}
		mark := ""
		if p.IsLowStock() {
			mark = " !"
		}
		fmt.Fprintf(&b, "%-24s %-12s %10s %6d%s\n", clip(p.Name, 24), clip(p.Category, 12), p.Price.StringFixed(2), p.StockQuantity, mark)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCatalog(st state.State) string {
	f := st.Catalog
	header := fmt.Sprintf("Filtros: texto=%q categoría=%s marca=%s", f.Query, f.Category, f.BrandID)
	return header + "\n\n" + renderProducts(f.Apply(st.Products))
}

func renderBrands(st state.State) string {
	if len(st.Brands) == 0 {
		return "No hay marcas."
	}
	lines := map[string][]string{}
	for _, l := range st.Lines {
		lines[l.BrandID] = append(lines[l.BrandID], l.Name)
	}
	var b strings.Builder
	for i, br := range st.Brands {
		if i == maxRows {
			fmt.Fprintf(&b, "... y %d más\n", len(st.Brands)-maxRows)
			break
		}
		names := lines[br.ID]
		sort.Strings(names)
		fmt.Fprintf(&b, "%-20s %s\n", clip(br.Name, 20), strings.Join(names, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func lowStock(products []entity.Product) []entity.Product {
	var out []entity.Product
	for _, p := range products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}

func renderSales(list []entity.Sale, loaded bool, err error) string {
	switch {
	case err != nil:
		return "No se pudieron cargar las ventas: " + err.Error()
	case !loaded:
		return "Cargando ventas..."
	case len(list) == 0:
		return "Todavía no registraste ventas."
	}
	views := sales.Views(list)
	var b strings.Builder
	for i, v := range views {
		if i == maxRows {
			fmt.Fprintf(&b, "... y %d más\n", len(views)-maxRows)
			break
		}
		fmt.Fprintf(&b, "%s  %-20s %-13s %10s\n", v.SaleDate.Format("2006-01-02"), clip(v.CustomerName, 20), v.PaymentMethod, v.TotalAmount.StringFixed(2))
	}
	sum := sales.Summary(views)
	fmt.Fprintf(&b, "\nTotal: %s en %d ventas", sum.Total.StringFixed(2), sum.Count)
	return b.String()
}

func renderAdmin(st state.State) string {
	return fmt.Sprintf(
		"Productos:  %d\nMarcas:     %d\nCategorías: %d\nLíneas:     %d\nStock bajo: %d",
		len(st.Products), len(st.Brands), len(st.Categories), len(st.Lines), len(lowStock(st.Products)),
	)
}

func renderAccount(u *entity.User) string {
	if u == nil {
		return "Sin sesión. Usa 'ventasxp login' para entrar."
	}
	return fmt.Sprintf("Nombre: %s\nEmail:  %s\nRol:    %s (%s)", u.DisplayName(), u.Email, displayRole(u.Role), u.RoleStatus)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
