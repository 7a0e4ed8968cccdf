package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/apiclient"
)

// table escribe filas alineadas por columnas.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.tw, strings.Join(cols, "\t"))
}

func (t *table) flush() error { return t.tw.Flush() }

func writeProducts(w io.Writer, products []entity.Product) error {
	t := newTable(w, "ID", "NOMBRE", "CATEGORÍA", "MARCA", "PRECIO", "STOCK", "MÍNIMO")
	for _, p := range products {
		stock := fmt.Sprint(p.StockQuantity)
		if p.IsLowStock() {
			stock += " !"
		}
		t.row(p.ID, p.Name, p.Category, p.BrandID, p.Price.StringFixed(2), stock, fmt.Sprint(p.MinStock))
	}
	return t.flush()
}

// Describe traduce un error a un mensaje para el usuario.
func Describe(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, errNoSession):
		return err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Credenciales inválidas"
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return "El email ya está registrado"
	case errors.Is(err, domain.ErrRoleUnresolved):
		return "No se pudo verificar tu rol, reintenta"
	case errors.Is(err, domain.ErrForbidden):
		return "Tu rol no permite esta operación"
	case errors.Is(err, domain.ErrBrandInUse):
		return "No se puede eliminar: la marca tiene productos asociados"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "Stock insuficiente: " + err.Error()
	case errors.Is(err, domain.ErrUnsupported):
		return "Operación no disponible con el proveedor de autenticación actual"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("El servidor respondió %d: %s", apiErr.Status, apiErr.Message)
	default:
		return err.Error()
	}
}
