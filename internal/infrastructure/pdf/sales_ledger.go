// Package pdf genera el reporte del libro de ventas.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Libro de ventas + empleado  │  Fecha de generación  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Cliente | Pago | Ítems | Total               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: por método de pago / TOTAL VENDIDO                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/application/sales"
)

// Colores de la barra de título de Luna (XP).
var (
	colorPrimary = &props.Color{Red: 0, Green: 84, Blue: 227}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ sales.LedgerRenderer = (*LedgerGenerator)(nil)

// LedgerGenerator implementa sales.LedgerRenderer con Maroto v2.
type LedgerGenerator struct{}

// NewLedgerGenerator construye el generador.
func NewLedgerGenerator() *LedgerGenerator { return &LedgerGenerator{} }

// RenderSalesLedger genera el PDF y devuelve sus bytes.
func (g *LedgerGenerator) RenderSalesLedger(_ context.Context, ledger dto.SalesLedger) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Libro de ventas", true).
		WithAuthor(ledger.EmployeeName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(ledger))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	if len(ledger.Sales) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin ventas registradas.", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	m.AddRows(saleRows(ledger.Sales)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(ledger.Summary)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(ledger dto.SalesLedger) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("LIBRO DE VENTAS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Empleado: "+nonEmpty(ledger.EmployeeName, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+ledger.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Cliente", 4, align.Left),
		h("Pago", 2, align.Left),
		h("Ítems", 1, align.Center),
		h("Total", 3, align.Right),
	)
}

func saleRows(views []dto.SaleView) []core.Row {
	out := make([]core.Row, 0, len(views))
	for _, v := range views {
		date := "-"
		if !v.SaleDate.IsZero() {
			date = v.SaleDate.Format("02/01/2006")
		}
		out = append(out, row.New(7).Add(
			col.New(2).Add(text.New(date, props.Text{Size: 8, Top: 1})),
			col.New(4).Add(text.New(nonEmpty(v.CustomerName, "Consumidor final"), props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(nonEmpty(v.PaymentMethod, "-"), props.Text{Size: 8, Top: 1})),
			col.New(1).Add(text.New(strconv.Itoa(v.ItemCount), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(money(v.TotalAmount), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return out
}

func totalsRows(sum dto.SalesSummary) []core.Row {
	methods := make([]string, 0, len(sum.ByPayment))
	for m := range sum.ByPayment {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	rows := make([]core.Row, 0, len(methods)+1)
	for _, m := range methods {
		rows = append(rows, row.New(6).Add(
			col.New(6),
			col.New(3).Add(text.New(m+":", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})),
			col.New(3).Add(text.New(money(sum.ByPayment[m]), props.Text{Size: 9, Align: align.Right})),
		))
	}
	rows = append(rows, row.New(8).Add(
		col.New(6).Add(text.New(fmt.Sprintf("%d ventas", sum.Count), props.Text{Size: 9, Top: 2, Color: colorGray})),
		col.New(3).Add(text.New("TOTAL VENDIDO:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New(money(sum.Total), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 2,
		})),
	))
	return rows
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money "$" con puntos de miles y dos decimales tras coma: 1234.5 -> "$1.234,50".
func money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	return "$" + sign + groupThousands(intPart) + "," + frac
}

// groupThousands inserta puntos de miles en un entero sin signo: "1000000" -> "1.000.000".
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
