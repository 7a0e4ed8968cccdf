package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/pdf"
)

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "$0,00",
		"999.5":    "$999,50",
		"1234.5":   "$1.234,50",
		"1000000":  "$1.000.000,00",
		"-2500.25": "$-2.500,25",
	}
	for in, want := range cases {
		assert.Equal(t, want, pdf.Money(decimal.RequireFromString(in)), in)
	}
}

func TestRenderSalesLedger(t *testing.T) {
	ledger := dto.SalesLedger{
		EmployeeName: "Ana",
		GeneratedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Sales: []dto.SaleView{
			{ID: "s1", CustomerName: "Leo", PaymentMethod: "efectivo", TotalAmount: decimal.NewFromInt(120), ItemCount: 2},
			{ID: "s2", PaymentMethod: "tarjeta", TotalAmount: decimal.NewFromInt(80), ItemCount: 1},
		},
		Summary: dto.SalesSummary{
			Count: 2,
			Total: decimal.NewFromInt(200),
			ByPayment: map[string]decimal.Decimal{
				"efectivo": decimal.NewFromInt(120),
				"tarjeta":  decimal.NewFromInt(80),
			},
		},
	}

	out, err := pdf.NewLedgerGenerator().RenderSalesLedger(context.Background(), ledger)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un documento PDF")
}

func TestRenderSalesLedger_SinVentas(t *testing.T) {
	out, err := pdf.NewLedgerGenerator().RenderSalesLedger(context.Background(), dto.SalesLedger{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
