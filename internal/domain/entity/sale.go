package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago usados en las notas de venta.
const (
	PaymentCash     = "efectivo"
	PaymentCard     = "tarjeta"
	PaymentTransfer = "transferencia"
)

// SaleItem línea de una venta.
type SaleItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal cantidad * precio unitario.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale registro del libro de ventas. Notes es un blob JSON opaco (ver SaleNotes).
type Sale struct {
	ID           string
	EmployeeID   string
	CustomerID   string
	CustomerName string
	TotalAmount  decimal.Decimal
	SaleDate     time.Time
	Notes        string
	Items        []SaleItem
}

// CustomerData datos del cliente embebidos en las notas.
type CustomerData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SaleNotes contenido del blob Notes: método de pago y foto del cliente.
type SaleNotes struct {
	PaymentMethod string       `json:"paymentMethod"`
	CustomerData  CustomerData `json:"customerData"`
}

// Encode serializa las notas al blob JSON.
func (n SaleNotes) Encode() string {
	b, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeSaleNotes interpreta el blob; vacío o corrupto devuelve notas vacías.
func DecodeSaleNotes(raw string) SaleNotes {
	var n SaleNotes
	if raw == "" {
		return n
	}
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return SaleNotes{}
	}
	return n
}

// SumItems total de la venta a partir de sus líneas.
func SumItems(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
