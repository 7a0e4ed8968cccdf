package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea pedida; el precio se toma del catálogo.
type SaleItemRequest struct {
	ProductID string
	Quantity  int
}

// CreateSaleRequest entrada para registrar una venta.
type CreateSaleRequest struct {
	Items         []SaleItemRequest
	PaymentMethod string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	SaleDate      time.Time
}

// UpdateSaleRequest cambios sobre una venta; nil no modifica.
type UpdateSaleRequest struct {
	ID            string
	PaymentMethod *string
	CustomerName  *string
	CustomerEmail *string
	SaleDate      *time.Time
}

// SaleView venta con las notas ya interpretadas.
type SaleView struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	CustomerID    string          `json:"customerId,omitempty"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	PaymentMethod string          `json:"paymentMethod"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	SaleDate      time.Time       `json:"saleDate"`
	ItemCount     int             `json:"itemCount"`
}

// SalesSummary totales del libro de ventas de un empleado.
type SalesSummary struct {
	Count     int                        `json:"count"`
	Total     decimal.Decimal            `json:"total"`
	ByPayment map[string]decimal.Decimal `json:"byPayment"`
}

// SalesLedger datos del reporte PDF del libro de ventas.
type SalesLedger struct {
	EmployeeName string
	GeneratedAt  time.Time
	Sales        []SaleView
	Summary      SalesSummary
}
