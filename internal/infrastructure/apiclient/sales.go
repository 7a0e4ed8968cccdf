package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

func saleItemsBody(items []entity.SaleItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"productId": it.ProductID,
			"quantity":  it.Quantity,
			"unitPrice": it.UnitPrice.InexactFloat64(),
		})
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func saleDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// withClientID añade clientId sólo para clientes registrados en el backend.
func withClientID(body map[string]any, customerID string) {
	if customerID != "" && !entity.IsLocalCustomerID(customerID) {
		body["clientId"] = customerID
	}
}

// FetchSalesByEmployee sin employeeID devuelve una lista vacía sin llamar al backend.
func (c *Client) FetchSalesByEmployee(ctx context.Context, employeeID string) ([]entity.Sale, error) {
	if employeeID == "" {
		return []entity.Sale{}, nil
	}
	raw, err := c.get(ctx, "/api/sales/by-employee/"+url.PathEscape(employeeID))
	if err != nil {
		return nil, err
	}
	return mapList(raw, mapSale), nil
}

func (c *Client) CreateSale(ctx context.Context, s entity.Sale) (*entity.Sale, error) {
	body := map[string]any{
		"employeeId":  s.EmployeeID,
		"items":       saleItemsBody(s.Items),
		"totalAmount": s.TotalAmount.InexactFloat64(),
		"saleDate":    saleDate(s.SaleDate),
		"notes":       nullable(s.Notes),
	}
	withClientID(body, s.CustomerID)

	raw, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/sales", Body: body})
	if err != nil {
		return nil, err
	}
	created, ok := mapOne(raw, mapSale)
	if !ok {
		return nil, nil
	}
	return &created, nil
}

// UpdateSale sin respuesta del servidor devuelve la venta enviada.
func (c *Client) UpdateSale(ctx context.Context, s entity.Sale) (entity.Sale, error) {
	body := map[string]any{
		"totalAmount": s.TotalAmount.InexactFloat64(),
		"saleDate":    saleDate(s.SaleDate),
		"notes":       nullable(s.Notes),
	}
	if s.Items != nil {
		body["items"] = saleItemsBody(s.Items)
	}
	withClientID(body, s.CustomerID)

	raw, err := c.Do(ctx, Request{Method: http.MethodPut, Path: "/api/sales/" + url.PathEscape(s.ID), Body: body})
	if err != nil {
		return entity.Sale{}, err
	}
	if updated, ok := mapOne(raw, mapSale); ok {
		return updated, nil
	}
	return s, nil
}

func (c *Client) DeleteSale(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: "/api/sales/" + url.PathEscape(id)})
	return err
}

// CreateClient registra un cliente final; devuelve nil si el backend no responde cuerpo.
func (c *Client) CreateClient(ctx context.Context, cust entity.Customer) (*entity.Customer, error) {
	body := map[string]any{
		"firstName": cust.FirstName,
		"lastName":  cust.LastName,
		"email":     cust.Email,
		"phone":     nullable(cust.Phone),
	}
	raw, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/clients", Body: body})
	if err != nil {
		return nil, err
	}
	created, ok := mapOne(raw, mapCustomer)
	if !ok {
		return nil, nil
	}
	return &created, nil
}
