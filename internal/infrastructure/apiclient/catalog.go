package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
)

var (
	_ repository.CatalogGateway = (*Client)(nil)
	_ repository.SalesGateway   = (*Client)(nil)
)

// fetchByIDsLimit peticiones concurrentes de FetchProductsByIds.
const fetchByIDsLimit = 4

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// saveTarget POST a la colección o PUT al recurso según tenga id.
func saveTarget(collection, id string) (method, path string) {
	if id == "" {
		return http.MethodPost, collection
	}
	return http.MethodPut, collection + "/" + url.PathEscape(id)
}

func (c *Client) FetchBrands(ctx context.Context) ([]entity.Brand, error) {
	raw, err := c.get(ctx, "/api/brands")
	if err != nil {
		return nil, err
	}
	return mapList(raw, mapBrand), nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]entity.Category, error) {
	raw, err := c.get(ctx, "/api/categories")
	if err != nil {
		return nil, err
	}
	return mapList(raw, mapCategory), nil
}

func (c *Client) FetchLines(ctx context.Context) ([]entity.Line, error) {
	raw, err := c.get(ctx, "/api/lines")
	if err != nil {
		return nil, err
	}
	return mapList(raw, mapLine), nil
}

func (c *Client) FetchProducts(ctx context.Context) ([]entity.Product, error) {
	raw, err := c.get(ctx, "/api/products")
	if err != nil {
		return nil, err
	}
	return mapList(raw, mapProduct), nil
}

func (c *Client) FetchLowStockProducts(ctx context.Context) ([]entity.Product, error) {
	raw, err := c.get(ctx, "/api/products/low-stock")
	if err != nil {
		return nil, err
	}
	return mapList(raw, mapProduct), nil
}

// FetchProduct devuelve nil sin error si el backend no devuelve cuerpo.
func (c *Client) FetchProduct(ctx context.Context, id string) (*entity.Product, error) {
	if id == "" {
		return nil, nil
	}
	raw, err := c.get(ctx, "/api/products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	p, ok := mapOne(raw, mapProduct)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// FetchProductsByIds conserva el orden de ids y descarta los que fallen.
func (c *Client) FetchProductsByIds(ctx context.Context, ids []string) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	found := make([]*entity.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchByIDsLimit)
	for i, id := range ids {
		g.Go(func() error {
			p, err := c.FetchProduct(gctx, id)
			if err != nil {
				c.log.Debug().Err(err).Str("product_id", id).Msg("producto omitido")
				return nil
			}
			found[i] = p
			return nil
		})
	}
	_ = g.Wait()

	out := make([]entity.Product, 0, len(ids))
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *Client) SaveBrand(ctx context.Context, b entity.Brand) (entity.Brand, error) {
	body := map[string]any{
		"name":        b.Name,
		"description": b.Description,
		"logo":        b.Logo,
	}
	if b.OwnerID != "" {
		body["userId"] = b.OwnerID
	}
	method, path := saveTarget("/api/brands", b.ID)
	raw, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return entity.Brand{}, err
	}
	if saved, ok := mapOne(raw, mapBrand); ok {
		return saved, nil
	}
	return b, nil
}

func (c *Client) DeleteBrand(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: "/api/brands/" + url.PathEscape(id)})
	return err
}

func (c *Client) SaveCategory(ctx context.Context, cat entity.Category) (entity.Category, error) {
	body := map[string]any{
		"name":        cat.Name,
		"description": cat.Description,
	}
	method, path := saveTarget("/api/categories", cat.ID)
	raw, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return entity.Category{}, err
	}
	if saved, ok := mapOne(raw, mapCategory); ok {
		return saved, nil
	}
	return cat, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: "/api/categories/" + url.PathEscape(id)})
	return err
}

// CheckLineExists consulta si ya existe una línea con ese nombre en la marca.
func (c *Client) CheckLineExists(ctx context.Context, name, brandID string) (bool, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("brandId", brandID)
	raw, err := c.get(ctx, "/api/lines/check/name?"+q.Encode())
	if err != nil {
		return false, err
	}
	f, ok := decodeFields(raw)
	if !ok {
		return false, nil
	}
	return f.bool("exists"), nil
}

// SaveLine devuelve el id confirmado por el servidor ("" si no lo informa).
func (c *Client) SaveLine(ctx context.Context, l entity.Line) (string, error) {
	body := map[string]any{
		"name":    l.Name,
		"brandId": l.BrandID,
	}
	if l.Description != "" {
		body["description"] = l.Description
	}
	method, path := saveTarget("/api/lines", l.ID)
	raw, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return "", err
	}
	f, ok := decodeFields(raw)
	if !ok {
		return "", nil
	}
	return f.str("id"), nil
}

func (c *Client) DeleteLine(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: "/api/lines/" + url.PathEscape(id)})
	return err
}

func productBody(p entity.Product) map[string]any {
	body := map[string]any{
		"userId":        p.OwnerID,
		"brandId":       p.BrandID,
		"lineId":        nil,
		"name":          p.Name,
		"description":   p.Description,
		"price":         p.Price.InexactFloat64(),
		"image":         p.Image,
		"stockQuantity": p.StockQuantity,
		"minStock":      p.MinStock,
	}
	if p.LineID != "" {
		body["lineId"] = p.LineID
	}
	return body
}

// SaveProduct crea o actualiza el producto. Sin CategoryID, newCategory pide al servidor crear la categoría.
func (c *Client) SaveProduct(ctx context.Context, p entity.Product, newCategory string) (entity.Product, error) {
	body := productBody(p)
	if p.CategoryID != "" {
		body["categoryId"] = p.CategoryID
	} else if newCategory != "" {
		body["newCategory"] = newCategory
	}
	method, path := saveTarget("/api/products", p.ID)
	raw, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return entity.Product{}, err
	}
	if saved, ok := mapOne(raw, mapProduct); ok {
		return saved, nil
	}
	return p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: "/api/products/" + url.PathEscape(id)})
	return err
}

// UpdateProductStock relee el producto y lo reescribe completo con el nuevo stock.
// El backend exige línea: un producto sin lineId devuelve domain.ErrMissingLine.
func (c *Client) UpdateProductStock(ctx context.Context, id string, stock, minStock int) (*entity.Product, error) {
	current, err := c.FetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	if current.LineID == "" {
		return nil, fmt.Errorf("producto %q (%s) sin línea asignada: %w", current.Name, id, domain.ErrMissingLine)
	}

	next := *current
	next.StockQuantity = stock
	next.MinStock = minStock
	body := productBody(next)
	body["categoryId"] = nil
	if next.CategoryID != "" {
		body["categoryId"] = next.CategoryID
	}

	raw, err := c.Do(ctx, Request{Method: http.MethodPut, Path: "/api/products/" + url.PathEscape(id), Body: body})
	if err != nil {
		return nil, err
	}
	p, ok := mapOne(raw, mapProduct)
	if !ok {
		return nil, nil
	}
	return &p, nil
}
