package catalog_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

// fakeGateway backend en memoria con fallos y bloqueos configurables por operación.
type fakeGateway struct {
	mu sync.Mutex

	brands     []entity.Brand
	categories []entity.Category
	products   []entity.Product
	lines      []entity.Line

	fail    map[string]error
	started chan struct{}
	release chan struct{}

	calls        map[string]int
	lastCategory string
	lineExists   bool
	seq          int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{fail: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeGateway) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	f.mu.Unlock()
	return err
}

func (f *fakeGateway) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeGateway) FetchBrands(ctx context.Context) ([]entity.Brand, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.enter("FetchBrands"); err != nil {
		return nil, err
	}
	return append([]entity.Brand(nil), f.brands...), nil
}

func (f *fakeGateway) FetchCategories(context.Context) ([]entity.Category, error) {
	if err := f.enter("FetchCategories"); err != nil {
		return nil, err
	}
	return append([]entity.Category(nil), f.categories...), nil
}

func (f *fakeGateway) FetchLines(context.Context) ([]entity.Line, error) {
	if err := f.enter("FetchLines"); err != nil {
		return nil, err
	}
	return append([]entity.Line(nil), f.lines...), nil
}

func (f *fakeGateway) FetchProducts(context.Context) ([]entity.Product, error) {
	if err := f.enter("FetchProducts"); err != nil {
		return nil, err
	}
	return append([]entity.Product(nil), f.products...), nil
}

func (f *fakeGateway) FetchProduct(_ context.Context, id string) (*entity.Product, error) {
	if err := f.enter("FetchProduct"); err != nil {
		return nil, err
	}
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeGateway) FetchProductsByIds(ctx context.Context, ids []string) ([]entity.Product, error) {
	out := []entity.Product{}
	for _, id := range ids {
		if p, _ := f.FetchProduct(ctx, id); p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeGateway) FetchLowStockProducts(context.Context) ([]entity.Product, error) {
	if err := f.enter("FetchLowStockProducts"); err != nil {
		return nil, err
	}
	var out []entity.Product
	for _, p := range f.products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeGateway) SaveBrand(_ context.Context, b entity.Brand) (entity.Brand, error) {
	if err := f.enter("SaveBrand"); err != nil {
		return entity.Brand{}, err
	}
	if b.ID == "" {
		b.ID = f.nextID("srv-br")
	}
	return b, nil
}

func (f *fakeGateway) DeleteBrand(context.Context, string) error { return f.enter("DeleteBrand") }

func (f *fakeGateway) SaveCategory(_ context.Context, c entity.Category) (entity.Category, error) {
	if err := f.enter("SaveCategory"); err != nil {
		return entity.Category{}, err
	}
	if c.ID == "" {
		c.ID = f.nextID("srv-cat")
	}
	return c, nil
}

func (f *fakeGateway) DeleteCategory(context.Context, string) error {
	return f.enter("DeleteCategory")
}

func (f *fakeGateway) SaveLine(_ context.Context, l entity.Line) (string, error) {
	if err := f.enter("SaveLine"); err != nil {
		return "", err
	}
	if l.ID != "" {
		return l.ID, nil
	}
	return f.nextID("srv-ln"), nil
}

func (f *fakeGateway) DeleteLine(context.Context, string) error { return f.enter("DeleteLine") }

func (f *fakeGateway) CheckLineExists(context.Context, string, string) (bool, error) {
	if err := f.enter("CheckLineExists"); err != nil {
		return false, err
	}
	return f.lineExists, nil
}

func (f *fakeGateway) SaveProduct(_ context.Context, p entity.Product, newCategory string) (entity.Product, error) {
	if err := f.enter("SaveProduct"); err != nil {
		return entity.Product{}, err
	}
	f.mu.Lock()
	f.lastCategory = newCategory
	f.mu.Unlock()
	if p.ID == "" {
		p.ID = f.nextID("srv-prd")
	}
	if newCategory != "" {
		p.CategoryID = f.nextID("srv-cat")
	}
	return p, nil
}

func (f *fakeGateway) DeleteProduct(context.Context, string) error {
	return f.enter("DeleteProduct")
}

func (f *fakeGateway) UpdateProductStock(_ context.Context, id string, stock, minStock int) (*entity.Product, error) {
	if err := f.enter("UpdateProductStock"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID != id {
			continue
		}
		if p.LineID == "" {
			return nil, domain.ErrMissingLine
		}
		f.products[i].StockQuantity = stock
		f.products[i].MinStock = minStock
		out := f.products[i]
		return &out, nil
	}
	return nil, nil
}
