package apiclient

import (
	"encoding/json"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

func mapBrand(f fields) entity.Brand {
	return entity.Brand{
		ID:          f.str("id"),
		OwnerID:     f.str("userId", "user_id"),
		Name:        f.str("name"),
		Description: f.str("description"),
		Logo:        f.str("logo"),
	}
}

func mapCategory(f fields) entity.Category {
	return entity.Category{
		ID:          f.str("id"),
		OwnerID:     f.str("userId", "user_id"),
		Name:        f.str("name", "title", "label"),
		Description: f.str("description"),
		Slug:        f.str("slug"),
	}
}

func mapLine(f fields) entity.Line {
	return entity.Line{
		ID:          f.str("id"),
		Name:        f.str("name"),
		BrandID:     f.str("brandId", "brand_id"),
		Description: f.str("description"),
		CreatedBy:   f.str("createdBy", "created_by"),
	}
}

// productCategory category puede ser un string o un objeto {name}.
func productCategory(f fields) string {
	if obj, ok := f.object("category"); ok {
		if name := obj.str("name"); name != "" {
			return name
		}
		return entity.DefaultCategory
	}
	if name := f.str("category"); name != "" {
		return name
	}
	return entity.DefaultCategory
}

func mapProduct(f fields) entity.Product {
	return entity.Product{
		ID:            f.str("id"),
		OwnerID:       f.str("userId", "user_id"),
		BrandID:       f.str("brandId", "brand_id"),
		LineID:        f.str("lineId", "line_id"),
		CategoryID:    f.str("categoryId", "category_id"),
		Name:          f.str("name"),
		Description:   f.str("description"),
		Category:      productCategory(f),
		Price:         f.decimal("price"),
		Image:         f.str("image"),
		StockQuantity: f.int("stockQuantity", "stock_quantity"),
		MinStock:      f.int("minStock", "min_stock"),
	}
}

func mapSaleItem(f fields) entity.SaleItem {
	return entity.SaleItem{
		ProductID: f.str("productId", "product_id"),
		Quantity:  f.int("quantity"),
		UnitPrice: f.decimal("unitPrice", "unit_price", "price"),
	}
}

func mapSale(f fields) entity.Sale {
	s := entity.Sale{
		ID:           f.str("id"),
		EmployeeID:   f.str("employeeId", "employee_id"),
		CustomerID:   f.str("clientId", "client_id"),
		CustomerName: f.str("customerName", "customer_name"),
		TotalAmount:  f.decimal("totalAmount", "total_amount"),
		SaleDate:     f.time("saleDate", "sale_date"),
		Notes:        saleNotes(f),
		Items:        []entity.SaleItem{},
	}
	if raw, ok := f.pick("items", "sale_items"); ok {
		for _, it := range decodeList(raw) {
			s.Items = append(s.Items, mapSaleItem(it))
		}
	}
	return s
}

// saleNotes notes puede llegar como string JSON o como objeto ya decodificado.
func saleNotes(f fields) string {
	if s := f.str("notes"); s != "" {
		return s
	}
	if raw, ok := f.pick("notes"); ok && json.Valid(raw) {
		if _, isObj := decodeFields(raw); isObj {
			return string(raw)
		}
	}
	return ""
}

func mapCustomer(f fields) entity.Customer {
	return entity.Customer{
		ID:        f.str("id"),
		FirstName: f.str("firstName", "first_name"),
		LastName:  f.str("lastName", "last_name"),
		Email:     f.str("email"),
		Phone:     f.str("phone"),
	}
}

func mapList[T any](raw json.RawMessage, fn func(fields) T) []T {
	items := decodeList(raw)
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}

func mapOne[T any](raw json.RawMessage, fn func(fields) T) (T, bool) {
	f, ok := decodeFields(raw)
	if !ok {
		var zero T
		return zero, false
	}
	return fn(f), true
}
