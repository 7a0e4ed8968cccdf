package entity

// Line línea de productos subordinada a una marca.
type Line struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BrandID     string `json:"brandId"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy,omitempty"`
}
