package entity

// Category representa una categoría de productos; los productos la referencian por nombre.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Slug        string `json:"slug,omitempty"`
	OwnerID     string `json:"userId,omitempty"`
}
