package entity

// Brand representa una marca del catálogo. El nombre es único sin distinguir mayúsculas.
type Brand struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	OwnerID     string `json:"userId,omitempty"`
}
