package entity

import "strings"

// LocalCustomerPrefix prefijo de clientes creados sólo en el dispositivo; nunca se envían al backend.
const LocalCustomerPrefix = "local-"

// Customer cliente final registrado en el backend (/api/clients).
type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// FullName nombre y apellido separados por un espacio.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsLocalCustomerID indica si el id es local (prefijo local-).
func IsLocalCustomerID(id string) bool {
	return strings.HasPrefix(id, LocalCustomerPrefix)
}
