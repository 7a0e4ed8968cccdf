package entity

import "github.com/jhoicas/ventas-xp/internal/domain/role"

// Identity identidad autenticada tal como la entrega el proveedor de auth (sin rol resuelto).
type Identity struct {
	ID       string
	Email    string
	Role     string         // rol genérico del proveedor (p. ej. "authenticated")
	Metadata map[string]any // user_metadata
}

// MetadataString devuelve el valor string de Metadata[key] o vacío.
func (i Identity) MetadataString(key string) string {
	if i.Metadata == nil {
		return ""
	}
	s, _ := i.Metadata[key].(string)
	return s
}

// User usuario con rol efectivo. Role siempre está normalizado (minúsculas, recortado) o vacío.
type User struct {
	ID         string
	Email      string
	Role       string
	RoleStatus role.Status
	Metadata   map[string]any
}

// Resolution devuelve el estado de resolución del rol.
func (u *User) Resolution() role.Resolution {
	if u == nil {
		return role.Pending()
	}
	return role.Resolution{Status: u.RoleStatus, Role: u.Role}
}

// DisplayName nombre visible: metadata full_name, name, o la parte local del email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	for _, k := range []string{"full_name", "name"} {
		if s, ok := u.Metadata[k].(string); ok && s != "" {
			return s
		}
	}
	return EmailLocalPart(u.Email)
}

// EmailLocalPart devuelve lo que hay antes de '@'.
func EmailLocalPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
