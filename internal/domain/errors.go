package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrRoleUnresolved     = errors.New("no se pudo verificar el rol")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrBrandInUse         = errors.New("la marca tiene productos asociados")
	ErrMissingLine        = errors.New("el producto no tiene una línea asignada")
	ErrNotConfigured      = errors.New("servicio no configurado")
	ErrUnsupported        = errors.New("operación no disponible en este proveedor")
)
