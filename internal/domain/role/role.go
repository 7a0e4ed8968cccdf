// Package role normaliza y clasifica los roles de usuario.
//
// Un rol es siempre un string recortado en minúsculas (o vacío). La resolución
// distingue tres estados: pendiente, resuelto y fallido; un fallo de consulta
// nunca se interpreta como una denegación explícita.
package role

import (
	"fmt"
	"strings"

	"github.com/jhoicas/ventas-xp/internal/domain"
)

// Valores de rol conocidos.
const (
	Admin    = "admin"
	Manager  = "manager"
	Empleado = "empleado"
	Employee = "employee"
	Cliente  = "cliente"
	Client   = "client"

	// Default rol asignado a perfiles creados automáticamente.
	Default = Cliente
)

// Tier nivel de privilegio derivado del rol.
type Tier int

const (
	TierNone Tier = iota
	TierClient
	TierEmployee
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierClient:
		return "client"
	case TierEmployee:
		return "employee"
	case TierAdmin:
		return "admin"
	default:
		return "none"
	}
}

var (
	adminRoles    = set(Admin, Manager)
	employeeRoles = set(Empleado, Employee)
	clientRoles   = set(Cliente, Client)

	// placeholderRoles son valores no concluyentes (defaults del proveedor de auth
	// o roles que deben confirmarse contra la tabla de perfiles).
	placeholderRoles = set("", "authenticated", "anon", "anonymous", "user", "public", Empleado, Employee)
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// Normalize recorta y pasa a minúsculas.
func Normalize(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}

// IsPlaceholder indica si el rol requiere una consulta de respaldo.
func IsPlaceholder(r string) bool {
	_, ok := placeholderRoles[Normalize(r)]
	return ok
}

// Classify devuelve el nivel del rol; valores desconocidos o vacíos son TierNone.
func Classify(r string) Tier {
	n := Normalize(r)
	if _, ok := adminRoles[n]; ok {
		return TierAdmin
	}
	if _, ok := employeeRoles[n]; ok {
		return TierEmployee
	}
	if _, ok := clientRoles[n]; ok {
		return TierClient
	}
	return TierNone
}

// Status estado de la resolución del rol.
type Status int

const (
	// Unresolved la resolución no ha terminado (o aún no empezó).
	Unresolved Status = iota
	// Resolved se obtuvo un rol concluyente.
	Resolved
	// Failed se agotaron todas las fuentes sin resultado concluyente.
	Failed
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unresolved"
	}
}

// Resolution resultado de resolver el rol de un usuario.
// En Failed, Role conserva el rol base (si lo había) para mostrarlo y clasificarlo.
type Resolution struct {
	Status Status
	Role   string
}

// Pending resolución en curso.
func Pending() Resolution { return Resolution{Status: Unresolved} }

// Of resolución concluyente.
func Of(r string) Resolution { return Resolution{Status: Resolved, Role: Normalize(r)} }

// FailedWith resolución fallida que conserva el rol base.
func FailedWith(base string) Resolution { return Resolution{Status: Failed, Role: Normalize(base)} }

// Tier nivel efectivo; en Unresolved siempre es TierNone.
func (r Resolution) Tier() Tier {
	if r.Status == Unresolved {
		return TierNone
	}
	return Classify(r.Role)
}

// Access decisión de acceso a una vista.
type Access int

const (
	// AccessPending aún resolviendo; la vista debe esperar, no denegar.
	AccessPending Access = iota
	AccessGranted
	// AccessDenied el rol está resuelto y no pertenece a los niveles permitidos.
	AccessDenied
	// AccessInconclusive la resolución falló; no es una denegación explícita.
	AccessInconclusive
)

func (a Access) String() string {
	switch a {
	case AccessGranted:
		return "granted"
	case AccessDenied:
		return "denied"
	case AccessInconclusive:
		return "inconclusive"
	default:
		return "pending"
	}
}

// Access evalúa la resolución contra los niveles permitidos.
func (r Resolution) Access(allowed ...Tier) Access {
	if r.Status == Unresolved {
		return AccessPending
	}
	tier := Classify(r.Role)
	for _, a := range allowed {
		if tier == a {
			return AccessGranted
		}
	}
	if r.Status == Failed {
		return AccessInconclusive
	}
	return AccessDenied
}

// Require traduce Access a error: ErrForbidden sólo para una denegación con el rol
// resuelto; pendiente o fallido devuelve ErrRoleUnresolved.
func (r Resolution) Require(allowed ...Tier) error {
	switch r.Access(allowed...) {
	case AccessGranted:
		return nil
	case AccessPending:
		return fmt.Errorf("rol aún sin resolver: %w", domain.ErrRoleUnresolved)
	case AccessInconclusive:
		return fmt.Errorf("consulta de rol fallida: %w", domain.ErrRoleUnresolved)
	default:
		return fmt.Errorf("rol %q: %w", r.Role, domain.ErrForbidden)
	}
}
