package state

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

var nameFolder = cases.Fold()

// NormalizeName nombre tal como se guarda: sin espacios en los extremos.
func NormalizeName(name string) string { return strings.TrimSpace(name) }

// FoldName clave de comparación de nombres (recortado y sin distinguir mayúsculas).
func FoldName(name string) string { return nameFolder.String(strings.TrimSpace(name)) }

// MatchPolicy define cómo reconciliar registros del mismo tipo.
type MatchPolicy[T any] struct {
	ID   func(T) string
	Name func(T) string
	// Merge combina el registro existente con el entrante; id y name ya vienen resueltos.
	Merge func(existing, incoming T, id, name string) T
	// Assign fija id y name en un registro nuevo.
	Assign func(incoming T, id, name string) T
	// IDPrefix prefijo de los ids generados localmente (br_, cat_, prd_).
	IDPrefix string
}

// NewLocalID genera un id local con el prefijo indicado.
func NewLocalID(prefix string) string {
	return prefix + uuid.NewString()
}

// Reconcile inserta o actualiza incoming en existing sin mutar el slice recibido.
//
// Orden de coincidencia: por id, luego por nombre normalizado, si no se inserta con id generado.
// Tras la fusión no quedan dos registros con el mismo nombre normalizado: cualquier otro
// registro con ese nombre se absorbe en el resultado.
func Reconcile[T any](existing []T, incoming T, p MatchPolicy[T]) []T {
	name := NormalizeName(p.Name(incoming))
	key := FoldName(name)

	idx := -1
	if id := p.ID(incoming); id != "" {
		for i, item := range existing {
			if p.ID(item) == id {
				idx = i
				break
			}
		}
	}
	if idx < 0 && key != "" {
		for i, item := range existing {
			if FoldName(p.Name(item)) == key {
				idx = i
				break
			}
		}
	}

	if idx < 0 {
		id := p.ID(incoming)
		if id == "" {
			id = NewLocalID(p.IDPrefix)
		}
		out := make([]T, len(existing), len(existing)+1)
		copy(out, existing)
		return append(out, p.Assign(incoming, id, name))
	}

	current := existing[idx]
	mergedName := name
	if mergedName == "" {
		mergedName = p.Name(current)
	}
	merged := p.Merge(current, incoming, p.ID(current), mergedName)
	mergedKey := FoldName(p.Name(merged))

	out := make([]T, 0, len(existing))
	for i, item := range existing {
		switch {
		case i == idx:
			out = append(out, merged)
		case mergedKey != "" && FoldName(p.Name(item)) == mergedKey:
			// duplicado por nombre: se unifica bajo el id del registro fusionado
		default:
			out = append(out, item)
		}
	}
	return out
}
