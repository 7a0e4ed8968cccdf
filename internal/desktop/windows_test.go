package desktop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/desktop"
)

func TestOpen_DosVecesUnaSolaVentanaAlFrente(t *testing.T) {
	m := desktop.NewManager()
	m.Open("catalog", "Catálogo", "catalog.png")
	m.Open("sales", "Ventas", "sales.png")
	m.Minimize("catalog")

	w := m.Open("catalog", "Catálogo", "catalog.png")

	require.Len(t, m.Windows(), 2)
	assert.False(t, w.Minimized)
	for _, other := range m.Windows() {
		if other.ID != "catalog" {
			assert.Less(t, other.ZIndex, w.ZIndex)
		}
	}
	assert.Equal(t, "catalog", m.Active())
}

func TestZIndex_UnicosYCrecientes(t *testing.T) {
	m := desktop.NewManager()
	a := m.Open("a", "A", "")
	b := m.Open("b", "B", "")
	assert.Equal(t, desktop.BaseZIndex+1, a.ZIndex)
	assert.Equal(t, desktop.BaseZIndex+2, b.ZIndex)

	m.Focus("a")
	m.Restore("b")
	m.Focus("a")

	seen := map[int]bool{}
	for _, w := range m.Windows() {
		assert.False(t, seen[w.ZIndex], "z repetido %d", w.ZIndex)
		seen[w.ZIndex] = true
	}
	got, _ := m.Get("a")
	assert.Equal(t, desktop.BaseZIndex+5, got.ZIndex)
	assert.Equal(t, "a", m.Active())
}

func TestActive_IgnoraMinimizadas(t *testing.T) {
	m := desktop.NewManager()
	assert.Empty(t, m.Active())

	m.Open("a", "A", "")
	m.Open("b", "B", "")
	m.Minimize("b")
	assert.Equal(t, "a", m.Active())

	m.Minimize("a")
	assert.Empty(t, m.Active())
}

func TestMaximizeAlternaYCloseElimina(t *testing.T) {
	m := desktop.NewManager()
	m.Open("a", "A", "")

	m.Maximize("a")
	w, _ := m.Get("a")
	assert.True(t, w.Maximized)
	m.Maximize("a")
	w, _ = m.Get("a")
	assert.False(t, w.Maximized)

	assert.True(t, m.Close("a"))
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.False(t, m.Close("a"))
	assert.False(t, m.Focus("a"), "operar sobre una ventana cerrada no hace nada")
}

func TestMinimizeConservaEstado(t *testing.T) {
	m := desktop.NewManager()
	m.Open("a", "A", "a.png")
	m.Maximize("a")
	m.Minimize("a")

	w, ok := m.Get("a")
	require.True(t, ok)
	assert.True(t, w.Minimized)
	assert.True(t, w.Maximized)
	assert.Equal(t, "a.png", w.Icon)
}

func TestTaskbarClick(t *testing.T) {
	m := desktop.NewManager()
	m.Open("a", "A", "")
	m.Open("b", "B", "")

	// b es la activa: el clic la minimiza.
	m.TaskbarClick("b")
	w, _ := m.Get("b")
	assert.True(t, w.Minimized)
	assert.Equal(t, "a", m.Active())

	// b minimizada: el clic la restaura al frente.
	m.TaskbarClick("b")
	assert.Equal(t, "b", m.Active())

	// a visible pero detrás: el clic la enfoca.
	m.TaskbarClick("a")
	assert.Equal(t, "a", m.Active())
	w, _ = m.Get("b")
	assert.False(t, w.Minimized)

	assert.False(t, m.TaskbarClick("nope"))
}
