// Package desktop lleva el estado de las ventanas del escritorio: orden z, minimizado y maximizado.
//
// El contador z arranca en 100 y sólo crece; cada ventana que pasa al frente toma el
// siguiente valor, así que los z son únicos y la ventana visible con el mayor z es la activa.
package desktop

import (
	"sort"
	"sync"
)

// BaseZIndex valor inicial del contador z.
const BaseZIndex = 100

// Window estado de una ventana abierta.
type Window struct {
	ID        string
	Title     string
	Icon      string
	Minimized bool
	Maximized bool
	ZIndex    int
}

// Manager conjunto de ventanas abiertas. Es seguro para uso concurrente.
type Manager struct {
	mu      sync.Mutex
	windows map[string]*Window
	z       int
}

// NewManager crea un escritorio vacío.
func NewManager() *Manager {
	return &Manager{windows: map[string]*Window{}, z: BaseZIndex}
}

func (m *Manager) raise(w *Window) {
	m.z++
	w.ZIndex = m.z
}

// Open abre la ventana al frente. Si ya estaba abierta la restaura y la trae al frente.
func (m *Manager) Open(id, title, icon string) Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	if !ok {
		w = &Window{ID: id, Title: title, Icon: icon}
		m.windows[id] = w
	}
	w.Minimized = false
	m.raise(w)
	return *w
}

// Close elimina la ventana. Devuelve false si no estaba abierta.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.windows[id]; !ok {
		return false
	}
	delete(m.windows, id)
	return true
}

// Minimize oculta la ventana conservando su estado.
func (m *Manager) Minimize(id string) bool {
	return m.update(id, func(w *Window) { w.Minimized = true })
}

// Maximize alterna el maximizado; la interfaz decide cómo dibujarlo.
func (m *Manager) Maximize(id string) bool {
	return m.update(id, func(w *Window) { w.Maximized = !w.Maximized })
}

// Focus trae la ventana al frente sin cambiar su minimizado.
func (m *Manager) Focus(id string) bool {
	return m.update(id, m.raise)
}

// Restore muestra la ventana y la trae al frente.
func (m *Manager) Restore(id string) bool {
	return m.update(id, func(w *Window) {
		w.Minimized = false
		m.raise(w)
	})
}

func (m *Manager) update(id string, fn func(*Window)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	if !ok {
		return false
	}
	fn(w)
	return true
}

// TaskbarClick comportamiento del botón de la barra de tareas: restaura una ventana
// minimizada, minimiza la activa y enfoca cualquier otra.
func (m *Manager) TaskbarClick(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	if !ok {
		return false
	}
	switch {
	case w.Minimized:
		w.Minimized = false
		m.raise(w)
	case m.activeLocked() == w:
		w.Minimized = true
	default:
		m.raise(w)
	}
	return true
}

func (m *Manager) activeLocked() *Window {
	var top *Window
	for _, w := range m.windows {
		if w.Minimized {
			continue
		}
		if top == nil || w.ZIndex > top.ZIndex {
			top = w
		}
	}
	return top
}

// Active id de la ventana visible con mayor z ("" si no hay ninguna).
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.activeLocked(); w != nil {
		return w.ID
	}
	return ""
}

// Get copia del estado de la ventana.
func (m *Manager) Get(id string) (Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// Windows copia de las ventanas abiertas en orden z ascendente (orden de dibujo).
func (m *Manager) Windows() []Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}
