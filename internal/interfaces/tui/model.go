// Package tui dibuja el escritorio en la terminal con bubbletea.
//
// El estado de negocio vive en el store y el de las ventanas en desktop.Manager;
// el modelo sólo guarda la selección de íconos y la barra de tareas.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/desktop"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// Refresher recarga el catálogo.
type Refresher interface {
	Refresh(ctx context.Context) (applied bool, err error)
}

// SessionApplier vuelve a aplicar una sesión (re-resuelve el rol).
type SessionApplier interface {
	Apply(ctx context.Context, sess *entity.Session)
}

// SalesLister ventas del usuario actual.
type SalesLister interface {
	ListMine(ctx context.Context) ([]entity.Sale, error)
}

// Deps colaboradores del escritorio. Store y Windows son obligatorios.
type Deps struct {
	Store     *state.Store
	Windows   *desktop.Manager
	Session   SessionApplier
	Refresher Refresher
	Sales     SalesLister
	Log       *logger.Logger
}

type stateChangedMsg struct{}

// StateChanged mensaje que hace releer el store.
func StateChanged() tea.Msg { return stateChangedMsg{} }

type refreshedMsg struct {
	applied bool
	err     error
}

type salesLoadedMsg struct {
	list []entity.Sale
	err  error
}

// Model modelo bubbletea del escritorio.
type Model struct {
	ctx  context.Context
	deps Deps

	width  int
	height int

	st       state.State
	selected int
	taskbar  bool
	taskIdx  int
	status   string

	sales       []entity.Sale
	salesLoaded bool
	salesErr    error
}

// NewModel crea el modelo con el estado actual del store.
func NewModel(ctx context.Context, deps Deps) Model {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return Model{ctx: ctx, deps: deps, st: deps.Store.State(), width: 80, height: 24}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case stateChangedMsg:
		m.st = m.deps.Store.State()
		return m, nil
	case refreshedMsg:
		m.st = m.deps.Store.State()
		switch {
		case msg.err != nil:
			m.deps.Log.Warn().Err(msg.err).Msg("refresco desde el escritorio")
			m.status = "Error al refrescar: " + msg.err.Error()
		case !msg.applied:
			m.status = "Refresco descartado: la sesión cambió"
		default:
			m.status = "Catálogo actualizado"
		}
		return m, nil
	case salesLoadedMsg:
		m.sales, m.salesErr, m.salesLoaded = msg.list, msg.err, true
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "t":
		m.taskbar = !m.taskbar
		m.taskIdx = 0
		return m, nil
	case "left", "h":
		m.move(-1)
		return m, nil
	case "right", "l":
		m.move(1)
		return m, nil
	case "enter":
		if m.taskbar {
			return m.clickTaskbar()
		}
		return m.open(Apps[m.selected])
	case "tab":
		m.focusNext()
		return m, nil
	case "m":
		if id := m.deps.Windows.Active(); id != "" {
			m.deps.Windows.Minimize(id)
		}
		return m, nil
	case "x":
		if id := m.deps.Windows.Active(); id != "" {
			m.deps.Windows.Maximize(id)
		}
		return m, nil
	case "c":
		if id := m.deps.Windows.Active(); id != "" {
			m.deps.Windows.Close(id)
		}
		if n := len(m.taskbarEntries()); m.taskIdx >= n && n > 0 {
			m.taskIdx = n - 1
		}
		return m, nil
	case "r":
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m *Model) move(delta int) {
	if m.taskbar {
		n := len(m.taskbarEntries())
		if n == 0 {
			return
		}
		m.taskIdx = (m.taskIdx + delta + n) % n
		return
	}
	n := len(Apps)
	m.selected = (m.selected + delta + n) % n
}

// taskbarEntries ventanas abiertas en el orden de los íconos.
func (m Model) taskbarEntries() []desktop.Window {
	var out []desktop.Window
	for _, a := range Apps {
		if w, ok := m.deps.Windows.Get(a.ID); ok {
			out = append(out, w)
		}
	}
	return out
}

func (m Model) clickTaskbar() (tea.Model, tea.Cmd) {
	entries := m.taskbarEntries()
	if m.taskIdx >= len(entries) {
		return m, nil
	}
	m.deps.Windows.TaskbarClick(entries[m.taskIdx].ID)
	return m, nil
}

// focusNext trae al frente la siguiente ventana visible.
func (m Model) focusNext() {
	var visible []string
	for _, w := range m.taskbarEntries() {
		if !w.Minimized {
			visible = append(visible, w.ID)
		}
	}
	if len(visible) < 2 {
		return
	}
	active := m.deps.Windows.Active()
	for i, id := range visible {
		if id == active {
			m.deps.Windows.Focus(visible[(i+1)%len(visible)])
			return
		}
	}
	m.deps.Windows.Focus(visible[0])
}

func (m Model) open(a App) (tea.Model, tea.Cmd) {
	m.deps.Windows.Open(a.ID, a.Title, a.Icon)
	if a.ID != AppSales || m.deps.Sales == nil {
		return m, nil
	}
	if ok, _ := Gate(m.st.User.Resolution(), a.Allowed...); !ok {
		return m, nil
	}
	m.salesLoaded = false
	sales, ctx := m.deps.Sales, m.ctx
	return m, func() tea.Msg {
		list, err := sales.ListMine(ctx)
		return salesLoadedMsg{list: list, err: err}
	}
}

// refreshCmd con el rol sin confirmar vuelve a resolverlo; si no, recarga el catálogo.
func (m Model) refreshCmd() tea.Cmd {
	ctx := m.ctx
	if m.st.User != nil && m.st.User.RoleStatus == role.Failed && m.deps.Session != nil && m.st.Session != nil {
		session, sess := m.deps.Session, m.st.Session
		return func() tea.Msg {
			session.Apply(ctx, sess)
			return refreshedMsg{applied: true}
		}
	}
	if m.deps.Refresher == nil {
		return nil
	}
	r := m.deps.Refresher
	return func() tea.Msg {
		applied, err := r.Refresh(ctx)
		return refreshedMsg{applied: applied, err: err}
	}
}
