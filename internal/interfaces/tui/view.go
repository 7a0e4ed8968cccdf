package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jhoicas/ventas-xp/internal/desktop"
)

var (
	desktopStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A6EA5"))
	iconStyle    = lipgloss.NewStyle().Padding(0, 1)
	iconSelected = iconStyle.Reverse(true)

	titleActive   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#0A246A")).Padding(0, 1)
	titleInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4D0C8")).Background(lipgloss.Color("#7A96DF")).Padding(0, 1)
	windowBody    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#0A246A")).Padding(0, 1)

	taskbarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#245EDC"))
	startStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3C8D2F")).Padding(0, 1)
	taskActive    = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("#1941A5")).Padding(0, 1)
	taskNormal    = lipgloss.NewStyle().Padding(0, 1)
	taskMinimized = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	taskCursor    = lipgloss.NewStyle().Underline(true)
	statusStyle   = lipgloss.NewStyle().Faint(true)
)

const (
	helpText       = "←/→ mover  enter abrir  t barra  tab foco  m min  x max  c cerrar  r refrescar  q salir"
	// collapsedWidth ancho de las barras de título de ventanas en segundo plano.
	collapsedWidth = 40
)

func (m Model) View() string {
	sections := []string{m.headerView(), m.iconsView()}
	sections = append(sections, m.windowsView()...)
	sections = append(sections, m.taskbarView())
	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, statusStyle.Render(helpText))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	who := "sin sesión"
	if u := m.st.User; u != nil {
		who = u.DisplayName() + " (" + displayRole(u.Role) + ")"
	}
	return desktopStyle.Width(m.width).Render(" ventasxp  ·  " + who)
}

func (m Model) iconsView() string {
	icons := make([]string, 0, len(Apps))
	for i, a := range Apps {
		style := iconStyle
		if i == m.selected && !m.taskbar {
			style = iconSelected
		}
		icons = append(icons, style.Render(a.Icon+" "+a.Title))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, icons...)
}

// windowsView ventanas visibles de atrás hacia adelante; sólo la activa muestra su contenido.
func (m Model) windowsView() []string {
	active := m.deps.Windows.Active()
	var out []string
	for _, w := range m.deps.Windows.Windows() {
		if w.Minimized {
			continue
		}
		if w.ID != active {
			out = append(out, titleInactive.Width(collapsedWidth).Render(w.Icon+" "+w.Title))
			continue
		}
		out = append(out, m.activeWindowView(w))
	}
	return out
}

func (m Model) activeWindowView(w desktop.Window) string {
	width := m.width * 2 / 3
	if w.Maximized || width < collapsedWidth {
		width = m.width - 2
	}
	title := titleActive.Width(width + 2).Render(w.Icon + " " + w.Title + "   [_] [□] [x]")
	body := windowBody.Width(width).Render(m.content(w.ID))
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// content cuerpo de la ventana, pasado por el control de acceso de su ícono.
func (m Model) content(id string) string {
	a, _ := findApp(id)
	if ok, msg := Gate(m.st.User.Resolution(), a.Allowed...); !ok {
		return msg
	}
	switch id {
	case AppCatalog:
		return renderCatalog(m.st)
	case AppBrands:
		return renderBrands(m.st)
	case AppLowStock:
		return renderProducts(lowStock(m.st.Products))
	case AppSales:
		return renderSales(m.sales, m.salesLoaded, m.salesErr)
	case AppAdmin:
		return renderAdmin(m.st)
	case AppAccount:
		return renderAccount(m.st.User)
	}
	return ""
}

func (m Model) taskbarView() string {
	active := m.deps.Windows.Active()
	parts := []string{startStyle.Render("Inicio")}
	for i, w := range m.taskbarEntries() {
		style := taskNormal
		switch {
		case w.Minimized:
			style = taskMinimized
		case w.ID == active:
			style = taskActive
		}
		label := style.Render(w.Icon + " " + w.Title)
		if m.taskbar && i == m.taskIdx {
			label = taskCursor.Render(label)
		}
		parts = append(parts, label)
	}
	return taskbarStyle.Width(m.width).Render(strings.Join(parts, " "))
}
