package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jhoicas/ventas-xp/internal/application/state"
)

// Run abre el escritorio en pantalla completa hasta que el usuario sale o ctx termina.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))

	// Send bloquea hasta que el bucle lo lee; el listener puede correr dentro de un Cmd.
	unsubscribe := deps.Store.Subscribe(func(state.State, state.Action) {
		go p.Send(StateChanged())
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("escritorio: %w", err)
	}
	return nil
}
