package cli

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/ventas-xp/internal/interfaces/tui"
)

func (a *app) desktopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "desktop",
		Short: "Abrir el escritorio en la terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tui.Run(cmd.Context(), tui.Deps{
				Store:     a.deps.Store,
				Windows:   a.deps.Desktop,
				Session:   a.deps.Session,
				Refresher: a.deps.Refresher,
				Sales:     a.deps.Sales,
				Log:       a.deps.Log,
			})
		},
	}
}
