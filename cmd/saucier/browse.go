package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/saucier/internal/tui"
	"github.com/Veraticus/saucier/internal/tui/themes"
)

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and scale recipes interactively",
		Long: `Open the interactive recipe browser. Pick a recipe with enter, then edit
any quantity with e and watch the rest of the recipe follow.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			search, _ := cmd.Flags().GetString("search")
			theme, _ := cmd.Flags().GetString("theme")

			return tui.Run(cmd.Context(),
				tui.WithStorage(store),
				tui.WithTheme(themes.ByName(theme)),
				tui.WithSearch(search),
				tui.WithFactorIngredient(cfg.ShowFactor, cfg.FactorLabel),
			)
		},
	}

	cmd.Flags().StringP("search", "s", "", "start with this search")
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")

	return cmd
}
