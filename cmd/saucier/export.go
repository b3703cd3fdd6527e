package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/saucier/internal/catalog"
	"github.com/Veraticus/saucier/internal/cli"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as recipes.json",
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

			recipes, err := store.GetRecipes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load recipes: %w", err)
			}

			path, _ := cmd.Flags().GetString("output")
			if path == "" || path == "-" {
				return catalog.WriteJSON(cmd.OutOrStdout(), recipes)
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := catalog.WriteJSON(f, recipes); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d recipes to %s", len(recipes), path)))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "file to write (default: stdout)")
	return cmd
}
