package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/saucier/internal/cli"
	"github.com/Veraticus/saucier/internal/common"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TITLE",
		Short: "Remove a recipe from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRecipe(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No recipe titled %q.", args[0]), err)
				}
				return fmt.Errorf("failed to delete recipe: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %q", args[0])))
			return nil
		},
	}
}
