package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/saucier/internal/cli"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/service"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the recipes of the catalog",
		Long: `List recipes with their ingredients. --search keeps the recipes whose
title or ingredients contain the query, ignoring case.`,
		RunE: runList,
	}

	cmd.Flags().StringP("search", "s", "", "only show recipes matching this text")
	cmd.Flags().IntP("limit", "n", 0, "show at most this many recipes")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
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
	limit, _ := cmd.Flags().GetInt("limit")

	recipes, err := store.SearchRecipes(cmd.Context(), service.RecipeFilter{Search: search, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to search recipes: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(recipes) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No recipes found"))
		return nil
	}

	fmt.Fprint(out, renderRecipeList(recipes))
	return nil
}

func renderRecipeList(recipes []model.Recipe) string {
	var b strings.Builder
	for i := range recipes {
		r := &recipes[i]
		line := cli.BoldStyle.Render(r.Title)
		if d := model.FormatDuration(r.Duration); d != "" {
			line += cli.SubtitleStyle.Render("  " + cli.TimerIcon + " " + d)
		}
		b.WriteString(line + "\n")
		if names := r.IngredientNames(); len(names) > 0 {
			b.WriteString("  " + strings.Join(names, ", ") + "\n")
		}
	}
	return b.String()
}
