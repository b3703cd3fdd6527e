package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/saucier/internal/cli"
	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
)

// quantityEdit is one "ingredient=quantity" request.
type quantityEdit struct {
	name     string
	quantity string
}

func parseQuantityEdits(raw []string) ([]quantityEdit, error) {
	edits := make([]quantityEdit, 0, len(raw))
	for _, r := range raw {
		name, qty, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, common.NewUserError(fmt.Sprintf("Cannot read %q, expected ingredient=quantity.", r), common.ErrInvalidFormat)
		}
		edits = append(edits, quantityEdit{name: strings.TrimSpace(name), quantity: strings.TrimSpace(qty)})
	}
	return edits, nil
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show TITLE",
		Short: "Show a recipe, optionally rescaled",
		Long: `Show a recipe with its ingredients and steps.

--factor multiplies every quantity. --set changes one ingredient and rescales
the others to match; it may be repeated, and the last edit wins.`,
		Example: `  saucier show "Crêpes" --factor 1.5
  saucier show "Crêpes" --set farine=500`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().Float64P("factor", "f", 0, "scale factor to apply")
	cmd.Flags().StringArray("set", nil, "ingredient=quantity edit (repeatable)")
	cmd.Flags().Bool("no-steps", false, "only print the ingredients")
	cmd.MarkFlagsMutuallyExclusive("factor", "set")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	factor, _ := cmd.Flags().GetFloat64("factor")
	rawEdits, _ := cmd.Flags().GetStringArray("set")
	noSteps, _ := cmd.Flags().GetBool("no-steps")

	edits, err := parseQuantityEdits(rawEdits)
	if err != nil {
		return err
	}

	return showScaled(cmd, args[0], !noSteps, func(session *scaling.Session) error {
		if cmd.Flags().Changed("factor") {
			if err := session.ScaleBy(factor); err != nil {
				return common.NewUserError(fmt.Sprintf("Cannot scale by %v.", factor), err)
			}
		}
		return applyEdits(session, edits)
	})
}

func scaleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scale TITLE",
		Short: "Rescale a recipe from one ingredient",
		Long: `Set the quantity of one ingredient, in its recipe unit, and print every
ingredient rescaled to match.`,
		Example: `  saucier scale "Quiche lorraine" --ingredient lardons --quantity 300`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("ingredient")
			qty, _ := cmd.Flags().GetString("quantity")
			return showScaled(cmd, args[0], false, func(session *scaling.Session) error {
				return applyEdits(session, []quantityEdit{{name: name, quantity: qty}})
			})
		},
	}

	cmd.Flags().StringP("ingredient", "i", "", "ingredient to change")
	cmd.Flags().StringP("quantity", "q", "", "new quantity of the ingredient")
	_ = cmd.MarkFlagRequired("ingredient")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func applyEdits(session *scaling.Session, edits []quantityEdit) error {
	for _, e := range edits {
		i, err := findIngredient(session, e.name)
		if err != nil {
			return err
		}
		if err := session.SetQuantityText(i, e.quantity); err != nil {
			return common.NewUserError(fmt.Sprintf("Cannot set %s to %q.", e.name, e.quantity), err)
		}
	}
	return nil
}

// showScaled loads a recipe, lets scale adjust its session and prints it.
func showScaled(cmd *cobra.Command, title string, withSteps bool, scale func(*scaling.Session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recipe, err := findRecipe(cmd.Context(), store, title)
	if err != nil {
		return err
	}

	session := scaling.NewSession(recipe.Ingredients)
	defer session.Close()

	if err := scale(session); err != nil {
		return err
	}

	renderRecipe(cmd.OutOrStdout(), recipe, session, withSteps)
	return nil
}

func renderRecipe(w io.Writer, recipe *model.Recipe, session *scaling.Session, withSteps bool) {
	fmt.Fprintln(w, cli.RecipeHeader(recipe))
	if session.Factor() != 1 {
		fmt.Fprintln(w, cli.FormatInfo("Scaled ×"+cli.FormatQuantity(session.Factor())))
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, cli.IngredientTable(session))
	if withSteps && len(recipe.Steps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, cli.Steps(recipe.Steps))
	}
}
