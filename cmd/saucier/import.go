package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/saucier/internal/catalog"
	"github.com/Veraticus/saucier/internal/cli"
	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/config"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/service"
)

const fetchTimeout = 30 * time.Second

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import recipes into the catalog",
		Long: `Import recipes from a recipes.json file, from a tab-separated export of
the recipe sheet, or by downloading that export.

Recipes are matched by title: new titles are added, changed recipes are
replaced and identical ones are left alone. Without flags the sheet is
downloaded from import.url.`,
		RunE: runImport,
	}

	cmd.Flags().String("json", "", "recipes.json file to import ('-' for stdin)")
	cmd.Flags().String("sheet", "", "tab-separated sheet export to import ('-' for stdin)")
	cmd.Flags().String("url", "", "URL of the published sheet export (default: import.url)")
	cmd.Flags().Bool("dry-run", false, "Show what would be imported without saving")
	cmd.MarkFlagsMutuallyExclusive("json", "sheet", "url")

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	defer interruptHandler.Stop()
	ctx := interruptHandler.HandleInterrupts(cmd.Context(), "Import", "Run the import again to pick up the remaining recipes.")

	recipes, source, err := readRecipes(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	recipes = catalog.Dedupe(recipes)
	if len(recipes) == 0 {
		return common.NewUserError("Nothing to import from "+source+".", common.ErrNoRecipes)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Read %d recipes from %s", len(recipes), source)))

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Fprintln(out, cli.FormatWarning("Dry run mode - not saving to database"))
		for i := range recipes {
			fmt.Fprintf(out, "  %s (%d ingredients)\n", recipes[i].Title, len(recipes[i].Ingredients))
		}
		return nil
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := saveWithProgress(ctx, store, recipes, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Import complete: %d added, %d updated, %d unchanged",
		result.Created, result.Updated, result.Unchanged)))
	return nil
}

// readRecipes reads from whichever source the flags name.
func readRecipes(ctx context.Context, cmd *cobra.Command, cfg *config.Config) ([]model.Recipe, string, error) {
	jsonPath, _ := cmd.Flags().GetString("json")
	sheetPath, _ := cmd.Flags().GetString("sheet")
	url, _ := cmd.Flags().GetString("url")

	switch {
	case jsonPath != "":
		recipes, err := readFile(cmd, jsonPath, catalog.LoadJSON)
		return recipes, jsonPath, err
	case sheetPath != "":
		recipes, err := readFile(cmd, sheetPath, catalog.ParseSheet)
		return recipes, sheetPath, err
	}

	if url == "" {
		url = cfg.ImportURL
	}
	if url == "" {
		return nil, "", common.NewUserError("Nothing to import: pass --json, --sheet or --url, or set import.url.", common.ErrMissingConfig)
	}

	slog.Info("Downloading recipe sheet", "url", url)
	fetcher := catalog.NewFetcher(&http.Client{Timeout: fetchTimeout}, service.RetryOptions{
		MaxAttempts:  cfg.ImportRetries,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	})
	data, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, url, err
	}
	recipes, err := catalog.ParseSheet(bytes.NewReader(data))
	return recipes, url, err
}

func readFile(cmd *cobra.Command, path string, parse func(io.Reader) ([]model.Recipe, error)) ([]model.Recipe, error) {
	if path == "-" {
		return parse(cmd.InOrStdin())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	recipes, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return recipes, nil
}

// saveWithProgress saves recipes one at a time so an interrupted import keeps
// what it already stored.
func saveWithProgress(ctx context.Context, store service.Storage, recipes []model.Recipe, w io.Writer) (service.SaveResult, error) {
	bar := progressbar.NewOptions(len(recipes),
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Saving recipes...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	var total service.SaveResult
	for i := range recipes {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("import interrupted after %d recipes: %w", i, err)
		}

		result, err := store.SaveRecipes(ctx, recipes[i:i+1])
		if err != nil {
			return total, fmt.Errorf("failed to save %q: %w", recipes[i].Title, err)
		}
		total.Created += result.Created
		total.Updated += result.Updated
		total.Unchanged += result.Unchanged

		if err := bar.Add(1); err != nil {
			slog.Debug("Failed to update progress bar", "error", err)
		}
	}
	return total, nil
}
