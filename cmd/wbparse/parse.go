package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wbparse/backend/internal/app"
	"github.com/wbparse/backend/internal/domain"
)

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Run the catalog pipeline for a query",
		Long: `Parse searches the catalog for <query>, fetches stock and price details,
reads wallet prices from the rendered search pages and prints the reconciled
products ordered by page and card position.

Examples:
  # First 100 products as JSON
  wbparse parse "термопаста" --limit 100

  # Two pages as YAML, skipping the HTML pass
  wbparse parse "кружка" --max-pages 2 --no-html --format yaml

  # Store into the configured database and print a summary
  wbparse parse "термопаста" --store`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParseCmd,
	}

	cmd.Flags().IntP("limit", "n", 0, "Maximum number of products (0 = no limit)")
	cmd.Flags().IntP("max-pages", "p", 0, "Maximum number of search pages (0 = no limit)")
	cmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	cmd.Flags().Bool("no-html", false, "Skip the rendered page pass")
	cmd.Flags().Bool("store", false, "Upsert products into the configured storage")

	return cmd
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	format, _ := cmd.Flags().GetString("format")
	noHTML, _ := cmd.Flags().GetBool("no-html")
	store, _ := cmd.Flags().GetBool("store")

	if format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}

	cfg, log, err := loadConfig(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	opts := app.Options{WithStorage: store}
	if noHTML {
		disabled := false
		opts.HTMLMeta = &disabled
	}
	a, err := app.Build(cmd.Context(), cfg, log, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	req := domain.ParseRequest{
		Query:    strings.Join(args, " "),
		Limit:    limit,
		MaxPages: maxPages,
	}

	if store {
		result, err := a.Service.Parse(cmd.Context(), req)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, result)
	}

	products, err := a.Service.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), format, products)
}

// writeOutput encodes v as indented JSON or as YAML using the JSON field
// names.
func writeOutput(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
