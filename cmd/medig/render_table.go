package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JerryShih01/MEDIG-8/internal/post"
	"github.com/JerryShih01/MEDIG-8/internal/render"
)

var (
	renderInput  string
	renderOutput string
)

var renderTableCmd = &cobra.Command{
	Use:   "render-table",
	Short: "Render a comparison-table JSON file to a PNG (no backend calls)",
	Long: `Renders a ComparisonTable JSON document to a 1080x1080 PNG using the
deterministic table layout. Useful for checking fonts and layout offline.

Input format:
  {"title": "...", "headers": ["項目", "A", "B"], "rows": [{"aspect": "...", "value1": "...", "value2": "..."}]}`,
	RunE: runRenderTable,
}

func init() {
	renderTableCmd.Flags().StringVar(&renderInput, "input", "", "path to a ComparisonTable JSON file")
	renderTableCmd.Flags().StringVar(&renderOutput, "output", "table.png", "output PNG path")
	_ = renderTableCmd.MarkFlagRequired("input")
}

func runRenderTable(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(renderInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var table post.ComparisonTable
	if err := json.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("parse table json: %w", err)
	}

	engine, err := render.NewRasterizer(cfg.Render.FontPath)
	if err != nil {
		return err
	}
	img, err := engine.TableImage(table)
	if err != nil {
		return err
	}
	if err := os.WriteFile(renderOutput, img, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Println("已輸出：", renderOutput)
	return nil
}
