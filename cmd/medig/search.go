package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JerryShih01/MEDIG-8/internal/gemini"
	"github.com/JerryShih01/MEDIG-8/internal/pipeline"
	"github.com/JerryShih01/MEDIG-8/internal/post"
)

var (
	searchTopic string
	searchFrom  string
	searchTo    string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List recent medical news candidates for a topic and date range",
	Long: `Searches for up to five recent medical news items with Gemini search
grounding and prints the candidate list. An empty --topic falls back to a
broad query over trending medical news, approvals, and trial results.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchTopic, "topic", "", "search topic (empty = broad medical news query)")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "start date, YYYY-MM-DD")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "end date, YYYY-MM-DD")
	_ = searchCmd.MarkFlagRequired("from")
	_ = searchCmd.MarkFlagRequired("to")
}

func runSearch(cmd *cobra.Command, args []string) error {
	from, to, err := parseDateRange(searchFrom, searchTo)
	if err != nil {
		return err
	}

	ctrl, err := buildController(cmd)
	if err != nil {
		return err
	}

	results, err := ctrl.Search(cmd.Context(), searchTopic, from, to)
	if err != nil {
		return err
	}
	printResults(results)
	return nil
}

func printResults(results []post.SearchResult) {
	if len(results) == 0 {
		fmt.Println("查無符合條件的新聞。")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. [%s] %s\n   %s｜%s\n   %s\n   id: %s\n", i+1, r.Date, r.Title, r.Source, r.URL, r.Summary, r.ID)
	}
}

// buildController wires the Gemini clients and pipeline stages from the
// loaded config. A missing API key fails here, before any call is made.
func buildController(cmd *cobra.Command) (*pipeline.Controller, error) {
	textClient, err := gemini.NewClient(gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		BaseURL:         cfg.Gemini.BaseURL,
		Model:           cfg.Gemini.Model,
		Timeout:         cfg.GeminiTimeout(),
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}, logger)
	if err != nil {
		return nil, err
	}
	imageClient, err := gemini.NewImageClient(cmd.Context(), cfg.Gemini.APIKey, cfg.Gemini.ImageModel, logger)
	if err != nil {
		return nil, err
	}

	return pipeline.NewController(
		pipeline.NewSearchStage(textClient, logger),
		pipeline.NewContentStage(textClient, logger),
		pipeline.NewIllustrationStage(imageClient, logger),
		logger,
	), nil
}
