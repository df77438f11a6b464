package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/JerryShih01/MEDIG-8/internal/pipeline"
	"github.com/JerryShih01/MEDIG-8/internal/post"
	"github.com/JerryShih01/MEDIG-8/internal/render"
)

var (
	genTopic string
	genFrom  string
	genTo    string
	genPick  int
	genOut   string
	genCopy  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a full post for one search candidate",
	Long: `Runs the full pipeline: search, then content and illustration synthesis
for the picked candidate. Writes the 1080x1080 illustration composite and
comparison-table PNGs and prints the post text ready for the clipboard.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "search topic (empty = broad medical news query)")
	generateCmd.Flags().StringVar(&genFrom, "from", "", "start date, YYYY-MM-DD")
	generateCmd.Flags().StringVar(&genTo, "to", "", "end date, YYYY-MM-DD")
	generateCmd.Flags().IntVar(&genPick, "pick", 1, "1-based index of the search result to generate")
	generateCmd.Flags().StringVar(&genOut, "out", ".", "output directory for PNG artifacts")
	generateCmd.Flags().BoolVar(&genCopy, "copy", false, "copy the post text to the clipboard")
	_ = generateCmd.MarkFlagRequired("from")
	_ = generateCmd.MarkFlagRequired("to")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	from, to, err := parseDateRange(genFrom, genTo)
	if err != nil {
		return err
	}

	ctrl, err := buildController(cmd)
	if err != nil {
		return err
	}

	results, err := ctrl.Search(cmd.Context(), genTopic, from, to)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("查無符合條件的新聞。")
		return nil
	}
	if genPick < 1 || genPick > len(results) {
		return fmt.Errorf("--pick %d out of range (1..%d)", genPick, len(results))
	}
	printResults(results)

	item := results[genPick-1]
	fmt.Printf("\n為第 %d 則產生貼文…\n", genPick)
	generated, err := ctrl.Generate(cmd.Context(), item.ID)
	if err != nil {
		return err
	}

	engine, err := render.NewRasterizer(cfg.Render.FontPath)
	if err != nil {
		return err
	}
	arts := pipeline.NewArtifacts(generated, engine)

	now := time.Now()
	if err := writeArtifact(pipeline.KindPost, arts.Composite(), now); err != nil {
		return err
	}
	tableImg, err := arts.TableImage()
	if err != nil {
		return err
	}
	if err := writeArtifact(pipeline.KindTable, tableImg, now); err != nil {
		return err
	}

	text := post.ClipboardText(generated.Content)
	fmt.Println("\n--- 貼文文字 ---")
	fmt.Println(text)
	if genCopy {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Println("（已複製到剪貼簿）")
	}
	return nil
}

func writeArtifact(kind string, data []byte, ts time.Time) error {
	name := filepath.Join(genOut, pipeline.Filename(kind, ts))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("write %s artifact: %w", kind, err)
	}
	fmt.Println("已輸出：", name)
	return nil
}
