package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	domainservice "github.com/wolfitem/ai-podcast/internal/domain/service"
)

var (
	previewSource   string
	previewCategory string
	previewCount    int
	previewFormat   string
)

// previewCmd fetches the latest headlines for one source and category
// without spending any generation API budget.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the latest articles for a source and category",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher := domainservice.NewFetcher(15 * time.Second)
		src, err := domainservice.NewSource(previewSource, fetcher)
		if err != nil {
			return err
		}

		articles, err := src.GetMultipleArticles(cmd.Context(), previewCategory, previewCount)
		if err != nil {
			return err
		}

		switch previewFormat {
		case "json":
			type headline struct {
				Title  string `json:"title"`
				Author string `json:"author,omitempty"`
				URL    string `json:"url"`
				Valid  bool   `json:"valid"`
			}
			headlines := make([]headline, 0, len(articles))
			for _, a := range articles {
				headlines = append(headlines, headline{Title: a.Title, Author: a.Author, URL: a.URL, Valid: a.IsValid()})
			}
			out, err := json.MarshalIndent(headlines, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode headlines: %w", err)
			}
			fmt.Println(string(out))
		case "text", "":
			fmt.Printf("%s / %s: %d article(s)\n", src.Name(), previewCategory, len(articles))
			for i, a := range articles {
				fmt.Printf("%d. %s\n   %s\n", i+1, a.Title, a.URL)
			}
		default:
			return fmt.Errorf("unknown output format: %s", previewFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewSource, "source", "", "source name, e.g. wired")
	previewCmd.Flags().StringVar(&previewCategory, "category", "", "category to fetch")
	previewCmd.Flags().IntVar(&previewCount, "count", 3, "number of articles to fetch")
	previewCmd.Flags().StringVar(&previewFormat, "format", "text", "output format: text or json")
	_ = previewCmd.MarkFlagRequired("source")
	_ = previewCmd.MarkFlagRequired("category")
}
