package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	appservice "github.com/wolfitem/ai-podcast/internal/application/service"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	domainservice "github.com/wolfitem/ai-podcast/internal/domain/service"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/ai"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/database"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/storage"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/tts"
	"github.com/wolfitem/ai-podcast/internal/middleware"
)

var (
	generateOutputDir  string
	generateCategories []string
	generateSources    []string
	generateScriptOnly bool
	generateFormat     string
)

// generateCmd runs the full episode production pipeline.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Produce a podcast episode from recent tech news",
	Long: `Collects recent articles from the configured sources, generates a
two-host dialogue script, synthesizes the episode audio, uploads the
artifacts and publishes the updated show feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := buildPipelineParams()
		deps, cleanup, err := buildPipelineDeps(cmd.Context(), params)
		if err != nil {
			return err
		}
		defer cleanup()

		pipeline, err := appservice.NewPodcastPipeline(params, deps)
		if err != nil {
			return err
		}

		result := pipeline.Run(cmd.Context())
		if err := printResult(result, generateFormat); err != nil {
			return err
		}
		if !result.Success {
			return errors.New(result.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutputDir, "output", "o", "", "output directory (overrides config)")
	generateCmd.Flags().StringSliceVar(&generateCategories, "categories", nil, "categories to collect (overrides config)")
	generateCmd.Flags().StringSliceVar(&generateSources, "sources", nil, "sources to collect from (overrides config)")
	generateCmd.Flags().BoolVar(&generateScriptOnly, "script-only", false, "generate the script but skip audio synthesis")
	generateCmd.Flags().StringVar(&generateFormat, "format", "text", "result output format: text or json")
}

// buildPipelineParams maps config and flags into the explicit parameter
// object the pipeline consumes.
func buildPipelineParams() model.PipelineParams {
	params := model.PipelineParams{
		Anthropic: model.AnthropicConfig{
			APIKey:    viper.GetString("anthropic.api_key"),
			Model:     viper.GetString("anthropic.model"),
			MaxTokens: viper.GetInt("anthropic.max_tokens"),
			MaxCalls:  viper.GetInt("anthropic.max_calls"),
			APIUrl:    viper.GetString("anthropic.api_url"),
			Timeout:   viper.GetInt("anthropic.timeout"),
		},
		ElevenLabs: model.ElevenLabsConfig{
			APIKey:  viper.GetString("elevenlabs.api_key"),
			ModelID: viper.GetString("elevenlabs.model_id"),
			APIUrl:  viper.GetString("elevenlabs.api_url"),
			Timeout: viper.GetInt("elevenlabs.timeout"),
		},
		AWS: model.AWSConfig{
			AccessKeyID:     viper.GetString("aws.access_key_id"),
			SecretAccessKey: viper.GetString("aws.secret_access_key"),
			Region:          viper.GetString("aws.region"),
			Bucket:          viper.GetString("aws.bucket"),
		},
		Sources:           viper.GetStringSlice("podcast.sources"),
		Categories:        viper.GetStringSlice("podcast.categories"),
		ArticlesPerSource: viper.GetInt("podcast.articles_per_source"),
		OPMLFile:          viper.GetString("podcast.opml_file"),
		OutputDir:         viper.GetString("podcast.output_dir"),
		GenerateScript:    viper.GetBool("podcast.generate_script"),
		GenerateAudio:     viper.GetBool("podcast.generate_audio"),
		Voices: model.VoiceConfig{
			VoiceA: viper.GetString("voices.voice_a"),
			VoiceB: viper.GetString("voices.voice_b"),
		},
		Show: model.ShowConfig{
			Title:       viper.GetString("show.title"),
			Subtitle:    viper.GetString("show.subtitle"),
			Description: viper.GetString("show.description"),
			Link:        viper.GetString("show.link"),
			Author:      viper.GetString("show.author"),
			Email:       viper.GetString("show.email"),
			ImageURL:    viper.GetString("show.image_url"),
			Category:    viper.GetString("show.category"),
			Language:    viper.GetString("show.language"),
			Explicit:    viper.GetBool("show.explicit"),
		},
		MaxFeedEpisodes: viper.GetInt("podcast.max_feed_episodes"),
		Database: model.DatabaseConfig{
			Enabled:  viper.GetBool("database.enabled"),
			FilePath: viper.GetString("database.file_path"),
		},
		ChunkByteBudget: viper.GetInt("podcast.chunk_byte_budget"),
		AudioTimeoutSec: viper.GetInt("podcast.audio_timeout"),
	}

	if generateOutputDir != "" {
		params.OutputDir = generateOutputDir
	}
	if params.OutputDir == "" {
		params.OutputDir = "output"
	}
	if len(generateCategories) > 0 {
		params.Categories = generateCategories
	}
	if len(generateSources) > 0 {
		params.Sources = generateSources
	}
	if generateScriptOnly {
		params.GenerateScript = true
		params.GenerateAudio = false
	}
	return params
}

// buildPipelineDeps wires the pipeline collaborators from the parameter
// set. The returned cleanup closes the database when one was opened.
func buildPipelineDeps(ctx context.Context, params model.PipelineParams) (appservice.PipelineDeps, func(), error) {
	cleanup := func() {}

	fetcher := domainservice.NewFetcher(15 * time.Second)
	var sources []domainservice.ArticleSource
	for _, name := range params.Sources {
		src, err := domainservice.NewSource(name, fetcher)
		if err != nil {
			return appservice.PipelineDeps{}, cleanup, err
		}
		sources = append(sources, src)
	}
	if params.OPMLFile != "" {
		// OPML feeds serve the first configured category.
		category := ""
		if len(params.Categories) > 0 {
			category = params.Categories[0]
		}
		feedSources, err := domainservice.LoadOPMLSources(params.OPMLFile, category, fetcher)
		if err != nil {
			return appservice.PipelineDeps{}, cleanup, err
		}
		sources = append(sources, feedSources...)
	}

	deps := appservice.PipelineDeps{
		Sources: sources,
		Metrics: middleware.NewMetricsCollector(),
	}

	if params.GenerateScript {
		deps.AI = ai.NewClaudeClient(params.Anthropic, deps.Metrics)
	}
	if params.GenerateAudio {
		deps.TTS = tts.NewElevenLabsClient(params.ElevenLabs)
	}

	if params.AWS.Bucket != "" {
		store, err := storage.NewS3Storage(ctx, params.AWS)
		if err != nil {
			return appservice.PipelineDeps{}, cleanup, err
		}
		deps.Storage = store
	} else {
		logger.Warn("object storage not configured, artifacts stay local only")
	}

	if params.Database.Enabled {
		db := database.NewSQLiteDatabase(params.Database.FilePath)
		if err := db.Init(); err != nil {
			// A broken dedup store must not block episode production.
			logger.Warn("database unavailable, dedup disabled for this run", "error", err)
		} else {
			deps.ArticleRepo = database.NewSQLiteArticleRepository(db)
			deps.EpisodeRepo = database.NewSQLiteEpisodeRepository(db)
			cleanup = func() { db.Close() }
		}
	}

	return deps, cleanup, nil
}

// printResult renders a run result in the requested format.
func printResult(result model.PodcastResult, format string) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(out))
	case "text", "":
		if result.Success {
			fmt.Println("episode generated successfully")
		} else {
			fmt.Println("episode generation failed:", result.Error)
		}
		fmt.Printf("  run id:    %s\n", result.RunID)
		fmt.Printf("  articles:  %d\n", result.ArticleCount)
		for _, title := range result.Titles {
			fmt.Printf("    - %s\n", title)
		}
		if result.ScriptPath != "" {
			fmt.Printf("  script:    %s\n", result.ScriptPath)
		}
		if result.AudioPath != "" {
			fmt.Printf("  audio:     %s (%s)\n", result.AudioPath, result.Duration)
		}
		if result.FeedURL != "" {
			fmt.Printf("  feed:      %s (episode %d)\n", result.FeedURL, result.EpisodeNumber)
		}
		fmt.Printf("  elapsed:   %.1fs\n", result.ElapsedSeconds)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}
