package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	domainservice "github.com/wolfitem/ai-podcast/internal/domain/service"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/database"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
	"github.com/wolfitem/ai-podcast/internal/middleware"
)

// PodcastPipeline runs one full episode production.
type PodcastPipeline interface {
	// Run executes the pipeline. It never panics or returns an error;
	// every outcome is reported through the result.
	Run(ctx context.Context) model.PodcastResult
}

// PipelineDeps carries the pipeline's collaborators. Storage and the
// repositories may be nil when the matching features are disabled.
type PipelineDeps struct {
	Sources     []domainservice.ArticleSource
	AI          domainservice.AIClient
	TTS         domainservice.TTSClient
	Storage     domainservice.ObjectStorage
	ArticleRepo database.ArticleRepository
	EpisodeRepo database.EpisodeRepository
	Metrics     *middleware.MetricsCollector
}

type podcastPipeline struct {
	params  model.PipelineParams
	deps    PipelineDeps
	scripts *ScriptGenerator
	audio   *AudioGenerator
	rss     *RSSGenerator
	metrics *middleware.MetricsCollector
}

// NewPodcastPipeline validates the parameter set and wires the stage
// generators. Validation happens here, before any network or API spend.
func NewPodcastPipeline(params model.PipelineParams, deps PipelineDeps) (PodcastPipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, model.NewValidationError(err.Error(), nil)
	}
	if err := validateSourceCategories(deps.Sources, params.Categories); err != nil {
		return nil, err
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = middleware.NewMetricsCollector()
	}

	p := &podcastPipeline{
		params:  params,
		deps:    deps,
		metrics: metrics,
	}
	if params.GenerateScript {
		p.scripts = NewScriptGenerator(deps.AI, metrics)
	}
	if params.GenerateAudio {
		p.audio = NewAudioGenerator(deps.TTS, params.Voices, params.ChunkByteBudget, params.AudioTimeoutSec, metrics)
	}
	if deps.Storage != nil {
		p.rss = NewRSSGenerator(deps.Storage, params.Show, params.MaxFeedEpisodes)
	}
	return p, nil
}

// validateSourceCategories checks that every configured category is
// served by at least one source.
func validateSourceCategories(sources []domainservice.ArticleSource, categories []string) error {
	for _, category := range categories {
		supported := false
		for _, src := range sources {
			if domainservice.SupportsCategory(src, category) {
				supported = true
				break
			}
		}
		if !supported {
			return model.NewValidationError(
				fmt.Sprintf("no configured source supports category %s", category), nil)
		}
	}
	return nil
}

// Run executes the pipeline end to end: collect, dedup, record, script,
// audio, publish, persist.
func (p *podcastPipeline) Run(ctx context.Context) (result model.PodcastResult) {
	start := time.Now()
	result.RunID = uuid.New().String()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panicked", "run_id", result.RunID, "panic", r)
			result.Success = false
			result.Error = fmt.Sprintf("pipeline panicked: %v", r)
		}
		result.ElapsedSeconds = time.Since(start).Seconds()
		middleware.LogMetrics(p.metrics)
		logger.Info("pipeline finished",
			"run_id", result.RunID,
			"success", result.Success,
			"elapsed_seconds", result.ElapsedSeconds)
	}()

	logger.Info("pipeline started", "run_id", result.RunID,
		"sources", len(p.deps.Sources), "categories", p.params.Categories)
	logger.LogMemStatsOnce()

	fail := func(stage string, err error) model.PodcastResult {
		logger.Error("pipeline stage failed", "run_id", result.RunID, "stage", stage, "error", err)
		result.Success = false
		result.Error = err.Error()
		return result
	}

	// Collect. Only articles passing validation survive this stage.
	var collected []model.Article
	p.timed("collect", func() error {
		collected = p.collectArticles(ctx)
		return nil
	})
	if len(collected) == 0 {
		return fail("collect", model.NewScrapingError("no articles could be collected from any source", nil))
	}

	// Dedup, then record the survivors before any generation spend.
	articles := p.filterNewArticles(collected)
	if len(articles) == 0 {
		return fail("dedup", model.NewScrapingError("No new articles were collected", nil))
	}
	p.recordUsedArticles(articles)

	result.Articles = articles
	result.ArticleCount = len(articles)
	for _, a := range articles {
		result.Titles = append(result.Titles, a.Title)
	}

	date := start.Format("2006-01-02")
	episodeKeyPrefix := showSlug(p.params.Show.Title) + "/episodes/" + date

	// Script.
	var script string
	if p.params.GenerateScript {
		err := p.timed("script", func() error {
			var genErr error
			script, _, genErr = p.scripts.GenerateScript(ctx, articles)
			return genErr
		})
		if err != nil {
			return fail("script", err)
		}

		result.ScriptGenerated = true
		result.ScriptPath = filepath.Join(p.params.OutputDir, fmt.Sprintf("episode-%s.txt", date))
		if err := writeTextFile(result.ScriptPath, script); err != nil {
			return fail("script", err)
		}

		if p.deps.Storage != nil {
			url, err := p.deps.Storage.Upload(ctx, episodeKeyPrefix+"/script.txt", []byte(script), "text/plain; charset=utf-8")
			if err != nil {
				return fail("script", model.NewNetworkError("script upload failed", err))
			}
			result.ScriptURL = url
		}

		limits := p.deps.AI.GetRateLimits()
		logger.Info("dialogue api budget",
			"used", limits.CurrentCalls,
			"remaining", limits.Remaining,
			"reset_time", limits.ResetTime)
	}

	// Audio.
	var audioResult model.AudioResult
	if p.params.GenerateAudio {
		if script == "" {
			return fail("audio", model.NewAudioGenerationError("audio generation requires script content", nil))
		}

		audioPath := filepath.Join(p.params.OutputDir, fmt.Sprintf("episode-%s.mp3", date))
		err := p.timed("audio", func() error {
			var genErr error
			audioResult, genErr = p.audio.GenerateAudio(ctx, script, audioPath)
			return genErr
		})
		if err != nil {
			return fail("audio", err)
		}

		result.AudioGenerated = true
		result.AudioPath = audioResult.FilePath
		result.Duration = audioResult.Duration

		if p.deps.Storage != nil {
			audioBytes, err := readBinaryFile(audioResult.FilePath)
			if err != nil {
				return fail("audio", err)
			}
			url, err := p.deps.Storage.Upload(ctx, episodeKeyPrefix+"/episode.mp3", audioBytes, "audio/mpeg")
			if err != nil {
				return fail("audio", model.NewNetworkError("audio upload failed", err))
			}
			result.AudioURL = url
		}
	}

	// Feed merge and publish. Failures here never fail the run; the
	// generated artifacts already exist locally.
	var episode model.PodcastEpisode
	episodeBuilt := false
	if p.rss != nil && result.AudioURL != "" {
		p.timed("rss", func() error {
			existing := p.rss.LoadExistingEpisodes(ctx)
			number := NextEpisodeNumber(existing)
			episode = p.rss.BuildEpisode(articles, audioResult, result.AudioURL, number, start)
			episodeBuilt = true
			result.EpisodeNumber = number

			rssResult, err := p.rss.PublishEpisode(ctx, episode, p.params.OutputDir)
			if err != nil {
				logger.Error("feed publish failed", "error", err)
				return err
			}

			result.RSSPublished = true
			result.FeedPath = rssResult.LocalPath
			result.FeedURL = rssResult.FeedURL
			return nil
		})
	}

	// Episode metadata is recorded on every successful run, feed or no
	// feed. Without a published feed the number comes from the store.
	if !episodeBuilt && p.deps.EpisodeRepo != nil {
		episode = p.buildEpisodeRecord(articles, audioResult, result.AudioURL, start)
		episodeBuilt = true
		result.EpisodeNumber = episode.EpisodeNumber
	}
	if episodeBuilt {
		p.persistEpisode(episode)
	}

	result.Success = true
	return result
}

// buildEpisodeRecord assembles the episode metadata for runs where the
// feed stage did not build one, numbering from the stored history.
func (p *podcastPipeline) buildEpisodeRecord(articles []model.Article, audio model.AudioResult, audioURL string, now time.Time) model.PodcastEpisode {
	number := 1
	if stored, err := p.deps.EpisodeRepo.ListEpisodes(); err == nil {
		number = NextEpisodeNumber(stored)
	} else {
		logger.Warn("failed to list stored episodes, numbering from 1", "error", err)
	}

	episode := model.PodcastEpisode{
		Title:         fmt.Sprintf("Episode %d - %s", number, formatEpisodeDate(now)),
		Description:   episodeDescription(articles),
		AudioURL:      audioURL,
		PubDate:       now,
		EpisodeNumber: number,
		Duration:      audio.Duration,
		FileSize:      audio.FileSize,
		Author:        p.params.Show.Author,
	}
	episode.EnsureGUID()
	return episode
}

// collectArticles gathers articles from every (source, category) pair.
// Individual pair failures are logged and skipped, and articles failing
// validation are dropped here, before dedup can record their URL.
func (p *podcastPipeline) collectArticles(ctx context.Context) []model.Article {
	count := p.params.ArticlesPerSource
	if count <= 0 {
		count = 1
	}

	var collected []model.Article
	var skipped int64
	for _, src := range p.deps.Sources {
		for _, category := range p.params.Categories {
			if !domainservice.SupportsCategory(src, category) {
				continue
			}
			articles, err := src.GetMultipleArticles(ctx, category, count)
			if err != nil {
				logger.Warn("collection failed for source, skipping",
					"source", src.Name(), "category", category, "error", err)
				skipped++
				continue
			}
			for _, a := range articles {
				if !a.IsValid() {
					logger.Warn("article failed validation, excluded from collection",
						"source", src.Name(), "title", a.Title, "url", a.URL)
					skipped++
					continue
				}
				collected = append(collected, a)
			}
		}
	}

	p.metrics.RecordArticles(int64(len(collected)), skipped)
	logger.Info("article collection finished", "collected", len(collected))
	return collected
}

// filterNewArticles drops articles whose URL was used by an earlier
// episode. An unavailable dedup backend fails open: every article is
// treated as new.
func (p *podcastPipeline) filterNewArticles(articles []model.Article) []model.Article {
	if p.deps.ArticleRepo == nil {
		logger.Warn("dedup store not configured, treating all articles as new")
		return articles
	}

	var fresh []model.Article
	for _, a := range articles {
		exists, err := p.deps.ArticleRepo.ArticleExists(a.URL)
		if err != nil {
			logger.Warn("dedup lookup failed, treating article as new", "url", a.URL, "error", err)
			fresh = append(fresh, a)
			continue
		}
		if exists {
			firstSeen := ""
			if record, err := p.deps.ArticleRepo.GetArticleByURL(a.URL); err == nil && record != nil {
				firstSeen = record.Source
			}
			logger.Info("article already used in an earlier episode, skipping",
				"title", a.Title, "url", a.URL, "first_used_by", firstSeen)
			continue
		}
		fresh = append(fresh, a)
	}

	logger.Info("dedup finished", "input", len(articles), "new", len(fresh))
	return fresh
}

// recordUsedArticles marks the run's articles as used, best effort.
func (p *podcastPipeline) recordUsedArticles(articles []model.Article) {
	if p.deps.ArticleRepo == nil {
		return
	}
	for _, a := range articles {
		if err := p.deps.ArticleRepo.SaveArticle(a); err != nil {
			logger.Warn("failed to record used article", "url", a.URL, "error", err)
		}
	}
}

// persistEpisode stores the episode metadata, best effort.
func (p *podcastPipeline) persistEpisode(episode model.PodcastEpisode) {
	if p.deps.EpisodeRepo == nil {
		return
	}
	if err := p.deps.EpisodeRepo.SaveEpisode(episode); err != nil {
		logger.Warn("failed to persist episode metadata", "guid", episode.GUID, "error", err)
	}
}

// timed runs a stage and records its duration.
func (p *podcastPipeline) timed(name string, fn func() error) error {
	stageStart := time.Now()
	err := fn()
	p.metrics.RecordStage(name, time.Since(stageStart), err == nil)
	return err
}
