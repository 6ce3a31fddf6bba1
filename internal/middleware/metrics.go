package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

// MetricsCollector gathers per-run pipeline and API statistics.
type MetricsCollector struct {
	mu sync.RWMutex

	startTime time.Time

	apiCalls     int64
	apiFailures  int64
	apiDurations []time.Duration

	stages []StageTiming

	articlesCollected int64
	articlesSkipped   int64
	segmentsGenerated int64
	chunksSynthesized int64
}

// StageTiming records the outcome of one pipeline stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
	Success  bool
}

// NewMetricsCollector creates a fresh collector for one run.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:    time.Now(),
		apiDurations: make([]time.Duration, 0, 64),
	}
}

// RecordAPICall records one outbound API call.
func (m *MetricsCollector) RecordAPICall(duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.apiCalls++
	if !success {
		m.apiFailures++
	}

	m.apiDurations = append(m.apiDurations, duration)
	if len(m.apiDurations) > 1000 {
		m.apiDurations = m.apiDurations[1:]
	}
}

// RecordStage records the timing of one pipeline stage.
func (m *MetricsCollector) RecordStage(name string, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stages = append(m.stages, StageTiming{Name: name, Duration: duration, Success: success})
}

// RecordArticles records collection counts.
func (m *MetricsCollector) RecordArticles(collected, skipped int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.articlesCollected += collected
	m.articlesSkipped += skipped
}

// RecordSegments records how many dialogue segments were generated.
func (m *MetricsCollector) RecordSegments(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.segmentsGenerated += count
}

// RecordChunks records how many audio chunks were synthesized.
func (m *MetricsCollector) RecordChunks(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chunksSynthesized += count
}

// GetReport returns a snapshot of the collected statistics.
func (m *MetricsCollector) GetReport() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	upTime := time.Since(m.startTime)

	stages := make([]StageTiming, len(m.stages))
	copy(stages, m.stages)

	return Report{
		RuntimeInfo: RuntimeInfo{
			StartTime:  m.startTime,
			Uptime:     upTime,
			ProcessSec: int64(upTime.Seconds()),
		},
		APIStats: APIStats{
			TotalCalls:     m.apiCalls,
			Successful:     m.apiCalls - m.apiFailures,
			Failed:         m.apiFailures,
			SuccessRate:    m.calculateSuccessRate(),
			AverageLatency: m.getAverageAPIDuration().Milliseconds(),
		},
		PipelineStats: PipelineStats{
			ArticlesCollected: m.articlesCollected,
			ArticlesSkipped:   m.articlesSkipped,
			SegmentsGenerated: m.segmentsGenerated,
			ChunksSynthesized: m.chunksSynthesized,
		},
		Stages: stages,
	}
}

// getAverageAPIDuration computes the mean API latency.
func (m *MetricsCollector) getAverageAPIDuration() time.Duration {
	if len(m.apiDurations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range m.apiDurations {
		total += d
	}
	return total / time.Duration(len(m.apiDurations))
}

// calculateSuccessRate computes the API success rate percentage.
func (m *MetricsCollector) calculateSuccessRate() float64 {
	if m.apiCalls == 0 {
		return 100.0
	}
	return float64(m.apiCalls-m.apiFailures) / float64(m.apiCalls) * 100
}

// Report is one run's statistics snapshot.
type Report struct {
	RuntimeInfo   RuntimeInfo
	APIStats      APIStats
	PipelineStats PipelineStats
	Stages        []StageTiming
}

// RuntimeInfo describes the run itself.
type RuntimeInfo struct {
	StartTime  time.Time
	Uptime     time.Duration
	ProcessSec int64
}

// APIStats summarizes outbound API use.
type APIStats struct {
	TotalCalls     int64
	Successful     int64
	Failed         int64
	SuccessRate    float64
	AverageLatency int64
}

// PipelineStats summarizes per-stage item counts.
type PipelineStats struct {
	ArticlesCollected int64
	ArticlesSkipped   int64
	SegmentsGenerated int64
	ChunksSynthesized int64
}

// LogMetrics writes the run report to the log.
func LogMetrics(metrics *MetricsCollector) {
	report := metrics.GetReport()
	logger.Info("run metrics",
		"start_time", report.RuntimeInfo.StartTime,
		"uptime", report.RuntimeInfo.Uptime,
		"api_calls", report.APIStats.TotalCalls,
		"api_success_rate", fmt.Sprintf("%.2f%%", report.APIStats.SuccessRate),
		"api_avg_latency", fmt.Sprintf("%dms", report.APIStats.AverageLatency),
		"articles_collected", report.PipelineStats.ArticlesCollected,
		"articles_skipped", report.PipelineStats.ArticlesSkipped,
		"segments_generated", report.PipelineStats.SegmentsGenerated,
		"chunks_synthesized", report.PipelineStats.ChunksSynthesized,
	)
	for _, stage := range report.Stages {
		logger.Info("stage timing", "stage", stage.Name, "duration", stage.Duration, "success", stage.Success)
	}
}
