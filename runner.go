package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Runner drives the whole run: it loads the keyword tasks once, then
// processes them strictly sequentially through plan → draft → optimize →
// publish. A failed task is recorded and the run moves on unless
// stop-on-error is set.
type Runner struct {
	cfg         *Config
	generator   *ContentGenerator
	publisher   PostPublisher
	fetcher     *ContextFetcher
	images      *ImageGenerator // nil when image generation is disabled
	logger      *slog.Logger
	stopOnError bool
	reportDir   string
}

func NewRunner(cfg *Config, generator *ContentGenerator, publisher PostPublisher,
	fetcher *ContextFetcher, images *ImageGenerator, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		generator: generator,
		publisher: publisher,
		fetcher:   fetcher,
		images:    images,
		logger:    logger.With("component", "runner"),
		reportDir: "logs",
	}
}

// SetStopOnError makes the run abort after the first failed task.
func (r *Runner) SetStopOnError(stop bool) {
	r.stopOnError = stop
}

// Run executes the pipeline for up to posts_per_run keyword tasks. It returns
// an error only when loading fails before any task is processed; per-task
// failures are reported in the summary.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	tasks, err := LoadKeywords(r.cfg.Keywords.File)
	if err != nil {
		return nil, err
	}

	count := min(r.cfg.Content.PostsPerRun, len(tasks))
	summary := &RunSummary{
		StartedAt: time.Now(),
		Results:   make([]TaskResult, 0, count),
	}

	r.logger.Info("starting run", "tasks", count, "available", len(tasks),
		"min_words", r.cfg.Content.MinWords, "max_words", r.cfg.Content.MaxWords)

tasks:
	for i := 0; i < count; i++ {
		task := tasks[i]
		r.logger.Info(fmt.Sprintf("[%d/%d] processing", i+1, count), "keyword", task.Keyword)

		// Cancellation only takes effect at the gate below; the task in
		// flight always runs to completion.
		result := r.processTask(context.WithoutCancel(ctx), task)
		summary.Results = append(summary.Results, result)

		if result.Status == StatusOK {
			summary.Succeeded++
			r.logger.Info("✓ task completed", "keyword", task.Keyword, "post_id", result.PostID, "link", result.Link)
		} else {
			summary.Failed++
			r.logger.Error("✗ task failed", "keyword", task.Keyword, "stage", result.Stage, "error", result.Error)
			if r.stopOnError {
				r.logger.Warn("stopping run on first error")
				break tasks
			}
		}

		// Pace outbound API usage. The run can only be interrupted here,
		// between tasks.
		if i < count-1 {
			select {
			case <-ctx.Done():
				r.logger.Warn("run interrupted", "processed", i+1)
				break tasks
			case <-time.After(r.cfg.Content.DelayBetweenPosts):
			}
		}
	}

	summary.FinishedAt = time.Now()
	r.logger.Info("run completed", "succeeded", summary.Succeeded, "failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))

	if r.reportDir != "" {
		r.writeReport(summary)
	}

	return summary, nil
}

func (r *Runner) processTask(ctx context.Context, task KeywordTask) TaskResult {
	failed := func(stage string, err error) TaskResult {
		return TaskResult{Keyword: task.Keyword, Status: StatusFailed, Stage: stage, Error: err.Error()}
	}

	// A context URL becomes planner input; fetch failure degrades to the raw
	// annotation, generation proceeds.
	contextText := task.Context
	if r.fetcher != nil && IsContextURL(task.Context) {
		fetched, err := r.fetcher.Fetch(ctx, task.Context)
		if err != nil {
			r.logger.Warn("context fetch failed, using raw context", "url", task.Context, "error", err)
		} else {
			contextText = fetched
		}
	}

	plan, err := r.generator.Plan(task, contextText)
	if err != nil {
		return failed("plan", err)
	}

	post, err := r.generator.Draft(plan, task)
	if err != nil {
		return failed("draft", err)
	}

	post, err = OptimizePost(post, task, r.cfg.CTA)
	if err != nil {
		return failed("optimize", err)
	}

	opts := PublishOptions{Status: r.cfg.Content.Status}

	if r.images != nil {
		opts.FeaturedMediaID = r.featuredImage(ctx, post)
	}

	if r.cfg.Content.TargetCategory != "" {
		categoryID, err := r.publisher.ResolveCategory(ctx, r.cfg.Content.TargetCategory)
		if err != nil {
			r.logger.Warn("category resolution failed, publishing without category",
				"category", r.cfg.Content.TargetCategory, "error", err)
		} else {
			opts.CategoryID = categoryID
		}
	}

	result, err := r.publisher.Publish(ctx, post, opts)
	if err != nil {
		return failed("publish", err)
	}

	return TaskResult{
		Keyword: task.Keyword,
		Status:  StatusOK,
		PostID:  result.ID,
		Link:    result.Link,
	}
}

// featuredImage generates and uploads a featured image, returning 0 on any
// failure so the post publishes without one.
func (r *Runner) featuredImage(ctx context.Context, post *GeneratedPost) int {
	data, filename, err := r.images.GenerateFeaturedImage(ctx, post.Title, post.Keyword)
	if err != nil {
		r.logger.Warn("image generation failed, publishing without image", "error", err)
		return 0
	}

	mediaID, err := r.publisher.UploadMedia(ctx, filename, data)
	if err != nil {
		r.logger.Warn("media upload failed, publishing without image", "error", err)
		return 0
	}
	return mediaID
}

// writeReport saves the run summary as YAML next to the logs. Report failures
// never fail the run.
func (r *Runner) writeReport(summary *RunSummary) {
	if err := os.MkdirAll(r.reportDir, 0755); err != nil {
		r.logger.Warn("cannot create report directory", "dir", r.reportDir, "error", err)
		return
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		r.logger.Warn("cannot encode run report", "error", err)
		return
	}

	path := filepath.Join(r.reportDir, "run-"+summary.StartedAt.Format("20060102-150405")+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Warn("cannot write run report", "path", path, "error", err)
		return
	}

	r.logger.Info("run report written", "path", path)
}
