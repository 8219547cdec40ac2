package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"postforge/internal/ai"
	"postforge/internal/history"
	"postforge/internal/publish"
	"postforge/internal/schedule"

	"github.com/google/uuid"
)

// Featured image sources.
const (
	ImageSourceAIPrompt     = "ai_prompt"
	ImageSourceStockPhoto   = "stock_photo"
	ImageSourceMediaLibrary = "media_library"
)

// StockSearcher finds a stock photo by keywords.
type StockSearcher interface {
	Search(ctx context.Context, keywords string) (*publish.FeaturedImage, error)
}

// MediaSource picks an image from a fixed media pool.
type MediaSource interface {
	Pick(ctx context.Context, ids []string) (*publish.FeaturedImage, error)
}

// Observer receives run outcomes, typically for metrics.
type Observer interface {
	ObserveRun(ctx context.Context, runType string, success bool, elapsed time.Duration)
}

// Generator drives one content run: prompt assembly, model calls,
// variable resolution, title, excerpt, featured image and delivery.
// Content generation and artifact creation are the only fatal steps;
// everything else degrades and the run still produces a post.
type Generator struct {
	client    ai.Client
	artifacts publish.ArtifactStore
	stock     StockSearcher
	media     MediaSource
	recorder  *history.Recorder
	logger    *slog.Logger
	site      SiteInfo

	now func() time.Time

	// OnArtifact, when set, is called after a run completes.
	OnArtifact func(ctx context.Context, historyID int64, artifactID string)

	// Observer, when set, receives every run outcome.
	Observer Observer
}

// NewGenerator wires the pipeline. stock and media may be nil when the
// corresponding image sources are not configured.
func NewGenerator(client ai.Client, artifacts publish.ArtifactStore, stock StockSearcher, media MediaSource, recorder *history.Recorder, logger *slog.Logger, site SiteInfo) *Generator {
	return &Generator{
		client:    client,
		artifacts: artifacts,
		stock:     stock,
		media:     media,
		recorder:  recorder,
		logger:    logger,
		site:      site,
		now:       time.Now,
	}
}

// Run executes the pipeline for one claimed schedule.
func (g *Generator) Run(ctx context.Context, req schedule.RunRequest) (schedule.RunResult, error) {
	var scheduleID *uuid.UUID
	if req.Schedule != nil {
		id := req.Schedule.ID
		scheduleID = &id
	}
	templateID := req.Template.ID

	run, err := g.recorder.Open(ctx, req.RunType, &templateID, scheduleID)
	if err != nil {
		return schedule.RunResult{}, err
	}

	started := g.now()
	artifactID, err := g.generate(ctx, run, req)
	if g.Observer != nil {
		g.Observer.ObserveRun(ctx, req.RunType, err == nil, g.now().Sub(started))
	}
	if err != nil {
		run.Record(ctx, history.LogError, err.Error())
		if cerr := run.CompleteFailure(ctx, err.Error()); cerr != nil {
			g.logger.Error("failed to finalize failed run", "history_id", run.ID(), "error", cerr)
		}
		return schedule.RunResult{HistoryID: run.ID()}, err
	}

	if cerr := run.CompleteSuccess(ctx, artifactID); cerr != nil {
		g.logger.Error("failed to finalize completed run", "history_id", run.ID(), "error", cerr)
	}
	if g.OnArtifact != nil {
		g.OnArtifact(ctx, run.ID(), artifactID)
	}

	return schedule.RunResult{HistoryID: run.ID(), ArtifactID: artifactID}, nil
}

func (g *Generator) generate(ctx context.Context, run *history.Run, req schedule.RunRequest) (string, error) {
	tmpl := req.Template
	vars := Vars{
		Now:   g.now(),
		Site:  g.site,
		Topic: g.topic(req),
	}

	run.RecordContext(ctx, history.LogActivity, "generation started", map[string]any{
		"run_type": req.RunType,
		"template": tmpl.Name,
		"topic":    vars.Topic,
	})

	// Content is the one step nothing can substitute for.
	prompt := BuildContentPrompt(vars.Process(tmpl.ContentPrompt), req.Structure)
	content, err := g.client.GenerateText(ctx, contentSystemPrompt, prompt, ai.Options{Temperature: 0.7})
	run.RecordIO(ctx, history.LogAIRequest, "content generation", prompt, content)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}

	// Custom placeholders live in the template's prompts; the generated
	// article only serves as context for resolving them.
	titlePrompt := tmpl.TitlePrompt
	names := mergeNames(ExtractAIVariables(tmpl.ContentPrompt), ExtractAIVariables(tmpl.TitlePrompt))
	if values := g.resolveAIVariables(ctx, run, names, content); len(values) > 0 {
		content = ReplaceVariables(content, values)
		titlePrompt = ReplaceVariables(titlePrompt, values)
	}

	title := g.title(ctx, run, vars, titlePrompt, content)
	vars.Title = title

	excerpt := g.excerpt(ctx, run, title, content)
	image := g.featuredImage(ctx, run, vars, req)

	// The focus keyword prefers the topic and falls back to the title.
	focus := vars.Topic
	if focus == "" {
		focus = title
	}

	artifact := &publish.Artifact{
		Title:           title,
		Body:            content,
		Excerpt:         excerpt,
		Status:          tmpl.PostStatus,
		Category:        tmpl.PostCategory,
		Author:          tmpl.PostAuthor,
		MetaTitle:       title,
		MetaDescription: excerpt,
		FocusKeyword:    focus,
		FeaturedImage:   image,
	}

	artifactID, err := g.artifacts.CreateArtifact(ctx, artifact)
	if err != nil {
		return "", fmt.Errorf("artifact creation failed: %w", err)
	}

	run.RecordContext(ctx, history.LogActivity, "artifact created", map[string]any{
		"artifact_id": artifactID,
		"title":       title,
	})
	return artifactID, nil
}

func (g *Generator) topic(req schedule.RunRequest) string {
	if req.Schedule != nil && req.Schedule.Topic != nil && *req.Schedule.Topic != "" {
		return *req.Schedule.Topic
	}
	return ""
}

// resolveAIVariables runs the second model round-trip for the custom
// placeholders named in the template's prompts, using the generated
// article as context. Any failure yields no values.
func (g *Generator) resolveAIVariables(ctx context.Context, run *history.Run, names []string, content string) map[string]string {
	if len(names) == 0 {
		return nil
	}

	prompt := BuildAIVariablesPrompt(names, content)
	resp, err := g.client.GenerateText(ctx, "", prompt, ai.Options{Temperature: 0.5})
	run.RecordIO(ctx, history.LogAIRequest, "variable resolution", prompt, resp)
	if err != nil {
		run.Record(ctx, history.LogWarning, "variable resolution failed: "+err.Error())
		return nil
	}

	values, err := ParseAIVariablesResponse(resp, names)
	if err != nil {
		run.Record(ctx, history.LogWarning, "variable resolution returned invalid JSON: "+err.Error())
		return nil
	}
	return values
}

// mergeNames unions placeholder name lists, keeping first-seen order.
func mergeNames(lists ...[]string) []string {
	var merged []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			merged = append(merged, name)
		}
	}
	return merged
}

// title generates the post title, falling back to a deterministic one
// when generation fails or leaves placeholders behind.
func (g *Generator) title(ctx context.Context, run *history.Run, vars Vars, titlePrompt, content string) string {
	if strings.TrimSpace(titlePrompt) == "" {
		return FallbackTitle(vars.Topic, g.now())
	}

	prompt := BuildTitlePrompt(vars.Process(titlePrompt), content)
	title, err := g.client.GenerateText(ctx, titleSystemPrompt, prompt, ai.Options{Temperature: 0.7})
	run.RecordIO(ctx, history.LogAIRequest, "title generation", prompt, title)
	if err != nil {
		run.Record(ctx, history.LogWarning, "title generation failed: "+err.Error())
		return FallbackTitle(vars.Topic, g.now())
	}

	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" || strings.Contains(title, "{{") {
		run.Record(ctx, history.LogWarning, "generated title unusable, using fallback")
		return FallbackTitle(vars.Topic, g.now())
	}
	return title
}

// excerpt generates the short summary; a failure yields an empty
// excerpt rather than a failed run.
func (g *Generator) excerpt(ctx context.Context, run *history.Run, title, content string) string {
	prompt := BuildExcerptPrompt(title, content)
	excerpt, err := g.client.GenerateText(ctx, excerptSystemPrompt, prompt, ai.Options{Temperature: 0.3})
	run.RecordIO(ctx, history.LogAIRequest, "excerpt generation", prompt, excerpt)
	if err != nil {
		run.Record(ctx, history.LogWarning, "excerpt generation failed: "+err.Error())
		return ""
	}
	return CleanExcerpt(excerpt)
}

// featuredImage resolves the image per the template's source setting.
// Every failure path logs and returns nil; a missing image never sinks
// the run.
func (g *Generator) featuredImage(ctx context.Context, run *history.Run, vars Vars, req schedule.RunRequest) *publish.FeaturedImage {
	tmpl := req.Template
	if !tmpl.GenerateImage {
		return nil
	}

	var (
		img *publish.FeaturedImage
		err error
	)

	switch tmpl.ImageSource {
	case ImageSourceStockPhoto:
		if g.stock == nil {
			err = fmt.Errorf("stock photo source not configured")
			break
		}
		img, err = g.stock.Search(ctx, vars.Process(tmpl.StockKeywords))
	case ImageSourceMediaLibrary:
		if g.media == nil {
			err = fmt.Errorf("media library source not configured")
			break
		}
		img, err = g.media.Pick(ctx, tmpl.MediaIDs)
	default: // ai_prompt
		prompt := vars.Process(tmpl.ImagePrompt)
		var generated ai.Image
		generated, err = g.client.GenerateImage(ctx, prompt, ai.Options{})
		if err == nil {
			img = &publish.FeaturedImage{
				URL:      generated.URL,
				Bytes:    generated.Bytes,
				MimeType: generated.MimeType,
				AltText:  vars.Title,
			}
		}
		run.RecordIO(ctx, history.LogAIRequest, "image generation", prompt, "")
	}

	if err != nil {
		run.Record(ctx, history.LogWarning, "featured image failed: "+err.Error())
		return nil
	}
	return img
}
