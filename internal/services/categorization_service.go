package services

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"linkedlens/internal/dom"
	"linkedlens/internal/inputprocessor"
	"linkedlens/internal/models"
	"linkedlens/internal/store"
	categorizer "linkedlens/pkg/categorizer"
)

// DefaultClassifyTimeout is how long the pipeline waits on one LLM call.
const DefaultClassifyTimeout = 30 * time.Second

// CategorizationService runs the per-post classification pipeline: annotate, load
// configuration, extract, ask the LLM with a timeout, match, annotate the outcome.
type CategorizationService struct {
	page        *dom.Page
	annotator   *dom.Annotator
	categories  store.CategorySource
	settings    store.LLMConfigSource
	processor   inputprocessor.Processor
	Categorizer categorizer.ContentCategorizer
	usage       UsageRecorder
	timeout     time.Duration
}

type CategorizationDeps struct {
	Page        *dom.Page
	Annotator   *dom.Annotator
	Categories  store.CategorySource
	Settings    store.LLMConfigSource
	Processor   inputprocessor.Processor
	Categorizer categorizer.ContentCategorizer
	Usage       UsageRecorder
	Timeout     time.Duration
}

func NewCategorizationService(deps CategorizationDeps) *CategorizationService {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	return &CategorizationService{
		page:        deps.Page,
		annotator:   deps.Annotator,
		categories:  deps.Categories,
		settings:    deps.Settings,
		processor:   deps.Processor,
		Categorizer: deps.Categorizer,
		usage:       deps.Usage,
		timeout:     timeout,
	}
}

// Process classifies one post and leaves it in a terminal state. The returned error has
// already been surfaced as an error annotation; it is returned for logging.
func (s *CategorizationService) Process(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error) {
	stamp, err := s.annotator.Mark(post.ID, post.Element, models.StateProcessing, "")
	if err != nil {
		return "", fmt.Errorf("annotate post %s: %w", post.ID, err)
	}

	result, err := s.classify(ctx, post)
	if err != nil {
		log.WithField("post", post.ID).Warnf("Error processing post: %v", err)
		s.apply(stamp, models.StateError, "")
		return models.StateError, err
	}

	state, label := models.StateUncategorized, ""
	if result.Category != nil {
		state, label = models.CategoryState(result.Category.ID), result.Category.Name
		log.WithField("post", post.ID).Infof("Categorized post as: %s", result.Category.Name)
	} else {
		log.WithField("post", post.ID).Info("Could not categorize post, marking as uncategorized")
	}
	s.apply(stamp, state, label)
	if s.usage != nil {
		s.usage.RecordProcessedPost(ctx)
	}
	return state, nil
}

func (s *CategorizationService) apply(stamp dom.Stamp, state models.ProcessingState, label string) {
	if _, err := s.annotator.Apply(stamp, state, label); err != nil {
		log.WithField("post", stamp.PostID).Warnf("Dropped annotation %s: %v", state, err)
	}
}

func (s *CategorizationService) classify(ctx context.Context, post models.PostDescriptor) (categorizer.CategorizationResult, error) {
	var none categorizer.CategorizationResult

	cats, err := s.categories.List(ctx)
	if err != nil {
		return none, fmt.Errorf("load categories: %w", err)
	}
	if len(cats) == 0 {
		return none, &models.ConfigurationError{Reason: "no categories configured"}
	}

	cfg, err := s.settings.LLMConfig(ctx)
	if err != nil {
		return none, fmt.Errorf("load llm config: %w", err)
	}
	if cfg == nil {
		return none, &models.ConfigurationError{Reason: "LLM not configured"}
	}

	var extracted inputprocessor.Result
	s.page.View(func(_ *goquery.Document) {
		extracted = s.processor.Process(post.Element)
	})
	if extracted.Body == "" {
		return none, &models.ExtractionError{PostID: post.ID}
	}
	log.WithFields(log.Fields{"post": post.ID, "length": len([]rune(extracted.Body)), "source": extracted.Source}).
		Debug("Processing post")

	return s.categorizeWithTimeout(ctx, categorizer.CategorizationRequest{Text: extracted.Body, Categories: cats})
}

type categorizeOutcome struct {
	result categorizer.CategorizationResult
	err    error
}

// categorizeWithTimeout races the LLM call against the timeout. The call is not
// cancelled when the timeout wins; its result lands in the buffered channel and is dropped.
func (s *CategorizationService) categorizeWithTimeout(ctx context.Context, req categorizer.CategorizationRequest) (categorizer.CategorizationResult, error) {
	done := make(chan categorizeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- categorizeOutcome{err: fmt.Errorf("categorizer panic: %v", r)}
			}
		}()
		res, err := s.Categorizer.Categorize(ctx, req)
		done <- categorizeOutcome{result: res, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.result, out.err
	case <-timer.C:
		return categorizer.CategorizationResult{}, &models.TimeoutError{After: s.timeout}
	case <-ctx.Done():
		return categorizer.CategorizationResult{}, ctx.Err()
	}
}
