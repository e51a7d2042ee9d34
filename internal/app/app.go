package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slices"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"linkedlens/internal/config"
	"linkedlens/internal/discovery"
	"linkedlens/internal/dom"
	"linkedlens/internal/inputprocessor"
	"linkedlens/internal/pagesource"
	"linkedlens/internal/queue"
	"linkedlens/internal/services"
	"linkedlens/internal/store"
	"linkedlens/internal/usage"
	"linkedlens/pkg/categorizer"
)

// App holds everything that outlives a page session: the settings store and the
// services built on it.
type App struct {
	Config *config.Config

	Store      *store.ViperStore
	Settings   *store.LLMSettings
	Categories *store.CategoryStore
	Usage      *usage.Recorder

	Gateway     *services.Gateway
	Prompts     categorizer.PromptBuilder
	Categorizer categorizer.ContentCategorizer
	Processor   inputprocessor.Processor

	unsubscribe func()
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, err
	}

	log.Debugf("Application initialization complete (settings: %s)", app.Store.Path())
	return app, nil
}

// ConfigureLogging applies the log level and format from cfg to the package logger.
func ConfigureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func (a *App) initStore() error {
	kv, err := store.NewViperStore(a.Config.Settings.Path)
	if err != nil {
		return fmt.Errorf("init settings store: %w", err)
	}
	a.Store = kv
	a.Settings = store.NewLLMSettings(kv)
	a.Categories = store.NewCategoryStore(kv, a.Config.Settings.SeedDefaults)
	a.Usage = usage.New(store.NewStatsStore(kv))

	a.unsubscribe = kv.OnChanged(func(keys []string) {
		keys = slices.DeleteFunc(slices.Clone(keys), func(k string) bool { return k == store.KeyStats })
		if len(keys) > 0 {
			log.WithField("keys", keys).Info("Settings changed; next classification uses the new values")
		}
	})
	return nil
}

func (a *App) initServices() error {
	client := &http.Client{Timeout: a.Config.Classify.HTTPTimeout}
	a.Gateway = services.NewGateway(a.Settings, a.Usage, client)
	a.Prompts = categorizer.NewPromptBuilder(a.Config.Classify.Platform)
	a.Categorizer = categorizer.NewLLMCategorizer(a.Gateway, a.Prompts)

	proc, err := inputprocessor.New(a.Config.ExtractionOptions())
	if err != nil {
		return fmt.Errorf("init input processor: %w", err)
	}
	a.Processor = proc
	return nil
}

// Close detaches the settings listener.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Session is one page being watched: discovery, queue, scheduler and pipeline bound to
// a single dom.Page.
type Session struct {
	Page      *dom.Page
	Annotator *dom.Annotator
	Queue     *queue.Queue
	Engine    *discovery.Engine
	Scheduler *queue.Scheduler
	Pipeline  *services.CategorizationService
}

// NewSession wires a session for page.
func (a *App) NewSession(page *dom.Page) (*Session, error) {
	annotator := dom.NewAnnotator(page)
	q := queue.New()

	engine, err := discovery.New(page, annotator, q, a.Config.DiscoveryOptions())
	if err != nil {
		return nil, fmt.Errorf("init discovery: %w", err)
	}

	pipeline := services.NewCategorizationService(services.CategorizationDeps{
		Page:        page,
		Annotator:   annotator,
		Categories:  a.Categories,
		Settings:    a.Settings,
		Processor:   a.Processor,
		Categorizer: a.Categorizer,
		Usage:       a.Usage,
		Timeout:     a.Config.Classify.Timeout,
	})

	return &Session{
		Page:      page,
		Annotator: annotator,
		Queue:     q,
		Engine:    engine,
		Scheduler: queue.NewScheduler(q, page, engine, pipeline, a.Config.Scheduler.Interval),
		Pipeline:  pipeline,
	}, nil
}

// Run feeds the page from src, attaches discovery and drives the scheduler until ctx
// ends or src fails. The settings file is watched for the same lifetime.
func (a *App) Run(ctx context.Context, sess *Session, src pagesource.Source) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := src.Run(ctx); err != nil {
			return fmt.Errorf("page source: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.Store.Watch(ctx); err != nil {
			log.Warnf("Settings file will not be watched: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		detach := sess.Engine.Attach(ctx, a.Config.Discovery.SettleDelay)
		defer detach()
		sess.Scheduler.Run(ctx)
		return nil
	})

	log.WithFields(log.Fields{
		"url":      sess.Page.URL(),
		"interval": a.Config.Scheduler.Interval,
		"timeout":  a.Config.Classify.Timeout,
	}).Info("Session started")
	return g.Wait()
}
