package pagesource

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"

	"linkedlens/internal/dom"
)

const DefaultPollInterval = 5 * time.Second

// BrowserOptions configures the headless browser session.
type BrowserOptions struct {
	URL          string
	PollInterval time.Duration
	Headless     bool
	UserDataDir  string // reuse a profile that is already signed in
	ExecPath     string // falls back to $CHROME_BIN, then chromedp's lookup
	Scroll       bool   // scroll one viewport per poll to make the feed load more
}

// BrowserSource drives Chrome through chromedp and polls the rendered document.
type BrowserSource struct {
	opts   BrowserOptions
	page   *dom.Page
	mirror *Mirror
}

func NewBrowserSource(opts BrowserOptions, page *dom.Page, mirror *Mirror) *BrowserSource {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &BrowserSource{opts: opts, page: page, mirror: mirror}
}

func (s *BrowserSource) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)
	if s.opts.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(s.opts.UserDataDir))
	}
	execPath := s.opts.ExecPath
	if execPath == "" {
		execPath = os.Getenv("CHROME_BIN")
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}

// Run opens the feed and mirrors it every poll interval until ctx ends.
func (s *BrowserSource) Run(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(s.opts.URL),
		chromedp.WaitReady("body"),
	); err != nil {
		return fmt.Errorf("open %s: %w", s.opts.URL, err)
	}
	log.Infof("Browser opened %s", s.opts.URL)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		if err := s.poll(taskCtx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warnf("Browser poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *BrowserSource) poll(ctx context.Context) error {
	var (
		location string
		outer    string
	)
	actions := []chromedp.Action{chromedp.Location(&location)}
	if s.opts.Scroll {
		actions = append(actions, chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil))
	}
	actions = append(actions, chromedp.OuterHTML("html", &outer, chromedp.ByQuery))
	if err := chromedp.Run(ctx, actions...); err != nil {
		return err
	}

	if location != s.page.URL() {
		s.page.Navigate(location)
	}
	res, err := s.mirror.SyncHTML(outer)
	if err != nil {
		return err
	}
	if res.Added > 0 {
		log.Debugf("Browser poll: %d new feed items", res.Added)
	}
	return nil
}

var _ Source = (*BrowserSource)(nil)
