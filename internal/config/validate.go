package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/andybalholm/cascadia"
	log "github.com/sirupsen/logrus"
)

// Validate checks every knob a session depends on, so a bad selector or interval fails at
// startup rather than on the first post.
func (c *Config) Validate() error {
	if c.Settings.Path == "" {
		return errors.New("settings.path is required")
	}

	if len(c.Discovery.PostSelectors) == 0 {
		return errors.New("discovery.post_selectors must list at least one selector")
	}
	if err := compileSelectors("discovery.post_selectors", c.Discovery.PostSelectors); err != nil {
		return err
	}
	if err := compileSelectors("discovery.container_selector", []string{c.Discovery.ContainerSelector}); err != nil {
		return err
	}
	if len(c.Discovery.IDAttributes) == 0 {
		return errors.New("discovery.id_attributes must list at least one attribute")
	}
	if _, err := regexp.Compile(c.Discovery.FeedURLPattern); err != nil {
		return fmt.Errorf("discovery.feed_url_pattern: %w", err)
	}
	if c.Discovery.SettleDelay < 0 {
		return errors.New("discovery.settle_delay must not be negative")
	}

	if err := compileSelectors("extraction.content_selectors", c.Extraction.ContentSelectors); err != nil {
		return err
	}
	if err := compileSelectors("extraction.strip_selectors", c.Extraction.StripSelectors); err != nil {
		return err
	}
	if c.Extraction.MinContentLength < 0 {
		return errors.New("extraction.min_content_length must not be negative")
	}
	if c.Extraction.MaxLength <= 0 {
		return errors.New("extraction.max_length must be positive")
	}

	if c.Classify.Timeout <= 0 {
		return errors.New("classify.timeout must be positive")
	}
	if c.Classify.HTTPTimeout <= 0 {
		return errors.New("classify.http_timeout must be positive")
	}
	if c.Classify.HTTPTimeout < c.Classify.Timeout {
		log.Warnf("classify.http_timeout (%s) is shorter than classify.timeout (%s); slow calls fail as provider errors", c.Classify.HTTPTimeout, c.Classify.Timeout)
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive")
	}

	if err := compileSelectors("source.item_selector", []string{c.Source.ItemSelector}); err != nil {
		return err
	}
	if c.Source.PollInterval <= 0 {
		return errors.New("source.poll_interval must be positive")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func compileSelectors(key string, selectors []string) error {
	for _, s := range selectors {
		if _, err := cascadia.Compile(s); err != nil {
			return fmt.Errorf("%s: invalid selector %q: %w", key, s, err)
		}
	}
	return nil
}
