package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"linkedlens/internal/discovery"
	"linkedlens/internal/inputprocessor"
	"linkedlens/internal/pagesource"
	"linkedlens/internal/queue"
	"linkedlens/internal/services"
	"linkedlens/pkg/categorizer"
)

// EnvPrefix namespaces environment overrides, e.g. LINKEDLENS_SCHEDULER_INTERVAL=5s.
const EnvPrefix = "LINKEDLENS"

type Config struct {
	Settings struct {
		Path         string `mapstructure:"path"`
		SeedDefaults bool   `mapstructure:"seed_defaults"`
	} `mapstructure:"settings"`

	Discovery struct {
		PostSelectors     []string      `mapstructure:"post_selectors"`
		ContainerSelector string        `mapstructure:"container_selector"`
		IDAttributes      []string      `mapstructure:"id_attributes"`
		FeedURLPattern    string        `mapstructure:"feed_url_pattern"`
		SettleDelay       time.Duration `mapstructure:"settle_delay"`
	} `mapstructure:"discovery"`

	Extraction struct {
		ContentSelectors []string `mapstructure:"content_selectors"`
		StripSelectors   []string `mapstructure:"strip_selectors"`
		MinContentLength int      `mapstructure:"min_content_length"`
		MaxLength        int      `mapstructure:"max_length"`
	} `mapstructure:"extraction"`

	Classify struct {
		Timeout     time.Duration `mapstructure:"timeout"`
		HTTPTimeout time.Duration `mapstructure:"http_timeout"`
		Platform    string        `mapstructure:"platform"`
	} `mapstructure:"classify"`

	Scheduler struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"scheduler"`

	Source struct {
		URL          string        `mapstructure:"url"`
		ItemSelector string        `mapstructure:"item_selector"`
		KeyAttrs     []string      `mapstructure:"key_attrs"`
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"source"`

	Browser struct {
		Headless    bool   `mapstructure:"headless"`
		ExecPath    string `mapstructure:"exec_path"`
		UserDataDir string `mapstructure:"user_data_dir"`
		Scroll      bool   `mapstructure:"scroll"`
	} `mapstructure:"browser"`

	Server struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.path", DefaultSettingsFile)
	v.SetDefault("settings.seed_defaults", true)

	v.SetDefault("discovery.post_selectors", discovery.DefaultPostSelectors)
	v.SetDefault("discovery.container_selector", discovery.DefaultContainerSelector)
	v.SetDefault("discovery.id_attributes", discovery.DefaultIDAttributes)
	v.SetDefault("discovery.feed_url_pattern", discovery.DefaultFeedURLPattern)
	v.SetDefault("discovery.settle_delay", discovery.DefaultSettleDelay)

	v.SetDefault("extraction.content_selectors", inputprocessor.DefaultContentSelectors)
	v.SetDefault("extraction.strip_selectors", inputprocessor.DefaultStripSelectors)
	v.SetDefault("extraction.min_content_length", inputprocessor.DefaultMinContentLength)
	v.SetDefault("extraction.max_length", inputprocessor.DefaultMaxLength)

	v.SetDefault("classify.timeout", services.DefaultClassifyTimeout)
	v.SetDefault("classify.http_timeout", services.DefaultHTTPTimeout)
	v.SetDefault("classify.platform", categorizer.DefaultPlatform)

	v.SetDefault("scheduler.interval", queue.DefaultInterval)

	v.SetDefault("source.url", "https://www.linkedin.com/feed/")
	v.SetDefault("source.item_selector", pagesource.DefaultItemSelector)
	v.SetDefault("source.key_attrs", discovery.DefaultIDAttributes)
	v.SetDefault("source.poll_interval", pagesource.DefaultPollInterval)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.scroll", true)

	v.SetDefault("server.listen", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads config.yaml from the working directory, or path when given. A missing
// file is not an error; defaults and LINKEDLENS_* variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	settingsPath, err := ResolvePath(cfg.Settings.Path, DefaultSettingsFile)
	if err != nil {
		return nil, err
	}
	cfg.Settings.Path = settingsPath
	return &cfg, nil
}

func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		PostSelectors:     c.Discovery.PostSelectors,
		ContainerSelector: c.Discovery.ContainerSelector,
		IDAttributes:      c.Discovery.IDAttributes,
		FeedURLPattern:    c.Discovery.FeedURLPattern,
	}
}

func (c *Config) ExtractionOptions() inputprocessor.Options {
	return inputprocessor.Options{
		ContentSelectors: c.Extraction.ContentSelectors,
		StripSelectors:   c.Extraction.StripSelectors,
		MinContentLength: c.Extraction.MinContentLength,
		MaxLength:        c.Extraction.MaxLength,
	}
}

func (c *Config) BrowserOptions() pagesource.BrowserOptions {
	return pagesource.BrowserOptions{
		URL:          c.Source.URL,
		PollInterval: c.Source.PollInterval,
		Headless:     c.Browser.Headless,
		UserDataDir:  c.Browser.UserDataDir,
		ExecPath:     c.Browser.ExecPath,
		Scroll:       c.Browser.Scroll,
	}
}
