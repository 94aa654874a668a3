package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"ctos/internal/logger"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Binance  BinanceConfig  `mapstructure:"binance"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Rules    []RuleConfig   `mapstructure:"rules"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
}

type BinanceConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	APISecret    string        `mapstructure:"api_secret"`
	RESTBaseURL  string        `mapstructure:"rest_base_url"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	ProxyEnabled bool          `mapstructure:"proxy_enabled"`
	RESTProxyURL string        `mapstructure:"rest_proxy_url"`
	WSProxyURL   string        `mapstructure:"ws_proxy_url"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type WatchConfig struct {
	CacheSize int      `mapstructure:"cache_size"`
	Symbols   []string `mapstructure:"symbols"`
	Intervals []string `mapstructure:"intervals"`
}

// RuleConfig declares one predicate rule. Leaf kinds carry their indicator
// parameters; composite kinds (all_of, any_of, not) nest further rules and
// compose through the predicate algebra.
type RuleConfig struct {
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`
	Side string `mapstructure:"side"`

	Window       int     `mapstructure:"window"`
	Threshold    float64 `mapstructure:"threshold"`
	ShortWindow  int     `mapstructure:"short_window"`
	LongWindow   int     `mapstructure:"long_window"`
	SignalWindow int     `mapstructure:"signal_window"`

	AllOf []RuleConfig `mapstructure:"all_of"`
	AnyOf []RuleConfig `mapstructure:"any_of"`
	Not   *RuleConfig  `mapstructure:"not"`
}

// Load reads and validates one YAML config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// WatchFile re-loads the config whenever the file changes and hands the fresh
// value to onChange. Invalid edits are logged and skipped so a typo never
// takes the process down.
func WatchFile(path string, onChange func(*Config)) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			logger.Warnf("[config] ignoring invalid change %s: %v", evt.Name, err)
			return
		}
		logger.Infof("[config] reloaded %s", evt.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":9980"
	}
	if c.Watch.CacheSize <= 0 {
		c.Watch.CacheSize = 200
	}
	if len(c.Watch.Intervals) == 0 {
		c.Watch.Intervals = []string{"1m"}
	}
}

func validate(c *Config) error {
	if len(c.Watch.Symbols) == 0 {
		return fmt.Errorf("config: watch.symbols cannot be empty")
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("config: at least one rule is required")
	}
	seen := make(map[string]bool, len(c.Rules))
	for i, rule := range c.Rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return fmt.Errorf("config: rule %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("config: duplicate rule name %q", name)
		}
		seen[name] = true
	}
	return nil
}
