package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "NEWS_DISPATCH_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	newsAPIKeyEnv   = "NEWSAPI_KEY"
	discordTokenEnv = "DISCORD_BOT_TOKEN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	NewsAPI   NewsAPIConfig   `yaml:"newsapi"`
	Discord   DiscordConfig   `yaml:"discord"`
	Database  DatabaseConfig  `yaml:"database"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when dispatch cycles run.
type SchedulerConfig struct {
	CronSpec string `yaml:"cronSpec"`
}

// NewsAPIConfig describes the upstream news-search query.
type NewsAPIConfig struct {
	Endpoint string   `yaml:"endpoint"`
	APIKey   string   `yaml:"apiKey"`
	Query    string   `yaml:"query"`
	Domains  []string `yaml:"domains"`
	PageSize int      `yaml:"pageSize"`
	Language string   `yaml:"language"`
}

// DiscordConfig wires the destination transport credentials.
type DiscordConfig struct {
	BotToken string `yaml:"botToken"`
	APIBase  string `yaml:"apiBase"`
}

// DatabaseConfig describes the optional delivery-audit Postgres connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// PipelineConfig groups the classification tables and state file locations.
type PipelineConfig struct {
	Provider      string           `yaml:"provider"`
	Vocabulary    []string         `yaml:"vocabulary"`
	Categories    []CategoryConfig `yaml:"categories"`
	WatermarkPath string           `yaml:"watermarkPath"`
	BindingsPath  string           `yaml:"bindingsPath"`
}

// CategoryConfig declares one topical bucket. Priority resolves multi-match
// ties; the lowest rank among matching categories wins. A catch-all category
// receives articles that match no keyword table at all.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Priority int      `yaml:"priority"`
	Keywords []string `yaml:"keywords"`
	CatchAll bool     `yaml:"catchAll"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Pipeline.Categories) == 0 {
		cfg.Pipeline.Categories = defaultConfig().Pipeline.Categories
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.NewsAPI.APIKey = v
	}

	if v := os.Getenv(discordTokenEnv); v != "" {
		c.Discord.BotToken = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scheduler.CronSpec != "" {
		base.Scheduler.CronSpec = override.Scheduler.CronSpec
	}

	if override.NewsAPI.Endpoint != "" {
		base.NewsAPI.Endpoint = override.NewsAPI.Endpoint
	}
	if override.NewsAPI.APIKey != "" {
		base.NewsAPI.APIKey = override.NewsAPI.APIKey
	}
	if override.NewsAPI.Query != "" {
		base.NewsAPI.Query = override.NewsAPI.Query
	}
	if len(override.NewsAPI.Domains) > 0 {
		base.NewsAPI.Domains = override.NewsAPI.Domains
	}
	if override.NewsAPI.PageSize > 0 {
		base.NewsAPI.PageSize = override.NewsAPI.PageSize
	}
	if override.NewsAPI.Language != "" {
		base.NewsAPI.Language = override.NewsAPI.Language
	}

	if override.Discord.BotToken != "" {
		base.Discord.BotToken = override.Discord.BotToken
	}
	if override.Discord.APIBase != "" {
		base.Discord.APIBase = override.Discord.APIBase
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Pipeline.Provider != "" {
		base.Pipeline.Provider = override.Pipeline.Provider
	}
	if len(override.Pipeline.Vocabulary) > 0 {
		base.Pipeline.Vocabulary = override.Pipeline.Vocabulary
	}
	if len(override.Pipeline.Categories) > 0 {
		base.Pipeline.Categories = override.Pipeline.Categories
	}
	if override.Pipeline.WatermarkPath != "" {
		base.Pipeline.WatermarkPath = override.Pipeline.WatermarkPath
	}
	if override.Pipeline.BindingsPath != "" {
		base.Pipeline.BindingsPath = override.Pipeline.BindingsPath
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{CronSpec: "@every 10m"},
		NewsAPI: NewsAPIConfig{
			Endpoint: "https://newsapi.org/v2/everything",
			Query:    "economy OR finance OR business OR stock OR crypto OR commodity OR etf OR regulation OR hack",
			Domains: []string{
				"coindesk.com",
				"cointelegraph.com",
				"wsj.com",
				"cnbc.com",
				"bloomberg.com",
				"reuters.com",
			},
			PageSize: 20,
			Language: "en",
		},
		Discord: DiscordConfig{APIBase: "https://discord.com/api/v10"},
		Pipeline: PipelineConfig{
			Provider: "newsapi",
			Vocabulary: []string{
				"economy", "finance", "business", "stock", "crypto",
				"commodity", "etf", "regulation", "hack", "market",
				"investment", "trading", "trade",
			},
			Categories: []CategoryConfig{
				{
					Name:     "crypto",
					Priority: 1,
					Keywords: []string{"crypto", "bitcoin", "ethereum", "nft", "blockchain", "defi", "hack", "regulation", "launch"},
				},
				{
					Name:     "currencies",
					Priority: 2,
					Keywords: []string{"forex", "currency", "exchange rate", "usd", "eur", "yen", "gbp"},
				},
				{
					Name:     "indices",
					Priority: 3,
					Keywords: []string{"index", "s&p", "nasdaq", "dow jones", "ftse", "nikkei"},
				},
				{
					Name:     "etf",
					Priority: 4,
					Keywords: []string{"etf", "exchange traded fund"},
				},
				{
					Name:     "equities",
					Priority: 5,
					Keywords: []string{"stock", "share", "equity", "ipo", "earnings", "dividend"},
				},
				{
					Name:     "commodities",
					Priority: 6,
					Keywords: []string{"commodity", "oil", "gold", "silver", "crude", "wheat", "copper"},
				},
				{
					Name:     "general",
					Priority: 7,
					CatchAll: true,
				},
			},
			WatermarkPath: "last_news.json",
			BindingsPath:  "channels.yaml",
		},
	}
}
