package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MatchConfig controls the keyword matching engine and the primary API.
type MatchConfig struct {
	Keywords             []string `yaml:"keywords"`
	ExcludeKeywords      []string `yaml:"exclude_keywords"`
	MinScore             int      `yaml:"min_score"`
	Agencies             []string `yaml:"agencies"`
	OpenOnly             bool     `yaml:"open_only"`
	AlwaysIncludeSources []string `yaml:"always_include_sources"`
	MatchFields          []string `yaml:"match_fields"`
	StatePath            string   `yaml:"state_path"`
	Rows                 int      `yaml:"rows"`
	MaxPages             int      `yaml:"max_pages"`
	RetryMax             int      `yaml:"retry_max"`
	RetryBackoffSeconds  float64  `yaml:"retry_backoff_seconds"`
	APIBaseURLs          []string `yaml:"api_base_urls"`
}

// NotifyConfig selects and configures the Discord delivery transport.
type NotifyConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
	DiscordBotToken   string `yaml:"discord_bot_token"`
	DiscordChannelID  string `yaml:"discord_channel_id"`
	DryRun            bool   `yaml:"dry_run"`
}

// SamConfig configures the SAM.gov last-resort adapter.
type SamConfig struct {
	Enabled      bool   `yaml:"enabled"`
	FallbackOnly bool   `yaml:"fallback_only"`
	APIKey       string `yaml:"api_key"`
	TitleQuery   string `yaml:"title_query"`
	PostedDays   int    `yaml:"posted_days"`
	Limit        int    `yaml:"limit"`
	MaxPages     int    `yaml:"max_pages"`
	PType        string `yaml:"ptype"`
	BaseURL      string `yaml:"base_url"`
}

// RSSConfig configures the grants.gov RSS adapter.
type RSSConfig struct {
	Enabled      bool     `yaml:"enabled"`
	FallbackOnly bool     `yaml:"fallback_only"`
	FeedURLs     []string `yaml:"feed_urls"`
}

// DodConfig configures the DARPA topics scrape adapter.
type DodConfig struct {
	Enabled        bool   `yaml:"enabled"`
	FallbackOnly   bool   `yaml:"fallback_only"`
	DarpaTopicsURL string `yaml:"darpa_topics_url"`
}

// NsfConfig configures the NSF seedfund scrape adapter.
type NsfConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FallbackOnly     bool   `yaml:"fallback_only"`
	SolicitationsURL string `yaml:"solicitations_url"`
}

// NihConfig configures the NIH guide feed adapter.
type NihConfig struct {
	Enabled       bool     `yaml:"enabled"`
	FallbackOnly  bool     `yaml:"fallback_only"`
	FeedURL       string   `yaml:"feed_url"`
	RequiredTerms []string `yaml:"required_terms"`
}

// ScheduleConfig configures the resident watch mode.
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// DatabaseConfig configures the optional run-history recorder.
type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Config holds all application configuration.
type Config struct {
	Match    MatchConfig    `yaml:"match"`
	Notify   NotifyConfig   `yaml:"notify"`
	Sam      SamConfig      `yaml:"sam"`
	RSS      RSSConfig      `yaml:"rss"`
	Dod      DodConfig      `yaml:"dod"`
	Nsf      NsfConfig      `yaml:"nsf"`
	Nih      NihConfig      `yaml:"nih"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Database DatabaseConfig `yaml:"database"`

	UserAgent       string `yaml:"user_agent"`
	FailOnNoResults bool   `yaml:"fail_on_no_results"`
	ShowWarnings    bool   `yaml:"show_warnings"`
}

// Default returns a fully populated default configuration. Load unmarshals
// the YAML file over these values, so a file only needs the keys it changes
// and an explicit `enabled: false` still overrides a default-true flag.
func Default() *Config {
	cfg := &Config{
		UserAgent: "grant-sentinel/0.1",
	}

	cfg.Match = MatchConfig{
		MinScore: 1,
		OpenOnly: true,
		MatchFields: []string{
			"solicitation_title",
			"topic_title",
			"topic_description",
			"subtopic_title",
			"subtopic_description",
		},
		StatePath:           ".grant-sentinel/state.json",
		Rows:                50,
		MaxPages:            40,
		RetryMax:            3,
		RetryBackoffSeconds: 2.0,
		APIBaseURLs: []string{
			"https://api.www.sbir.gov/public/api/solicitations",
		},
	}

	cfg.Sam = SamConfig{
		Enabled:      false,
		FallbackOnly: true,
		TitleQuery:   "SBIR",
		PostedDays:   365,
		Limit:        100,
		MaxPages:     5,
		PType:        "o",
		BaseURL:      "https://api.sam.gov/opportunities/v2/search",
	}

	cfg.RSS = RSSConfig{
		Enabled:      true,
		FallbackOnly: true,
		FeedURLs: []string{
			"https://www.grants.gov/rss/GG_OppNewByAgency.xml",
			"https://www.grants.gov/rss/GG_OppNewByCategory.xml",
			"https://www.grants.gov/rss/GG_OppModByAgency.xml",
			"https://www.grants.gov/rss/GG_OppModByCategory.xml",
		},
	}

	cfg.Dod = DodConfig{
		Enabled:        true,
		FallbackOnly:   true,
		DarpaTopicsURL: "https://www.darpa.mil/work-with-us/communities/small-business/sbir-sttr-topics",
	}

	cfg.Nsf = NsfConfig{
		Enabled:          true,
		FallbackOnly:     true,
		SolicitationsURL: "https://seedfund.nsf.gov/solicitations/",
	}

	cfg.Nih = NihConfig{
		Enabled:       true,
		FallbackOnly:  true,
		FeedURL:       "https://grants.nih.gov/grants/guide/newsfeed/fundingopps.xml",
		RequiredTerms: []string{"sbir", "sttr", "small business"},
	}

	cfg.Schedule = ScheduleConfig{
		Cron: "0 0 7 * * *",
	}

	return cfg
}

// Load reads config from a YAML file, then applies environment variable
// overrides and normalization. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Notify.DiscordWebhookURL = v
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Notify.DiscordBotToken = v
	}
	if v := os.Getenv("DISCORD_CHANNEL_ID"); v != "" {
		cfg.Notify.DiscordChannelID = v
	}
	if cfg.Notify.DiscordChannelID == "" {
		if v := os.Getenv("DISCORD_CHANNEL"); v != "" {
			cfg.Notify.DiscordChannelID = v
		}
	}
	if cfg.Notify.DiscordChannelID == "" {
		if v := os.Getenv("DISCORD_ID"); v != "" {
			cfg.Notify.DiscordChannelID = v
		}
	}
	if v := os.Getenv("SAM_API_KEY"); v != "" {
		cfg.Sam.APIKey = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	cfg.normalize()
	return cfg, nil
}

// normalize canonicalizes values used in case-sensitive comparisons.
func (c *Config) normalize() {
	// Tokens pasted as "Bot xyz" already carry the API prefix.
	token := strings.TrimSpace(c.Notify.DiscordBotToken)
	if len(token) >= 4 && strings.EqualFold(token[:4], "bot ") {
		token = strings.TrimSpace(token[4:])
	}
	c.Notify.DiscordBotToken = token

	for i, agency := range c.Match.Agencies {
		c.Match.Agencies[i] = strings.ToUpper(agency)
	}
	for i, source := range c.Match.AlwaysIncludeSources {
		c.Match.AlwaysIncludeSources[i] = strings.ToLower(source)
	}
}

// Validate checks constraints that would otherwise fail mid-run.
func (c *Config) Validate() error {
	if len(c.Match.APIBaseURLs) == 0 {
		return fmt.Errorf("match.api_base_urls must not be empty")
	}
	if c.Match.MinScore < 0 {
		return fmt.Errorf("match.min_score must not be negative")
	}
	if c.Match.Rows <= 0 {
		return fmt.Errorf("match.rows must be positive")
	}
	if c.Match.StatePath == "" {
		return fmt.Errorf("match.state_path is required")
	}
	return nil
}

// Path resolves the config file location: explicit flag, then the
// GRANT_SENTINEL_CONFIG env var, then ./config.yaml.
func Path(cliPath string) string {
	if cliPath != "" {
		return cliPath
	}
	if v := os.Getenv("GRANT_SENTINEL_CONFIG"); v != "" {
		return v
	}
	return "config.yaml"
}
