package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "LINKROT"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultDatabasePath      = "linkrot.db"
	defaultLogLevel          = "info"
	defaultLogEncoding       = "json"
	defaultMediaWikiAPIURL   = "https://en.wikipedia.org/w/api.php"
	defaultFatcatAPIURL      = "https://api.fatcat.wiki/v0"
	defaultUserAgent         = "linkrot/1.0 (citation archive fixer)"
	defaultTimeoutSeconds    = 30
	defaultRequestsPerSecond = 5.0
	defaultCacheCapacity     = 10000
	defaultCacheTTLHours     = 0
	defaultArticlesPath      = "articles.txt"
	defaultSessionIssuer     = "linkrot-auth"
	defaultSessionCookieName = "linkrot_session"
	logEncodingJSON          = "json"
	logEncodingConsole       = "console"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	LogLevel          string
	LogEncoding       string
	MediaWikiAPIURL   string
	FatcatAPIURL      string
	UserAgent         string
	UpstreamTimeout   time.Duration
	RequestsPerSecond float64
	CacheCapacity     int
	CacheTTL          time.Duration
	ArticlesPath      string
	SessionSecret     string
	SessionIssuer     string
	SessionCookieName string
}

// SessionsEnabled reports whether saves require an editor session.
func (c AppConfig) SessionsEnabled() bool {
	return strings.TrimSpace(c.SessionSecret) != ""
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.encoding", defaultLogEncoding)
	configViper.SetDefault("mediawiki.api_url", defaultMediaWikiAPIURL)
	configViper.SetDefault("fatcat.api_url", defaultFatcatAPIURL)
	configViper.SetDefault("upstream.user_agent", defaultUserAgent)
	configViper.SetDefault("upstream.timeout_seconds", defaultTimeoutSeconds)
	configViper.SetDefault("upstream.requests_per_second", defaultRequestsPerSecond)
	configViper.SetDefault("cache.capacity", defaultCacheCapacity)
	configViper.SetDefault("cache.ttl_hours", defaultCacheTTLHours)
	configViper.SetDefault("articles.path", defaultArticlesPath)
	configViper.SetDefault("session.issuer", defaultSessionIssuer)
	configViper.SetDefault("session.cookie_name", defaultSessionCookieName)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	timeoutSeconds := configViper.GetInt("upstream.timeout_seconds")
	ttlHours := configViper.GetInt("cache.ttl_hours")
	cfg := AppConfig{
		HTTPAddress:       strings.TrimSpace(configViper.GetString("http.address")),
		DatabasePath:      strings.TrimSpace(configViper.GetString("database.path")),
		LogLevel:          configViper.GetString("log.level"),
		LogEncoding:       strings.ToLower(strings.TrimSpace(configViper.GetString("log.encoding"))),
		MediaWikiAPIURL:   strings.TrimSpace(configViper.GetString("mediawiki.api_url")),
		FatcatAPIURL:      strings.TrimSpace(configViper.GetString("fatcat.api_url")),
		UserAgent:         strings.TrimSpace(configViper.GetString("upstream.user_agent")),
		UpstreamTimeout:   time.Duration(timeoutSeconds) * time.Second,
		RequestsPerSecond: configViper.GetFloat64("upstream.requests_per_second"),
		CacheCapacity:     configViper.GetInt("cache.capacity"),
		CacheTTL:          time.Duration(ttlHours) * time.Hour,
		ArticlesPath:      strings.TrimSpace(configViper.GetString("articles.path")),
		SessionSecret:     configViper.GetString("session.signing_secret"),
		SessionIssuer:     strings.TrimSpace(configViper.GetString("session.issuer")),
		SessionCookieName: strings.TrimSpace(configViper.GetString("session.cookie_name")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.MediaWikiAPIURL == "" {
		return fmt.Errorf("mediawiki.api_url is required")
	}
	if c.FatcatAPIURL == "" {
		return fmt.Errorf("fatcat.api_url is required")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream.timeout_seconds must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("upstream.requests_per_second must not be negative")
	}
	if c.CacheCapacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache.ttl_hours must not be negative")
	}
	switch c.LogEncoding {
	case logEncodingJSON, logEncodingConsole:
	default:
		return fmt.Errorf("log.encoding must be %q or %q", logEncodingJSON, logEncodingConsole)
	}
	if c.SessionsEnabled() {
		if c.SessionIssuer == "" {
			return fmt.Errorf("session.issuer is required when session.signing_secret is set")
		}
		if c.SessionCookieName == "" {
			return fmt.Errorf("session.cookie_name is required when session.signing_secret is set")
		}
	}
	return nil
}
