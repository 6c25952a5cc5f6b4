package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type FetcherConfig struct {
	UserAgent       string  `yaml:"userAgent"`
	TimeoutMs       int     `yaml:"timeoutMs"`
	MaxBodyBytes    int64   `yaml:"maxBodyBytes"`
	HostRPS         float64 `yaml:"hostRps"`
	OEmbedTimeoutMs int     `yaml:"oembedTimeoutMs"`
}

type RobotsConfig struct {
	Respect    bool `yaml:"respect"`
	CacheTTLMs int  `yaml:"cacheTtlMs"`
}

type BrowserConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ControlURL string `yaml:"controlUrl"`
	TimeoutMs  int    `yaml:"timeoutMs"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	Enabled         bool   `yaml:"enabled"`
	InitialAdminKey string `yaml:"initialAdminKey"`
}

type RateLimitConfig struct {
	// RequestsPerWindow bounds outbound fetches per client identity
	// (user id or IP) over the sliding window.
	RequestsPerWindow int `yaml:"requestsPerWindow"`
	WindowSeconds     int `yaml:"windowSeconds"`
}

type ParserConfig struct {
	// MinArticleChars is the content-density floor below which the
	// article extractor reports no usable article.
	MinArticleChars int `yaml:"minArticleChars"`
	WordsPerMinute  int `yaml:"wordsPerMinute"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	Robots    RobotsConfig    `yaml:"robots"`
	Browser   BrowserConfig   `yaml:"browser"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Parser    ParserConfig    `yaml:"parser"`
}

// Default returns a configuration with workable local defaults. Load
// starts from these so a sparse YAML file still yields a runnable config.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Fetcher: FetcherConfig{
			UserAgent:       "yomu-bot/1.0 (+https://yomu.app/bot)",
			TimeoutMs:       15000,
			MaxBodyBytes:    5 << 20,
			HostRPS:         2,
			OEmbedTimeoutMs: 4000,
		},
		Robots:    RobotsConfig{Respect: true, CacheTTLMs: 600000},
		Browser:   BrowserConfig{Enabled: false, TimeoutMs: 20000},
		RateLimit: RateLimitConfig{RequestsPerWindow: 60, WindowSeconds: 60},
		Parser:    ParserConfig{MinArticleChars: 250, WordsPerMinute: 238},
	}
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	return cfg
}
