package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Scraper ScraperConfig
	Browser BrowserConfig
	Sink    SinkConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	AmazonBaseURL   string
	FlipkartBaseURL string
	DefaultLimit    int
	MaxRetries      int
	RetryDelayBase  time.Duration
	RetryDelayMax   time.Duration
	MinDelay        time.Duration
	MaxDelay        time.Duration
	RequestTimeout  time.Duration
	CacheSize       int
	UserAgents      []string
	Proxies         []string
	RenderPlatforms []string // platforms that need a rendered fetch
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type SinkConfig struct {
	Endpoint   string
	Timeout    time.Duration
	OutputPath string
	Postgres   PostgresConfig
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			AmazonBaseURL:   getEnvOrDefault("SCRAPER_AMAZON_BASE_URL", "https://www.amazon.in"),
			FlipkartBaseURL: getEnvOrDefault("SCRAPER_FLIPKART_BASE_URL", "https://www.flipkart.com"),
			DefaultLimit:    getIntOrDefault("SCRAPER_DEFAULT_LIMIT", 5),
			MaxRetries:      getIntOrDefault("SCRAPER_MAX_RETRIES", 3),
			RetryDelayBase:  getDurationOrDefault("SCRAPER_RETRY_DELAY_BASE", 2*time.Second),
			RetryDelayMax:   getDurationOrDefault("SCRAPER_RETRY_DELAY_MAX", 10*time.Second),
			MinDelay:        getDurationOrDefault("SCRAPER_MIN_DELAY", 2*time.Second),
			MaxDelay:        getDurationOrDefault("SCRAPER_MAX_DELAY", 5*time.Second),
			RequestTimeout:  getDurationOrDefault("SCRAPER_REQUEST_TIMEOUT", 30*time.Second),
			CacheSize:       getIntOrDefault("SCRAPER_CACHE_SIZE", 0),
			UserAgents:      getStringSliceOrDefault("SCRAPER_USER_AGENTS", nil),
			Proxies:         getStringSliceOrDefault("SCRAPER_PROXIES", nil),
			RenderPlatforms: getStringSliceOrDefault("SCRAPER_RENDER_PLATFORMS", nil),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-IN,en;q=0.9,hi;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Asia/Kolkata"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-IN"),
		},
		Sink: SinkConfig{
			Endpoint:   getEnvOrDefault("SINK_ENDPOINT", "http://localhost:3000/scrape"),
			Timeout:    getDurationOrDefault("SINK_TIMEOUT", 30*time.Second),
			OutputPath: getEnvOrDefault("SINK_OUTPUT_PATH", "scrape-output.json"),
			Postgres: PostgresConfig{
				Enabled:  getBoolOrDefault("SINK_POSTGRES_ENABLED", false),
				Host:     getEnvOrDefault("DB_HOST", "localhost"),
				Port:     getIntOrDefault("DB_PORT", 5432),
				User:     getEnvOrDefault("DB_USER", "postgres"),
				Password: getEnvOrDefault("DB_PASSWORD", ""),
				Name:     getEnvOrDefault("DB_NAME", "price_intel"),
				MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 4)),
			},
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.DefaultLimit < 1 {
		return fmt.Errorf("SCRAPER_DEFAULT_LIMIT must be at least 1")
	}
	if c.Scraper.MaxRetries < 1 {
		return fmt.Errorf("SCRAPER_MAX_RETRIES must be at least 1")
	}
	if c.Scraper.MinDelay > c.Scraper.MaxDelay {
		return fmt.Errorf("SCRAPER_MIN_DELAY cannot be greater than SCRAPER_MAX_DELAY")
	}
	if c.Scraper.RetryDelayMax > 0 && c.Scraper.RetryDelayBase > c.Scraper.RetryDelayMax {
		return fmt.Errorf("SCRAPER_RETRY_DELAY_BASE cannot exceed SCRAPER_RETRY_DELAY_MAX")
	}
	if c.Sink.Endpoint == "" {
		return fmt.Errorf("SINK_ENDPOINT cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
