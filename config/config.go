package config

import (
	"os"
	"strconv"
	"time"

	apperr "quizharvester/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Target site
	BaseURL      string
	CategoryPath string

	// Headless browser service (browserless-compatible /function endpoint)
	ChromeDBAddr string

	// Redis configuration (record stream fan-out)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (fetch block cache)
	MemcacheAddr string

	// Harvest limits
	RequestsPerMinute int
	Concurrency       int
	MaxQuestions      int
	MaxQuizRetries    int

	// Timeouts
	PageLoadTimeout    time.Duration
	NetworkIdleTimeout time.Duration
	ResultsWaitTimeout time.Duration

	// Storage
	OutputDir    string
	MediaDir     string
	IndexFile    string
	MappingsFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	rpm, _ := strconv.Atoi(getEnv("REQUESTS_PER_MINUTE", "15"))
	concurrency, _ := strconv.Atoi(getEnv("CONCURRENCY", "3"))
	maxQuestions, _ := strconv.Atoi(getEnv("MAX_QUESTIONS", "0"))
	maxRetries, _ := strconv.Atoi(getEnv("MAX_QUIZ_RETRIES", "2"))
	pageLoad, _ := strconv.Atoi(getEnv("PAGE_LOAD_TIMEOUT_SECONDS", "60"))
	netIdle, _ := strconv.Atoi(getEnv("NETWORK_IDLE_TIMEOUT_SECONDS", "45"))
	resultsWait, _ := strconv.Atoi(getEnv("RESULTS_WAIT_TIMEOUT_SECONDS", "30"))

	return Config{
		BaseURL:              getEnv("QUIZ_BASE_URL", "https://www.funtrivia.com"),
		CategoryPath:         getEnv("QUIZ_CATEGORY_PATH", "/quizzes/"),
		ChromeDBAddr:         getEnv("CHROMEDB_ADDR", "http://localhost:3000"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "questions"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		RequestsPerMinute:    rpm,
		Concurrency:          concurrency,
		MaxQuestions:         maxQuestions,
		MaxQuizRetries:       maxRetries,
		PageLoadTimeout:      time.Duration(pageLoad) * time.Second,
		NetworkIdleTimeout:   time.Duration(netIdle) * time.Second,
		ResultsWaitTimeout:   time.Duration(resultsWait) * time.Second,
		OutputDir:            getEnv("OUTPUT_DIR", "output"),
		MediaDir:             getEnv("MEDIA_DIR", "assets"),
		IndexFile:            getEnv("INDEX_FILE", "question_indices.json"),
		MappingsFile:         getEnv("MAPPINGS_FILE", "config/mappings.json"),
		Environment:          getEnv("HARVESTER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the run cannot start without
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return apperr.NewConfiguration("QUIZ_BASE_URL must not be empty", nil)
	}
	if c.ChromeDBAddr == "" {
		return apperr.NewConfiguration("CHROMEDB_ADDR must not be empty", nil)
	}
	if c.RequestsPerMinute <= 0 {
		return apperr.NewConfiguration("REQUESTS_PER_MINUTE must be positive", nil)
	}
	if c.Concurrency <= 0 {
		return apperr.NewConfiguration("CONCURRENCY must be positive", nil)
	}
	if c.RedisStreamCount <= 0 {
		return apperr.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
