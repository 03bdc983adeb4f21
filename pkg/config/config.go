package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Option enumeration strategies for the product extractor.
const (
	EnumerationPerControl = "per-control"
	EnumerationCartesian  = "cartesian"
)

// Config holds the application configuration. Everything the scraper needs
// is carried here explicitly; there are no package-level globals.
type Config struct {
	ServerPort string
	LogLevel   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// StoreBaseURL is the storefront being scraped; all relative links are
	// resolved against it.
	StoreBaseURL string
	UserAgent    string
	ExportDir    string

	MaxConcurrency  int
	PageLoadTimeout time.Duration
	// OpTimeout bounds each individual browser read or control action.
	OpTimeout time.Duration
	// SettleInterval is how long to wait after driving a control or
	// scrolling before trusting the page's re-rendered state.
	SettleInterval time.Duration
	// ItemDelay is the fixed sleep between processed queue items, a
	// deliberate throttle against anti-scraping defenses.
	ItemDelay time.Duration
	// ExtractTimeout bounds one whole product extraction.
	ExtractTimeout time.Duration
	// IdleInterval is how long the worker sleeps when both queues are empty.
	IdleInterval time.Duration
	// MaxScrollPasses caps the infinite-scroll loop against stores whose
	// page height never settles.
	MaxScrollPasses int
	// SubmitDedupTTL is how long a submitted product URL is rejected on
	// re-submission.
	SubmitDedupTTL time.Duration

	// OptionEnumeration selects the variant enumeration strategy:
	// per-control (one variant per single selected value) or cartesian
	// (full cross-product across controls).
	OptionEnumeration string
	// CollapseVariantsByPrice restores the legacy behavior of keying
	// variants by price alone, collapsing same-priced combinations.
	CollapseVariantsByPrice bool
}

// Load loads configuration from a .env file (when present) and the
// environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "catalog"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),

		StoreBaseURL: getEnv("STORE_BASE_URL", "https://hairbeautymart.com.au"),
		UserAgent: getEnv("SCRAPE_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"),
		ExportDir: getEnv("EXPORT_DIR", "csv_exports"),

		MaxConcurrency:  getEnvAsInt("MAX_CONCURRENCY", 2),
		PageLoadTimeout: getEnvAsDuration("PAGE_LOAD_TIMEOUT_SECONDS", 60),
		OpTimeout:       getEnvAsDuration("BROWSER_OP_TIMEOUT_SECONDS", 15),
		SettleInterval:  getEnvAsDuration("SETTLE_INTERVAL_SECONDS", 2),
		ItemDelay:       getEnvAsDuration("ITEM_DELAY_SECONDS", 10),
		ExtractTimeout:  getEnvAsDuration("EXTRACT_TIMEOUT_SECONDS", 300),
		IdleInterval:    getEnvAsDuration("IDLE_INTERVAL_SECONDS", 5),
		MaxScrollPasses: getEnvAsInt("MAX_SCROLL_PASSES", 50),
		SubmitDedupTTL:  getEnvAsDuration("SUBMIT_DEDUP_TTL_SECONDS", 3600),

		OptionEnumeration:       getEnv("OPTION_ENUMERATION", EnumerationPerControl),
		CollapseVariantsByPrice: getEnvAsBool("COLLAPSE_VARIANTS_BY_PRICE", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
