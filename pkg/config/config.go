package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: 비어있으면 SQLite 사용)
	Database DatabaseConfig

	// Local result store
	SQLitePath string

	// Redis
	Redis RedisConfig

	// External data providers
	KRX   KRXConfig
	Naver NaverConfig

	// Result upload
	Supabase SupabaseConfig

	// Output
	ResultDir          string
	StrategyConfigPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KRXConfig holds KRX (한국거래소) data endpoint configuration
type KRXConfig struct {
	BaseURL      string
	RequestDelay time.Duration // 요청 간 최소 간격
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL      string // sise_day HTML
	ChartBaseURL string // fchart siseJson
}

// SupabaseConfig holds Supabase storage/database REST configuration
type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
}

// Enabled reports whether upload credentials are configured
func (s SupabaseConfig) Enabled() bool {
	return s.URL != "" && s.Key != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},
		SQLitePath: getEnv("SQLITE_PATH", "propick.db"),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		KRX: KRXConfig{
			BaseURL:      getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
			RequestDelay: getEnvAsDuration("KRX_REQUEST_DELAY", "200ms"),
		},

		Naver: NaverConfig{
			BaseURL:      getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartBaseURL: getEnv("NAVER_CHART_BASE_URL", "https://fchart.stock.naver.com"),
		},

		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			Key:    getEnv("SUPABASE_KEY", ""),
			Bucket: getEnv("SUPABASE_BUCKET", "stock-data"),
		},

		ResultDir:          getEnv("RESULT_DIR", "strategies"),
		StrategyConfigPath: getEnv("STRATEGY_CONFIG", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// UsePostgres reports whether results go to PostgreSQL instead of SQLite
func (c *Config) UsePostgres() bool {
	return c.Database.URL != ""
}

func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.ResultDir == "" {
		return fmt.Errorf("RESULT_DIR must not be empty")
	}

	if !c.UsePostgres() && c.SQLitePath == "" {
		return fmt.Errorf("either DATABASE_URL or SQLITE_PATH is required")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
