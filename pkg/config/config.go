package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Listing   ListingConfig
	Grading   GradingConfig
	Analytics AnalyticsConfig
	Dashboard DashboardConfig
	Import    ImportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ListingConfig tunes the paginated listing endpoints.
type ListingConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// GradingConfig holds the two grade threshold tables. Each slice lists the lower bounds for
// excellent, very good, good and passed, in that order.
type GradingConfig struct {
	Thresholds          []float64
	DashboardThresholds []float64
	Warnings            []string
}

// AnalyticsConfig governs the dashboard aggregates.
type AnalyticsConfig struct {
	RollingWindow time.Duration
	TopTrainees   int
	TopCourses    int
}

// DashboardConfig governs dashboard snapshot caching and refresh.
type DashboardConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	RefreshInterval time.Duration
}

// ImportConfig limits bulk import uploads.
type ImportConfig struct {
	MaxFileSizeBytes int64
}

var (
	defaultThresholds          = []float64{90, 80, 70, 50}
	defaultDashboardThresholds = []float64{85, 75, 65, 50}
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Listing = ListingConfig{
		DefaultPageSize: positiveOr(v.GetInt("LISTING_DEFAULT_PAGE_SIZE"), 10),
		MaxPageSize:     positiveOr(v.GetInt("LISTING_MAX_PAGE_SIZE"), 100),
	}

	thresholds, warn := parseThresholds(v.GetString("GRADE_THRESHOLDS"), defaultThresholds)
	dashboardThresholds, dashWarn := parseThresholds(v.GetString("DASHBOARD_GRADE_THRESHOLDS"), defaultDashboardThresholds)
	cfg.Grading = GradingConfig{Thresholds: thresholds, DashboardThresholds: dashboardThresholds}
	if warn != "" {
		cfg.Grading.Warnings = append(cfg.Grading.Warnings, "GRADE_THRESHOLDS: "+warn)
	}
	if dashWarn != "" {
		cfg.Grading.Warnings = append(cfg.Grading.Warnings, "DASHBOARD_GRADE_THRESHOLDS: "+dashWarn)
	}

	cfg.Analytics = AnalyticsConfig{
		RollingWindow: parseDuration(v.GetString("ANALYTICS_ROLLING_WINDOW"), 30*24*time.Hour),
		TopTrainees:   positiveOr(v.GetInt("ANALYTICS_TOP_TRAINEES"), 3),
		TopCourses:    positiveOr(v.GetInt("ANALYTICS_TOP_COURSES"), 5),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled:    v.GetBool("DASHBOARD_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		RefreshInterval: parseDuration(v.GetString("DASHBOARD_REFRESH_INTERVAL"), 0),
	}

	maxImport := v.GetInt64("IMPORT_MAX_FILE_SIZE")
	if maxImport <= 0 {
		maxImport = 5 * 1024 * 1024
	}
	cfg.Import = ImportConfig{MaxFileSizeBytes: maxImport}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "training_center")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LISTING_DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("LISTING_MAX_PAGE_SIZE", 100)

	v.SetDefault("GRADE_THRESHOLDS", "90,80,70,50")
	v.SetDefault("DASHBOARD_GRADE_THRESHOLDS", "85,75,65,50")

	v.SetDefault("ANALYTICS_ROLLING_WINDOW", "720h")
	v.SetDefault("ANALYTICS_TOP_TRAINEES", 3)
	v.SetDefault("ANALYTICS_TOP_COURSES", 5)

	v.SetDefault("DASHBOARD_CACHE_ENABLED", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("DASHBOARD_REFRESH_INTERVAL", "")

	v.SetDefault("IMPORT_MAX_FILE_SIZE", 5*1024*1024)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseThresholds reads four descending lower bounds. Anything else yields the fallback and a
// warning for the caller to log.
func parseThresholds(raw string, fallback []float64) ([]float64, string) {
	out := append([]float64(nil), fallback...)
	parts := splitAndTrim(raw)
	if len(parts) == 0 {
		return out, ""
	}
	if len(parts) != len(fallback) {
		return out, fmt.Sprintf("expected %d values, got %d", len(fallback), len(parts))
	}
	values := make([]float64, len(parts))
	for i, part := range parts {
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return out, fmt.Sprintf("invalid number %q", part)
		}
		values[i] = value
	}
	if !sort.SliceIsSorted(values, func(i, j int) bool { return values[i] > values[j] }) {
		return out, "values must be in descending order"
	}
	return values, ""
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
