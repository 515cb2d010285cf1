package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	App        AppConfig
	Storage    StorageConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig enables the holiday cache when Addr is set.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	HolidayTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
}

type StorageConfig struct {
	BasePath string
	BaseURL  string
}

type AttendanceConfig struct {
	GeofenceRadiusMeters       float64
	RegularizationDefaultHours float64
	// AutoCloseEnabled turns on the forgotten check-out sweep. It rewrites
	// open records to ForgotCheckout, which payroll no longer counts as paid.
	AutoCloseEnabled  bool
	AutoCloseInterval time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments use the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var (
		config = &Config{}
		err    error
	)

	// Database configuration
	config.Database = DatabaseConfig{
		Driver:   strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		Host:     getEnv("DB_HOST", "localhost"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
	if config.Database.Port, err = getEnvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}

	// Redis configuration
	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
	}
	if config.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.Redis.HolidayTTL, err = getEnvDuration("HOLIDAY_CACHE_TTL", 12*time.Hour); err != nil {
		return nil, err
	}

	// Application configuration
	config.App = AppConfig{
		Env:            getEnv("APP_ENV", "development"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
	if config.App.Port, err = getEnvInt("APP_PORT", 8080); err != nil {
		return nil, err
	}
	if err := config.App.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}
	if config.JWT.AccessExpiration, err = getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour); err != nil {
		return nil, err
	}

	// File storage configuration
	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	// Attendance configuration
	if config.Attendance.GeofenceRadiusMeters, err = getEnvFloat("ATTENDANCE_GEOFENCE_RADIUS_METERS", 10); err != nil {
		return nil, err
	}
	if config.Attendance.RegularizationDefaultHours, err = getEnvFloat("REGULARIZATION_DEFAULT_HOURS", 9); err != nil {
		return nil, err
	}
	if config.Attendance.AutoCloseEnabled, err = getEnvBool("ATTENDANCE_AUTO_CLOSE_ENABLED", false); err != nil {
		return nil, err
	}
	if config.Attendance.AutoCloseInterval, err = getEnvDuration("ATTENDANCE_AUTO_CLOSE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StoreDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}
	if c.Attendance.GeofenceRadiusMeters <= 0 {
		return fmt.Errorf("ATTENDANCE_GEOFENCE_RADIUS_METERS must be positive")
	}
	if c.Attendance.RegularizationDefaultHours <= 0 || c.Attendance.RegularizationDefaultHours > 24 {
		return fmt.Errorf("REGULARIZATION_DEFAULT_HOURS must be between 0 and 24")
	}
	if c.Attendance.AutoCloseEnabled && c.Attendance.AutoCloseInterval <= 0 {
		return fmt.Errorf("ATTENDANCE_AUTO_CLOSE_INTERVAL must be positive")
	}
	return nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
