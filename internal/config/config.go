// Пакет config — загрузка и валидация конфигурации файлового
// хранилища из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешена ли регистрация новых пользователей
	AllowRegistration bool

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Хранилище ---

	// Путь к директории хранения файлов
	DataDir string
	// Максимальный размер файла в байтах (0 — без ограничения)
	MaxFileSize int64
	// Максимальное число одновременных загрузок
	MaxConcurrentUploads int64

	// --- Кэш дефолтных пространств имён ---

	// Размер LRU-кэша
	NamespaceCacheSize int
	// TTL записи кэша
	NamespaceCacheTTL time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// VAULT_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("VAULT_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("VAULT_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("VAULT_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// VAULT_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("VAULT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("VAULT_LOG_LEVEL: %w", err)
	}

	// VAULT_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("VAULT_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("VAULT_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// VAULT_ALLOW_REGISTRATION — регистрация новых пользователей (по умолчанию false)
	cfg.AllowRegistration, err = getEnvBool("VAULT_ALLOW_REGISTRATION", false)
	if err != nil {
		return nil, fmt.Errorf("VAULT_ALLOW_REGISTRATION: %w", err)
	}

	// --- PostgreSQL ---

	// VAULT_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("VAULT_DB_HOST")
	if err != nil {
		return nil, err
	}

	// VAULT_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("VAULT_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("VAULT_DB_PORT: %w", err)
	}

	// VAULT_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("VAULT_DB_NAME")
	if err != nil {
		return nil, err
	}

	// VAULT_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("VAULT_DB_USER")
	if err != nil {
		return nil, err
	}

	// VAULT_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("VAULT_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// VAULT_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("VAULT_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("VAULT_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Хранилище ---

	// VAULT_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("VAULT_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// VAULT_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 0 — без ограничения)
	cfg.MaxFileSize, err = getEnvInt64("VAULT_MAX_FILE_SIZE", 0)
	if err != nil {
		return nil, fmt.Errorf("VAULT_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize < 0 {
		return nil, fmt.Errorf("VAULT_MAX_FILE_SIZE: значение не может быть отрицательным")
	}

	// VAULT_MAX_CONCURRENT_UPLOADS — лимит одновременных загрузок (по умолчанию 16)
	maxUploads, err := getEnvInt("VAULT_MAX_CONCURRENT_UPLOADS", 16)
	if err != nil {
		return nil, fmt.Errorf("VAULT_MAX_CONCURRENT_UPLOADS: %w", err)
	}
	if maxUploads < 1 {
		return nil, fmt.Errorf("VAULT_MAX_CONCURRENT_UPLOADS: значение %d должно быть не меньше 1", maxUploads)
	}
	cfg.MaxConcurrentUploads = int64(maxUploads)

	// --- Кэш дефолтных пространств имён ---

	// VAULT_NS_CACHE_SIZE — размер кэша (по умолчанию 512)
	cfg.NamespaceCacheSize, err = getEnvInt("VAULT_NS_CACHE_SIZE", 512)
	if err != nil {
		return nil, fmt.Errorf("VAULT_NS_CACHE_SIZE: %w", err)
	}
	if cfg.NamespaceCacheSize < 1 {
		return nil, fmt.Errorf("VAULT_NS_CACHE_SIZE: значение %d должно быть не меньше 1", cfg.NamespaceCacheSize)
	}

	// VAULT_NS_CACHE_TTL — TTL записи кэша (по умолчанию 5m)
	cfg.NamespaceCacheTTL, err = getEnvDuration("VAULT_NS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("VAULT_NS_CACHE_TTL: %w", err)
	}

	// --- Graceful shutdown ---

	// VAULT_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("VAULT_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VAULT_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
