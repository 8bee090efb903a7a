package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Engine   EngineConfig
	Feed     FeedConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// EngineConfig - каденции периодических задач ядра.
//
// Каждая задача работает на собственном таймере; задачи не разделяют
// in-process блокировки. Перекрытие медленного цикла со следующим тиком
// допустимо: записи свечей идемпотентны/коммутативны, а ликвидация
// атомарна на уровне транзакции.
type EngineConfig struct {
	// DirectoryRefresh - период обновления справочника ценовых групп
	DirectoryRefresh time.Duration

	// CandleUpdate - период update-задачи свечей внутри бакета
	CandleUpdate time.Duration

	// MarginCycle - период mark-to-market / проверки ликвидаций
	MarginCycle time.Duration

	// BroadcastInterval - период рассылки цен WS клиентам
	BroadcastInterval time.Duration
}

// FeedConfig - настройки поллера котировок
type FeedConfig struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	// RatePerSec - лимит запросов к апстриму (0 = без лимита)
	RatePerSec int
	// Symbols - опрашиваемые пары в формате "EUR/USD:5,USD/JPY:3"
	// (base/quote:digits)
	Symbols string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "fxtrado"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Engine: EngineConfig{
			DirectoryRefresh:  getEnvAsDuration("DIRECTORY_REFRESH", 1*time.Second),
			CandleUpdate:      getEnvAsDuration("CANDLE_UPDATE", 1*time.Second),
			MarginCycle:       getEnvAsDuration("MARGIN_CYCLE", 5*time.Second),
			BroadcastInterval: getEnvAsDuration("BROADCAST_INTERVAL", 1*time.Second),
		},
		Feed: FeedConfig{
			BaseURL:      getEnv("FEED_BASE_URL", ""),
			APIKey:       getEnv("FEED_API_KEY", ""),
			PollInterval: getEnvAsDuration("FEED_POLL_INTERVAL", 300*time.Millisecond),
			HTTPTimeout:  getEnvAsDuration("FEED_HTTP_TIMEOUT", 5*time.Second),
			RatePerSec:   getEnvAsInt("FEED_RATE_PER_SEC", 10),
			Symbols:      getEnv("FEED_SYMBOLS", "EUR/USD:5,USD/JPY:3,GBP/USD:5"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Каденции задач должны быть положительными
	if c.Engine.DirectoryRefresh <= 0 {
		return fmt.Errorf("DIRECTORY_REFRESH must be positive, got %v", c.Engine.DirectoryRefresh)
	}
	if c.Engine.CandleUpdate <= 0 {
		return fmt.Errorf("CANDLE_UPDATE must be positive, got %v", c.Engine.CandleUpdate)
	}
	if c.Engine.MarginCycle <= 0 {
		return fmt.Errorf("MARGIN_CYCLE must be positive, got %v", c.Engine.MarginCycle)
	}

	// Update-задача свечей должна успевать несколько раз за минутный бакет
	if c.Engine.CandleUpdate >= time.Minute {
		return fmt.Errorf("CANDLE_UPDATE must be shorter than one minute bucket, got %v", c.Engine.CandleUpdate)
	}

	if c.Feed.PollInterval <= 0 {
		return fmt.Errorf("FEED_POLL_INTERVAL must be positive, got %v", c.Feed.PollInterval)
	}
	if c.Feed.RatePerSec < 0 {
		return fmt.Errorf("FEED_RATE_PER_SEC cannot be negative, got %d", c.Feed.RatePerSec)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
