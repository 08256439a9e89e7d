package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port                   string `mapstructure:"port"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable pool_max_conns=10",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type Feed struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BackoffSeconds int    `mapstructure:"backoff_seconds"`
}

type Monitor struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	NotifyWorkers       int `mapstructure:"notify_workers"`
}

type Rates struct {
	LookbackDays int `mapstructure:"lookback_days"`
}

type Cache struct {
	MaxItems   int64 `mapstructure:"max_items"`
	TTLSeconds int   `mapstructure:"ttl_seconds"`
}

type Notifier struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	Feed       Feed       `mapstructure:"feed"`
	Monitor    Monitor    `mapstructure:"monitor"`
	Rates      Rates      `mapstructure:"rates"`
	Cache      Cache      `mapstructure:"cache"`
	Notifier   Notifier   `mapstructure:"notifier"`
	Logging    Logging    `mapstructure:"logging"`
}

func Init() (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	viper.SetConfigFile("config.yaml")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	viper.SetDefault("http_server.shutdown_timeout_seconds", 10)
	viper.SetDefault("db_server.max_conns", 10)
	viper.SetDefault("feed.base_url", "https://www.cbr.ru/scripts/XML_daily.asp")
	viper.SetDefault("feed.timeout_seconds", 10)
	viper.SetDefault("feed.max_attempts", 3)
	viper.SetDefault("feed.backoff_seconds", 1)
	viper.SetDefault("monitor.poll_interval_seconds", 180)
	viper.SetDefault("monitor.notify_workers", 5)
	viper.SetDefault("rates.lookback_days", 7)
	viper.SetDefault("cache.max_items", 1024)
	viper.SetDefault("cache.ttl_seconds", 43200)
	viper.SetDefault("notifier.timeout_seconds", 10)
	viper.SetDefault("logging.level", "info")

	// db server env vars
	_ = viper.BindEnv("db_server.host", "DB_HOST")
	_ = viper.BindEnv("db_server.port", "DB_PORT")
	_ = viper.BindEnv("db_server.user", "DB_USER")
	_ = viper.BindEnv("db_server.pass", "DB_PASS")
	_ = viper.BindEnv("db_server.name", "DB_NAME")
	_ = viper.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// feed and notifier env vars
	_ = viper.BindEnv("feed.base_url", "CBR_FEED_URL")
	_ = viper.BindEnv("feed.timeout_seconds", "CBR_FEED_TIMEOUT_SECONDS")
	_ = viper.BindEnv("notifier.base_url", "NOTIFIER_GATEWAY_URL")

	// monitor env vars
	_ = viper.BindEnv("monitor.poll_interval_seconds", "MONITOR_POLL_INTERVAL_SECONDS")

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
