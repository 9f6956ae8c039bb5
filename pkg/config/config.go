package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	DB          DBConfig          `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Nessie      NessieConfig      `mapstructure:"nessie"`
	FX          FXConfig          `mapstructure:"fx"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Sweeper     SweeperConfig     `mapstructure:"sweeper"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
	Version  string `mapstructure:"version"`
}

type DBConfig struct {
	// Driver selects the entity store backend: "memory" or "postgres".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type NessieConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type FXConfig struct {
	RateURL        string `mapstructure:"rate_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	CacheTTLSecs   int    `mapstructure:"cache_ttl_seconds"`
}

type IdempotencyConfig struct {
	// RetentionMinutes bounds how long a key can replay its stored response.
	RetentionMinutes int `mapstructure:"retention_minutes"`
}

type SweeperConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

type WebhookConfig struct {
	Workers        int `mapstructure:"workers"`
	MaxRetries     int `mapstructure:"max_retries"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")
	viper.SetDefault("app.version", "2026-02-28")

	viper.SetDefault("db.driver", "memory")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "flowpay_user")
	viper.SetDefault("db.password", "flowpay_password")
	viper.SetDefault("db.name", "flowpay_db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "flowpay_events")

	viper.SetDefault("nessie.base_url", "http://api.nessieisreal.com")
	viper.SetDefault("nessie.api_key", "")
	viper.SetDefault("nessie.timeout_seconds", 15)

	viper.SetDefault("fx.rate_url", "https://open.er-api.com/v6/latest")
	viper.SetDefault("fx.timeout_seconds", 5)
	viper.SetDefault("fx.cache_ttl_seconds", 30)

	viper.SetDefault("idempotency.retention_minutes", 1440)

	viper.SetDefault("sweeper.interval_seconds", 30)

	viper.SetDefault("webhook.workers", 4)
	viper.SetDefault("webhook.max_retries", 5)
	viper.SetDefault("webhook.timeout_seconds", 10)
}
