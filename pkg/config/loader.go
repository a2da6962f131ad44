package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	viper.BindEnv("tcp.port", "TCP_PORT", "APP_TCP_PORT")
	viper.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	viper.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	viper.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	viper.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: defaults plus env vars.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "evstation")
	viper.SetDefault("app.environment", "development")

	viper.SetDefault("tcp.port", 5000)
	viper.SetDefault("tcp.read_timeout", 30*time.Second)
	viper.SetDefault("http.port", 8080)

	viper.SetDefault("station.fast_piles", 2)
	viper.SetDefault("station.fast_power_kw", 30.0)
	viper.SetDefault("station.trickle_piles", 3)
	viper.SetDefault("station.trickle_power_kw", 10.0)
	viper.SetDefault("station.waiting_capacity", 10)
	viper.SetDefault("station.tick_interval", 5*time.Second)
	viper.SetDefault("station.dispatch_policy", "fcfs")

	viper.SetDefault("data.dir", "./data")
	viper.SetDefault("data.backups", 5)

	viper.SetDefault("jwt.secret", "dev-only-secret")
	viper.SetDefault("jwt.token_duration", 24*time.Hour)

	viper.SetDefault("logging.level", "info")
}
