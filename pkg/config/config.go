package config

import "time"

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	TCP     TCPConfig     `mapstructure:"tcp"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Station StationConfig `mapstructure:"station"`
	Data    DataConfig    `mapstructure:"data"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type TCPConfig struct {
	Port        int           `mapstructure:"port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// StationConfig describes the pile fleet and the dispatching behavior.
type StationConfig struct {
	FastPiles       int           `mapstructure:"fast_piles"`
	FastPowerKW     float64       `mapstructure:"fast_power_kw"`
	TricklePiles    int           `mapstructure:"trickle_piles"`
	TricklePowerKW  float64       `mapstructure:"trickle_power_kw"`
	WaitingCapacity int           `mapstructure:"waiting_capacity"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	DispatchPolicy  string        `mapstructure:"dispatch_policy"` // "fcfs" or "shortest_total_time"
}

type DataConfig struct {
	Dir     string `mapstructure:"dir"`
	Backups int    `mapstructure:"backups"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}
