package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Game       GameConfig       `mapstructure:"game"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GameConfig tunes session defaults.
type GameConfig struct {
	DefaultDiskCount int           `mapstructure:"default_disk_count"`
	MaxResets        int           `mapstructure:"max_resets"`
	SnapshotTTL      time.Duration `mapstructure:"snapshot_ttl"`
}

type SubscriberConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
	BufferSize  int `mapstructure:"buffer_size"`
}

// Load reads the yaml config at the given path.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Game.DefaultDiskCount == 0 {
		cfg.Game.DefaultDiskCount = 4
	}
	if cfg.Game.MaxResets == 0 {
		cfg.Game.MaxResets = 2
	}
	if cfg.Game.SnapshotTTL == 0 {
		cfg.Game.SnapshotTTL = 30 * time.Minute
	}
}
