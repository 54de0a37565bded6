package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// 存储后端
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	App struct {
		LogLevel      string `toml:"log_level"`
		PrintEveryMin int    `toml:"print_every_min"`
		NoColor       bool   `toml:"no_color"`
	} `toml:"app"`

	Symbols struct {
		Quote string `toml:"quote"`
	} `toml:"symbols"`

	Market struct {
		Exchange    string `toml:"exchange"`
		SearchLimit int    `toml:"search_limit"`
	} `toml:"market"`

	Exchange struct {
		Binance struct {
			RestURL string `toml:"rest_url"`
			WsURL   string `toml:"ws_url"`
		} `toml:"binance"`
	} `toml:"exchange"`

	Storage struct {
		Backend string   `toml:"backend"`
		Key     string   `toml:"key"`
		Mirror  []string `toml:"mirror"`

		File struct {
			Dir string `toml:"dir"`
		} `toml:"file"`

		SQLite struct {
			Path string `toml:"path"`
		} `toml:"sqlite"`

		Redis struct {
			Addr     string `toml:"addr"`
			Password string `toml:"password"`
			DB       int    `toml:"db"`
			Prefix   string `toml:"prefix"`
		} `toml:"redis"`

		Postgres struct {
			DSN string `toml:"dsn"`
		} `toml:"postgres"`
	} `toml:"storage"`

	Quotes struct {
		Publish    bool   `toml:"publish"`
		TTLSeconds int    `toml:"ttl_seconds"`
		Channel    string `toml:"channel"`
	} `toml:"quotes"`

	HTTP struct {
		Addr string `toml:"addr"`
	} `toml:"http"`
}

// Load 读取配置文件；文件不存在时使用默认值
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回全部使用默认值的配置
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.PrintEveryMin < 0 {
		cfg.App.PrintEveryMin = 0
	}
	if strings.TrimSpace(cfg.Symbols.Quote) == "" {
		cfg.Symbols.Quote = "USDT"
	}
	cfg.Symbols.Quote = strings.ToUpper(strings.TrimSpace(cfg.Symbols.Quote))
	if strings.TrimSpace(cfg.Market.Exchange) == "" {
		cfg.Market.Exchange = "BINANCE"
	}
	cfg.Market.Exchange = strings.ToUpper(strings.TrimSpace(cfg.Market.Exchange))
	if cfg.Market.SearchLimit <= 0 {
		cfg.Market.SearchLimit = 10
	}
	if cfg.Exchange.Binance.RestURL == "" {
		cfg.Exchange.Binance.RestURL = "https://api.binance.com"
	}
	if cfg.Exchange.Binance.WsURL == "" {
		cfg.Exchange.Binance.WsURL = "wss://stream.binance.com:9443"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	for i, m := range cfg.Storage.Mirror {
		cfg.Storage.Mirror[i] = strings.ToLower(strings.TrimSpace(m))
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "crypto_watchlists"
	}
	if cfg.Storage.File.Dir == "" {
		cfg.Storage.File.Dir = "data"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/cwatch.db"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "cwatch"
	}
	if cfg.Quotes.Channel == "" {
		cfg.Quotes.Channel = cfg.Storage.Redis.Prefix + ":quotes:pub"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8090"
	}
}

func validBackend(b string) bool {
	switch b {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis, BackendPostgres:
		return true
	}
	return false
}

func validate(cfg *Config) error {
	if !validBackend(cfg.Storage.Backend) {
		return fmt.Errorf("storage.backend %q unknown", cfg.Storage.Backend)
	}
	for _, m := range cfg.Storage.Mirror {
		if !validBackend(m) {
			return fmt.Errorf("storage.mirror %q unknown", m)
		}
		if m == cfg.Storage.Backend {
			return fmt.Errorf("storage.mirror %q duplicates storage.backend", m)
		}
	}
	if cfg.UsesBackend(BackendPostgres) && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but postgres in use")
	}
	if strings.TrimSpace(cfg.Exchange.Binance.WsURL) == "" {
		return errors.New("exchange.binance.ws_url empty")
	}
	return nil
}

// UsesBackend 主存储或镜像中是否包含该后端
func (c *Config) UsesBackend(b string) bool {
	if c.Storage.Backend == b {
		return true
	}
	for _, m := range c.Storage.Mirror {
		if m == b {
			return true
		}
	}
	return false
}
