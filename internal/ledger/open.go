package ledger

import (
	"context"
	"fmt"
)

// Driver selects a Store backend.
type Driver string

const (
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverRedis  Driver = "redis"
)

// Config selects and configures the ledger backend.
type Config struct {
	Driver Driver `yaml:"driver" env:"LEDGER_DRIVER"`
	// Path is the JSON file (file driver) or database file (sqlite driver).
	Path          string `yaml:"path" env:"LEDGER_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"LEDGER_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"LEDGER_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"LEDGER_REDIS_DB"`
	RedisPrefix   string `yaml:"redis_prefix" env:"LEDGER_REDIS_PREFIX"`
}

// Open creates the configured Store. An empty driver means DriverFile.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFile:
		path := cfg.Path
		if path == "" {
			path = "./data.json"
		}
		return NewFileStore(path), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = "./ledger.db"
		}
		return NewSQLiteStore(ctx, path)
	case DriverRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported ledger driver: %s", cfg.Driver)
	}
}
