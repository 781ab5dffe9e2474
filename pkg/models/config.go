package models

import "time"

// Dataset sources
const (
	SourceCSV       = "csv"
	SourceWarehouse = "warehouse"
)

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Dataset   Dataset   `yaml:"dataset"`
	Warehouse Warehouse `yaml:"warehouse"`
	Cache     Cache     `yaml:"cache"`
	Server    Server    `yaml:"server"`
	Normalize Normalize `yaml:"normalize"`
	Output    Output    `yaml:"output"`
	Log       Log       `yaml:"log"`
}

type Dataset struct {
	Path   string `yaml:"path"`
	Source string `yaml:"source"` // "csv" or "warehouse"
}

// Warehouse holds the SQL connection settings for the sales table
type Warehouse struct {
	Driver    string `yaml:"driver"` // snowflake, mysql, postgres, sqlite
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Account   string `yaml:"account"` // Snowflake only
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"` // Snowflake only
	Role      string `yaml:"role"`      // Snowflake only
	Table     string `yaml:"table"`
	Timeout   string `yaml:"timeout"` // e.g. "30s"
	BatchSize int    `yaml:"batch_size"`
}

type Cache struct {
	Backend    string `yaml:"backend"` // none, memory, redis
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Normalize maps raw item_fat_content labels to their canonical form
type Normalize struct {
	Aliases map[string]string `yaml:"aliases"`
}

type Output struct {
	Format string `yaml:"format"` // table, json, yaml, csv
	Color  bool   `yaml:"color"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Dataset: Dataset{Source: SourceCSV},
		Warehouse: Warehouse{
			Driver:    "sqlite",
			Table:     "grocery_sales",
			Timeout:   "30s",
			BatchSize: 500,
		},
		Cache: Cache{
			Backend:    CacheMemory,
			TTL:        "10m",
			MaxEntries: 16,
		},
		Server: Server{Addr: ":8080"},
		Output: Output{Format: "table", Color: true},
		Log:    Log{Level: "info"},
	}
}

// ApplyDefaults fills zero values from Default
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Dataset.Source == "" {
		c.Dataset.Source = d.Dataset.Source
	}
	if c.Warehouse.Driver == "" {
		c.Warehouse.Driver = d.Warehouse.Driver
	}
	if c.Warehouse.Table == "" {
		c.Warehouse.Table = d.Warehouse.Table
	}
	if c.Warehouse.Timeout == "" {
		c.Warehouse.Timeout = d.Warehouse.Timeout
	}
	if c.Warehouse.BatchSize <= 0 {
		c.Warehouse.BatchSize = d.Warehouse.BatchSize
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = d.Cache.TTL
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = d.Cache.MaxEntries
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// WarehouseTimeout parses Warehouse.Timeout, falling back to 30s
func (c *Config) WarehouseTimeout() time.Duration {
	return parseDuration(c.Warehouse.Timeout, 30*time.Second)
}

// CacheTTL parses Cache.TTL, falling back to 10m
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, 10*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
