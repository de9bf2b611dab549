package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // conversation-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Redis struct {
	URL string `yaml:"url"` // redis://host:port/db
}

type Auth struct {
	PublicKeyPath string `yaml:"publicKeyPath"` // PEM с публичным ключом identity-сервиса
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
	ClockSkew     string `yaml:"clockSkew"` // "30s"
	AdminToken    string `yaml:"adminToken"`
}

type Listing struct {
	BaseURL  string `yaml:"baseUrl"`
	Timeout  string `yaml:"timeout"`  // "3s"
	CacheTTL string `yaml:"cacheTtl"` // "5m"
}

type WS struct {
	PingEvery      string `yaml:"pingEvery"`      // "15s"
	MaxMessageSize int64  `yaml:"maxMessageSize"` // bytes
}

type Limits struct {
	MaxContentLength int `yaml:"maxContentLength"` // символы текста сообщения
	SnapshotLength   int `yaml:"snapshotLength"`   // длина snapshot_text
	HistoryPageSize  int `yaml:"historyPageSize"`
}

type Maintenance struct {
	Concurrency int    `yaml:"concurrency"`
	RepairEvery string `yaml:"repairEvery"` // "" — без периодического repair
	RepairQueue string `yaml:"repairQueue"`
}

type Config struct {
	HTTP        HTTP        `yaml:"http"`
	Logging     Logging     `yaml:"logging"`
	Postgres    Postgres    `yaml:"postgres"`
	Redis       Redis       `yaml:"redis"`
	Auth        Auth        `yaml:"auth"`
	Listing     Listing     `yaml:"listing"`
	WS          WS          `yaml:"ws"`
	Limits      Limits      `yaml:"limits"`
	Maintenance Maintenance `yaml:"maintenance"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Auth.PublicKeyPath == "" {
		return errors.New("auth.publicKeyPath is required")
	}
	if c.Redis.URL == "" {
		// redis нужен и кешу listing-а, и очереди обслуживания
		return errors.New("redis.url is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "conversation-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Limits.MaxContentLength <= 0 {
		c.Limits.MaxContentLength = 4000
	}
	if c.Limits.SnapshotLength <= 0 {
		c.Limits.SnapshotLength = 160
	}
	if c.Limits.HistoryPageSize <= 0 {
		c.Limits.HistoryPageSize = 50
	}
	if c.Maintenance.Concurrency <= 0 {
		c.Maintenance.Concurrency = 2
	}
	if c.Maintenance.RepairQueue == "" {
		c.Maintenance.RepairQueue = "maintenance"
	}
	return nil
}

// ClockSkewDur и прочие — парсинг строковых таймаутов с дефолтами.
func (a Auth) ClockSkewDur() time.Duration   { return parseDurationOr(30*time.Second, a.ClockSkew) }
func (l Listing) TimeoutDur() time.Duration  { return parseDurationOr(3*time.Second, l.Timeout) }
func (l Listing) CacheTTLDur() time.Duration { return parseDurationOr(5*time.Minute, l.CacheTTL) }
func (w WS) PingEveryDur() time.Duration     { return parseDurationOr(15*time.Second, w.PingEvery) }

func (m Maintenance) RepairEveryDur() time.Duration { return parseDurationOr(0, m.RepairEvery) }

func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
