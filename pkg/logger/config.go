package logger

import (
	"log/slog"
	"os"
	"strings"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

type Backend string

const (
	BackendStd Backend = "std" // текстовый вывод для dev
	BackendZap Backend = "zap" // JSON через slog-zap для stage/prod
)

type Config struct {
	// Метаданные, уходящие в каждую запись
	Service    string
	Version    string
	InstanceID string

	// Управление выводом
	Env     Env
	Backend Backend // пусто — выбирается по Env
	Level   slog.Level
	Debug   bool

	// Zap sampling при всплесках
	SampleInitial    int
	SampleThereafter int

	// AddSource в dev
	AddSource bool
}

// DetectEnv читает APP_ENV; всё неизвестное трактуется как dev.
func DetectEnv() Env {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod", "pre-production":
		return EnvStage
	default:
		return EnvDev
	}
}

func (c *Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}
