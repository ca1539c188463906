// Package config defines process configuration and its layered loading:
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"talentcycle/internal/aiclient"
	"talentcycle/internal/pipeline"
	"talentcycle/internal/store"
)

// Config contains the full process configuration.
type Config struct {
	// LogMode selects the log encoder: "dev" or "prod".
	LogMode string `koanf:"log_mode"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	Database store.Config    `koanf:"database"`
	Pipeline pipeline.Config `koanf:"pipeline"`

	SkillsAI aiclient.Config `koanf:"skills_ai"`
	CareerAI aiclient.Config `koanf:"career_ai"`

	Temporal Temporal `koanf:"temporal"`
}

// Temporal holds the workflow engine connection settings.
type Temporal struct {
	// HostPort is the Temporal frontend address.
	HostPort string `koanf:"host_port"`
	// Namespace scopes the workflows.
	Namespace string `koanf:"namespace"`
	// TaskQueue is the queue pipeline workflows and activities run on.
	TaskQueue string `koanf:"task_queue"`
}

// New returns the configuration defaults.
func New() *Config {
	return &Config{
		LogMode:  "dev",
		Addr:     ":8080",
		Database: store.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		SkillsAI: aiclient.DefaultConfig("http://localhost:9100/v1/skills-assessment"),
		CareerAI: aiclient.DefaultConfig("http://localhost:9100/v1/career-paths"),
		Temporal: Temporal{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "talentcycle-pipeline",
		},
	}
}

// Load builds a Config by layering defaults, an optional file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TALENTCYCLE_CONFIG is set
//  3. env (prefix TALENTCYCLE_, underscore-delimited nesting via "__")
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TALENTCYCLE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// TALENTCYCLE_ADDR -> addr, TALENTCYCLE_DATABASE__DSN -> database.dsn.
	envProvider := env.Provider("TALENTCYCLE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "talentcycle_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.Database.DSN == "" {
		return nil, errors.New("database dsn must not be empty")
	}
	return &cfg, nil
}
