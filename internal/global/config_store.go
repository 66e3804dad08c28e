package global

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configTOMLFileName = "config.toml"

	defaultServerURL = "http://127.0.0.1:3033"
	defaultLogLines  = 200
)

type PlanDefaults struct {
	AskQuestions bool `json:"ask_questions" toml:"ask_questions"`
}

type GlobalConfig struct {
	ServerURL string       `json:"server_url" toml:"server_url"`
	LogLines  int          `json:"log_lines" toml:"log_lines"`
	Plan      PlanDefaults `json:"plan" toml:"plan"`
}

type ConfigStore struct {
	dir string
}

func NewConfigStore(dir string) *ConfigStore {
	return &ConfigStore{dir: dir}
}

func (s *ConfigStore) LoadOrInit() (GlobalConfig, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return GlobalConfig{}, err
	}

	path := filepath.Join(s.dir, configTOMLFileName)
	if b, err := os.ReadFile(path); err == nil {
		var cfg GlobalConfig
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return GlobalConfig{}, err
		}
		return normalizeConfig(cfg), nil
	} else if !os.IsNotExist(err) {
		return GlobalConfig{}, err
	}

	cfg := normalizeConfig(GlobalConfig{Plan: PlanDefaults{AskQuestions: true}})
	if err := writeTOMLAtomically(path, cfg); err != nil {
		return GlobalConfig{}, err
	}
	return cfg, nil
}

func (s *ConfigStore) Save(cfg GlobalConfig) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return writeTOMLAtomically(filepath.Join(s.dir, configTOMLFileName), normalizeConfig(cfg))
}

func normalizeConfig(cfg GlobalConfig) GlobalConfig {
	cfg.ServerURL = strings.TrimSpace(cfg.ServerURL)
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.LogLines <= 0 {
		cfg.LogLines = defaultLogLines
	}
	return cfg
}

func writeTOMLAtomically(path string, v any) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
