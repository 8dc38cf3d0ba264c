package encoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.json"

// ScorerConfig wraps the configuration of the ONNX Runtime model scorer.
type ScorerConfig struct {
	OrtDLL     string `json:"ortDll" yaml:"ort_dll"`
	ModelPath  string `json:"modelPath" yaml:"model_path"`
	InputName  string `json:"inputName" yaml:"input_name"`
	OutputName string `json:"outputName" yaml:"output_name"`
	// OutputWidth is the number of values the model emits per row; the
	// prediction is the last of them.
	OutputWidth int `json:"outputWidth" yaml:"output_width"`
	// Features is the feature list the model was trained on. Empty means the
	// encoder schema of the task.
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// Enabled reports whether a model is configured.
func (c ScorerConfig) Enabled() bool {
	return strings.TrimSpace(c.ModelPath) != ""
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode" yaml:"mode"`
}

// Config aggregates runtime settings persisted to config.json or config.yaml.
type Config struct {
	Task    Task                  `json:"task" yaml:"task"`
	Options Options               `json:"options" yaml:"options"`
	Scorers map[Task]ScorerConfig `json:"scorers,omitempty" yaml:"scorers,omitempty"`
	Server  ServerConfig          `json:"server" yaml:"server"`
	Aliases ColumnAliases         `json:"columnAliases,omitempty" yaml:"column_aliases,omitempty"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Task == "" {
		c.Task = TaskClassification
	}
	c.Options.ApplyDefaults()
	for task, sc := range c.Scorers {
		if sc.InputName == "" {
			sc.InputName = "input"
		}
		if sc.OutputName == "" {
			sc.OutputName = "output"
		}
		if sc.OutputWidth <= 0 {
			sc.OutputWidth = 1
		}
		c.Scorers[task] = sc
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
}

// LoadConfig loads configuration from the given path or the default
// config.json. A missing file yields the defaults. Files ending in .yaml or
// .yml are decoded as YAML.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.ApplyDefaults()
	if _, err := ConfigForTask(cfg.Task); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
