package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr           string `json:"addr" yaml:"addr" toml:"addr"`
	StateFile      string `json:"state_file" yaml:"state_file" toml:"state_file"`
	RuntimeBin     string `json:"runtime_bin" yaml:"runtime_bin" toml:"runtime_bin"`
	BridgeBin      string `json:"bridge_bin" yaml:"bridge_bin" toml:"bridge_bin"`
	StopTimeoutSec int    `json:"stop_timeout_sec" yaml:"stop_timeout_sec" toml:"stop_timeout_sec"`
	MaxConcurrent  int    `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	MaxQueueSize   int    `json:"max_queue_size" yaml:"max_queue_size" toml:"max_queue_size"`
	LogLevel       string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFile        string `json:"log_file" yaml:"log_file" toml:"log_file"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
