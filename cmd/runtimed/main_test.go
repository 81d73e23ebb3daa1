package main

import (
	"testing"

	"runtimed/internal/config"
)

func TestApplyDefaults(t *testing.T) {
	cfg := config.Config{}
	applyDefaults(&cfg)
	if cfg.Addr != ":8090" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
	if cfg.StateFile != "~/.runtimed/servers.json" {
		t.Fatalf("state file=%q", cfg.StateFile)
	}
	if cfg.StopTimeoutSec != 5 {
		t.Fatalf("stop timeout=%d", cfg.StopTimeoutSec)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level=%q", cfg.LogLevel)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := config.Config{Addr: ":9999", StopTimeoutSec: 30, LogLevel: "debug"}
	applyDefaults(&cfg)
	if cfg.Addr != ":9999" || cfg.StopTimeoutSec != 30 || cfg.LogLevel != "debug" {
		t.Fatalf("explicit values lost: %+v", cfg)
	}
}

func TestMergeConfigFlagsOverrideFile(t *testing.T) {
	root := buildRootCmd()
	if err := root.Flags().Set("addr", ":7070"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	fileCfg := config.Config{Addr: ":8080", LogLevel: "warn"}
	mergeConfig(root, &fileCfg, config.Config{Addr: ":7070"})
	if fileCfg.Addr != ":7070" {
		t.Fatalf("flag did not override file addr: %q", fileCfg.Addr)
	}
	if fileCfg.LogLevel != "warn" {
		t.Fatalf("untouched file value lost: %q", fileCfg.LogLevel)
	}
}
