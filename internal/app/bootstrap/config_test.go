package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceID != "influencer-staking" || cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.EnableAutoDistribution {
		t.Fatalf("auto distribution should default on")
	}
}

func TestLoadConfigFileOmittingAutoDistributionKeepsDefault(t *testing.T) {
	path := writeConfig(t, "service:\n  id: staking-test\nstaking:\n  apy_window_days: 14\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceID != "staking-test" || cfg.ApyWindowDays != 14 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if !cfg.EnableAutoDistribution {
		t.Fatalf("omitting the key must not disable auto distribution")
	}
}

func TestLoadConfigFileDisablesAutoDistribution(t *testing.T) {
	path := writeConfig(t, "staking:\n  enable_auto_distribution: false\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.EnableAutoDistribution {
		t.Fatalf("explicit false must disable auto distribution")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "staking:\n  enable_auto_distribution: false\n")
	t.Setenv("ENABLE_AUTO_DISTRIBUTION", "true")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.EnableAutoDistribution {
		t.Fatalf("env override should win over the file")
	}
}
