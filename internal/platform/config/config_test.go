package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "service_name: quotesim\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServiceName != "quotesim" {
		t.Errorf("service name: got %s, want quotesim", cfg.ServiceName)
	}
	if cfg.Engine.DefaultSlippageBps != 50 {
		t.Errorf("default slippage: got %d, want 50", cfg.Engine.DefaultSlippageBps)
	}
	if cfg.Engine.Concurrency != 8 {
		t.Errorf("concurrency: got %d, want 8", cfg.Engine.Concurrency)
	}
	if cfg.Engine.TickArraySize != 60 {
		t.Errorf("tick array size: got %d, want 60", cfg.Engine.TickArraySize)
	}
	if cfg.Engine.MaxSteps != 512 {
		t.Errorf("max steps: got %d, want 512", cfg.Engine.MaxSteps)
	}
	if cfg.Snapshot.RetryAttempts != 3 || cfg.Snapshot.RetryBaseDelay != 50*time.Millisecond {
		t.Errorf("snapshot retry: got %d attempts from %s", cfg.Snapshot.RetryAttempts, cfg.Snapshot.RetryBaseDelay)
	}
	if cfg.Snapshot.BreakerTimeout != 30*time.Second || cfg.Snapshot.StaleTTL != 10*time.Second {
		t.Errorf("snapshot guard: got breaker %s stale %s", cfg.Snapshot.BreakerTimeout, cfg.Snapshot.StaleTTL)
	}
	if cfg.Observability.Logging.Level != "info" || cfg.Observability.Logging.Format != "json" {
		t.Errorf("logging: got %+v, want info/json", cfg.Observability.Logging)
	}
	if cfg.Observability.Metrics.Enabled || cfg.Observability.Tracing.Enabled {
		t.Error("metrics and tracing should be off by default")
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
engine:
  default_slippage_bps: 100
  concurrency: 2
  max_steps: 64
snapshot:
  path: /tmp/pools.yaml
  breaker_timeout: 2m
  rate_limit: 25
tokens:
  - symbol: wif
    mint: EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm
    decimals: 6
observability:
  logging:
    level: debug
    format: text
  metrics:
    enabled: true
    port: 9100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Engine.DefaultSlippage(); got != 100 {
		t.Errorf("slippage: got %d, want 100", got)
	}
	if cfg.Engine.Concurrency != 2 || cfg.Engine.MaxSteps != 64 {
		t.Errorf("engine: got %+v", cfg.Engine)
	}
	if cfg.Engine.BatchWorkers != 4 {
		t.Errorf("batch workers: got %d, want default 4", cfg.Engine.BatchWorkers)
	}
	if cfg.Snapshot.Path != "/tmp/pools.yaml" {
		t.Errorf("snapshot path: got %s", cfg.Snapshot.Path)
	}
	if cfg.Snapshot.BreakerTimeout != 2*time.Minute || cfg.Snapshot.RateLimit != 25 {
		t.Errorf("snapshot guard: got breaker %s rate %g", cfg.Snapshot.BreakerTimeout, cfg.Snapshot.RateLimit)
	}
	if len(cfg.Tokens) != 1 || cfg.Tokens[0].Symbol != "wif" || cfg.Tokens[0].Decimals != 6 {
		t.Errorf("tokens: got %+v", cfg.Tokens)
	}
	if cfg.Observability.Logging.Level != "debug" || !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Port != 9100 {
		t.Errorf("observability: got %+v", cfg.Observability)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ENGINE_CONCURRENCY", "3")
	t.Setenv("OBSERVABILITY_LOGGING_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "engine:\n  concurrency: 2\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Concurrency != 3 {
		t.Errorf("concurrency: got %d, want 3", cfg.Engine.Concurrency)
	}
	if cfg.Observability.Logging.Level != "warn" {
		t.Errorf("log level: got %s, want warn", cfg.Observability.Logging.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"slippage too high", "engine:\n  default_slippage_bps: 10001\n", "default slippage"},
		{"zero concurrency", "engine:\n  concurrency: 0\n", "concurrency"},
		{"zero max steps", "engine:\n  max_steps: 0\n", "max steps"},
		{"zero retry attempts", "snapshot:\n  retry_attempts: 0\n", "retry attempts"},
		{"inverted retry delays", "snapshot:\n  retry_base_delay: 2s\n  retry_max_delay: 1s\n", "retry delays"},
		{"negative rate limit", "snapshot:\n  rate_limit: -1\n", "rate limit"},
		{"token without mint", "tokens:\n  - symbol: X\n", "symbol and mint"},
		{"bad log level", "observability:\n  logging:\n    level: loud\n", "invalid log level"},
		{"bad log format", "observability:\n  logging:\n    format: xml\n", "invalid log format"},
		{"bad metrics port", "observability:\n  metrics:\n    enabled: true\n    port: 0\n", "metrics port"},
		{"tracing without endpoint", "observability:\n  tracing:\n    enabled: true\n    endpoint: \"\"\n", "tracing endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})
}

func TestMustLoad_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustLoad(writeConfig(t, "engine:\n  concurrency: -1\n"))
}
