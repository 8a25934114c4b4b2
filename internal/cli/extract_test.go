package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// setupConfig points the loader at a throwaway config file and restores
// all shared command state afterwards.
func setupConfig(t *testing.T, yaml string) {
	t.Helper()

	prevCfgFile, prevNoLLM := cfgFile, noLLM
	prevConcurrency, prevMailto := concurrency, mailto
	t.Cleanup(func() {
		cfgFile, noLLM = prevCfgFile, prevNoLLM
		concurrency, mailto = prevConcurrency, prevMailto
		viper.Reset()
	})
	viper.Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	cfgFile = path
	noLLM = true

	initConfig()
}

func TestBuildConfigReadsConfigFile(t *testing.T) {
	setupConfig(t, `
match:
  accept_threshold: 0.99
retry:
  max_attempts: 7
http:
  timeout: 45s
`)

	cfg, err := buildConfig(pflag.NewFlagSet("test", pflag.ContinueOnError))
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.Match.AcceptThreshold != 0.99 {
		t.Errorf("accept_threshold = %v, want 0.99 from the config file", cfg.Match.AcceptThreshold)
	}
	if cfg.Retry.MaxAttempts != 7 {
		t.Errorf("retry.max_attempts = %d, want 7 from the config file", cfg.Retry.MaxAttempts)
	}
	if cfg.HTTP.Timeout != 45*time.Second {
		t.Errorf("http.timeout = %v, want 45s from the config file", cfg.HTTP.Timeout)
	}
	if cfg.Match.RejectFloor != 0.35 {
		t.Errorf("reject_floor = %v, want the untouched default 0.35", cfg.Match.RejectFloor)
	}
}

func TestBuildConfigEnvOverridesFile(t *testing.T) {
	setupConfig(t, `
match:
  accept_threshold: 0.99
`)
	t.Setenv("REFSCOUT_MATCH_ACCEPT_THRESHOLD", "0.6")
	t.Setenv("REFSCOUT_RATELIMIT_REQUESTS_PER_SECOND", "2.5")

	cfg, err := buildConfig(pflag.NewFlagSet("test", pflag.ContinueOnError))
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.Match.AcceptThreshold != 0.6 {
		t.Errorf("accept_threshold = %v, want the env value 0.6 over the file's 0.99", cfg.Match.AcceptThreshold)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("requests_per_second = %v, want the env value 2.5", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestBuildConfigFlagOverridesFile(t *testing.T) {
	setupConfig(t, `
concurrency:
  workers: 2
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.IntVar(&concurrency, "concurrency", 4, "")

	// Flag left at its default: the file value wins
	cfg, err := buildConfig(flags)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.Concurrency.Workers != 2 {
		t.Errorf("workers = %d, want 2 from the config file when the flag is unset", cfg.Concurrency.Workers)
	}

	// Flag set explicitly: it beats the file
	if err := flags.Set("concurrency", "9"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err = buildConfig(flags)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.Concurrency.Workers != 9 {
		t.Errorf("workers = %d, want 9 from the explicit flag", cfg.Concurrency.Workers)
	}
}

func TestBuildConfigNeverReadsKeysFromFile(t *testing.T) {
	setupConfig(t, `
llm:
  api_key: leaked-from-file
semanticscholar:
  api_key: also-leaked
`)
	t.Setenv("S2_API_KEY", "")

	cfg, err := buildConfig(pflag.NewFlagSet("test", pflag.ContinueOnError))
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.LLM.APIKey != "" {
		t.Errorf("llm api key must come from the environment only, got %q", cfg.LLM.APIKey)
	}
	if cfg.S2.APIKey != "" {
		t.Errorf("semanticscholar api key must come from the environment only, got %q", cfg.S2.APIKey)
	}
}
