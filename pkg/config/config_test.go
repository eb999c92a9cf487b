package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("FANOUT_COMMIT_CONCURRENCY", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("Env = %q, want development", cfg.Env)
	}
	if cfg.FanoutCommitConcurrency != 1 {
		t.Fatalf("FanoutCommitConcurrency = %d, want 1", cfg.FanoutCommitConcurrency)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TRIGGER_AUDIENCE", "https://engagement.example.com")
	t.Setenv("FANOUT_COMMIT_CONCURRENCY", "4")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.TriggerAudience != "https://engagement.example.com" {
		t.Fatalf("TriggerAudience = %q", cfg.TriggerAudience)
	}
	if cfg.FanoutCommitConcurrency != 4 {
		t.Fatalf("FanoutCommitConcurrency = %d, want 4", cfg.FanoutCommitConcurrency)
	}
}

func TestLoadRejectsInvalidConcurrency(t *testing.T) {
	for _, value := range []string{"zero", "0", "-2"} {
		t.Setenv("FANOUT_COMMIT_CONCURRENCY", value)
		if got := Load().FanoutCommitConcurrency; got != 1 {
			t.Fatalf("FANOUT_COMMIT_CONCURRENCY=%q: got %d, want default 1", value, got)
		}
	}
}
