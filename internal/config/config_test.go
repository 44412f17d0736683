package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr %q", cfg.Addr)
	}
	if cfg.WebhookURL != "" {
		t.Fatalf("default webhook url %q", cfg.WebhookURL)
	}
	if !cfg.WebhookEnabled {
		t.Fatal("webhook not enabled by default")
	}
	if cfg.WebhookTimeoutSec != 5 {
		t.Fatalf("default webhook timeout %d", cfg.WebhookTimeoutSec)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IRDETECT_ADDR", ":9999")
	t.Setenv("IRDETECT_WEBHOOK_URL", "http://hub.local/ir")
	t.Setenv("IRDETECT_WEBHOOK", "off")
	t.Setenv("IRDETECT_WEBHOOK_TIMEOUT", "11")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Fatalf("addr %q", cfg.Addr)
	}
	if cfg.WebhookURL != "http://hub.local/ir" {
		t.Fatalf("webhook url %q", cfg.WebhookURL)
	}
	if cfg.WebhookEnabled {
		t.Fatal("webhook should be off")
	}
	if cfg.WebhookTimeoutSec != 11 {
		t.Fatalf("webhook timeout %d", cfg.WebhookTimeoutSec)
	}
}

func TestLoadIgnoresBadInt(t *testing.T) {
	t.Setenv("IRDETECT_WEBHOOK_TIMEOUT", "soon")
	if cfg := Load(); cfg.WebhookTimeoutSec != 5 {
		t.Fatalf("bad int not ignored: %d", cfg.WebhookTimeoutSec)
	}
}
