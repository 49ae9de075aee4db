package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/suggest"
)

// envMap returns a getenv backed by m.
func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

// noEnvFile points -env at a path that does not exist.
func noEnvFile(t *testing.T) string {
	return "-env=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t)}, envMap(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":8080" || cfg.DBPath != ":memory:" || cfg.LogPath != "" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.OnFailure != suggest.PolicyFallback {
		t.Errorf("OnFailure: got %q", cfg.OnFailure)
	}
	if cfg.CountMode != model.CountUnits {
		t.Errorf("CountMode: got %q", cfg.CountMode)
	}
	if cfg.SuggestTimeout != 30*time.Second || cfg.SessionTTL != 24*time.Hour {
		t.Errorf("durations: got %s, %s", cfg.SuggestTimeout, cfg.SessionTTL)
	}
	if cfg.OpenAIKey != "" || cfg.OpenAIURL != suggest.DefaultURL || cfg.OpenAIModel != suggest.DefaultModel {
		t.Errorf("openai: got %q %q %q", cfg.OpenAIKey, cfg.OpenAIURL, cfg.OpenAIModel)
	}
	if cfg.NATSURL != "" || cfg.NATSSubject != "onboarding.submitted" {
		t.Errorf("nats: got %q %q", cfg.NATSURL, cfg.NATSSubject)
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		noEnvFile(t),
		"-a", "127.0.0.1:9000",
		"-d", "sessions.db",
		"-l", "onboard.log",
		"-on-failure", "surface_error",
		"-count", "records",
		"-suggest-timeout", "5s",
		"-session-ttl", "2h",
	}, envMap(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != "127.0.0.1:9000" || cfg.DBPath != "sessions.db" || cfg.LogPath != "onboard.log" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.OnFailure != suggest.PolicySurfaceError || cfg.CountMode != model.CountRecords {
		t.Errorf("policy/mode: got %q %q", cfg.OnFailure, cfg.CountMode)
	}
	if cfg.SuggestTimeout != 5*time.Second || cfg.SessionTTL != 2*time.Hour {
		t.Errorf("durations: got %s, %s", cfg.SuggestTimeout, cfg.SessionTTL)
	}
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t)}, envMap(map[string]string{
		"SUGGEST_ON_FAILURE": "surface_error",
		"OPENAI_API_KEY":     "sk-test",
		"OPENAI_MODEL":       "gpt-4o-mini",
		"SENDGRID_API_KEY":   "sg-test",
		"MAIL_FROM":          "hello@example.com",
		"NATS_URL":           "nats://localhost:4222",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OnFailure != suggest.PolicySurfaceError {
		t.Errorf("OnFailure from env: got %q", cfg.OnFailure)
	}
	if cfg.OpenAIKey != "sk-test" || cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("openai: got %q %q", cfg.OpenAIKey, cfg.OpenAIModel)
	}
	if cfg.SendGridKey != "sg-test" || cfg.MailFrom != "hello@example.com" {
		t.Errorf("sendgrid: got %q %q", cfg.SendGridKey, cfg.MailFrom)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("nats: got %q", cfg.NATSURL)
	}
}

func TestLoadFlagOverridesEnvironment(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t), "-on-failure", "fallback"},
		envMap(map[string]string{"SUGGEST_ON_FAILURE": "surface_error"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OnFailure != suggest.PolicyFallback {
		t.Errorf("expected flag to win, got %q", cfg.OnFailure)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "OPENAI_API_KEY=sk-from-file\nNATS_SUBJECT=factory.onboarded\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"-e", path}, envMap(map[string]string{"NATS_SUBJECT": "from.env"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAIKey != "sk-from-file" {
		t.Errorf("expected key from file, got %q", cfg.OpenAIKey)
	}
	if cfg.NATSSubject != "from.env" {
		t.Errorf("process environment should win over the file, got %q", cfg.NATSSubject)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad policy", []string{"-on-failure", "retry"}},
		{"bad count", []string{"-count", "machines"}},
		{"zero timeout", []string{"-suggest-timeout", "0s"}},
		{"negative ttl", []string{"-session-ttl", "-1h"}},
		{"extra argument", []string{"serve"}},
		{"unknown flag", []string{"-port", "80"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{noEnvFile(t)}, tt.args...)
			if _, err := Load(args, envMap(nil)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"-h"}, envMap(nil))
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
}
