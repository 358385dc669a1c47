package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults should succeed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.IngestTimes != "06:00;18:00" {
		t.Errorf("IngestTimes = %q, want 06:00;18:00", cfg.IngestTimes)
	}
	if cfg.RetrievalLimit != 8 {
		t.Errorf("RetrievalLimit = %d, want 8", cfg.RetrievalLimit)
	}
	if cfg.ComparisonDrugCap != 5 {
		t.Errorf("ComparisonDrugCap = %d, want 5", cfg.ComparisonDrugCap)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %s, want 5m", cfg.CacheTTL)
	}
	if cfg.ClassifierBaseURL != "" {
		t.Errorf("classifier should be disabled by default, got %q", cfg.ClassifierBaseURL)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"privileged port", "PORT", "80"},
		{"non-numeric port", "PORT", "abc"},
		{"public address", "ADDRESS", "8.8.8.8"},
		{"unknown env", "ENV", "production-ish"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"bad ingest time", "INGEST_TIMES", "6am;6pm"},
		{"retrieval limit too high", "RETRIEVAL_LIMIT", "200"},
		{"comparison cap zero", "COMPARISON_DRUG_CAP", "0"},
		{"cache ttl too long", "CACHE_TTL", "24h"},
		{"classifier timeout too short", "CLASSIFIER_TIMEOUT", "10ms"},
		{"classifier url malformed", "CLASSIFIER_BASE_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range GetEnvVars() {
				t.Setenv(key, "")
			}
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestValidateIngestTimes(t *testing.T) {
	valid := []string{"06:00", "06:00;18:00", "00:00;12:30;23:59"}
	for _, v := range valid {
		if err := validateIngestTimes(v); err != nil {
			t.Errorf("validateIngestTimes(%q) = %v, want nil", v, err)
		}
	}

	invalid := []string{"", "25:00", "06:00;noon", "6"}
	for _, v := range invalid {
		if err := validateIngestTimes(v); err == nil {
			t.Errorf("validateIngestTimes(%q) should fail", v)
		}
	}
}
