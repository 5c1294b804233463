package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesPipelineDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := c.Pipeline
	if p.LookbackHours != 6 {
		t.Errorf("LookbackHours = %d, want 6", p.LookbackHours)
	}
	if p.MinSentimentConfidence != 0.6 {
		t.Errorf("MinSentimentConfidence = %v, want 0.6", p.MinSentimentConfidence)
	}
	if p.MinCombinedScore != 0.3 {
		t.Errorf("MinCombinedScore = %v, want 0.3", p.MinCombinedScore)
	}
	if p.SignalExpiryDays != 7 {
		t.Errorf("SignalExpiryDays = %d, want 7", p.SignalExpiryDays)
	}
	if p.MaxSignalsPerRun != 10 {
		t.Errorf("MaxSignalsPerRun = %d, want 10", p.MaxSignalsPerRun)
	}
	if p.SentimentWeight != 0.7 || p.TechnicalWeight != 0.3 {
		t.Errorf("weights = %v/%v, want 0.7/0.3", p.SentimentWeight, p.TechnicalWeight)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `environment: test
pipeline:
  lookback_hours: 12
  sentiment_weight: 0.5
  technical_weight: 0.5
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Pipeline.LookbackHours != 12 {
		t.Errorf("LookbackHours = %d, want 12", c.Pipeline.LookbackHours)
	}
	if c.Pipeline.SentimentWeight != 0.5 {
		t.Errorf("SentimentWeight = %v, want 0.5", c.Pipeline.SentimentWeight)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing environment", "server:\n  port: 9000\n"},
		{"weights do not sum to 1", "environment: test\npipeline:\n  sentiment_weight: 0.8\n  technical_weight: 0.3\n"},
		{"negative lookback", "environment: test\npipeline:\n  lookback_hours: -1\n"},
		{"confidence out of range", "environment: test\npipeline:\n  min_sentiment_confidence: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			if _, err := Load(path); err == nil {
				t.Errorf("Load succeeded, want validation error")
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Lookback().Hours(); got != 6 {
		t.Errorf("Lookback = %v hours, want 6", got)
	}
	if got := c.SignalExpiry().Hours(); got != 7*24 {
		t.Errorf("SignalExpiry = %v hours, want %v", got, 7*24)
	}
}
