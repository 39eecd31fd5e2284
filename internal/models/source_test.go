package models_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

func TestDiscoverySource_Validate(t *testing.T) {
	tests := []struct {
		name      string
		source    models.DiscoverySource
		wantField string
	}{
		{
			name:   "valid website source",
			source: models.DiscoverySource{Name: "Acme", SourceType: models.SourceTypeWebsite, SourceURL: "https://acme.test"},
		},
		{
			name:      "missing name",
			source:    models.DiscoverySource{Name: "  ", SourceType: models.SourceTypeWebsite, SourceURL: "https://acme.test"},
			wantField: "name",
		},
		{
			name:      "missing type",
			source:    models.DiscoverySource{Name: "Acme", SourceURL: "https://acme.test"},
			wantField: "source_type",
		},
		{
			name:      "unknown type",
			source:    models.DiscoverySource{Name: "Acme", SourceType: "rss", SourceURL: "https://acme.test"},
			wantField: "source_type",
		},
		{
			name:      "missing url",
			source:    models.DiscoverySource{Name: "Acme", SourceType: models.SourceTypeAPI},
			wantField: "source_url",
		},
		{
			name: "unknown frequency",
			source: models.DiscoverySource{
				Name: "Acme", SourceType: models.SourceTypeAPI, SourceURL: "https://api.acme.test", CrawlFrequency: "yearly",
			},
			wantField: "crawl_frequency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestDiscoverySource_ValidateAppliesDefaults(t *testing.T) {
	s := models.DiscoverySource{Name: "Acme", SourceType: models.SourceTypeDirectory, SourceURL: " https://acme.test "}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if s.CrawlFrequency != models.CrawlDaily {
		t.Errorf("CrawlFrequency = %q, want daily", s.CrawlFrequency)
	}
	if s.CrawlSettings == nil {
		t.Error("CrawlSettings = nil, want empty map")
	}
	if s.SourceURL != "https://acme.test" {
		t.Errorf("SourceURL = %q, want trimmed value", s.SourceURL)
	}
}

func TestCrawlSettings_ScanAndValue(t *testing.T) {
	var settings models.CrawlSettings
	if err := settings.Scan([]byte(`{"api_key":"secret"}`)); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := settings.String("api_key"); got != "secret" {
		t.Errorf("String(api_key) = %q, want secret", got)
	}

	if err := settings.Scan(`{"limit":5,"verified":true,"tags":["a"],"api_key":"k"}`); err != nil {
		t.Fatalf("Scan() with non-string values error = %v", err)
	}
	if got := settings.String("limit"); got != "5" {
		t.Errorf("String(limit) = %q, want 5", got)
	}
	if got := settings.String("verified"); got != "true" {
		t.Errorf("String(verified) = %q, want true", got)
	}
	if got := settings.String("tags"); got != "" {
		t.Errorf("String(tags) = %q, want empty", got)
	}
	if got := settings.String("api_key"); got != "k" {
		t.Errorf("String(api_key) = %q, want k", got)
	}

	if err := settings.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if len(settings) != 0 {
		t.Errorf("Scan(nil) left %d entries, want 0", len(settings))
	}

	if err := settings.Scan(42); !errors.Is(err, models.ErrInvalidCrawlSettings) {
		t.Errorf("Scan(42) error = %v, want ErrInvalidCrawlSettings", err)
	}

	var nilSettings models.CrawlSettings
	v, err := nilSettings.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if string(v.([]byte)) != "{}" {
		t.Errorf("Value() = %s, want {}", v)
	}
}
