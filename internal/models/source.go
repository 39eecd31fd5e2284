package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SourceType selects the extraction strategy used for a discovery source.
type SourceType string

const (
	SourceTypeWebsite     SourceType = "website"
	SourceTypeDirectory   SourceType = "directory"
	SourceTypeSocialMedia SourceType = "social_media"
	SourceTypeAPI         SourceType = "api"
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeWebsite, SourceTypeDirectory, SourceTypeSocialMedia, SourceTypeAPI:
		return true
	}
	return false
}

// DiscoverySource is a configured origin from which leads are discovered.
type DiscoverySource struct {
	ID             string         `json:"id"              db:"id"`
	Name           string         `json:"name"            db:"name"`
	SourceType     SourceType     `json:"source_type"     db:"source_type"`
	SourceURL      string         `json:"source_url"      db:"source_url"`
	IsActive       bool           `json:"is_active"       db:"is_active"`
	CrawlFrequency CrawlFrequency `json:"crawl_frequency" db:"crawl_frequency"`
	CrawlSettings  CrawlSettings  `json:"crawl_settings"  db:"crawl_settings"`
	LastCrawled    *time.Time     `json:"last_crawled"    db:"last_crawled"`
	NextCrawl      *time.Time     `json:"next_crawl"      db:"next_crawl"`
	CreatedAt      time.Time      `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"      db:"updated_at"`
}

// Validate checks the fields required to register a source and fills defaults
// for the optional ones.
func (s *DiscoverySource) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.SourceURL = strings.TrimSpace(s.SourceURL)

	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if s.SourceType == "" {
		return &ValidationError{Field: "source_type", Message: "is required"}
	}
	if !s.SourceType.Valid() {
		return &ValidationError{Field: "source_type", Message: fmt.Sprintf("unknown source type %q", s.SourceType)}
	}
	if s.SourceURL == "" {
		return &ValidationError{Field: "source_url", Message: "is required"}
	}
	if s.CrawlFrequency == "" {
		s.CrawlFrequency = DefaultCrawlFrequency
	}
	if !s.CrawlFrequency.Valid() {
		return &ValidationError{Field: "crawl_frequency", Message: fmt.Sprintf("unknown crawl frequency %q", s.CrawlFrequency)}
	}
	if s.CrawlSettings == nil {
		s.CrawlSettings = CrawlSettings{}
	}
	return nil
}

// CrawlSettings is the open key/value bag attached to a source (e.g. api_key).
// Values are arbitrary JSON; String reads them as text.
type CrawlSettings map[string]any

// ErrInvalidCrawlSettings is returned when a crawl_settings column holds an unexpected type.
var ErrInvalidCrawlSettings = errors.New("crawl settings: unsupported column type")

// String returns the value stored under key as text. Numbers and booleans are
// formatted; absent keys, nulls, arrays and objects yield "".
func (c CrawlSettings) String(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Value implements driver.Valuer for JSONB storage.
func (c CrawlSettings) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(c))
}

// Scan implements sql.Scanner for JSONB retrieval.
func (c *CrawlSettings) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*c = CrawlSettings{}
		return nil
	case []byte:
		return c.decode(v)
	case string:
		return c.decode([]byte(v))
	default:
		return ErrInvalidCrawlSettings
	}
}

func (c *CrawlSettings) decode(data []byte) error {
	decoded := CrawlSettings{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("crawl settings: %w", err)
	}
	if decoded == nil {
		decoded = CrawlSettings{}
	}
	*c = decoded
	return nil
}
