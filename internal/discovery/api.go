package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

// SettingAPIKey is the crawl setting holding a bearer token for API sources.
const SettingAPIKey = "api_key"

// resultKeys are tried in order to locate the result array of an API response.
var resultKeys = []string{"results", "data", "items"}

// Field fallbacks: the first non-empty key wins.
var (
	nameKeys     = []string{"name", "full_name"}
	phoneKeys    = []string{"phone", "phone_number"}
	companyKeys  = []string{"company", "company_name"}
	websiteKeys  = []string{"website", "url"}
	locationKeys = []string{"location", "address"}
	titleKeys    = []string{"title", "job_title"}
)

// APIExtractor reads candidates from a JSON API.
type APIExtractor struct {
	fetcher *Fetcher
}

// NewAPIExtractor creates an API extractor.
func NewAPIExtractor(fetcher *Fetcher) *APIExtractor {
	return &APIExtractor{fetcher: fetcher}
}

// Extract GETs sourceURL, authenticating with settings[api_key] when present.
func (e *APIExtractor) Extract(ctx context.Context, sourceURL string, settings models.CrawlSettings) ([]models.Candidate, error) {
	headers := map[string]string{"Accept": "application/json"}
	if key := settings.String(SettingAPIKey); key != "" {
		headers["Authorization"] = "Bearer " + key
	}

	body, err := e.fetcher.Fetch(ctx, sourceURL, headers)
	if err != nil {
		return nil, err
	}
	return ParseAPIResponse(body)
}

// ParseAPIResponse maps a JSON API body to candidates. Items without an email are dropped.
// A well-formed body that is not an object yields no candidates.
func ParseAPIResponse(body []byte) ([]models.Candidate, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableResponse, err)
	}

	obj, _ := doc.(map[string]any)
	items := resultArray(obj)
	candidates := make([]models.Candidate, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		email := firstString(item, "email")
		if email == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{
			Email:    email,
			Name:     firstString(item, nameKeys...),
			Phone:    firstString(item, phoneKeys...),
			Company:  firstString(item, companyKeys...),
			Website:  firstString(item, websiteKeys...),
			Location: firstString(item, locationKeys...),
			Title:    firstString(item, titleKeys...),
		})
	}
	return candidates, nil
}

// resultArray returns the first present, non-null result key. A value that is not
// an array yields no items.
func resultArray(doc map[string]any) []any {
	for _, key := range resultKeys {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		arr, _ := v.([]any)
		return arr
	}
	return nil
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := scalarString(item[key]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
