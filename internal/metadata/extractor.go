// Package metadata suggests discovery source fields from a URL so operators can
// prefill the registration form.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/discovery"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

// Fetcher retrieves a page body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

// Suggestion holds prefilled values for a new discovery source.
type Suggestion struct {
	Name       string            `json:"name"`
	SourceURL  string            `json:"source_url"`
	SourceType models.SourceType `json:"source_type"`
	// ContactsFound is how many candidates a website run would stage from this page right now.
	ContactsFound int `json:"contacts_found"`
}

// Extractor handles metadata extraction from URLs
type Extractor struct {
	fetcher Fetcher
	logger  infralogger.Logger
}

// NewExtractor creates a new metadata extractor
func NewExtractor(fetcher Fetcher, log infralogger.Logger) *Extractor {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Extractor{fetcher: fetcher, logger: log}
}

// Extract fetches sourceURL and suggests a name and source type for it.
// Fetch failures are returned unchanged so callers can match discovery.ErrTransport.
func (e *Extractor) Extract(ctx context.Context, sourceURL string) (*Suggestion, error) {
	e.logger.Debug("Extracting metadata from URL",
		infralogger.String("url", sourceURL),
	)

	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	body, err := e.fetcher.Fetch(ctx, sourceURL, nil)
	if err != nil {
		return nil, err
	}

	suggestion := &Suggestion{SourceURL: sourceURL}

	if json.Valid(bytes.TrimSpace(body)) {
		suggestion.SourceType = models.SourceTypeAPI
		suggestion.Name = parsedURL.Hostname()
		if candidates, parseErr := discovery.ParseAPIResponse(body); parseErr == nil {
			suggestion.ContactsFound = len(candidates)
		}
		return suggestion, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse HTML: %w", discovery.ErrUnparseableResponse, err)
	}

	suggestion.SourceType = models.SourceTypeWebsite
	suggestion.Name = extractName(doc, parsedURL)
	suggestion.ContactsFound = len(discovery.ParseWebsite(sourceURL, body))

	e.logger.Debug("Metadata extraction complete",
		infralogger.String("url", sourceURL),
		infralogger.String("name", suggestion.Name),
		infralogger.Int("contacts_found", suggestion.ContactsFound),
	)

	return suggestion, nil
}

// extractName picks og:site_name, then og:title, then <title>, then the host.
func extractName(doc *goquery.Document, parsedURL *url.URL) string {
	if ogSite, exists := doc.Find("meta[property='og:site_name']").Attr("content"); exists && strings.TrimSpace(ogSite) != "" {
		return strings.TrimSpace(ogSite)
	}

	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && strings.TrimSpace(ogTitle) != "" {
		return strings.TrimSpace(ogTitle)
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}

	return strings.TrimPrefix(parsedURL.Hostname(), "www.")
}
