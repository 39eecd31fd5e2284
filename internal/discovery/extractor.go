package discovery

import (
	"context"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

// Extractor fetches a source and returns the candidate leads found in it.
type Extractor interface {
	Extract(ctx context.Context, sourceURL string, settings models.CrawlSettings) ([]models.Candidate, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, sourceURL string, settings models.CrawlSettings) ([]models.Candidate, error)

func (f ExtractorFunc) Extract(ctx context.Context, sourceURL string, settings models.CrawlSettings) ([]models.Candidate, error) {
	return f(ctx, sourceURL, settings)
}

// Extractors maps each source type to its strategy.
type Extractors map[models.SourceType]Extractor

// DefaultExtractors wires the built-in strategies around a shared fetcher.
func DefaultExtractors(fetcher *Fetcher) Extractors {
	website := NewWebsiteExtractor(fetcher)
	return Extractors{
		models.SourceTypeWebsite:     website,
		models.SourceTypeDirectory:   NewDirectoryExtractor(website),
		models.SourceTypeSocialMedia: SocialMediaExtractor{},
		models.SourceTypeAPI:         NewAPIExtractor(fetcher),
	}
}
