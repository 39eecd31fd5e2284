package discovery

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// North-American numbers: optional +1, optional parenthesized area code,
	// space, dot or hyphen separators.
	phonePattern = regexp.MustCompile(`(?:\+1[\-.\s]?)?\(?[0-9]{3}\)?[\-.\s]?[0-9]{3}[\-.\s]?[0-9]{4}`)
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// WebsiteExtractor scrapes contact details out of an HTML page.
//
// Emails, phones and headings are matched independently and then paired by
// position: the Nth email gets the Nth heading as its name and the Nth phone.
// Nothing ties a heading to the email next to it, so pairs can be wrong.
// Reviewers see every staged lead before it is imported.
type WebsiteExtractor struct {
	fetcher *Fetcher
}

// NewWebsiteExtractor creates a website extractor.
func NewWebsiteExtractor(fetcher *Fetcher) *WebsiteExtractor {
	return &WebsiteExtractor{fetcher: fetcher}
}

// Extract fetches sourceURL and returns one candidate per distinct email found.
func (e *WebsiteExtractor) Extract(ctx context.Context, sourceURL string, _ models.CrawlSettings) ([]models.Candidate, error) {
	body, err := e.fetcher.Fetch(ctx, sourceURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, err
	}
	return ParseWebsite(sourceURL, body), nil
}

// ParseWebsite applies the website heuristics to an already fetched body.
func ParseWebsite(sourceURL string, body []byte) []models.Candidate {
	content := string(body)

	emails := uniqueInOrder(emailPattern.FindAllString(content, -1))
	if len(emails) == 0 {
		return []models.Candidate{}
	}
	phones := phonePattern.FindAllString(content, -1)
	names := headings(body)
	if len(names) > len(emails) {
		names = names[:len(emails)]
	}

	company := companyFromURL(sourceURL)
	candidates := make([]models.Candidate, 0, len(emails))
	for i, email := range emails {
		candidates = append(candidates, models.Candidate{
			Email:   email,
			Name:    at(names, i),
			Phone:   at(phones, i),
			Company: company,
			Website: sourceURL,
		})
	}
	return candidates
}

// headings returns the text of every h1..h6 in document order with nested markup removed.
func headings(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.Join(strings.Fields(s.Text()), " "))
	})
	return out
}

func companyFromURL(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func uniqueInOrder(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// DirectoryExtractor handles business directory listings. It currently shares the
// website heuristics; directory-specific parsing would be added here.
type DirectoryExtractor struct {
	website *WebsiteExtractor
}

// NewDirectoryExtractor creates a directory extractor delegating to website.
func NewDirectoryExtractor(website *WebsiteExtractor) *DirectoryExtractor {
	return &DirectoryExtractor{website: website}
}

func (e *DirectoryExtractor) Extract(ctx context.Context, sourceURL string, settings models.CrawlSettings) ([]models.Candidate, error) {
	return e.website.Extract(ctx, sourceURL, settings)
}

// SocialMediaExtractor is a placeholder: no social network integration exists yet,
// so it always succeeds with no candidates.
type SocialMediaExtractor struct{}

func (SocialMediaExtractor) Extract(context.Context, string, models.CrawlSettings) ([]models.Candidate, error) {
	return []models.Candidate{}, nil
}
