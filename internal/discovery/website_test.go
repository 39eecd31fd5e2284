package discovery_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/discovery"
	infraerrors "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/errors"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

const twoEmailPage = `<html><body>
<h1>Jane <em>Doe</em></h1>
<p>Reach Jane at jane@example.test or the front desk at info@example.test.</p>
<p>Jane again: jane@example.test</p>
</body></html>`

func TestParseWebsite_TwoEmailsOneHeading(t *testing.T) {
	t.Parallel()

	candidates := discovery.ParseWebsite("http://example.test", []byte(twoEmailPage))
	require.Len(t, candidates, 2)

	assert.Equal(t, "jane@example.test", candidates[0].Email)
	assert.Equal(t, "Jane Doe", candidates[0].Name)
	assert.Empty(t, candidates[0].Phone)

	assert.Equal(t, "info@example.test", candidates[1].Email)
	assert.Empty(t, candidates[1].Name)
	assert.Empty(t, candidates[1].Phone)

	for _, c := range candidates {
		assert.Equal(t, "example.test", c.Company)
		assert.Equal(t, "http://example.test", c.Website)
	}

	// Point table: valid email 50, company 15, website 5, plus name 20 for the first.
	assert.Equal(t, 90, discovery.Score(candidates[0]))
	assert.Equal(t, 70, discovery.Score(candidates[1]))
}

func TestParseWebsite_PositionalPairing(t *testing.T) {
	t.Parallel()

	// Headings and phones are paired by index, not by proximity. The page lists
	// Bob's details first but the first heading is Alice, so Bob's email gets her name.
	page := `<h2>Alice</h2><h2>Bob</h2><h3>Carol</h3>
		<p>bob@corp.test (705) 555-0101</p>
		<p>alice@corp.test +1 705.555.0202</p>`

	candidates := discovery.ParseWebsite("https://www.corp.test/team", []byte(page))
	require.Len(t, candidates, 2)

	assert.Equal(t, "bob@corp.test", candidates[0].Email)
	assert.Equal(t, "Alice", candidates[0].Name)
	assert.Equal(t, "(705) 555-0101", candidates[0].Phone)

	assert.Equal(t, "alice@corp.test", candidates[1].Email)
	assert.Equal(t, "Bob", candidates[1].Name)
	assert.Equal(t, "+1 705.555.0202", candidates[1].Phone)

	// Names are capped at the number of distinct emails; Carol is dropped.
	assert.Equal(t, "corp.test", candidates[0].Company)
}

func TestParseWebsite_NoEmails(t *testing.T) {
	t.Parallel()

	candidates := discovery.ParseWebsite("https://example.test", []byte(`<h1>Call us</h1><p>705-555-0101</p>`))
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestParseWebsite_EmailsAreCaseSensitive(t *testing.T) {
	t.Parallel()

	candidates := discovery.ParseWebsite("https://example.test", []byte(`Jane@Example.test jane@example.test`))
	assert.Len(t, candidates, 2)
}

func TestWebsiteExtractor_Extract(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		_, _ = w.Write([]byte(twoEmailPage))
	}))
	t.Cleanup(server.Close)

	fetcher := discovery.NewFetcher(discovery.FetchConfig{InsecureSkipVerify: true})
	extractor := discovery.NewWebsiteExtractor(fetcher)

	candidates, err := extractor.Extract(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	got := <-headers
	assert.Equal(t, discovery.DefaultUserAgent, got.Get("User-Agent"))
	assert.Contains(t, got.Get("Accept"), "text/html")
}

func TestWebsiteExtractor_TransportFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone fishing", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	extractor := discovery.NewWebsiteExtractor(discovery.NewFetcher(discovery.FetchConfig{}))

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()

		_, err := extractor.Extract(context.Background(), server.URL, nil)
		require.ErrorIs(t, err, discovery.ErrTransport)

		var httpErr *infraerrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		t.Parallel()

		_, err := extractor.Extract(context.Background(), "ftp://example.test", nil)
		require.ErrorIs(t, err, discovery.ErrTransport)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := extractor.Extract(ctx, server.URL, nil)
		require.ErrorIs(t, err, discovery.ErrTransport)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDirectoryExtractor_DelegatesToWebsite(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(twoEmailPage))
	}))
	t.Cleanup(server.Close)

	extractors := discovery.DefaultExtractors(discovery.NewFetcher(discovery.FetchConfig{}))
	candidates, err := extractors[models.SourceTypeDirectory].Extract(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestSocialMediaExtractor_IsEmpty(t *testing.T) {
	t.Parallel()

	candidates, err := discovery.SocialMediaExtractor{}.Extract(context.Background(), "https://social.test/acme", nil)
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestFetcher_BoundsBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	t.Cleanup(server.Close)

	fetcher := discovery.NewFetcher(discovery.FetchConfig{MaxBodyBytes: 4})
	body, err := fetcher.Fetch(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(body))
}
