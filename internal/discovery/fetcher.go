package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	infraerrors "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/errors"
	infrahttp "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/http"
)

const (
	// DefaultUserAgent identifies discovery crawls to the sites being fetched.
	DefaultUserAgent = "Mozilla/5.0 (compatible; North-Cloud-LeadDiscovery/1.0)"
	// DefaultFetchTimeout bounds a single fetch.
	DefaultFetchTimeout = 30 * time.Second
	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes int64 = 5 << 20
)

// Doer is the subset of *http.Client used by the fetcher.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchConfig configures outbound discovery requests.
type FetchConfig struct {
	Timeout            time.Duration
	UserAgent          string
	InsecureSkipVerify bool
	MaxBodyBytes       int64
}

// Fetcher performs bounded GET requests on behalf of the extractors.
type Fetcher struct {
	client       Doer
	userAgent    string
	maxBodyBytes int64
}

// NewFetcher builds a fetcher backed by a fresh HTTP client. Certificate verification
// is skipped when cfg.InsecureSkipVerify is set so self-signed sites can be crawled.
func NewFetcher(cfg FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := infrahttp.NewClient(&infrahttp.ClientConfig{
		Timeout:            timeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	return NewFetcherWithClient(client, cfg)
}

// NewFetcherWithClient builds a fetcher around an existing client.
func NewFetcherWithClient(client Doer, cfg FetchConfig) *Fetcher {
	f := &Fetcher{
		client:       client,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.maxBodyBytes <= 0 {
		f.maxBodyBytes = DefaultMaxBodyBytes
	}
	return f
}

// Fetch GETs rawURL with the given extra headers and returns the (bounded) body.
// Every failure is returned as a *TransportError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	if err := validateURLScheme(rawURL); err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return nil, &TransportError{URL: rawURL, Err: httpErr}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func validateURLScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("invalid URL: missing host")
	}
	return nil
}
