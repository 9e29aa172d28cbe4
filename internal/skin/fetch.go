package skin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Fetch errors.
var (
	ErrBadStatus   = errors.New("unexpected HTTP status")
	ErrTooLarge    = errors.New("skin image too large")
	ErrAbsoluteURL = errors.New("skin name is a URL")
)

// Fetcher downloads the image for a skin name.
type Fetcher interface {
	Fetch(ctx context.Context, skin string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, skin string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, skin string) ([]byte, error) {
	return f(ctx, skin)
}

// HTTPFetcher downloads skins over HTTP. Skin names are substituted into
// URLTemplate. Names that are already URLs are fetched as is when AllowURLs
// is set and rejected with ErrAbsoluteURL otherwise.
type HTTPFetcher struct {
	URLTemplate string
	Client      *http.Client
	MaxBytes    int64
	AllowURLs   bool
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(urlTemplate string, timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		URLTemplate: urlTemplate,
		Client:      &http.Client{Timeout: timeout},
		MaxBytes:    maxBytes,
	}
}

// IsURL reports whether skin names an absolute http(s) location.
func IsURL(skin string) bool {
	lower := strings.ToLower(skin)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// URL returns the download location of skin.
func (f *HTTPFetcher) URL(skin string) (string, error) {
	if IsURL(skin) {
		if !f.AllowURLs {
			return "", errors.Wrap(ErrAbsoluteURL, skin)
		}
		return skin, nil
	}
	return fmt.Sprintf(f.URLTemplate, url.PathEscape(skin)), nil
}

// Fetch downloads the skin image.
func (f *HTTPFetcher) Fetch(ctx context.Context, skin string) ([]byte, error) {
	u, err := f.URL(skin)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", u)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrBadStatus, "%s: %s", u, resp.Status)
	}

	body := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", u)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "%s exceeds %d bytes", u, f.MaxBytes)
	}
	return data, nil
}
