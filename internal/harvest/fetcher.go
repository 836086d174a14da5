// internal/harvest/fetcher.go
package harvest

import (
	"context"
	"fmt"
	"time"

	commonhttp "phone-finder-workers/internal/common/http"

	"github.com/go-resty/resty/v2"
)

// Fetcher downloads sitemap and product pages.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages with a fixed User-Agent and no retries.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: commonhttp.NewClient(commonhttp.Options{
			Timeout:   timeout,
			UserAgent: userAgent,
		}),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}
