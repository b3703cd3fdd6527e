// Package catalog reads recipes from the JSON catalog file and from the
// tab-separated export of the recipe sheet.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/service"
)

// maxSheetSize caps the size of a downloaded export. Larger bodies are
// rejected rather than truncated.
const maxSheetSize = 10 << 20

// Fetcher downloads sheet exports.
type Fetcher struct {
	client *http.Client
	retry  service.RetryOptions
}

// NewFetcher creates a Fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, retry service.RetryOptions) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, retry: retry}
}

// Fetch downloads url, retrying server errors and rate limits.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := common.WithRetry(ctx, func() error {
		data, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	}, f.retry, common.Fields{"url": url})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrFetchFailed, url, err)
	}

	slog.Debug("Fetched sheet", "url", url, "bytes", len(body))
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &common.RetryableError{Err: err, Retryable: false}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &common.RateLimitError{
			RetryAfter: common.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("server returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, &common.RetryableError{Err: fmt.Errorf("server returned %s", resp.Status), Retryable: false}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSheetSize {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: export larger than %d bytes", common.ErrInvalidFormat, maxSheetSize),
			Retryable: false,
		}
	}
	return data, nil
}
