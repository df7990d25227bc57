package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"market-map/internal/logger"

	"github.com/cenkalti/backoff/v4"
)

const (
	fetchInterval = 200 * time.Millisecond
	fetchRetries  = 3
	maxSourceSize = 64 << 20
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Open returns the raw bytes of a source: a local path, or an http(s) URL fetched with a
// constant-interval retry. 4xx responses are not retried.
func Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	if loc == "" {
		return nil, fmt.Errorf("empty source location")
	}
	if !isURL(loc) {
		f, err := os.Open(loc)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(fetchInterval), fetchRetries), ctx)
	attempt := 0
	body, err := backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			logger.L().Warn("source_fetch_retry", "src", loc, "attempt", attempt, "err", err)
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(fmt.Errorf("fetch %s: status %d", loc, resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			logger.L().Warn("source_fetch_retry", "src", loc, "attempt", attempt, "status", resp.StatusCode)
			return nil, fmt.Errorf("fetch %s: status %d", loc, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
	}, b)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
