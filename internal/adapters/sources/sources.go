// Package sources contains the scraping provider adapters. Each adapter maps
// its provider's JSON into model.RawPosting; salary, arrangement and skill
// parsing happen later in the normalizer.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

const (
	defaultHTTPTimeout = 15 * time.Second

	// maxResponseBytes bounds how much of a provider response body is read.
	maxResponseBytes = 8 << 20
)

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// getJSON performs a GET against a provider endpoint and decodes the JSON
// response into out, classifying transport and status failures.
func getJSON(ctx context.Context, client *http.Client, source model.JobSource, reqURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", source, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.SourceTimeout(string(source), err)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%s: http get: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.SourceTimeout(string(source), err)
		}
		return fmt.Errorf("%s: read body: %w", source, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		// Quota or auth rejection. Retrying within the run cannot help.
		return apperrors.SourceUnavailable(string(source),
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)))
	default:
		return fmt.Errorf("%s: status %d: %s", source, resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", source, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
