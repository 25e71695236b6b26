package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Planner input is capped so a large reference page cannot blow up the
// prompt (4 chars ≈ 1 token).
const maxContextChars = 8000

// ContextFetcher downloads a keyword's context URL and converts the page to
// markdown for use as planner input.
type ContextFetcher struct {
	client    *http.Client
	converter *md.Converter
	logger    *slog.Logger
}

func NewContextFetcher(timeout time.Duration, logger *slog.Logger) *ContextFetcher {
	return &ContextFetcher{
		client:    &http.Client{Timeout: timeout},
		converter: md.NewConverter("", true, nil),
		logger:    logger.With("component", "fetcher"),
	}
}

// IsContextURL reports whether a task's context annotation is a fetchable URL.
func IsContextURL(context string) bool {
	return strings.HasPrefix(context, "http://") || strings.HasPrefix(context, "https://")
}

// Fetch downloads url and returns its content as markdown, capped at
// maxContextChars.
func (f *ContextFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	markdown, err := f.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}

	if len(markdown) > maxContextChars {
		markdown = markdown[:maxContextChars] + "..."
	}

	f.logger.Debug("fetched context page", "url", url, "chars", len(markdown))
	return markdown, nil
}
