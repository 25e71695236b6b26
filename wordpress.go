package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PublishOptions carries per-post publish settings resolved by the runner.
type PublishOptions struct {
	Status          string
	CategoryID      int
	FeaturedMediaID int
}

// PostPublisher is the capability the runner needs from WordPress. Tests
// substitute a fake recording calls.
type PostPublisher interface {
	Publish(ctx context.Context, post *GeneratedPost, opts PublishOptions) (*PublishResult, error)
	ResolveCategory(ctx context.Context, name string) (int, error)
	UploadMedia(ctx context.Context, filename string, data []byte) (int, error)
}

// WordPressClient talks to the WordPress REST API using Basic auth with an
// application password. Transient 5xx/transport failures are retried with
// exponential backoff; 4xx responses are surfaced immediately.
type WordPressClient struct {
	httpClient     *http.Client
	apiURL         string
	username       string
	appPassword    string
	maxRetries     uint64
	initialBackoff time.Duration
	logger         *slog.Logger
}

func NewWordPressClient(cfg WordPressConfig, logger *slog.Logger) *WordPressClient {
	return &WordPressClient{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		apiURL:         strings.TrimRight(cfg.SiteURL, "/") + "/wp-json/wp/v2",
		username:       cfg.Username,
		appPassword:    cfg.AppPassword,
		maxRetries:     2,
		initialBackoff: 500 * time.Millisecond,
		logger:         logger.With("component", "wordpress"),
	}
}

type postPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	Slug          string `json:"slug"`
	Excerpt       string `json:"excerpt,omitempty"`
	CommentStatus string `json:"comment_status"`
	Categories    []int  `json:"categories,omitempty"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
}

// Publish creates a post. Not idempotent: a retry after a false-negative
// timeout may create a duplicate.
func (c *WordPressClient) Publish(ctx context.Context, post *GeneratedPost, opts PublishOptions) (*PublishResult, error) {
	payload := postPayload{
		Title:         post.Title,
		Content:       post.Body,
		Status:        opts.Status,
		Slug:          generateSlug(post.Title),
		Excerpt:       post.MetaDescription,
		CommentStatus: "open",
		FeaturedMedia: opts.FeaturedMediaID,
	}
	if opts.CategoryID > 0 {
		payload.Categories = []int{opts.CategoryID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &PublishError{Kind: PublishErrValidation, Err: err}
	}

	c.logger.Info("→ publishing", "title", post.Title, "status", opts.Status)

	var result PublishResult
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/posts", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(&PublishError{Kind: PublishErrValidation, Err: err})
		}
		req.SetBasicAuth(c.username, c.appPassword)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("publish request failed, may retry", "attempt", attempt, "error", err)
			return &PublishError{Kind: PublishErrTransport, Err: err}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return backoff.Permanent(&PublishError{Kind: PublishErrValidation, StatusCode: resp.StatusCode,
					Err: fmt.Errorf("decoding response: %w", err)})
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(&PublishError{Kind: PublishErrAuth, StatusCode: resp.StatusCode,
				Err: errors.New("authentication failed, check username and application password")})
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(&PublishError{Kind: PublishErrValidation, StatusCode: resp.StatusCode,
				Err: errors.New(responseSnippet(resp.Body))})
		default:
			c.logger.Warn("publish got server error, may retry", "attempt", attempt, "status", resp.StatusCode)
			return &PublishError{Kind: PublishErrTransport, StatusCode: resp.StatusCode,
				Err: errors.New("server error")}
		}
	}

	if err := backoff.Retry(op, c.newBackoff(ctx)); err != nil {
		var pubErr *PublishError
		if errors.As(err, &pubErr) {
			return nil, pubErr
		}
		return nil, &PublishError{Kind: PublishErrTransport, Err: err}
	}

	c.logger.Info("✓ published", "id", result.ID, "link", result.Link)
	return &result, nil
}

type categoryPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ResolveCategory returns the ID of the named category, creating it when it
// does not exist.
func (c *WordPressClient) ResolveCategory(ctx context.Context, name string) (int, error) {
	endpoint := c.apiURL + "/categories?search=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("creating category request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("searching category %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	var categories []categoryPayload
	if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
		return 0, fmt.Errorf("decoding categories: %w", err)
	}

	for _, cat := range categories {
		if strings.EqualFold(cat.Name, name) {
			c.logger.Debug("category found", "name", name, "id", cat.ID)
			return cat.ID, nil
		}
	}

	return c.createCategory(ctx, name)
}

func (c *WordPressClient) createCategory(ctx context.Context, name string) (int, error) {
	body, _ := json.Marshal(map[string]string{"name": name})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/categories", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating category request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("creating category %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return 0, &HTTPError{StatusCode: resp.StatusCode, URL: c.apiURL + "/categories"}
	}

	var created categoryPayload
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("decoding created category: %w", err)
	}

	c.logger.Info("category created", "name", name, "id", created.ID)
	return created.ID, nil
}

// UploadMedia uploads a file to the WordPress media library and returns the
// media ID, for use as a post's featured image.
func (c *WordPressClient) UploadMedia(ctx context.Context, filename string, data []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/media", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("creating media request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filename)))

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("uploading media %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return 0, &HTTPError{StatusCode: resp.StatusCode, URL: c.apiURL + "/media"}
	}

	var media struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, fmt.Errorf("decoding media response: %w", err)
	}

	c.logger.Info("media uploaded", "filename", filename, "id", media.ID)
	return media.ID, nil
}

func (c *WordPressClient) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
}

// responseSnippet reads the beginning of an error response body for the error
// message.
func responseSnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "request rejected"
	}
	return strings.TrimSpace(string(data))
}
