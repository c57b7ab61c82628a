// Package fetch provides web page fetching and content extraction.
// It downloads a URL and reduces it to its title and visible text, or
// to Markdown, capped at a fixed number of characters.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/nugget/agentic/internal/httpkit"
)

// DefaultTimeout is the HTTP request timeout for fetching pages.
const DefaultTimeout = 15 * time.Second

// DefaultMaxBytes is the maximum response body size (5 MB).
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// DefaultMaxChars caps the extracted text, in characters.
const DefaultMaxChars = 20000

// Format selects what Fetch extracts.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Result holds the fetched and extracted content from a URL.
type Result struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Config tunes a Fetcher. Zero values select the defaults.
type Config struct {
	Timeout  time.Duration
	MaxChars int
	MaxBytes int64
}

// Fetcher downloads and extracts readable content from web pages.
type Fetcher struct {
	client   *http.Client
	maxChars int
	maxBytes int64
	logger   *slog.Logger
}

// New creates a Fetcher.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: httpkit.NewClient(
			httpkit.WithTimeout(cfg.Timeout),
			httpkit.WithRetry(1, time.Second),
			httpkit.WithLogger(logger),
		),
		maxChars: cfg.MaxChars,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// Fetch downloads rawURL and extracts its content. Redirects are
// followed. Any non-2xx final status is an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, format Format) (*Result, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch_url: invalid url: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/markdown;q=0.9,text/plain;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch_url: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch_url: %s: HTTP %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch_url: failed to read response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)

	f.logger.Debug("fetched page",
		"url", target,
		"status", resp.StatusCode,
		"content_type", mediaType,
		"bytes", len(body),
	)

	result := &Result{URL: target}
	switch {
	case isHTML(mediaType):
		result.Title, result.Text, err = extractHTML(decode(body, contentType), format, resp.Request.URL)
	case mediaType == "text/markdown" || mediaType == "text/x-markdown":
		result.Title, result.Text, err = extractMarkdown(decode(body, contentType), format, resp.Request.URL)
	case strings.HasPrefix(mediaType, "text/") || isTextual(mediaType) || utf8.Valid(body):
		result.Text = normalizeSpace(string(decode(body, contentType)))
	default:
		result.Text = fmt.Sprintf("Binary content (%s), %d bytes", mediaType, len(body))
	}
	if err != nil {
		return nil, fmt.Errorf("fetch_url: extract %s: %w", target, err)
	}

	result.Text = truncateRunes(result.Text, f.maxChars)
	return result, nil
}

// normalizeURL adds a missing scheme and rejects anything but http(s).
func normalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("fetch_url: url is required")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("fetch_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("fetch_url: url has no host")
	}
	return u.String(), nil
}

// decode converts body to UTF-8 using the declared or sniffed charset.
func decode(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}

func isHTML(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func isTextual(mediaType string) bool {
	return mediaType == "application/json" ||
		mediaType == "application/xml" ||
		strings.HasSuffix(mediaType, "+json") ||
		strings.HasSuffix(mediaType, "+xml")
}

// truncateRunes cuts s to at most n characters without splitting a
// multi-byte character.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
