// Package fetch retrieves job-posting pages and turns their HTML into text.
// Ingestion uses it to build job targets from posting URLs.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeScanner/1.0)"

// Result holds the raw content of a fetched page.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Retries is the number of extra attempts after a transport failure.
	// Non-2xx responses are not retried.
	Retries   int
	RetryWait time.Duration
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Retries:   2,
		RetryWait: 500 * time.Millisecond,
	}
}

// Client fetches pages over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient builds a client from opts; nil means DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeaders(opts.Headers).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryWait)
	return &Client{http: client}
}

// Get retrieves the page at urlStr. A non-200 response returns both the
// result and an error.
func (c *Client) Get(ctx context.Context, urlStr string) (*Result, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	resp, err := c.http.R().SetContext(ctx).Get(urlStr)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(resp.Body()),
		ContentType: resp.Header().Get("Content-Type"),
		StatusCode:  resp.StatusCode(),
	}
	if resp.StatusCode() != http.StatusOK {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode()),
		}
	}
	return result, nil
}

// URL retrieves a page with a one-off client.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return NewClient(opts).Get(ctx, urlStr)
}

// blockSelector lists the elements whose text forms one paragraph.
const blockSelector = "h1, h2, h3, h4, h5, p, li"

// commonNoise is removed from every page before extraction.
const commonNoise = "nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// mainContent parses html, strips noise and returns the first selection that
// matches contentSelectors, falling back to the body.
func mainContent(html string, contentSelectors []string, noiseSelectors []string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(commonNoise).Remove()
	if noise := strings.Join(noiseSelectors, ", "); noise != "" {
		doc.Find(noise).Remove()
	}

	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			return selection.First(), nil
		}
	}
	return doc.Find("body"), nil
}

// ExtractMainText parses HTML and returns the main body text, one non-empty
// line per text line of the content.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	content, err := mainContent(html, contentSelectors, noiseSelectors)
	if err != nil {
		return "", err
	}
	return cleanWhitespace(content.Text()), nil
}

// ExtractParagraphs returns the text of every leaf block element (headings,
// paragraphs, list items) in the main content, in document order. Pages
// without block markup fall back to the text lines.
func ExtractParagraphs(html string, contentSelectors []string, noiseSelectors ...string) ([]string, error) {
	content, err := mainContent(html, contentSelectors, noiseSelectors)
	if err != nil {
		return nil, err
	}

	var paragraphs []string
	content.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if n := len(paragraphs); n > 0 && paragraphs[n-1] == text {
			return
		}
		paragraphs = append(paragraphs, text)
	})
	if len(paragraphs) > 0 {
		return paragraphs, nil
	}

	text := cleanWhitespace(content.Text())
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// ExtractTitle returns the page's best guess at a posting title: og:title,
// then the first h1, then the document title.
func ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if h1 := strings.Join(strings.Fields(doc.Find("h1").First().Text()), " "); h1 != "" {
		return h1
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

// DefaultTextSelectors returns standard selectors for general web content.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// JobPostingSelectors returns selectors optimized for job board pages.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// cleanWhitespace trims every line and drops the empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
