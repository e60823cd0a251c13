package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/resume-scanner/internal/fetch"
	"github.com/jonathan/resume-scanner/internal/types"
)

var (
	// ErrHTTPRequestFailed is returned when the posting could not be downloaded
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no description text was found
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// URLOptions configures IngestURL.
type URLOptions struct {
	Details Details
	// UseBrowser re-renders pages whose HTTP text is too short in a headless browser.
	UseBrowser bool
	Fetch      *fetch.Options
	Render     fetch.RenderOptions
	Logger     *slog.Logger
}

// IngestURL downloads a posting and builds a job target from it. The posting
// URL is recorded on the target; a missing title is taken from the page.
func IngestURL(ctx context.Context, urlStr string, opts URLOptions) (*types.JobTarget, *Metadata, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	platform := fetch.DetectPlatform(urlStr)
	logger.Debug("ingesting posting", "url", urlStr, "platform", platform)

	result, err := fetch.NewClient(opts.Fetch).Get(ctx, urlStr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	html := result.HTML

	content := fetch.PlatformContentSelectors(platform)
	noise := fetch.PlatformNoiseSelectors(platform)
	paragraphs, err := fetch.ExtractParagraphs(html, content, noise...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	rendered := false
	if opts.UseBrowser && fetch.ShouldUseBrowser(strings.Join(paragraphs, "\n")) {
		logger.Debug("posting text too short, rendering in browser", "chars", len(strings.Join(paragraphs, "\n")))
		renderOpts := opts.Render
		if renderOpts.Logger == nil {
			renderOpts.Logger = logger
		}
		browserHTML, renderErr := fetch.Render(ctx, urlStr, renderOpts)
		if renderErr != nil {
			logger.Warn("browser rendering failed, keeping HTTP content", "error", renderErr)
		} else if browserParagraphs, err := fetch.ExtractParagraphs(browserHTML, content, noise...); err == nil && len(browserParagraphs) > 0 {
			html, paragraphs, rendered = browserHTML, browserParagraphs, true
		}
	}
	if len(paragraphs) == 0 {
		return nil, nil, fmt.Errorf("%w: no description text in %s", ErrContentExtractionFailed, urlStr)
	}

	details := opts.Details
	details.URL = urlStr
	if strings.TrimSpace(details.Title) == "" {
		details.Title = fetch.ExtractTitle(html)
	}

	text := strings.Join(paragraphs, "\n\n")
	job, err := FromText(text, details)
	if err != nil {
		return nil, nil, err
	}

	metadata := NewMetadata(text, urlStr)
	metadata.Platform = string(platform)
	metadata.Rendered = rendered
	logger.Info("posting ingested", "title", job.Title, "paragraphs", len(job.DescriptionDetails))
	return job, metadata, nil
}
