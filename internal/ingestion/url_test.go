package ingestion

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scanner/internal/fetch"
)

func testURLOptions(details Details) URLOptions {
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Retries = 0
	return URLOptions{
		Details: details,
		Fetch:   fetchOpts,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func servePosting(t *testing.T, status int, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestIngestURL(t *testing.T) {
	server := servePosting(t, http.StatusOK, `<!DOCTYPE html>
<html><head><title>Careers</title></head>
<body>
<nav>Nav</nav>
<main>
<h1>Platform Engineer</h1>
<p>You will run our   Kubernetes fleet.</p>
<ul><li>Go</li><li>Terraform</li></ul>
<form><p>Upload your CV</p></form>
</main>
<footer>Footer</footer>
</body></html>`)

	job, meta, err := IngestURL(context.Background(), server.URL, testURLOptions(Details{Company: "Acme"}))
	require.NoError(t, err)

	assert.Equal(t, server.URL, job.URL)
	assert.Equal(t, "Platform Engineer", job.Title, "title comes from the page")
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, []string{"Platform Engineer", "You will run our Kubernetes fleet.", "Go", "Terraform"}, job.DescriptionDetails)
	assert.Equal(t, server.URL, meta.Source)
	assert.Equal(t, string(fetch.PlatformUnknown), meta.Platform)
	assert.False(t, meta.Rendered)
}

func TestIngestURL_ExplicitTitleWins(t *testing.T) {
	server := servePosting(t, http.StatusOK, `<main><h1>Engineer II</h1><p>Ship code.</p></main>`)

	job, _, err := IngestURL(context.Background(), server.URL, testURLOptions(Details{Title: "Backend Engineer", Company: "Acme"}))
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)
}

func TestIngestURL_Failures(t *testing.T) {
	tests := []struct {
		name    string
		url     func(t *testing.T) string
		details Details
		wantErr error
	}{
		{
			name:    "invalid URL",
			url:     func(*testing.T) string { return "not-a-url" },
			details: Details{Title: "x", Company: "y"},
			wantErr: ErrHTTPRequestFailed,
		},
		{
			name: "HTTP error",
			url: func(t *testing.T) string {
				return servePosting(t, http.StatusNotFound, "gone").URL
			},
			details: Details{Title: "x", Company: "y"},
			wantErr: ErrHTTPRequestFailed,
		},
		{
			name: "empty page",
			url: func(t *testing.T) string {
				return servePosting(t, http.StatusOK, "<html><body><nav>only nav</nav></body></html>").URL
			},
			details: Details{Title: "x", Company: "y"},
			wantErr: ErrContentExtractionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := IngestURL(context.Background(), tt.url(t), testURLOptions(tt.details))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIngestURL_RequiresCompany(t *testing.T) {
	server := servePosting(t, http.StatusOK, `<main><h1>Engineer</h1><p>Ship code.</p></main>`)
	_, _, err := IngestURL(context.Background(), server.URL, testURLOptions(Details{}))
	assert.ErrorContains(t, err, "incomplete")
}
