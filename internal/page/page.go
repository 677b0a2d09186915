package page

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	clientTimeout   = 30 * time.Second
	maxBodySize     = 10 << 20
	maxBodySizeDesc = "10 MiB"
)

// Page is a loaded HTML document. Doc is mutated in place by the banner.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewFetcher returns a fetcher using client, or a default client with a
// timeout when client is nil.
func NewFetcher(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: clientTimeout}
	}

	return &Fetcher{client: client, log: log}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse URL: unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", rawURL,
				"operation", "Fetch")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodySize)

	p, err := Parse(body, resp.Request.URL)
	if err != nil {
		return nil, err
	}

	f.log.DebugContext(ctx, "Page is fetched",
		"url", p.URL.String(),
		"maxBodySize", maxBodySizeDesc)

	return p, nil
}

// Parse builds a page from raw HTML. u may be nil for local documents.
func Parse(r io.Reader, u *url.URL) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	if u == nil {
		u = &url.URL{}
	}
	doc.Url = u

	return &Page{URL: u, Doc: doc}, nil
}

// HTML renders the current state of the document, banner included.
func (p *Page) HTML() (string, error) {
	return p.Doc.Html()
}
