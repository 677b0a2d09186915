package page

import (
	"fmt"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ReadabilityExtractor uses the Readability algorithm to isolate the article
// body. It works on a rendered copy so the page document stays untouched.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Extract(p *Page) (string, error) {
	raw, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(raw), p.URL)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}

	return truncate(strings.TrimSpace(article.TextContent), CharBudget), nil
}

// NewExtractor maps a configured extractor name to its implementation.
func NewExtractor(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "visible":
		return VisibleTextExtractor{}, nil
	case "readability":
		return ReadabilityExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
