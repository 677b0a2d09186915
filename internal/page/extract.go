package page

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// CharBudget caps the text handed to a provider.
	CharBudget = 100_000

	minFragmentLength = 10
)

//nolint:gochecknoglobals // Read-only lookup tables.
var (
	containerSelectors = []string{"article", "main", "#content", "#main", ".post", ".story"}

	excludedTags = map[string]struct{}{
		"script":   {},
		"style":    {},
		"noscript": {},
		"header":   {},
		"footer":   {},
		"nav":      {},
	}

	nonRenderedTags = map[string]struct{}{
		"head":     {},
		"template": {},
		"title":    {},
		"meta":     {},
		"link":     {},
		"iframe":   {},
		"svg":      {},
	}
)

// Extractor turns a page into the text sent for summarization.
type Extractor interface {
	Extract(p *Page) (string, error)
}

// VisibleTextExtractor keeps the rendered text of the main content area.
type VisibleTextExtractor struct{}

func (VisibleTextExtractor) Extract(p *Page) (string, error) {
	return VisibleText(p.Doc), nil
}

// VisibleText walks the primary content container and joins the direct text
// of every rendered element, skipping fragments of 10 characters or fewer.
// The result never exceeds CharBudget characters.
func VisibleText(doc *goquery.Document) string {
	container := primaryContainer(doc)
	if container == nil || hiddenWithAncestors(container) {
		return ""
	}

	fragments := collectFragments(container, CharBudget)

	return truncate(strings.Join(fragments, "\n"), CharBudget)
}

// collectFragments gathers fragments in document order and stops visiting
// elements once budget characters have been collected.
func collectFragments(container *html.Node, budget int) []string {
	var fragments []string
	charCount := 0

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}

			if charCount >= budget {
				return false
			}

			if _, ok := excludedTags[c.Data]; ok || hidden(c) {
				continue
			}

			if text := ownText(c); utf8.RuneCountInString(text) > minFragmentLength {
				fragments = append(fragments, text)
				charCount += utf8.RuneCountInString(text)
			}

			if !walk(c) {
				return false
			}
		}

		return true
	}
	walk(container)

	return fragments
}

func primaryContainer(doc *goquery.Document) *html.Node {
	for _, selector := range containerSelectors {
		if s := doc.Find(selector).First(); s.Length() > 0 {
			return s.Get(0)
		}
	}

	if s := doc.Find("body").First(); s.Length() > 0 {
		return s.Get(0)
	}

	return nil
}

// ownText joins the element's direct text-node children, ignoring nested
// elements so that their text is not counted twice.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}

	return strings.TrimSpace(b.String())
}

func hiddenWithAncestors(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hidden(n) {
			return true
		}
	}

	return false
}

func hidden(n *html.Node) bool {
	if _, ok := nonRenderedTags[n.Data]; ok {
		return true
	}

	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(strings.TrimSpace(attr.Val), "true") {
				return true
			}
		case "style":
			if hiddenByStyle(attr.Val) {
				return true
			}
		}
	}

	return false
}

func hiddenByStyle(style string) bool {
	for decl := range strings.SplitSeq(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}

		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important")))

		switch {
		case prop == "display" && value == "none":
			return true
		case prop == "visibility" && (value == "hidden" || value == "collapse"):
			return true
		}
	}

	return false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)

	return string(runes[:limit])
}
