package overlay

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
)

const (
	HeaderID = "condense-summary-header"
	TextID   = "condense-summary-text"

	headerStyle = "background: #4a0e63; color: white; padding: 12px; " +
		"font-family: Arial, sans-serif; box-shadow: 0 2px 10px rgba(0,0,0,0.3); " +
		"border-bottom: 1px solid #ddd; position: sticky; top: 0; left: 0; " +
		"width: 100%; z-index: 2147483647;"
	textStyle = "margin: 0 auto; max-width: 900px; padding: 0 20px; " +
		"font-size: 15px; line-height: 1.5; text-align: center;"

	bannerHTML = `<div id="` + HeaderID + `" style="` + headerStyle + `">` +
		`<p id="` + TextID + `" style="` + textStyle + `"></p></div>`
)

// Banner is the summary banner injected at the top of a page document. It is
// created on the first Show and only its text changes afterwards.
type Banner struct {
	doc *goquery.Document
}

func NewBanner(doc *goquery.Document) *Banner {
	return &Banner{doc: doc}
}

func (b *Banner) Show(_ context.Context, text string) error {
	if err := b.ensure(); err != nil {
		return err
	}

	b.doc.Find("#" + TextID).SetText(text)

	return nil
}

// Text returns what the banner currently shows, or "" when it does not exist.
func (b *Banner) Text() string {
	return b.doc.Find("#" + TextID).Text()
}

func (b *Banner) ensure() error {
	if b.doc.Find("#"+HeaderID).Length() > 0 {
		return nil
	}

	body := b.doc.Find("body").First()
	if body.Length() == 0 {
		return errors.New("document has no body")
	}

	body.PrependHtml(bannerHTML)

	return nil
}
