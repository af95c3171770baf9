package loader

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	strip "github.com/grokify/html-strip-tags-go"
	"github.com/weppos/publicsuffix-go/publicsuffix"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/plazareviews/revscope/pkg/review"
)

// CleanText strips HTML markup left in scraped review text, collapses
// whitespace and normalizes to Unicode NFC.
func CleanText(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsAny(s, "<&") {
		s = stripHTML(s)
	}
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// CleanField is CleanText for single-line fields such as author names and
// titles, where markup never separates words.
func CleanField(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(strip.StripTags(s))
	}
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func stripHTML(s string) string {
	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc := goquery.NewDocumentFromNode(node)
	// Line breaks and paragraphs separate words.
	doc.Find("br, p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})
	return doc.Text()
}

// PlatformFromURL infers the review platform from the registrable domain of a
// review URL, e.g. https://www.tripadvisor.co.uk/... is tripadvisor.
func PlatformFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return review.PlatformUnknown
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return review.PlatformUnknown
	}

	dn, err := publicsuffix.Parse(strings.ToLower(u.Hostname()))
	if err != nil || dn.SLD == "" {
		return review.PlatformUnknown
	}
	return review.NormalizePlatform(dn.SLD)
}
