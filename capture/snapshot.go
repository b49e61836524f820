// Package capture builds analyzer.PageSnapshot values from HTML documents,
// either fetched over HTTP or rendered in a headless browser.
package capture

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/seo-optimizer/seo-inspector/analyzer"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// FromHTML parses an HTML document served at pageURL and captures a snapshot
func FromHTML(r io.Reader, pageURL string) (*analyzer.PageSnapshot, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromDocument(goquery.NewDocumentFromNode(root), pageURL), nil
}

// FromDocument captures a snapshot from an already parsed document.
// Relative URLs are resolved against pageURL, or against <base href> when
// the document declares one.
func FromDocument(doc *goquery.Document, pageURL string) *analyzer.PageSnapshot {
	page, _ := url.Parse(pageURL)
	r := newResolver(page, doc)

	snap := &analyzer.PageSnapshot{
		URL:        pageURL,
		Title:      collapseSpace(doc.Find("title").First().Text()),
		Meta:       []analyzer.MetaElement{},
		Headings:   []analyzer.HeadingElement{},
		Anchors:    []analyzer.AnchorElement{},
		Alternates: []analyzer.AlternateElement{},
		Images:     []analyzer.ImageElement{},
		JSONLD:     []string{},
	}
	if page != nil {
		snap.Hostname = strings.ToLower(page.Hostname())
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		snap.Meta = append(snap.Meta, analyzer.MetaElement{
			Name:     s.AttrOr("name", ""),
			Property: s.AttrOr("property", ""),
			Content:  s.AttrOr("content", ""),
		})
	})

	if canonical := withAttr(doc.Find("link"), "rel", "canonical").First(); canonical.Length() > 0 {
		snap.HasCanonical = true
		snap.CanonicalURL = r.attr(canonical, "href")
	}

	snap.Robots = robotsContent(doc)

	doc.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		snap.Headings = append(snap.Headings, analyzer.HeadingElement{
			Level: headingLevel(goquery.NodeName(s)),
			Text:  strings.TrimSpace(s.Text()),
		})
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		snap.Anchors = append(snap.Anchors, analyzer.AnchorElement{Href: r.attr(s, "href")})
	})

	withAttr(doc.Find("link[hreflang]"), "rel", "alternate").Each(func(_ int, s *goquery.Selection) {
		snap.Alternates = append(snap.Alternates, analyzer.AlternateElement{
			Lang: s.AttrOr("hreflang", ""),
			Href: r.attr(s, "href"),
		})
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		snap.Images = append(snap.Images, analyzer.ImageElement{
			Src: r.attr(s, "src"),
			Alt: s.AttrOr("alt", ""),
		})
	})

	withAttr(doc.Find("script"), "type", "application/ld+json").Each(func(_ int, s *goquery.Selection) {
		snap.JSONLD = append(snap.JSONLD, s.Text())
	})

	return snap
}

// withAttr keeps the elements whose attribute equals value, ignoring ASCII
// case as browsers do for rel and type
func withAttr(sel *goquery.Selection, name, value string) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(name)
		return ok && strings.EqualFold(strings.TrimSpace(v), value)
	})
}

// robotsContent returns the content of the first robots meta that asks for
// noindex, falling back to the first robots meta
func robotsContent(doc *goquery.Document) string {
	robots := doc.Find(`meta[name="robots"]`)
	noindex := robots.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.AttrOr("content", ""), "noindex")
	})
	if noindex.Length() > 0 {
		return noindex.First().AttrOr("content", "")
	}
	return robots.First().AttrOr("content", "")
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// collapseSpace mirrors how browsers normalise document.title
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolver turns attribute values into absolute URLs
type resolver struct {
	base *url.URL
}

func newResolver(page *url.URL, doc *goquery.Document) resolver {
	base := page
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && page != nil {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = page.ResolveReference(ref)
		}
	}
	return resolver{base: base}
}

// attr returns the resolved URL held by attribute name, or "" when the
// element does not carry the attribute
func (r resolver) attr(s *goquery.Selection, name string) string {
	raw, ok := s.Attr(name)
	if !ok {
		return ""
	}
	raw = strings.TrimSpace(raw)
	if r.base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	resolved := r.base.ResolveReference(ref)
	resolved.Host = strings.ToLower(resolved.Host)
	return resolved.String()
}
