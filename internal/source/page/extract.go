package page

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seoforge/seopipe/internal/signal"
)

var arabicScript = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)

var bilingualMarkers = []string{"arabic", "عربي", "bilingual", "multilingual"}

// Extract parses an HTML document into a PageSnapshot. Parsing is
// tolerant; a document with nothing extractable yields a zero-valued
// snapshot, not an error.
func Extract(body []byte, pageURL string) (signal.PageSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return signal.PageSnapshot{}, fmt.Errorf("parse document: %w", err)
	}

	snap := signal.PageSnapshot{
		URL:             pageURL,
		Title:           strings.TrimSpace(doc.Find("title").First().Text()),
		MetaDescription: metaContent(doc, "description"),
		MetaKeywords:    metaContent(doc, "keywords"),
		H1Count:         doc.Find("h1").Length(),
		H2Count:         doc.Find("h2").Length(),
		H3Count:         doc.Find("h3").Length(),
	}

	domain := signal.Domain(pageURL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}
		if strings.HasPrefix(href, "/") || (domain != "" && strings.Contains(href, domain)) {
			snap.InternalLinks++
		} else {
			snap.ExternalLinks++
		}
		if strings.Contains(href, "/ar/") || strings.Contains(href, "/en/") {
			snap.HasLangSwitcher = true
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		snap.TotalImages++
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			snap.ImagesWithAlt++
		}
	})

	text := visibleText(doc)
	snap.WordCount = len(strings.Fields(text))

	snap.LangAttribute, _ = doc.Find("html").Attr("lang")
	snap.HasHreflang = doc.Find(`link[rel="alternate"][hreflang]`).Length() > 0
	snap.CanonicalURL, _ = doc.Find(`link[rel="canonical"]`).Attr("href")
	snap.HasViewport = doc.Find(`meta[name="viewport"]`).Length() > 0
	snap.HasSchema = doc.Find(`script[type="application/ld+json"]`).Length() > 0

	// OG properties are stored without the "og:" prefix, so consumers
	// look up "title" or "locale" directly.
	snap.OGTags = map[string]string{}
	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if name := strings.TrimPrefix(prop, "og:"); name != "" {
			snap.OGTags[name] = content
		}
	})

	snap.HasRTL = doc.Find(`[dir="rtl"]`).Length() > 0
	snap.HasArabicText = arabicScript.MatchString(text)
	lower := strings.ToLower(text)
	for _, marker := range bilingualMarkers {
		if strings.Contains(lower, marker) {
			snap.HasBilingualMarkers = true
			break
		}
	}

	return snap, nil
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).Attr("content")
	return strings.TrimSpace(content)
}

// visibleText returns the document text with script and style content
// removed, for word counting and language detection.
func visibleText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find("script, style, noscript").Remove()
	return clone.Text()
}
