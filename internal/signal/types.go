// Package signal defines the core data model shared across the pipeline:
// the unified SignalRecord snapshot, the adapter-internal PageSnapshot,
// and the loose Metrics mapping adapters produce.
package signal

import (
	"math"
	"net/url"
	"strings"
	"time"
)

// TrendPoint is one keyword-interest sample in a trend series.
type TrendPoint struct {
	Date     string `json:"date"`
	Keyword  string `json:"keyword"`
	Interest int    `json:"interest"`
}

// SignalRecord is one normalized, timestamped SEO snapshot for a URL,
// merging the outputs of every source adapter. Optional fields are nil
// when their source failed and no fallback value exists.
type SignalRecord struct {
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`

	DomainRating     *int `json:"domain_rating,omitempty"`
	Backlinks        *int `json:"backlinks,omitempty"`
	ReferringDomains *int `json:"referring_domains,omitempty"`

	TechnicalHealthScore *float64       `json:"technical_health_score,omitempty"`
	CrawlErrors          *int           `json:"crawl_errors,omitempty"`
	StatusCodeBreakdown  map[string]int `json:"status_code_breakdown,omitempty"`

	ContentScore *int `json:"content_score,omitempty"`

	Performance   *int `json:"performance,omitempty"`
	SEO           *int `json:"seo,omitempty"`
	Accessibility *int `json:"accessibility,omitempty"`
	BestPractices *int `json:"best_practices,omitempty"`

	TrendScore *float64     `json:"trend_score,omitempty"`
	TrendData  []TrendPoint `json:"trend_data,omitempty"`

	// Metadata holds the raw per-source mappings keyed by source name.
	// It exists for audit and debugging only; scoring never reads it.
	Metadata map[string]Metrics `json:"metadata,omitempty"`
}

// PageSnapshot is the intermediate extraction result for a single fetched
// document. It is built once per fetch, consumed by the score engine, and
// discarded after the analysis response is assembled; it is never persisted.
type PageSnapshot struct {
	URL             string
	Title           string
	MetaDescription string
	MetaKeywords    string

	H1Count int
	H2Count int
	H3Count int

	InternalLinks int
	ExternalLinks int

	TotalImages   int
	ImagesWithAlt int

	WordCount int

	LangAttribute string
	HasHreflang   bool
	CanonicalURL  string
	HasViewport   bool
	HasSchema     bool
	OGTags        map[string]string

	HasRTL              bool
	HasArabicText       bool
	HasBilingualMarkers bool
	HasLangSwitcher     bool
}

// AltRatio returns the share of images carrying non-empty alt text,
// in [0,1]. Pages without images score 0.
func (s PageSnapshot) AltRatio() float64 {
	if s.TotalImages == 0 {
		return 0
	}
	return float64(s.ImagesWithAlt) / float64(s.TotalImages)
}

// HasCanonical reports whether a canonical link was present.
func (s PageSnapshot) HasCanonical() bool { return s.CanonicalURL != "" }

// PageReport is the response shape of the single-URL analysis path:
// the extracted snapshot fields plus the four composite scores.
type PageReport struct {
	URL             string            `json:"url"`
	Title           string            `json:"title,omitempty"`
	MetaDescription string            `json:"meta_description,omitempty"`
	MetaKeywords    string            `json:"meta_keywords,omitempty"`
	H1Count         int               `json:"h1_count"`
	H2Count         int               `json:"h2_count"`
	H3Count         int               `json:"h3_count"`
	InternalLinks   int               `json:"internal_links"`
	ExternalLinks   int               `json:"external_links"`
	ImagesCount     int               `json:"images_count"`
	ImagesWithAlt   int               `json:"images_with_alt"`
	AltRatio        float64           `json:"alt_ratio"`
	WordCount       int               `json:"word_count"`
	LangAttribute   string            `json:"lang_attribute,omitempty"`
	HasHreflang     bool              `json:"has_hreflang"`
	OGTags          map[string]string `json:"og_tags,omitempty"`
	SchemaMarkup    bool              `json:"schema_markup"`
	MobileViewport  bool              `json:"mobile_viewport"`
	CanonicalURL    string            `json:"canonical_url,omitempty"`

	SEOScore          int `json:"seo_score"`
	LocalizationScore int `json:"localization_score"`
	ContentDensity    int `json:"content_density"`
	TechnicalSEOScore int `json:"technical_seo_score"`
}

// Domain extracts the host component of an absolute URL. It returns an
// empty string when the URL cannot be parsed or has no host.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Clamp bounds v to the closed interval [lo, hi]. Score fields are always
// clamped rather than rejected when an upstream value drifts out of range.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt bounds v to the closed interval [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to two decimals, the output precision used for the float
// scores (technical health, trend).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
