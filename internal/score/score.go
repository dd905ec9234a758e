// Package score computes the four bounded composite scores from a
// PageSnapshot. Every function here is pure and deterministic: fixed
// additive point tables, each component capped at its own maximum, and a
// final min(score, 100) guard so a point-table change can never push a
// score out of range.
package score

import (
	"fmt"
	"unicode/utf8"

	"github.com/seoforge/seopipe/internal/signal"
)

// LocalizationPolicy selects between the two historical localization
// formulas. Both remain reproducible; callers must pick one explicitly.
type LocalizationPolicy string

// Localization policy values.
const (
	// LocalizationLinkage awards four flat 25-point components:
	// lang attribute, hreflang, RTL-or-language-switcher, og:locale.
	LocalizationLinkage LocalizationPolicy = "linkage"
	// LocalizationText weighs textual evidence: lang 25, hreflang 25,
	// bilingual marker words 15, RTL or Arabic text 15, og:locale 20.
	LocalizationText LocalizationPolicy = "text"
)

// AltTextPolicy selects how image alt coverage contributes to the SEO
// score.
type AltTextPolicy string

// Alt-text policy values.
const (
	// AltTextThreshold awards 10 points at >=80% coverage and 5 at >=50%.
	AltTextThreshold AltTextPolicy = "threshold"
	// AltTextProportional awards int(10 * ratio) when the page has at
	// least one image.
	AltTextProportional AltTextPolicy = "proportional"
)

// Options bundles the policy choices for one scoring pass.
type Options struct {
	Localization LocalizationPolicy
	AltText      AltTextPolicy
}

// DefaultOptions returns the default policy selection.
func DefaultOptions() Options {
	return Options{Localization: LocalizationLinkage, AltText: AltTextThreshold}
}

// Validate rejects unknown policy names.
func (o Options) Validate() error {
	switch o.Localization {
	case LocalizationLinkage, LocalizationText:
	default:
		return fmt.Errorf("unknown localization policy %q", o.Localization)
	}
	switch o.AltText {
	case AltTextThreshold, AltTextProportional:
	default:
		return fmt.Errorf("unknown alt text policy %q", o.AltText)
	}
	return nil
}

// SEO computes the overall SEO score (0-100).
//
// Point table: title 30-60 chars 20 / non-empty 10; description 120-160
// chars 15 / non-empty 8; exactly one H1 10 / any H1 5; alt coverage per
// policy (max 10); word count >=300 15 / >=150 8; viewport 10; canonical
// 10; structured data 10. All lower bounds inclusive.
func SEO(snap signal.PageSnapshot, policy AltTextPolicy) int {
	s := 0

	titleLen := utf8.RuneCountInString(snap.Title)
	switch {
	case titleLen >= 30 && titleLen <= 60:
		s += 20
	case titleLen > 0:
		s += 10
	}

	descLen := utf8.RuneCountInString(snap.MetaDescription)
	switch {
	case descLen >= 120 && descLen <= 160:
		s += 15
	case descLen > 0:
		s += 8
	}

	switch {
	case snap.H1Count == 1:
		s += 10
	case snap.H1Count > 0:
		s += 5
	}

	s += altPoints(snap, policy)

	switch {
	case snap.WordCount >= 300:
		s += 15
	case snap.WordCount >= 150:
		s += 8
	}

	if snap.HasViewport {
		s += 10
	}
	if snap.HasCanonical() {
		s += 10
	}
	if snap.HasSchema {
		s += 10
	}

	return min(s, 100)
}

func altPoints(snap signal.PageSnapshot, policy AltTextPolicy) int {
	ratio := snap.AltRatio()
	if policy == AltTextProportional {
		if snap.TotalImages == 0 {
			return 0
		}
		return int(10 * ratio)
	}
	switch {
	case ratio >= 0.8:
		return 10
	case ratio >= 0.5:
		return 5
	default:
		return 0
	}
}

// Localization computes the localization quality score (0-100) under the
// named policy.
func Localization(snap signal.PageSnapshot, policy LocalizationPolicy) int {
	s := 0
	if snap.LangAttribute != "" {
		s += 25
	}
	if snap.HasHreflang {
		s += 25
	}
	_, hasOGLocale := snap.OGTags["locale"]

	if policy == LocalizationText {
		if snap.HasBilingualMarkers {
			s += 15
		}
		if snap.HasRTL || snap.HasArabicText {
			s += 15
		}
		if hasOGLocale {
			s += 20
		}
		return min(s, 100)
	}

	if snap.HasRTL || snap.HasLangSwitcher {
		s += 25
	}
	if hasOGLocale {
		s += 25
	}
	return min(s, 100)
}

// ContentDensity computes the content density score (0-100): word count
// >=1000 40 / >=500 30 / >=200 20; H1 and H2 both present 30 / either 15;
// internal links >=10 30 / >=5 20 / >0 10.
func ContentDensity(snap signal.PageSnapshot) int {
	s := 0

	switch {
	case snap.WordCount >= 1000:
		s += 40
	case snap.WordCount >= 500:
		s += 30
	case snap.WordCount >= 200:
		s += 20
	}

	switch {
	case snap.H1Count > 0 && snap.H2Count > 0:
		s += 30
	case snap.H1Count > 0 || snap.H2Count > 0:
		s += 15
	}

	switch {
	case snap.InternalLinks >= 10:
		s += 30
	case snap.InternalLinks >= 5:
		s += 20
	case snap.InternalLinks > 0:
		s += 10
	}

	return min(s, 100)
}

// TechnicalSEO computes the technical SEO score (0-100): viewport,
// canonical, structured data, and >=3 distinct Open Graph properties at
// 25 points each.
func TechnicalSEO(snap signal.PageSnapshot) int {
	s := 0
	if snap.HasViewport {
		s += 25
	}
	if snap.HasCanonical() {
		s += 25
	}
	if snap.HasSchema {
		s += 25
	}
	if len(snap.OGTags) >= 3 {
		s += 25
	}
	return min(s, 100)
}

// Report assembles the single-URL analysis response from a snapshot and
// the four composite scores under the given options.
func Report(snap signal.PageSnapshot, opts Options) signal.PageReport {
	return signal.PageReport{
		URL:             snap.URL,
		Title:           snap.Title,
		MetaDescription: snap.MetaDescription,
		MetaKeywords:    snap.MetaKeywords,
		H1Count:         snap.H1Count,
		H2Count:         snap.H2Count,
		H3Count:         snap.H3Count,
		InternalLinks:   snap.InternalLinks,
		ExternalLinks:   snap.ExternalLinks,
		ImagesCount:     snap.TotalImages,
		ImagesWithAlt:   snap.ImagesWithAlt,
		AltRatio:        signal.Round2(snap.AltRatio() * 100),
		WordCount:       snap.WordCount,
		LangAttribute:   snap.LangAttribute,
		HasHreflang:     snap.HasHreflang,
		OGTags:          snap.OGTags,
		SchemaMarkup:    snap.HasSchema,
		MobileViewport:  snap.HasViewport,
		CanonicalURL:    snap.CanonicalURL,

		SEOScore:          SEO(snap, opts.AltText),
		LocalizationScore: Localization(snap, opts.Localization),
		ContentDensity:    ContentDensity(snap),
		TechnicalSEOScore: TechnicalSEO(snap),
	}
}
