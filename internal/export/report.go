package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/seoforge/seopipe/internal/pipeline"
	"github.com/seoforge/seopipe/internal/signal"
)

// WriteReport renders a comparison report: aggregate averages, the best
// performer per score, then per-URL detail.
func WriteReport(w io.Writer, results []pipeline.BatchResult) error {
	var analyzed []*signal.PageReport
	failed := 0
	for _, res := range results {
		if res.Report != nil {
			analyzed = append(analyzed, res.Report)
		} else {
			failed++
		}
	}

	var b strings.Builder
	b.WriteString("SEO COMPARISON REPORT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&b, "URLs analyzed: %d\n", len(analyzed))
	fmt.Fprintf(&b, "URLs failed:   %d\n\n", failed)

	if len(analyzed) > 0 {
		b.WriteString("AVERAGES\n")
		fmt.Fprintf(&b, "  SEO score:           %.1f\n", average(analyzed, seoScore))
		fmt.Fprintf(&b, "  Localization score:  %.1f\n", average(analyzed, locScore))
		fmt.Fprintf(&b, "  Content density:     %.1f\n", average(analyzed, densityScore))
		fmt.Fprintf(&b, "  Technical SEO score: %.1f\n\n", average(analyzed, techScore))

		b.WriteString("BEST PERFORMERS\n")
		fmt.Fprintf(&b, "  SEO:           %s\n", best(analyzed, seoScore))
		fmt.Fprintf(&b, "  Localization:  %s\n", best(analyzed, locScore))
		fmt.Fprintf(&b, "  Density:       %s\n", best(analyzed, densityScore))
		fmt.Fprintf(&b, "  Technical:     %s\n\n", best(analyzed, techScore))
	}

	b.WriteString("DETAILS\n")
	for _, res := range results {
		b.WriteString(strings.Repeat("-", 60) + "\n")
		fmt.Fprintf(&b, "URL: %s\n", res.URL)
		if res.Report == nil {
			fmt.Fprintf(&b, "  FAILED: %s\n", res.Err)
			continue
		}
		r := res.Report
		fmt.Fprintf(&b, "  Title: %s\n", r.Title)
		fmt.Fprintf(&b, "  Scores: seo=%d localization=%d density=%d technical=%d\n",
			r.SEOScore, r.LocalizationScore, r.ContentDensity, r.TechnicalSEOScore)
		fmt.Fprintf(&b, "  Words: %d  H1: %d  Links: %d internal / %d external  Alt: %.0f%%\n",
			r.WordCount, r.H1Count, r.InternalLinks, r.ExternalLinks, r.AltRatio)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func seoScore(r *signal.PageReport) int     { return r.SEOScore }
func locScore(r *signal.PageReport) int     { return r.LocalizationScore }
func densityScore(r *signal.PageReport) int { return r.ContentDensity }
func techScore(r *signal.PageReport) int    { return r.TechnicalSEOScore }

func average(reports []*signal.PageReport, score func(*signal.PageReport) int) float64 {
	sum := 0
	for _, r := range reports {
		sum += score(r)
	}
	return float64(sum) / float64(len(reports))
}

func best(reports []*signal.PageReport, score func(*signal.PageReport) int) string {
	top := reports[0]
	for _, r := range reports[1:] {
		if score(r) > score(top) {
			top = r
		}
	}
	return fmt.Sprintf("%s (%d)", top.URL, score(top))
}
