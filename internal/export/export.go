// Package export renders batch analysis results as CSV, JSON, or a
// human-readable comparison report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/seoforge/seopipe/internal/pipeline"
)

var csvHeader = []string{
	"url",
	"title",
	"seo_score",
	"localization_score",
	"content_density",
	"technical_seo_score",
	"word_count",
	"h1_count",
	"internal_links",
	"external_links",
	"alt_ratio",
	"error",
}

// WriteCSV renders one row per result. Failed URLs keep their row with
// the error column filled so a batch export is always complete.
func WriteCSV(w io.Writer, results []pipeline.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, res := range results {
		row := make([]string, len(csvHeader))
		row[0] = res.URL
		if res.Report != nil {
			r := res.Report
			row[1] = r.Title
			row[2] = strconv.Itoa(r.SEOScore)
			row[3] = strconv.Itoa(r.LocalizationScore)
			row[4] = strconv.Itoa(r.ContentDensity)
			row[5] = strconv.Itoa(r.TechnicalSEOScore)
			row[6] = strconv.Itoa(r.WordCount)
			row[7] = strconv.Itoa(r.H1Count)
			row[8] = strconv.Itoa(r.InternalLinks)
			row[9] = strconv.Itoa(r.ExternalLinks)
			row[10] = strconv.FormatFloat(r.AltRatio, 'f', 2, 64)
		}
		row[11] = res.Err
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON renders the results as an indented JSON array.
func WriteJSON(w io.Writer, results []pipeline.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
