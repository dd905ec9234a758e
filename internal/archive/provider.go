// Package archive stores raw fetched page bodies so an analysis can be
// replayed or audited later. The abstraction keeps the pipeline
// independent of where blobs land (local filesystem, GCS, or nowhere).
package archive

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/seoforge/seopipe/internal/signal"
)

// Provider stores one raw page body per fetch.
type Provider interface {
	Store(ctx context.Context, pageURL string, body []byte) error
}

// NoOp discards every body. Useful when archiving is disabled.
type NoOp struct{}

// Store implements Provider.
func (NoOp) Store(context.Context, string, []byte) error { return nil }

// ObjectName derives a stable object path for a fetch: the host, the
// escaped path, and the fetch timestamp.
func ObjectName(pageURL string, now time.Time) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("unusable archive url %q", pageURL)
	}
	slug := strings.Trim(strings.ReplaceAll(u.Path, "/", "_"), "_")
	if slug == "" {
		slug = "index"
	}
	return fmt.Sprintf("%s/%s_%d.html", u.Hostname(), slug, now.Unix()), nil
}

// clockOrSystem keeps constructors tolerant of a nil clock.
func clockOrSystem(c signal.Clock) signal.Clock {
	if c == nil {
		return signal.SystemClock{}
	}
	return c
}
