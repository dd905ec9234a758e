package signal

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMetricsAccessorsDefaults(t *testing.T) {
	t.Parallel()

	m := Metrics{
		"count":   3,
		"decoded": float64(42),
		"rate":    2.5,
		"name":    "surfer",
		"flag":    true,
	}

	if v, ok := m.Int("count"); !ok || v != 3 {
		t.Fatalf("Int(count) = %d, %v", v, ok)
	}
	if v, ok := m.Int("decoded"); !ok || v != 42 {
		t.Fatalf("Int(decoded) = %d, %v", v, ok)
	}
	if _, ok := m.Int("missing"); ok {
		t.Fatal("expected missing key to report absent")
	}
	if m.IntOr("missing", 7) != 7 {
		t.Fatal("expected default for missing key")
	}
	if m.IntPtr("missing") != nil {
		t.Fatal("expected nil pointer for missing key")
	}
	if v, ok := m.Float("rate"); !ok || v != 2.5 {
		t.Fatalf("Float(rate) = %v, %v", v, ok)
	}
	if m.String("name") != "surfer" {
		t.Fatalf("String(name) = %q", m.String("name"))
	}
	if m.String("flag") != "" {
		t.Fatal("expected empty string for non-string value")
	}
	if !m.Bool("flag") {
		t.Fatal("Bool(flag) = false")
	}
}

func TestStatusBreakdownSurvivesJSONRoundTrip(t *testing.T) {
	t.Parallel()

	m := Metrics{"status_code_breakdown": map[string]int{"200": 142, "404": 6}}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Metrics
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := decoded.StatusBreakdown("status_code_breakdown")
	if got["200"] != 142 || got["404"] != 6 {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
	if decoded.StatusBreakdown("missing") != nil {
		t.Fatal("expected nil for missing breakdown")
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://example.com/page":   "example.com",
		"http://sub.example.com:80/": "sub.example.com",
		"not a url":                  "",
	}
	for raw, want := range cases {
		if got := Domain(raw); got != want {
			t.Fatalf("Domain(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestClampAndRound(t *testing.T) {
	t.Parallel()

	if Clamp(120, 0, 100) != 100 || Clamp(-3, 0, 100) != 0 || Clamp(55, 0, 100) != 55 {
		t.Fatal("Clamp misbehaved")
	}
	if ClampInt(101, 0, 100) != 100 {
		t.Fatal("ClampInt misbehaved")
	}
	if Round2(65.456) != 65.46 {
		t.Fatalf("Round2 = %v", Round2(65.456))
	}
}

func TestAltRatioZeroWhenNoImages(t *testing.T) {
	t.Parallel()

	if (PageSnapshot{}).AltRatio() != 0 {
		t.Fatal("expected 0 alt ratio without images")
	}
	s := PageSnapshot{TotalImages: 4, ImagesWithAlt: 3}
	if s.AltRatio() != 0.75 {
		t.Fatalf("AltRatio = %v", s.AltRatio())
	}
}

func TestFixedClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !(FixedClock{T: at}).Now().Equal(at) {
		t.Fatal("fixed clock drifted")
	}
}
