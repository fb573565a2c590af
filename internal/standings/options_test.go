package standings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.IncludePreseason || opts.IncludePlayoffs || opts.UsePoints {
		t.Fatalf("expected filters and points off by default, got %+v", opts)
	}
	if !opts.RecalculateExponent || opts.Exponent != DefaultExponent {
		t.Fatalf("unexpected exponent defaults: %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestOptionsKeyIgnoresUnusedExponent(t *testing.T) {
	a := Options{RecalculateExponent: true, Exponent: 2}
	b := Options{RecalculateExponent: true, Exponent: 3}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got %+v and %+v", a.Key(), b.Key())
	}

	c := Options{Exponent: 2}
	d := Options{Exponent: 3}
	if c.Key() == d.Key() {
		t.Fatal("fixed exponents should produce different keys")
	}
}

func TestParsePresets(t *testing.T) {
	data := []byte(`
classic:
  recalculate_exponent: false
  exponent: 2
full_season:
  include_preseason: true
  include_playoffs: true
points:
  use_points: true
`)
	presets, err := ParsePresets(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(presets) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(presets))
	}

	classic := presets["classic"]
	if classic.RecalculateExponent || classic.Exponent != 2 {
		t.Fatalf("unexpected classic preset: %+v", classic)
	}

	full := presets["full_season"]
	if !full.IncludePreseason || !full.IncludePlayoffs || !full.RecalculateExponent {
		t.Fatalf("unexpected full_season preset: %+v", full)
	}

	points := presets["points"]
	if !points.UsePoints || points.Exponent != DefaultExponent {
		t.Fatalf("expected defaults to fill points preset, got %+v", points)
	}
}

func TestParsePresetsRejectsBadExponent(t *testing.T) {
	data := []byte(`
broken:
  recalculate_exponent: false
  exponent: -1
`)
	if _, err := ParsePresets(data); !errors.Is(err, ErrInvalidExponent) {
		t.Fatalf("expected ErrInvalidExponent, got %v", err)
	}
}

func TestParsePresetsRejectsNonNumericExponent(t *testing.T) {
	data := []byte(`
broken:
  exponent: two
`)
	if _, err := ParsePresets(data); err == nil {
		t.Fatal("expected error for non-numeric exponent")
	}
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte("maps:\n  use_points: false\n"), 0o644); err != nil {
		t.Fatalf("write presets: %v", err)
	}
	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := presets["maps"]; !ok {
		t.Fatalf("expected maps preset, got %+v", presets)
	}

	if _, err := LoadPresets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
