package standings

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultExponent = 2.0

	// PythagenpatPower is the power applied to runs-per-match when the
	// exponent is derived per team.
	PythagenpatPower = 0.287
)

// Options controls which matches are counted and how expectation is computed.
type Options struct {
	// IncludePreseason keeps stages with the "preseason" slug.
	IncludePreseason bool `json:"includePreseason" yaml:"include_preseason"`
	// IncludePlayoffs keeps matches outside the open-matches tournament.
	IncludePlayoffs bool `json:"includePlayoffs" yaml:"include_playoffs"`
	// UsePoints feeds points for/against into the formula instead of maps.
	UsePoints bool `json:"usePoints" yaml:"use_points"`
	// RecalculateExponent derives the exponent per team (Pythagenpat).
	RecalculateExponent bool `json:"recalculateExponent" yaml:"recalculate_exponent"`
	// Exponent is used when RecalculateExponent is false.
	Exponent float64 `json:"exponent" yaml:"exponent"`
}

func DefaultOptions() Options {
	return Options{
		RecalculateExponent: true,
		Exponent:            DefaultExponent,
	}
}

func (o Options) Validate() error {
	if o.RecalculateExponent {
		return nil
	}
	if math.IsNaN(o.Exponent) || math.IsInf(o.Exponent, 0) || o.Exponent <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidExponent, o.Exponent)
	}
	return nil
}

// Key returns a comparable form of o where fields that cannot affect the
// result are zeroed.
func (o Options) Key() Options {
	if o.RecalculateExponent {
		o.Exponent = 0
	}
	return o
}

// LoadPresets reads named option sets from a YAML file. Fields a preset
// leaves out take their default values.
func LoadPresets(path string) (map[string]Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(data)
}

func ParsePresets(data []byte) (map[string]Options, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	presets := make(map[string]Options, len(raw))
	for name, node := range raw {
		opts := DefaultOptions()
		if err := node.Decode(&opts); err != nil {
			return nil, fmt.Errorf("parse preset %q: %w", name, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		presets[name] = opts
	}
	return presets, nil
}
