package recompress

import (
	"errors"
	"fmt"
)

// Scale bounds. Scale 1 favors fidelity, scale 9 favors small output.
const (
	MinScale     = 1
	MaxScale     = 9
	DefaultScale = 5
)

// ErrInvalidTable indicates a quality table that breaks its ordering rules.
var ErrInvalidTable = errors.New("invalid quality table")

// Tier maps images up to MaxBytes to one JPEG quality per scale step.
// MaxBytes <= 0 marks the unbounded last tier.
type Tier struct {
	MaxBytes int64  `yaml:"maxBytes"`
	Quality  [9]int `yaml:"quality"`
}

// Table is an ordered list of size tiers.
type Table []Tier

// DefaultTable trades quality for size as images grow: small images keep
// their detail, large photographs absorb most of the savings.
var DefaultTable = Table{
	{MaxBytes: 1 << 10, Quality: [9]int{100, 100, 100, 100, 100, 100, 100, 100, 100}},
	{MaxBytes: 5 << 10, Quality: [9]int{98, 95, 92, 90, 88, 85, 82, 78, 75}},
	{MaxBytes: 20 << 10, Quality: [9]int{95, 92, 88, 85, 82, 78, 74, 70, 65}},
	{MaxBytes: 50 << 10, Quality: [9]int{92, 88, 84, 80, 76, 72, 67, 62, 55}},
	{MaxBytes: 100 << 10, Quality: [9]int{90, 85, 80, 75, 70, 65, 58, 52, 45}},
	{MaxBytes: 200 << 10, Quality: [9]int{88, 82, 76, 70, 64, 57, 50, 42, 35}},
	{MaxBytes: 0, Quality: [9]int{85, 78, 72, 65, 58, 50, 42, 33, 25}},
}

// Lookup returns the quality for an image of size bytes at the given scale.
// Out-of-range scales are clamped.
func (t Table) Lookup(size int64, scale int) int {
	if len(t) == 0 {
		return 100
	}
	scale = min(max(scale, MinScale), MaxScale)
	for _, tier := range t {
		if tier.MaxBytes > 0 && size <= tier.MaxBytes {
			return tier.Quality[scale-1]
		}
	}
	return t[len(t)-1].Quality[scale-1]
}

// Validate checks that breakpoints ascend, the last tier is unbounded,
// qualities lie in 1..100, and quality never increases with scale or size.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidTable)
	}
	prevMax := int64(0)
	for i, tier := range t {
		last := i == len(t)-1
		switch {
		case last && tier.MaxBytes > 0:
			return fmt.Errorf("%w: last tier must be unbounded (maxBytes 0), got %d", ErrInvalidTable, tier.MaxBytes)
		case !last && tier.MaxBytes <= 0:
			return fmt.Errorf("%w: tier %d: maxBytes must be positive", ErrInvalidTable, i+1)
		case !last && tier.MaxBytes <= prevMax:
			return fmt.Errorf("%w: tier %d: maxBytes %d must exceed previous %d", ErrInvalidTable, i+1, tier.MaxBytes, prevMax)
		}
		if !last {
			prevMax = tier.MaxBytes
		}

		for s, q := range tier.Quality {
			if q < 1 || q > 100 {
				return fmt.Errorf("%w: tier %d scale %d: quality %d out of range 1-100", ErrInvalidTable, i+1, s+1, q)
			}
			if s > 0 && q > tier.Quality[s-1] {
				return fmt.Errorf("%w: tier %d: quality rises from scale %d to %d", ErrInvalidTable, i+1, s, s+1)
			}
			if i > 0 && q > t[i-1].Quality[s] {
				return fmt.Errorf("%w: scale %d: quality rises from tier %d to %d", ErrInvalidTable, s+1, i, i+1)
			}
		}
	}
	return nil
}

// clampQuality keeps a JPEG quality in the encoder's accepted range.
func clampQuality(q int) int {
	return min(max(q, 1), 100)
}
