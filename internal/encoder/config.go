package encoder

import (
	"errors"
	"fmt"
	"math"
)

// AddressMode is the engine's out-of-range source addressing.
type AddressMode string

const (
	Clamp  AddressMode = "clamp"
	Loop   AddressMode = "loop"
	Mirror AddressMode = "mirror"
)

// ParseAddressMode accepts clamp, loop or mirror. Empty means clamp.
func ParseAddressMode(s string) (AddressMode, error) {
	switch AddressMode(s) {
	case "", Clamp:
		return Clamp, nil
	case Loop, Mirror:
		return AddressMode(s), nil
	}
	return "", fmt.Errorf("encoder: unknown source address %q (want clamp, loop or mirror)", s)
}

// ChannelConfig is the immutable per-export configuration. Build it with
// NewChannelConfig and pass it by value.
type ChannelConfig struct {
	SourceName    string
	SourceAddress AddressMode
	Precision     int // decimal places
	MinValue      float64
	MaxValue      float64
}

// NewChannelConfig validates and returns a ChannelConfig.
func NewChannelConfig(source string, address AddressMode, precision int, minValue, maxValue float64) (ChannelConfig, error) {
	c := ChannelConfig{
		SourceName:    source,
		SourceAddress: address,
		Precision:     precision,
		MinValue:      minValue,
		MaxValue:      maxValue,
	}
	return c, c.Validate()
}

// Validate checks field ranges.
func (c ChannelConfig) Validate() error {
	if c.SourceName == "" {
		return errors.New("encoder: empty source name")
	}
	if _, err := ParseAddressMode(string(c.SourceAddress)); err != nil {
		return err
	}
	if c.Precision < 0 {
		return fmt.Errorf("encoder: precision %d < 0", c.Precision)
	}
	if math.IsNaN(c.MinValue) || math.IsInf(c.MinValue, 0) || math.IsNaN(c.MaxValue) || math.IsInf(c.MaxValue, 0) {
		return errors.New("encoder: value bounds must be finite")
	}
	return nil
}
