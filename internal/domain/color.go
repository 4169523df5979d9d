package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Defaults for a freshly added brand color.
const (
	DefaultColorHex = "#000000"
	DefaultColorRGB = "rgb(0, 0, 0)"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// BrandColor is one entry of brand_assets.brand_colors.
type BrandColor struct {
	Name  string `json:"name"`
	Hex   string `json:"hex"`
	RGB   string `json:"rgb"`
	Usage string `json:"usage,omitempty"`
}

// NewBrandColor returns a black, unnamed color.
func NewBrandColor() BrandColor {
	return BrandColor{Hex: DefaultColorHex, RGB: DefaultColorRGB}
}

// IsComplete reports whether the color is worth persisting.
func (c BrandColor) IsComplete() bool {
	return c.Hex != "" && c.Name != ""
}

// WithHex validates hex and returns a copy with RGB recomputed.
func (c BrandColor) WithHex(hex string) (BrandColor, error) {
	rgb, err := HexToRGB(hex)
	if err != nil {
		return c, err
	}
	c.Hex = hex
	c.RGB = rgb
	return c, nil
}

// ValidateHex checks the "#RRGGBB" form.
func ValidateHex(hex string) error {
	if !hexColorRe.MatchString(hex) {
		return NewValidationError("hex", "must be a #RRGGBB color")
	}
	return nil
}

// HexToRGB converts "#RRGGBB" into "rgb(r, g, b)".
func HexToRGB(hex string) (string, error) {
	if err := ValidateHex(hex); err != nil {
		return "", err
	}
	var c [3]uint64
	for i := range c {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return "", NewValidationError("hex", "must be a #RRGGBB color")
		}
		c[i] = v
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", c[0], c[1], c[2]), nil
}

// CompleteColors filters out colors missing a hex or a name.
func CompleteColors(colors []BrandColor) []BrandColor {
	out := make([]BrandColor, 0, len(colors))
	for _, c := range colors {
		if c.IsComplete() {
			out = append(out, c)
		}
	}
	return out
}

// BrandColorsFromValue decodes a stored brand_colors value. Nil yields an
// empty list.
func BrandColorsFromValue(v any) ([]BrandColor, error) {
	if IsEmptyValue(v) {
		return []BrandColor{}, nil
	}
	if s, ok := v.(string); ok {
		var colors []BrandColor
		if err := json.Unmarshal([]byte(s), &colors); err != nil {
			return nil, fmt.Errorf("decode brand colors: %w", err)
		}
		return colors, nil
	}
	var colors []BrandColor
	if err := DecodeInto(v, &colors); err != nil {
		return nil, err
	}
	return colors, nil
}
