package colors

import (
	"errors"
	"fmt"
	"image/color"
)

var ErrBadHexColor = errors.New("bad hex color")

// HexColor formats c as #rrggbbaa.
func HexColor(c color.Color) string {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return fmt.Sprintf("#%.2x%.2x%.2x%.2x", rgba.R, rgba.G, rgba.B, rgba.A)
}

// ParseHexColor reads #rrggbbaa or #rrggbb, the latter is opaque.
func ParseHexColor(s string) (c color.RGBA, err error) {
	c.A = 0xff
	switch len(s) {
	case 9:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	default:
		return c, fmt.Errorf("%w %q: wrong length", ErrBadHexColor, s)
	}
	if err != nil {
		return c, fmt.Errorf("%w %q: %s", ErrBadHexColor, s, err.Error())
	}
	return c, nil
}
