package reference

import (
	"strconv"
	"strings"
)

// sscanPallet parses "48x40" (also "48 x 40" or "48X40") into width and depth.
func sscanPallet(s string, w, d *float64) (int, error) {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == 'x' || r == ' ' || r == '"'
	})
	n := 0
	if len(parts) > 0 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return n, err
		}
		*w = v
		n++
	}
	if len(parts) > 1 {
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return n, err
		}
		*d = v
		n++
	}
	return n, nil
}
