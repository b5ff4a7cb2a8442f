package astro

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// FormatHMS renders a time of day as colon-delimited hh:mm:ss with prec
// fractional second digits, the format sidereal time and hour angle
// keywords carry.
func FormatHMS(t unit.Time, prec int) string {
	return formatSexa(t.Sec()/3600, prec, false)
}

// FormatDMS renders an angle as colon-delimited [+-]dd:mm:ss with prec
// fractional second digits. withSign forces a leading + on non-negative
// angles, the convention for declination.
func FormatDMS(a unit.Angle, prec int, withSign bool) string {
	return formatSexa(a.Deg(), prec, withSign)
}

func formatSexa(v float64, prec int, withSign bool) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	} else if withSign {
		sign = "+"
	}

	// Round the total seconds first so 59.9996 carries into the minute
	// instead of printing as 60.000.
	scale := math.Pow(10, float64(prec))
	sec := math.Round(v*3600*scale) / scale

	whole := int(sec / 3600)
	sec -= float64(whole) * 3600
	min := int(sec / 60)
	sec -= float64(min) * 60
	if sec < 0 {
		sec = 0
	}
	if min >= 60 {
		min -= 60
		whole++
	}

	width := 2
	if prec > 0 {
		width = prec + 3
	}
	return fmt.Sprintf("%s%02d:%02d:%0*.*f", sign, whole, min, width, prec, sec)
}

// ParseSexagesimal parses a colon- or space-delimited sexagesimal value
// ("05 34 31.94", "-00:30:00", "22.5") into its decimal equivalent.
func ParseSexagesimal(s string) (float64, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 || len(fields) > 3 {
		return 0, herderrors.New(herderrors.ErrCodeInvalidInput,
			"cannot parse sexagesimal value "+strconv.Quote(s), nil)
	}

	negative := strings.HasPrefix(fields[0], "-")
	fields[0] = strings.TrimPrefix(strings.TrimPrefix(fields[0], "-"), "+")

	var value, div float64
	div = 1
	for _, f := range fields {
		part, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, herderrors.New(herderrors.ErrCodeInvalidInput,
				"cannot parse sexagesimal value "+strconv.Quote(s), err)
		}
		value += part / div
		div *= 60
	}
	if negative {
		value = -value
	}
	return value, nil
}

// ParseRA parses a right ascension header value in hours, sexagesimal or
// decimal, into an angle.
func ParseRA(s string) (unit.Angle, error) {
	hours, err := ParseSexagesimal(s)
	if err != nil {
		return 0, err
	}
	return unit.AngleFromDeg(hours * 15), nil
}

// ParseDec parses a declination header value in degrees, sexagesimal or
// decimal, into an angle.
func ParseDec(s string) (unit.Angle, error) {
	deg, err := ParseSexagesimal(s)
	if err != nil {
		return 0, err
	}
	return unit.AngleFromDeg(deg), nil
}

// Separation returns the angular separation between two points given as
// (ra, dec) pairs, by the spherical law of cosines.
func Separation(ra1, dec1, ra2, dec2 unit.Angle) unit.Angle {
	sd1, cd1 := math.Sincos(dec1.Rad())
	sd2, cd2 := math.Sincos(dec2.Rad())
	cosSep := sd1*sd2 + cd1*cd2*math.Cos(ra1.Rad()-ra2.Rad())
	if cosSep > 1 {
		cosSep = 1
	} else if cosSep < -1 {
		cosSep = -1
	}
	return unit.Angle(math.Acos(cosSep))
}
