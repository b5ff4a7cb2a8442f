package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// DateObsLayout is the FITS DATE-OBS timestamp layout, always UTC.
const DateObsLayout = "2006-01-02T15:04:05"

// ParseDateObs parses a DATE-OBS header value. Fractional seconds are
// accepted and kept.
func ParseDateObs(value string) (time.Time, error) {
	t, err := time.Parse(DateObsLayout, value)
	if err != nil {
		return time.Time{}, herderrors.New(herderrors.ErrCodeInvalidInput,
			"cannot parse DATE-OBS value "+value, err)
	}
	return t, nil
}

// JulianDate converts a UTC time to a Julian date.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// ModifiedJulianDate converts a Julian date to a modified Julian date.
func ModifiedJulianDate(jd float64) float64 {
	return jd - 2400000.5
}

// LocalSidereal computes apparent local sidereal time for a Julian date at
// the given longitude (east positive).
func LocalSidereal(jd float64, longitude unit.Angle) unit.Time {
	gst := sidereal.Apparent(jd)
	return (gst + unit.TimeFromRad(longitude.Rad())).Mod1()
}

// RoundTo rounds x to n decimal places. Header values carry fixed
// precision so repeated patch runs are byte-stable.
func RoundTo(x float64, n int) float64 {
	scale := math.Pow(10, float64(n))
	return math.Round(x*scale) / scale
}
