// Package astro derives the header quantities the patch pipeline writes:
// Julian dates, local sidereal time, and horizontal coordinates with
// airmass for a fixed observing site.
//
// Julian date and Greenwich sidereal time come from the meeus library;
// the spherical trigonometry from equatorial to horizontal coordinates is
// short enough to solve directly.
package astro

import (
	"math"

	"github.com/soniakeys/unit"
)

// Site is a fixed observing site.
type Site struct {
	// Name identifies the site in history cards.
	Name string
	// Latitude is geographic latitude, north positive.
	Latitude unit.Angle
	// Longitude is geographic longitude, east positive.
	Longitude unit.Angle
	// Altitude is height above sea level in meters.
	Altitude float64
}

// NewSite builds a Site from decimal degrees and meters.
func NewSite(name string, latDeg, lonDeg, altMeters float64) Site {
	return Site{
		Name:      name,
		Latitude:  unit.AngleFromDeg(latDeg),
		Longitude: unit.AngleFromDeg(lonDeg),
		Altitude:  altMeters,
	}
}

// Pointing holds horizontal coordinates of a target as seen from a site.
type Pointing struct {
	// Alt is altitude above the horizon.
	Alt unit.Angle
	// Az is azimuth, measured from north through east.
	Az unit.Angle
	// Airmass is the relative optical path length, sec(zenith distance).
	Airmass float64
	// HourAngle is the target's hour angle, west positive.
	HourAngle unit.Time
}

// Pointing computes the horizontal coordinates, airmass and hour angle of
// the target at ra/dec for the given local sidereal time.
func (s Site) Pointing(ra, dec unit.Angle, lst unit.Time) Pointing {
	// Hour angle, west positive.
	ha := lst.Rad() - ra.Rad()

	sinDec, cosDec := math.Sincos(dec.Rad())
	sinLat, cosLat := math.Sincos(s.Latitude.Rad())
	sinHA, cosHA := math.Sincos(ha)

	sinAlt := sinDec*sinLat + cosDec*cosLat*cosHA
	alt := math.Asin(sinAlt)

	// Azimuth from south, westward; shift to the from-north convention.
	azSouth := math.Atan2(sinHA, cosHA*sinLat-(sinDec/cosDec)*cosLat)
	az := math.Mod(azSouth+math.Pi, 2*math.Pi)
	if az < 0 {
		az += 2 * math.Pi
	}

	return Pointing{
		Alt:       unit.Angle(alt),
		Az:        unit.Angle(az),
		Airmass:   1 / sinAlt,
		HourAngle: unit.TimeFromRad(ha).Mod1(),
	}
}
