// Package location implements the vehicle location fusion and extrapolation
// engine: partial single-source position reports are combined into one
// authoritative fused location, and a plausible position can be synthesized
// between fixes by simulating travel along the planned route.
package location

import (
	"time"
)

// Flag bits describing which members of a Location contain valid data.
type flags int

const (
	flagHasPosition flags = 1 << iota // the location supplies coordinates
	flagHasSpeed                      // the location supplies speed data
	flagHasBearing                    // the location supplies bearing data
	flagHasAltitude                   // the location supplies altitude data
	flagHasAccuracy                   // the location supplies accuracy data for its coordinates
	flagHasSatData                    // the location supplies satellite counts (in view and used)
)

// iso8601Format is the timestamp layout used for the human-readable fix time.
// It is agnostic of time zones; fix times are always rendered in UTC with a
// time zone designator of Z.
const iso8601Format = "2006-01-02T15:04:05Z"

// Coord is a geographic coordinate in decimal degrees.
type Coord struct {
	Lat float64
	Lng float64
}

// Location describes a single position/motion estimate of the vehicle, along
// with associated metadata. It may have been obtained directly from a source
// such as GPS or nearby networks, or calculated by various other means.
//
// A location is partial by design: each optional member has a presence flag,
// and members whose flag is not set must be ignored. Consumers should call the
// corresponding Has method before reading an optional member.
//
// Validity refers to the point in time indicated by the fix time; both should
// be evaluated together to ensure the location is still current.
type Location struct {
	geo      Coord      // position of the vehicle
	speed    float64    // speed in km/h
	bearing  float64    // bearing in degrees, 0-360
	altitude float64    // altitude in meters
	radius   float64    // position accuracy in meters
	fixType  int        // type of last fix; semantics differ between sources, compare monotonically only
	fixTime  time.Time  // timestamp of last fix; all sources must share the same reference clock
	fixISO   string     // timestamp of last fix in ISO 8601 format, regenerated when fixTime changes
	sats     int        // number of satellites in view
	satsUsed int        // number of satellites used in fix
	validity Validity   // whether and how the location data was obtained
	trust    TrustLevel // static per-source trust level
	flags    flags
}

// New returns a new, invalid location with no data present.
func New() *Location {
	return &Location{validity: Invalid}
}

// HasPosition reports whether the location supplies position data.
func (l *Location) HasPosition() bool { return l.flags&flagHasPosition != 0 }

// HasSpeed reports whether the location supplies speed data.
func (l *Location) HasSpeed() bool { return l.flags&flagHasSpeed != 0 }

// HasBearing reports whether the location supplies bearing data.
func (l *Location) HasBearing() bool { return l.flags&flagHasBearing != 0 }

// HasAltitude reports whether the location supplies altitude data.
func (l *Location) HasAltitude() bool { return l.flags&flagHasAltitude != 0 }

// HasPositionAccuracy reports whether the location supplies positional
// accuracy data.
func (l *Location) HasPositionAccuracy() bool { return l.flags&flagHasAccuracy != 0 }

// HasSatData reports whether the location supplies satellite data, i.e. the
// number of satellites in view and the number of satellites used.
func (l *Location) HasSatData() bool { return l.flags&flagHasSatData != 0 }

// Position returns the coordinates of the location. The result is undefined
// unless HasPosition returns true.
func (l *Location) Position() Coord { return l.geo }

// Speed returns the speed of the location in km/h. The result is undefined
// unless HasSpeed returns true.
func (l *Location) Speed() float64 { return l.speed }

// Bearing returns the direction into which the vehicle is facing or moving,
// in degrees. The result is undefined unless HasBearing returns true.
func (l *Location) Bearing() float64 { return l.bearing }

// Altitude returns the altitude of the location in meters above mean sea
// level. The result is undefined unless HasAltitude returns true.
func (l *Location) Altitude() float64 { return l.altitude }

// PositionAccuracy returns the quality indicator for the position, expressed
// as a distance in meters between actual and reported position which has a
// certain likelihood (usually 95%) of not being exceeded. The result is
// undefined unless HasPositionAccuracy returns true.
func (l *Location) PositionAccuracy() float64 { return l.radius }

// FixType returns the fix type of the location. This is supported for legacy
// reasons; semantics may differ between sources, but generally 0 denotes an
// invalid fix while nonzero values denote a valid fix, optionally using
// different values for different quality levels.
func (l *Location) FixType() int { return l.fixType }

// FixTime returns the time at which the location was obtained, relative to
// the shared reference clock. A zero time means no fix has been recorded.
func (l *Location) FixTime() time.Time { return l.fixTime }

// FixISO8601 returns the fix time in ISO 8601 format, e.g.
// "2015-10-22T02:28:00Z", always in UTC.
func (l *Location) FixISO8601() string { return l.fixISO }

// Sats returns the number of satellites in view when the location was
// obtained. The result is undefined unless HasSatData returns true.
func (l *Location) Sats() int { return l.sats }

// SatsUsed returns the number of satellites used to obtain the location. The
// result is undefined unless HasSatData returns true.
func (l *Location) SatsUsed() int { return l.satsUsed }

// Validity returns the validity of the location.
func (l *Location) Validity() Validity { return l.validity }

// Trust returns the trust level of the location's source.
func (l *Location) Trust() TrustLevel { return l.trust }

// SetPosition sets the coordinates of the location. After calling it,
// HasPosition returns true.
func (l *Location) SetPosition(geo Coord) {
	l.geo = geo
	l.flags |= flagHasPosition
}

// SetSpeed sets the speed of the location in km/h. After calling it, HasSpeed
// returns true.
func (l *Location) SetSpeed(speed float64) {
	l.speed = speed
	l.flags |= flagHasSpeed
}

// SetBearing sets the bearing of the location in degrees. After calling it,
// HasBearing returns true.
func (l *Location) SetBearing(bearing float64) {
	l.bearing = bearing
	l.flags |= flagHasBearing
}

// SetAltitude sets the altitude of the location in meters. After calling it,
// HasAltitude returns true.
func (l *Location) SetAltitude(altitude float64) {
	l.altitude = altitude
	l.flags |= flagHasAltitude
}

// SetPositionAccuracy sets the positional accuracy of the location in meters.
// After calling it, HasPositionAccuracy returns true.
func (l *Location) SetPositionAccuracy(radius float64) {
	l.radius = radius
	l.flags |= flagHasAccuracy
}

// SetSatData sets the satellite data of the location. The two counts travel
// together; after calling it, HasSatData returns true.
func (l *Location) SetSatData(sats, satsUsed int) {
	l.sats = sats
	l.satsUsed = satsUsed
	l.flags |= flagHasSatData
}

// SetFixType sets the fix type of the location.
func (l *Location) SetFixType(fixType int) { l.fixType = fixType }

// SetFixTime sets the timestamp of the location and regenerates its ISO 8601
// representation.
func (l *Location) SetFixTime(t time.Time) {
	l.fixTime = t
	l.fixISO = t.UTC().Format(iso8601Format)
}

// SetValidity sets the validity of the location.
func (l *Location) SetValidity(v Validity) { l.validity = v }

// SetTrust sets the trust level of the location's source.
func (l *Location) SetTrust(t TrustLevel) { l.trust = t }

// ClearPosition clears the position of the location. Afterwards HasPosition
// returns false.
func (l *Location) ClearPosition() { l.flags &^= flagHasPosition }

// ClearSpeed clears the speed of the location. Afterwards HasSpeed returns
// false.
func (l *Location) ClearSpeed() { l.flags &^= flagHasSpeed }

// ClearBearing clears the bearing of the location. Afterwards HasBearing
// returns false.
func (l *Location) ClearBearing() { l.flags &^= flagHasBearing }

// ClearAltitude clears the altitude of the location. Afterwards HasAltitude
// returns false.
func (l *Location) ClearAltitude() { l.flags &^= flagHasAltitude }

// ClearPositionAccuracy clears the positional accuracy of the location.
// Afterwards HasPositionAccuracy returns false.
func (l *Location) ClearPositionAccuracy() { l.flags &^= flagHasAccuracy }

// ClearSatData clears the satellite data of the location. Afterwards
// HasSatData returns false.
func (l *Location) ClearSatData() { l.flags &^= flagHasSatData }
