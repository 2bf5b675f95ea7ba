package location

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	log "github.com/sirupsen/logrus"
)

// ChangeSet describes which semantic fields of a fused location changed
// during a call to Fuse. The caller translates the set into its own change
// notifications; see NotificationOrder for the order in which they must fire.
type ChangeSet uint

const (
	// ChangedValidity is set when the validity of the fused location changed.
	ChangedValidity ChangeSet = 1 << iota
	// ChangedFixType is set when the fix type changed.
	ChangedFixType
	// ChangedSats is set when the number of satellites in view changed.
	ChangedSats
	// ChangedSatsUsed is set when the number of satellites used changed.
	ChangedSatsUsed
	// ChangedPosition is set when the coordinates changed. Speed, bearing,
	// altitude and accuracy are overwritten without individual change
	// tracking and do not contribute to the change set.
	ChangedPosition
)

// NotificationOrder is the order in which change notifications derived from a
// ChangeSet must fire. ChangedValidity always fires first; if the new
// validity is Invalid, no further notification may fire.
var NotificationOrder = []ChangeSet{
	ChangedValidity,
	ChangedFixType,
	ChangedSats,
	ChangedSatsUsed,
	ChangedPosition,
}

// Has reports whether c includes the given change.
func (c ChangeSet) Has(change ChangeSet) bool { return c&change != 0 }

const (
	// minAccuracyRadius is the floor applied to accuracy radii before they
	// are used as weights. A radius of zero would give an infinite weight
	// (and a division by zero); such a measurement is treated as accurate to
	// one centimeter instead.
	minAccuracyRadius = 0.01

	// fallbackAccuracyRadius is the radius assumed for raw locations which
	// do not supply accuracy data, so they can still participate in weighted
	// fusion.
	fallbackAccuracyRadius = 10.0
)

// weightRadius returns the accuracy radius of l as used for weighting,
// guarding against zero and missing radii.
func weightRadius(l *Location) float64 {
	if !l.HasPositionAccuracy() {
		return fallbackAccuracyRadius
	}
	return math.Max(l.radius, minAccuracyRadius)
}

// cartesianFromCoord converts a geographic coordinate to a Cartesian vector
// on the unit sphere.
func cartesianFromCoord(geo Coord) r3.Vector {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(geo.Lat, geo.Lng)).Vector
}

// coordFromCartesian converts a Cartesian vector of any nonzero length back
// to a geographic coordinate.
func coordFromCartesian(v r3.Vector) Coord {
	ll := s2.LatLngFromPoint(s2.Point{Vector: v})
	return Coord{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// Fuse updates the fused location of a vehicle from its raw locations.
//
// The new location is generated by fusing information from the supplied
// sources together. For each semantic channel (position, speed, bearing,
// altitude), only the raw locations with the highest effective preference
// among those supplying that channel are used; see EffectivePreference. When
// multiple locations tie for a channel, their values are combined, weighted
// by the inverse of each location's accuracy radius. Positions are fused
// incrementally with a scalar Kalman filter on unit-sphere Cartesian vectors,
// treating the accuracy radius as a 1-sigma measurement uncertainty. Nil
// entries in raw are skipped, as are locations whose effective preference
// marks them as never usable.
//
// out is both input and output: it must hold the last fused location of the
// vehicle (or a new, invalid location if none is known) and is updated in
// place, field by field. The returned ChangeSet reports which semantic fields
// differ from the previous state; the caller is responsible for firing change
// notifications in NotificationOrder and for stopping after ChangedValidity
// when the new validity is Invalid.
//
// This function is intended to be called approximately once per second (the
// refresh rate of most GPS devices on the market) for each location source,
// with the number of raw locations in the order of magnitude of 1-10.
func Fuse(raw []*Location, out *Location) ChangeSet {
	var (
		geoPref     = PreferenceNever // winning effective preference per channel
		speedPref   = PreferenceNever
		bearingPref = PreferenceNever
		altPref     = PreferenceNever
		geoCount    int // number of eligible positions
		bearingCnt  int // number of eligible bearings
	)
	tmp := New() // temporary storage for the new location

	// First pass: determine the best preference level per channel and
	// collect metadata from the position contributors.
	for _, in := range raw {
		if in == nil {
			continue
		}
		pref := EffectivePreference(in.trust, in.validity)
		if pref == PreferenceNever {
			continue
		}
		if in.HasPosition() {
			if pref > geoPref {
				geoPref = pref
				geoCount = 1
				tmp.fixType = in.fixType
				tmp.fixTime = in.fixTime
				tmp.validity = in.validity
				tmp.trust = in.trust
			} else if pref == geoPref {
				geoCount++
				mergeMetadata(tmp, in)
			}
		}
		if in.HasSpeed() && pref > speedPref {
			speedPref = pref
		}
		if in.HasBearing() {
			if pref > bearingPref {
				bearingPref = pref
				bearingCnt = 1
			} else if pref == bearingPref {
				bearingCnt++
			}
		}
		if in.HasAltitude() && pref > altPref {
			altPref = pref
		}
	}

	log.Debugf("fusing %d raw locations, %d of which will be used for position data", len(raw), geoCount)

	var (
		cart        r3.Vector // Kalman accumulator for positions
		geoP        float64   // Kalman covariance
		speedWeight float64   // total weight for speed
		altWeight   float64   // total weight for altitude
		dirX, dirY  float64   // summed unit vectors for bearings
	)

	// Second pass: combine the entries matching each channel's winning
	// preference level.
	for _, in := range raw {
		if in == nil {
			continue
		}
		pref := EffectivePreference(in.trust, in.validity)
		if pref == PreferenceNever {
			continue
		}
		used := false
		weight := 1.0 / weightRadius(in)
		if in.HasPosition() && pref == geoPref {
			used = true
			if geoCount == 1 {
				// skip the expensive averaging if we have just one position
				tmp.geo = in.geo
				tmp.flags |= flagHasPosition
				if in.HasPositionAccuracy() {
					tmp.radius = in.radius
					tmp.flags |= flagHasAccuracy
				}
			} else {
				r := weightRadius(in)
				if geoP == 0 {
					// first round, use the first value as initial estimate
					geoP = r * r
					cart = cartesianFromCoord(in.geo)
				} else {
					k := geoP / (geoP + r*r)
					geoP *= 1.0 - k
					cart = cart.Mul(1.0 - k).Add(cartesianFromCoord(in.geo).Mul(k))
				}
			}
		}
		if in.HasSpeed() && pref == speedPref {
			used = true
			speedWeight += weight
			tmp.speed += in.speed * weight
		}
		if in.HasBearing() && pref == bearingPref {
			used = true
			if bearingCnt == 1 {
				tmp.bearing = in.bearing
				tmp.flags |= flagHasBearing
			} else {
				rad := in.bearing * math.Pi / 180
				dirX += weight * math.Cos(rad)
				dirY += weight * math.Sin(rad)
			}
		}
		if in.HasAltitude() && pref == altPref {
			used = true
			altWeight += weight
			tmp.altitude += in.altitude * weight
		}
		if used {
			if geoCount == 0 {
				// no positions to collect metadata from, take it from
				// whatever contributed to any channel
				mergeMetadata(tmp, in)
			}
			if in.HasSatData() {
				tmp.sats = in.sats
				tmp.satsUsed = in.satsUsed
				tmp.flags |= flagHasSatData
			}
		}
	}

	if geoCount > 1 {
		// convert the Cartesian accumulator back to lat/lng
		if cart.Norm() > 0 {
			tmp.geo = coordFromCartesian(cart)
			tmp.radius = math.Sqrt(geoP)
			tmp.flags |= flagHasPosition | flagHasAccuracy
		} else {
			log.Error("cannot update position: input positions cancel each other out")
			if out.HasPosition() {
				tmp.geo = out.geo
				tmp.flags |= flagHasPosition
				if out.HasPositionAccuracy() {
					tmp.radius = out.radius
					tmp.flags |= flagHasAccuracy
				}
			}
		}
	}
	if speedWeight != 0 {
		tmp.speed /= speedWeight
		tmp.flags |= flagHasSpeed
	}
	if bearingCnt > 1 {
		length := math.Sqrt(dirX*dirX + dirY*dirY)
		if length > 0 {
			if dirY >= 0 {
				tmp.bearing = math.Acos(dirX/length) * 180 / math.Pi
			} else {
				tmp.bearing = 360.0 - math.Acos(dirX/length)*180/math.Pi
			}
			tmp.flags |= flagHasBearing
		} else {
			log.Error("cannot update bearing: input bearings cancel each other out")
			if out.HasBearing() {
				tmp.bearing = out.bearing
				tmp.flags |= flagHasBearing
			}
		}
	}
	if altWeight != 0 {
		tmp.altitude /= altWeight
		tmp.flags |= flagHasAltitude
	}

	// Copy tmp to out, comparing against the previous state to build the
	// change set. The ISO 8601 string is regenerated whenever the binary
	// timestamp changes.
	var changes ChangeSet
	if tmp.HasPosition() && out.geo != tmp.geo {
		changes |= ChangedPosition
		out.geo = tmp.geo
	}
	out.speed = tmp.speed
	out.bearing = tmp.bearing
	out.altitude = tmp.altitude
	out.radius = tmp.radius
	if out.fixType != tmp.fixType {
		changes |= ChangedFixType
		out.fixType = tmp.fixType
	}
	if !out.fixTime.Equal(tmp.fixTime) {
		out.SetFixTime(tmp.fixTime)
	}
	if out.sats != tmp.sats {
		changes |= ChangedSats
		out.sats = tmp.sats
	}
	if out.satsUsed != tmp.satsUsed {
		changes |= ChangedSatsUsed
		out.satsUsed = tmp.satsUsed
	}
	if out.validity != tmp.validity {
		changes |= ChangedValidity
		out.validity = tmp.validity
	}
	out.trust = tmp.trust
	out.flags = tmp.flags

	if changes != 0 {
		log.Debugf("fused location changed (changes %05b): lat %f lng %f time %s",
			changes, out.geo.Lat, out.geo.Lng, out.fixISO)
	} else {
		log.Debug("fused location unchanged")
	}
	return changes
}

// mergeMetadata folds the fix metadata of in into tmp, keeping the best fix
// type, the most recent fix time, the best validity and the highest trust
// level.
func mergeMetadata(tmp, in *Location) {
	if in.fixType > tmp.fixType {
		tmp.fixType = in.fixType
	}
	if in.fixTime.After(tmp.fixTime) {
		tmp.fixTime = in.fixTime
	}
	if in.validity.Compare(tmp.validity) > 0 {
		tmp.validity = in.validity
	}
	if in.trust > tmp.trust {
		tmp.trust = in.trust
	}
}
