package location

import (
	"math"
	"time"

	"github.com/golang/geo/s2"
	log "github.com/sirupsen/logrus"
)

// for mocking time.Now() in tests
var now = time.Now

const (
	// earthRadius is the mean earth radius in meters, used to convert
	// angular distances on the unit sphere to meters.
	earthRadius = 6371010.0

	// presumedAccuracy is the accuracy in meters assumed for extrapolated
	// positions (approximately one lane width).
	presumedAccuracy = 3.0

	// offroadSpeed is the presumed speed in km/h for segments whose speed
	// cannot be inferred. Such segments have no associated street item,
	// which is a prerequisite for inferring speed information.
	offroadSpeed = 5.0
)

// SpeedPolicy controls how a vehicle profile's road-type speed is combined
// with a segment's posted speed limit.
type SpeedPolicy int

const (
	// PolicyIgnoreLimit uses the profile speed and ignores posted limits.
	PolicyIgnoreLimit SpeedPolicy = iota
	// PolicyEnforceLimit always uses the posted limit where one exists.
	PolicyEnforceLimit
	// PolicyRestrictLimit uses the lower of profile speed and posted limit.
	PolicyRestrictLimit
)

// SegmentInfo describes the street association of a route segment.
type SegmentInfo struct {
	RoadType   string  // street type of the associated street item
	SpeedLimit float64 // posted speed limit in km/h, 0 if none
}

// RouteCursor walks the geometry of a planned route, starting at the route's
// current position. It is implemented by the routing engine; the extrapolator
// only consumes it.
type RouteCursor interface {
	// Position returns the coordinate at the cursor, or false if the route
	// has ended.
	Position() (Coord, bool)

	// Segment returns information about the segment beginning at the
	// cursor. It returns false for route-start markers and other segments
	// with no street association.
	Segment() (SegmentInfo, bool)

	// Advance moves the cursor to the next geometry point. It returns false
	// if there is no further point.
	Advance() bool
}

// VehicleProfile supplies per-road-type speeds and the policy for combining
// them with posted speed limits.
type VehicleProfile interface {
	// RoadSpeed returns the profile speed in km/h for the given road type,
	// or 0 if the road type is unknown to the profile.
	RoadSpeed(roadType string) float64

	// SpeedPolicy returns the maxspeed handling policy of the profile.
	SpeedPolicy() SpeedPolicy
}

// Extrapolate produces a plausible current position when no fresh fix has
// arrived, by simulating travel from loc along the planned route for the
// wall-clock time elapsed since the last fix.
//
// The route is walked segment by segment, each segment traversed at the
// explicit speedHint if positive, otherwise at a speed inferred from the
// vehicle profile and the segment's posted speed limit, falling back to a
// fixed off-road speed where neither yields one. The position is interpolated
// linearly within the segment on which the elapsed time runs out; if the
// route ends first, the vehicle stops at the last point with speed 0. The
// result is written into loc with a presumed accuracy, the current time as
// fix time and validity Valid.
//
// Extrapolate reports whether loc was updated. It returns false without
// touching loc when no previous fix time is set or no time has elapsed.
func Extrapolate(loc *Location, route RouteCursor, profile VehicleProfile, speedHint float64) bool {
	if loc.fixTime.IsZero() {
		// nothing to extrapolate from
		return false
	}
	t := now()
	remaining := t.Sub(loc.fixTime).Seconds()
	if remaining <= 0 {
		return false
	}

	cur, ok := route.Position()
	if !ok {
		// empty or exhausted route: treat as destination reached, hold the
		// previous position
		log.Debug("no route geometry to extrapolate along, stopping at current position")
		loc.SetSpeed(0)
		loc.SetFixTime(t)
		loc.SetValidity(Valid)
		return true
	}

	var (
		point      = cur
		speed      float64
		bearing    float64
		hasBearing bool
		atStart    = true
	)
	for {
		seg, isStreet := route.Segment()
		if !route.Advance() {
			// destination reached
			point = cur
			speed = 0
			break
		}
		next, ok := route.Position()
		if !ok {
			point = cur
			speed = 0
			break
		}
		if atStart && !isStreet {
			// route-start marker or non-street lead-in, not traversable
			cur = next
			continue
		}
		atStart = false

		segSpeed := segmentSpeed(seg, isStreet, profile, speedHint)
		segTime := distance(cur, next) * 3.6 / segSpeed
		if segTime < remaining {
			remaining -= segTime
			cur = next
			continue
		}
		frac := 0.0
		if segTime > 0 {
			frac = remaining / segTime
		}
		point = Coord{
			Lat: cur.Lat + (next.Lat-cur.Lat)*frac,
			Lng: cur.Lng + (next.Lng-cur.Lng)*frac,
		}
		bearing = initialBearing(cur, next)
		hasBearing = true
		speed = segSpeed
		break
	}

	loc.SetPosition(point)
	loc.SetPositionAccuracy(presumedAccuracy)
	loc.SetSpeed(speed)
	if hasBearing {
		loc.SetBearing(bearing)
	}
	loc.SetFixTime(t)
	loc.SetValidity(Valid)
	log.Debugf("extrapolated position: lat %f lng %f speed %f", point.Lat, point.Lng, speed)
	return true
}

// segmentSpeed determines the speed in km/h at which a segment is traversed.
func segmentSpeed(seg SegmentInfo, isStreet bool, profile VehicleProfile, speedHint float64) float64 {
	if speedHint > 0 {
		return speedHint
	}
	var speed float64
	if isStreet && profile != nil {
		speed = profile.RoadSpeed(seg.RoadType)
		if seg.SpeedLimit > 0 {
			switch profile.SpeedPolicy() {
			case PolicyEnforceLimit:
				speed = seg.SpeedLimit
			case PolicyRestrictLimit:
				if speed <= 0 || seg.SpeedLimit < speed {
					speed = seg.SpeedLimit
				}
			}
		}
	}
	if speed <= 0 {
		return offroadSpeed
	}
	return speed
}

// distance returns the great-circle distance between two coordinates in
// meters.
func distance(from, to Coord) float64 {
	a := s2.LatLngFromDegrees(from.Lat, from.Lng)
	b := s2.LatLngFromDegrees(to.Lat, to.Lng)
	return a.Distance(b).Radians() * earthRadius
}

// initialBearing returns the initial bearing in degrees (0-360) of the great
// circle from one coordinate towards another.
func initialBearing(from, to Coord) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
