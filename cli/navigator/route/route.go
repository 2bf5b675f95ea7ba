// Package route provides an in-memory route geometry and vehicle profile for
// the extrapolator. It stands in for an external routing engine: the
// navigator consumes route geometry through the location.RouteCursor
// capability and does not compute routes itself.
package route

import (
	"fmt"
	"sync"

	"github.com/mvglasow/navfix/libs/location"
)

// Point is one geometry point of a planned route, carrying the street
// association of the segment that starts at it.
type Point struct {
	Coord      location.Coord
	RoadType   string  // street type of the segment starting here, "" if none
	SpeedLimit float64 // posted limit in km/h, 0 if none
}

// Route is a polyline implementing location.RouteCursor. The cursor starts
// at the first point and only moves forward; Reset rewinds it.
//
// The cursor position is the vehicle's projected route progress, which may
// lie within a segment: the routing engine (here, the host via SetProgress)
// updates it as the vehicle moves, typically from a fused-position change
// notification. Those notifications fire on source goroutines while another
// goroutine may be walking the cursor, so all cursor state is guarded by a
// mutex.
type Route struct {
	mu       sync.Mutex
	points   []Point
	index    int             // next geometry point at or ahead of the progress
	progress *location.Coord // projected position within the preceding segment, nil if at points[index]
}

// New creates a route over the given geometry points.
func New(points []Point) *Route {
	return &Route{points: points}
}

// Position returns the current route-progress coordinate, or false past the
// end of the route.
func (r *Route) Position() (location.Coord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		return *r.progress, true
	}
	if r.index >= len(r.points) {
		return location.Coord{}, false
	}
	return r.points[r.index].Coord, true
}

// Segment returns the street association of the segment the cursor is on.
// Points without a road type (route-start markers, off-road connectors)
// report false.
func (r *Route) Segment() (location.SegmentInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index
	if r.progress != nil && i > 0 {
		// a mid-segment progress point lies on the preceding segment
		i = r.index - 1
	}
	if i >= len(r.points) || r.points[i].RoadType == "" {
		return location.SegmentInfo{}, false
	}
	p := r.points[i]
	return location.SegmentInfo{RoadType: p.RoadType, SpeedLimit: p.SpeedLimit}, true
}

// Advance moves the cursor to the next geometry point. It returns false at
// the end of the route.
func (r *Route) Advance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		r.progress = nil
		return r.index < len(r.points)
	}
	if r.index+1 >= len(r.points) {
		return false
	}
	r.index++
	return true
}

// SetProgress records the vehicle's projected position on the route. The
// extrapolator leaves the cursor at the end point of a partially travelled
// segment; recording the projected position makes the next walk resume from
// there instead of skipping the remainder of the segment.
func (r *Route) SetProgress(geo location.Coord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = &geo
}

// Reset rewinds the cursor to the start of the route.
func (r *Route) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = 0
	r.progress = nil
}

// Profile is a location.VehicleProfile backed by a road-type speed table.
type Profile struct {
	speeds map[string]float64
	policy location.SpeedPolicy
}

// NewProfile creates a profile from a road-type speed table (km/h) and a
// maxspeed handling policy.
func NewProfile(speeds map[string]float64, policy location.SpeedPolicy) *Profile {
	return &Profile{speeds: speeds, policy: policy}
}

// RoadSpeed returns the profile speed for a road type, 0 if unknown.
func (p *Profile) RoadSpeed(roadType string) float64 { return p.speeds[roadType] }

// SpeedPolicy returns the maxspeed handling policy of the profile.
func (p *Profile) SpeedPolicy() location.SpeedPolicy { return p.policy }

// ParsePolicy converts a configuration string to a maxspeed policy.
func ParsePolicy(s string) (location.SpeedPolicy, error) {
	switch s {
	case "ignore":
		return location.PolicyIgnoreLimit, nil
	case "enforce":
		return location.PolicyEnforceLimit, nil
	case "restrict":
		return location.PolicyRestrictLimit, nil
	}
	return 0, fmt.Errorf("unknown maxspeed policy %q", s)
}
