// Package demo implements a simulated position source that drives the
// vehicle along the planned route. Its raw location is periodically advanced
// to where the vehicle would be if it had followed the route from its last
// location during the time elapsed.
package demo

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mvglasow/navfix/cli/navigator/vehicle"
	"github.com/mvglasow/navfix/libs/location"
)

// for mocking time.Now() in tests
var now = time.Now

// demoAccuracy is the presumed accuracy for the simulated source in meters,
// approximately one lane width.
const demoAccuracy = 3.0

// Source simulates a vehicle following a route.
type Source struct {
	name     string
	route    location.RouteCursor
	profile  location.VehicleProfile
	speed    float64 // configured speed in km/h; 0 derives speed from the route
	interval time.Duration
	vehicle  *vehicle.Vehicle
	slot     int

	// positionSet marks a freshly (re)set position. The next tick only
	// refreshes its timestamp: the time since the previous fix may include
	// route calculation, which would otherwise cause a huge leap at the
	// start of a long route.
	positionSet bool
}

// New creates a demo source following the given route and registers it with
// the vehicle at high trust, like a directly measured position.
func New(name string, route location.RouteCursor, profile location.VehicleProfile, speed float64, interval time.Duration, v *vehicle.Vehicle) *Source {
	return &Source{
		name:     name,
		route:    route,
		profile:  profile,
		speed:    speed,
		interval: interval,
		vehicle:  v,
		slot:     v.AddSource(location.TrustHigh),
	}
}

// Name returns the configured name of the source.
func (s *Source) Name() string { return s.name }

// SetPosition places the vehicle at the given position manually.
func (s *Source) SetPosition(geo location.Coord) {
	s.vehicle.UpdateSlot(s.slot, func(l *location.Location) {
		l.SetPosition(geo)
		l.SetPositionAccuracy(demoAccuracy)
		l.SetFixTime(now())
		l.SetValidity(location.Valid)
		// under the same lock as the tick goroutine's reads
		s.positionSet = true
	})
	log.Debugf("source %s: position set to lat %f lng %f", s.name, geo.Lat, geo.Lng)
}

// Run advances the simulated position once per interval until the context is
// cancelled.
func (s *Source) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick performs one simulation step.
func (s *Source) tick() {
	s.vehicle.UpdateSlot(s.slot, func(l *location.Location) {
		if !l.HasPosition() {
			// start wherever the route starts
			start, ok := s.route.Position()
			if !ok {
				return
			}
			l.SetPosition(start)
			l.SetPositionAccuracy(demoAccuracy)
			l.SetFixTime(now())
			l.SetValidity(location.Valid)
			s.positionSet = true
			return
		}
		if s.positionSet {
			// swallow the time spent before simulation (re)started
			l.SetFixTime(now())
			s.positionSet = false
			return
		}
		location.Extrapolate(l, s.route, s.profile, s.speed)
	})
}
