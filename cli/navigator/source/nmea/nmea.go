// Package nmea implements a position source reading NMEA 0183 sentences from
// an io.Reader, such as a serial GPS device node or a replay file.
package nmea

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	log "github.com/sirupsen/logrus"

	"github.com/mvglasow/navfix/cli/navigator/vehicle"
	"github.com/mvglasow/navfix/libs/location"
)

// for mocking time.Now() in tests
var now = time.Now

const (
	// knotsToKmh converts speed over ground to km/h.
	knotsToKmh = 1.852

	// hdopUnitError is the assumed user-equivalent range error in meters.
	// NMEA supplies no accuracy radius, so one is estimated as HDOP times
	// this value.
	hdopUnitError = 5.0
)

// Source parses NMEA sentences and feeds them into a vehicle's raw location
// slot. RMC sentences carry position, speed, course and validity; GGA
// sentences carry altitude, fix quality, satellites used and the HDOP the
// accuracy estimate derives from; GSV sentences carry satellites in view.
type Source struct {
	name    string
	r       *bufio.Scanner
	vehicle *vehicle.Vehicle
	slot    int

	// satellite counts arrive in separate sentences but travel as a pair
	sats     int
	satsUsed int
}

// New creates a source reading from r and registers it with the vehicle at
// the given trust level.
func New(name string, r io.Reader, v *vehicle.Vehicle, trust location.TrustLevel) *Source {
	return &Source{
		name:    name,
		r:       bufio.NewScanner(r),
		vehicle: v,
		slot:    v.AddSource(trust),
	}
}

// Name returns the configured name of the source.
func (s *Source) Name() string { return s.name }

// Run reads sentences until the context is cancelled or the reader is
// exhausted. Unparseable lines are skipped; noisy receivers routinely emit
// partial sentences.
func (s *Source) Run(ctx context.Context) error {
	for s.r.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := strings.TrimSpace(s.r.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		sentence, err := gonmea.Parse(line)
		if err != nil {
			log.Debugf("source %s: skipping sentence: %v", s.name, err)
			continue
		}
		s.handle(sentence)
	}
	return s.r.Err()
}

func (s *Source) handle(sentence gonmea.Sentence) {
	switch m := sentence.(type) {
	case gonmea.RMC:
		s.handleRMC(m)
	case gonmea.GGA:
		s.handleGGA(m)
	case gonmea.GSV:
		s.handleGSV(m)
	}
}

// handleRMC processes a recommended-minimum sentence, the one fix per cycle
// that triggers fusion with a fresh timestamp.
func (s *Source) handleRMC(m gonmea.RMC) {
	s.vehicle.UpdateSlot(s.slot, func(l *location.Location) {
		if m.Validity != gonmea.ValidRMC {
			l.SetValidity(location.Invalid)
			return
		}
		l.SetPosition(location.Coord{Lat: m.Latitude, Lng: m.Longitude})
		l.SetSpeed(m.Speed * knotsToKmh)
		l.SetBearing(m.Course)
		// use system time so fix times stay comparable across sources
		l.SetFixTime(now())
		l.SetValidity(location.Valid)
	})
}

func (s *Source) handleGGA(m gonmea.GGA) {
	s.satsUsed = int(m.NumSatellites)
	s.vehicle.UpdateSlot(s.slot, func(l *location.Location) {
		l.SetAltitude(m.Altitude)
		if m.HDOP > 0 {
			l.SetPositionAccuracy(m.HDOP * hdopUnitError)
		}
		if quality, err := strconv.Atoi(m.FixQuality); err == nil {
			l.SetFixType(quality)
		}
		l.SetSatData(s.sats, s.satsUsed)
	})
}

func (s *Source) handleGSV(m gonmea.GSV) {
	s.sats = int(m.NumberSVsInView)
	s.vehicle.UpdateSlot(s.slot, func(l *location.Location) {
		l.SetSatData(s.sats, s.satsUsed)
	})
}
