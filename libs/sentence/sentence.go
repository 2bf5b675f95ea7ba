// Package sentence encodes NMEA 0183 sentences. Only the sentences the
// navigator consumes are covered: RMC for position, speed and course, GGA
// for altitude and fix quality.
package sentence

import (
	"fmt"
	"math"
	"time"
)

// RMC is a recommended minimum position sentence.
type RMC struct {
	Time       time.Time
	Valid      bool
	Lat        float64 // decimal degrees, south negative
	Lng        float64 // decimal degrees, west negative
	SpeedKnots float64
	Course     float64
}

// GGA is a fix data sentence.
type GGA struct {
	Time       time.Time
	Lat        float64
	Lng        float64
	FixQuality int
	SatsUsed   int
	HDOP       float64
	Altitude   float64
}

func (s *RMC) Encode() (string, error) {
	lat, err := encodeLat(s.Lat)
	if err != nil {
		return "", err
	}
	lng, err := encodeLng(s.Lng)
	if err != nil {
		return "", err
	}
	validity := "V"
	if s.Valid {
		validity = "A"
	}
	body := fmt.Sprintf("GPRMC,%s,%s,%s,%s,%05.1f,%05.1f,%s,,",
		s.Time.UTC().Format("150405"), validity, lat, lng,
		s.SpeedKnots, s.Course, s.Time.UTC().Format("020106"))
	return frame(body), nil
}

func (s *GGA) Encode() (string, error) {
	lat, err := encodeLat(s.Lat)
	if err != nil {
		return "", err
	}
	lng, err := encodeLng(s.Lng)
	if err != nil {
		return "", err
	}
	body := fmt.Sprintf("GPGGA,%s,%s,%s,%d,%02d,%.1f,%.1f,M,0.0,M,,",
		s.Time.UTC().Format("150405"), lat, lng,
		s.FixQuality, s.SatsUsed, s.HDOP, s.Altitude)
	return frame(body), nil
}

// Checksum computes the NMEA checksum of a sentence body, the XOR of all
// bytes between the leading $ and the *.
func Checksum(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("%02X", sum)
}

func frame(body string) string {
	return "$" + body + "*" + Checksum(body)
}

// encodeLat renders a latitude as ddmm.mmmm with a hemisphere letter.
func encodeLat(deg float64) (string, error) {
	if deg < -90 || deg > 90 {
		return "", fmt.Errorf("latitude %f out of range", deg)
	}
	hemi := "N"
	if deg < 0 {
		hemi = "S"
	}
	return fmt.Sprintf("%09.4f,%s", degreesMinutes(deg), hemi), nil
}

// encodeLng renders a longitude as dddmm.mmmm with a hemisphere letter.
func encodeLng(deg float64) (string, error) {
	if deg < -180 || deg > 180 {
		return "", fmt.Errorf("longitude %f out of range", deg)
	}
	hemi := "E"
	if deg < 0 {
		hemi = "W"
	}
	return fmt.Sprintf("%010.4f,%s", degreesMinutes(deg), hemi), nil
}

// degreesMinutes converts decimal degrees to the NMEA ddmm.mmmm scale.
func degreesMinutes(deg float64) float64 {
	deg = math.Abs(deg)
	whole := math.Floor(deg)
	return whole*100 + (deg-whole)*60
}
