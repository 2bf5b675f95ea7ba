package sentence

import (
	"testing"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, "6F", Checksum("GPRMC,120000,A,4807.038,N,01131.000,E,022.4,084.4,010324,003.1,W"))
}

func TestRMCRoundTrip(t *testing.T) {
	s := RMC{
		Time:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Valid:      true,
		Lat:        48.1173,
		Lng:        11.5167,
		SpeedKnots: 22.4,
		Course:     84.4,
	}

	encoded, err := s.Encode()
	assert.NoError(t, err)

	parsed, err := gonmea.Parse(encoded)
	assert.NoError(t, err)
	m, ok := parsed.(gonmea.RMC)
	if assert.True(t, ok) {
		assert.Equal(t, gonmea.ValidRMC, m.Validity)
		assert.InDelta(t, 48.1173, m.Latitude, 1e-4)
		assert.InDelta(t, 11.5167, m.Longitude, 1e-4)
		assert.InDelta(t, 22.4, m.Speed, 1e-6)
		assert.InDelta(t, 84.4, m.Course, 1e-6)
	}
}

func TestRMCInvalidFix(t *testing.T) {
	s := RMC{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	encoded, err := s.Encode()
	assert.NoError(t, err)

	parsed, err := gonmea.Parse(encoded)
	assert.NoError(t, err)
	m, ok := parsed.(gonmea.RMC)
	if assert.True(t, ok) {
		assert.Equal(t, gonmea.InvalidRMC, m.Validity)
	}
}

func TestRMCSouthWestHemispheres(t *testing.T) {
	s := RMC{
		Time:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Valid: true,
		Lat:   -33.8688,
		Lng:   -70.6693,
	}

	encoded, err := s.Encode()
	assert.NoError(t, err)

	parsed, err := gonmea.Parse(encoded)
	assert.NoError(t, err)
	m := parsed.(gonmea.RMC)
	assert.InDelta(t, -33.8688, m.Latitude, 1e-4)
	assert.InDelta(t, -70.6693, m.Longitude, 1e-4)
}

func TestGGARoundTrip(t *testing.T) {
	s := GGA{
		Time:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Lat:        48.1173,
		Lng:        11.5167,
		FixQuality: 1,
		SatsUsed:   8,
		HDOP:       0.9,
		Altitude:   545.4,
	}

	encoded, err := s.Encode()
	assert.NoError(t, err)

	parsed, err := gonmea.Parse(encoded)
	assert.NoError(t, err)
	m, ok := parsed.(gonmea.GGA)
	if assert.True(t, ok) {
		assert.Equal(t, "1", m.FixQuality)
		assert.Equal(t, int64(8), m.NumSatellites)
		assert.InDelta(t, 0.9, m.HDOP, 1e-6)
		assert.InDelta(t, 545.4, m.Altitude, 1e-6)
	}
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	_, err := (&RMC{Lat: 91}).Encode()
	assert.Error(t, err)
	_, err = (&GGA{Lng: 181}).Encode()
	assert.Error(t, err)
}
