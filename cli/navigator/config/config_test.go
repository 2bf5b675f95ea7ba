package config

import (
	"io"
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/mvglasow/navfix/libs/location"
)

func init() {
	// To prevent log output during tests
	log.SetOutput(io.Discard)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp(t.TempDir(), "config.yaml")
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	_, err = file.WriteString(content)
	assert.NoError(t, err)
	assert.NoError(t, file.Close())
	return file.Name()
}

func TestConfigLoad(t *testing.T) {
	cfg := `log_level: "DEBUG"
update_interval_ms: 500
stale_fix_ms: 1500
demo_speed: 60
maxspeed_policy: "enforce"

road_speeds:
  street_4_city: 50
  street_2_land: 100

sources:
  - name: "gps"
    type: "nmea"
    device: "/dev/ttyUSB0"
  - name: "dr"
    type: "nmea"
    device: "/dev/ttyUSB1"
    trust: "low"

route:
  - lat: 48.1173
    lng: 11.5167
    road_type: "street_4_city"
    speed_limit: 50
  - lat: 48.1180
    lng: 11.5200
`

	conf, err := New(writeConfig(t, cfg))
	if assert.NoError(t, err) {
		assert.Equal(t, log.DebugLevel, conf.GetLogLevel())
		assert.Equal(t, 500*time.Millisecond, conf.GetUpdateInterval())
		assert.Equal(t, 1500*time.Millisecond, conf.GetStaleFixAge())
		assert.Equal(t, 60.0, conf.DemoSpeed)
		assert.Equal(t, "enforce", conf.MaxspeedPolicy)
		assert.Equal(t, 50.0, conf.RoadSpeeds["street_4_city"])
		if assert.Len(t, conf.Sources, 2) {
			assert.Equal(t, "/dev/ttyUSB0", conf.Sources[0].Device)
			assert.Equal(t, location.TrustHigh, conf.Sources[0].GetTrust())
			assert.Equal(t, location.TrustLow, conf.Sources[1].GetTrust())
		}
		if assert.Len(t, conf.Route, 2) {
			assert.Equal(t, 48.1173, conf.Route[0].Lat)
			assert.Equal(t, "street_4_city", conf.Route[0].RoadType)
			assert.Empty(t, conf.Route[1].RoadType)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := `sources:
  - name: "demo"
    type: "demo"
`

	conf, err := New(writeConfig(t, cfg))
	if assert.NoError(t, err) {
		assert.Equal(t, log.InfoLevel, conf.GetLogLevel())
		assert.Equal(t, time.Second, conf.GetUpdateInterval())
		assert.Equal(t, 2*time.Second, conf.GetStaleFixAge())
		assert.Equal(t, 40.0, conf.DemoSpeed)
		assert.Equal(t, "restrict", conf.MaxspeedPolicy)
		assert.Equal(t, location.TrustHigh, conf.Sources[0].GetTrust())
	}
}

func TestConfigRejectsUnknownSourceType(t *testing.T) {
	cfg := `sources:
  - name: "bad"
    type: "carrier_pigeon"
`

	_, err := New(writeConfig(t, cfg))
	assert.Error(t, err)
}

func TestConfigRejectsBadPolicy(t *testing.T) {
	cfg := `maxspeed_policy: "sometimes"
sources:
  - name: "demo"
    type: "demo"
`

	_, err := New(writeConfig(t, cfg))
	assert.Error(t, err)
}

func TestConfigMissingFile(t *testing.T) {
	_, err := New("/nonexistent/config.yaml")
	assert.Error(t, err)
}
