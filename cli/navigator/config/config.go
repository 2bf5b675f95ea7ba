package config

/*
Описание конфигурационного файла
*/

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"

	"github.com/mvglasow/navfix/libs/location"
)

type SourceSettings struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type" validate:"oneof=nmea demo"`
	Device string `yaml:"device"`
	Trust  string `yaml:"trust" validate:"omitempty,oneof=low medium high"`
}

func (s *SourceSettings) GetTrust() location.TrustLevel {
	switch s.Trust {
	case "low":
		return location.TrustLow
	case "medium":
		return location.TrustMedium
	default:
		return location.TrustHigh
	}
}

type WaypointSettings struct {
	Lat        float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lng        float64 `yaml:"lng" validate:"gte=-180,lte=180"`
	RoadType   string  `yaml:"road_type"`
	SpeedLimit float64 `yaml:"speed_limit" validate:"gte=0"`
}

type Settings struct {
	LogLevel         string             `yaml:"log_level"`
	LogFilePath      string             `yaml:"log_file_path"`
	LogMaxAgeDays    int                `yaml:"log_max_age_days"`
	UpdateIntervalMs int                `yaml:"update_interval_ms" validate:"gte=0"`
	StaleFixMs       int                `yaml:"stale_fix_ms" validate:"gte=0"`
	DemoSpeed        float64            `yaml:"demo_speed" validate:"gte=0"`
	MaxspeedPolicy   string             `yaml:"maxspeed_policy" validate:"oneof=ignore enforce restrict"`
	RoadSpeeds       map[string]float64 `yaml:"road_speeds"`
	Sources          []SourceSettings   `yaml:"sources" validate:"min=1,dive"`
	Route            []WaypointSettings `yaml:"route" validate:"dive"`
}

func (s *Settings) GetUpdateInterval() time.Duration {
	return time.Duration(s.UpdateIntervalMs) * time.Millisecond
}

func (s *Settings) GetStaleFixAge() time.Duration {
	return time.Duration(s.StaleFixMs) * time.Millisecond
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	if c.UpdateIntervalMs == 0 {
		c.UpdateIntervalMs = 1000
	}
	if c.StaleFixMs == 0 {
		c.StaleFixMs = 2000
	}
	if c.DemoSpeed == 0 {
		c.DemoSpeed = 40
	}
	if c.MaxspeedPolicy == "" {
		c.MaxspeedPolicy = "restrict"
	}
	for i := range c.Sources {
		if c.Sources[i].Trust == "" {
			c.Sources[i].Trust = "high"
		}
		if c.Sources[i].Type == "demo" && len(c.Route) == 0 {
			log.Warnf("Source %s is a demo source but no route is configured, the vehicle will not move", c.Sources[i].Name)
		}
	}

	err = validator.New().Struct(c)
	return c, err
}
