package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvglasow/navfix/cli/navigator/config"
	"github.com/mvglasow/navfix/cli/navigator/route"
	"github.com/mvglasow/navfix/cli/navigator/source"
	"github.com/mvglasow/navfix/cli/navigator/source/demo"
	"github.com/mvglasow/navfix/cli/navigator/source/nmea"
	"github.com/mvglasow/navfix/cli/navigator/vehicle"
	"github.com/mvglasow/navfix/libs/location"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "")
	flag.Parse()
	settings, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		return
	}

	configureLogging(settings)

	r := buildRoute(settings)
	profile, err := buildProfile(settings)
	if err != nil {
		log.Fatalf("Failed to build vehicle profile: %v", err)
		return
	}

	v := vehicle.New("vehicle")
	subscribeLogging(v)
	// the route tracks the fused position so extrapolation resumes from the
	// vehicle's actual progress instead of the last geometry point
	v.Subscribe(vehicle.FieldPosition, func(l location.Location) {
		r.SetProgress(l.Position())
	})

	sources, haveDemo, err := buildSources(settings, v, r, profile)
	if err != nil {
		log.Fatalf("Failed to set up sources: %v", err)
		return
	}

	ctx := context.Background()
	for _, src := range sources {
		go func(s source.Source) {
			if err := s.Run(ctx); err != nil && err != context.Canceled {
				log.Errorf("Source %s stopped: %v", s.Name(), err)
			}
		}(src)
	}

	// the demo source already drives the vehicle along the route, so stale
	// fixes only need bridging when all sources are real receivers
	if !haveDemo {
		go runStaleFixBridge(v, r, profile, settings)
	}

	select {}
}

func getConfig(configFilePath string) (config.Settings, error) {
	var c config.Settings
	var err error

	if configFilePath == "" {
		return c, fmt.Errorf("config path not set")
	}

	c, err = config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("config parse error: %v", err)
	}

	return c, nil
}

func configureLogging(settings config.Settings) {
	log.SetLevel(settings.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	if settings.LogFilePath != "" {
		logDir := filepath.Dir(settings.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Failed to create log directory: %v", err)
			}
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   settings.LogFilePath,
			MaxSize:    100,
			MaxBackups: 366,
			MaxAge:     settings.LogMaxAgeDays,
			Compress:   true,
		}

		fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
		hook := lfshook.NewHook(lfshook.WriterMap{
			log.PanicLevel: lumberjackLogger,
			log.FatalLevel: lumberjackLogger,
			log.ErrorLevel: lumberjackLogger,
			log.WarnLevel:  lumberjackLogger,
			log.InfoLevel:  lumberjackLogger,
			log.DebugLevel: lumberjackLogger,
			log.TraceLevel: lumberjackLogger,
		}, fileFmt)

		log.AddHook(hook)
	}
}

func buildRoute(settings config.Settings) *route.Route {
	points := make([]route.Point, 0, len(settings.Route))
	for _, w := range settings.Route {
		points = append(points, route.Point{
			Coord:      location.Coord{Lat: w.Lat, Lng: w.Lng},
			RoadType:   w.RoadType,
			SpeedLimit: w.SpeedLimit,
		})
	}
	return route.New(points)
}

func buildProfile(settings config.Settings) (*route.Profile, error) {
	policy, err := route.ParsePolicy(settings.MaxspeedPolicy)
	if err != nil {
		return nil, err
	}
	return route.NewProfile(settings.RoadSpeeds, policy), nil
}

func buildSources(settings config.Settings, v *vehicle.Vehicle, r *route.Route, profile *route.Profile) ([]source.Source, bool, error) {
	var sources []source.Source
	haveDemo := false
	for _, s := range settings.Sources {
		switch s.Type {
		case "nmea":
			device, err := os.Open(s.Device)
			if err != nil {
				return nil, false, fmt.Errorf("source %s: %v", s.Name, err)
			}
			sources = append(sources, nmea.New(s.Name, device, v, s.GetTrust()))
		case "demo":
			sources = append(sources, demo.New(s.Name, r, profile, settings.DemoSpeed, settings.GetUpdateInterval(), v))
			haveDemo = true
		}
		log.Infof("Source %s (%s) registered", s.Name, s.Type)
	}
	return sources, haveDemo, nil
}

// runStaleFixBridge extrapolates the fused location along the route whenever
// the last fix is older than the configured threshold, so a brief receiver
// outage (a tunnel, an urban canyon) does not freeze the vehicle.
func runStaleFixBridge(v *vehicle.Vehicle, r *route.Route, profile *route.Profile, settings config.Settings) {
	ticker := time.NewTicker(settings.GetUpdateInterval())
	defer ticker.Stop()
	for range ticker.C {
		fused := v.Location()
		if !fused.HasPosition() || fused.FixTime().IsZero() {
			continue
		}
		if time.Since(fused.FixTime()) < settings.GetStaleFixAge() {
			continue
		}
		if v.Extrapolate(r, profile, 0) {
			log.Debug("Bridged stale fix by route extrapolation")
		}
	}
}

func subscribeLogging(v *vehicle.Vehicle) {
	v.Subscribe(vehicle.FieldValidity, func(l location.Location) {
		log.Infof("Validity changed to %s", l.Validity())
	})
	v.Subscribe(vehicle.FieldFixType, func(l location.Location) {
		log.Debugf("Fix type changed to %d", l.FixType())
	})
	v.Subscribe(vehicle.FieldSats, func(l location.Location) {
		log.Debugf("Satellites in view: %d", l.Sats())
	})
	v.Subscribe(vehicle.FieldSatsUsed, func(l location.Location) {
		log.Debugf("Satellites used: %d", l.SatsUsed())
	})
	v.Subscribe(vehicle.FieldPosition, func(l location.Location) {
		log.Infof("Position lat %.6f lng %.6f speed %.1f bearing %.1f (%s)",
			l.Position().Lat, l.Position().Lng, l.Speed(), l.Bearing(), l.Validity())
	})
}
