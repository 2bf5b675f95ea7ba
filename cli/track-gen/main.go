package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/mvglasow/navfix/libs/sentence"
)

/*
NMEA track generator.

Util creates an NMEA 0183 track by dead reckoning from a start position,
suitable for replaying into the navigator's nmea source.

Usage:
  -lat float
    	Start latitude (require)
  -lon float
    	Start longitude (require)
  -bearing float
    	Track bearing in degrees (default 0)
  -speed float
    	Speed in km/h (default 50)
  -count int
    	Number of fixes to generate (default 60)
  -interval int
    	Seconds between fixes (default 1)
  -time string
    	Timestamp of the first fix in RFC 3339 format, default now
  -out string
    	Output file, default stdout

Example

```
./track-gen --lat 48.1173 --lon 11.5167 --bearing 84.4 --speed 50 --count 120 > track.nmea
```
*/

const (
	earthRadius = 6371010.0
	kmhToKnots  = 1 / 1.852
)

func main() {

	lat := math.NaN()
	lon := math.NaN()
	bearing := 0.0
	speed := 0.0
	count := 0
	interval := 0
	ts := ""
	out := ""

	flag.Float64Var(&lat, "lat", math.NaN(), "Start latitude (require)")
	flag.Float64Var(&lon, "lon", math.NaN(), "Start longitude (require)")
	flag.Float64Var(&bearing, "bearing", 0, "Track bearing in degrees")
	flag.Float64Var(&speed, "speed", 50, "Speed in km/h")
	flag.IntVar(&count, "count", 60, "Number of fixes to generate")
	flag.IntVar(&interval, "interval", 1, "Seconds between fixes")
	flag.StringVar(&ts, "time", "", "Timestamp of the first fix in RFC 3339 format, default now")
	flag.StringVar(&out, "out", "", "Output file, default stdout")

	flag.Parse()

	if math.IsNaN(lat) || math.IsNaN(lon) {
		fmt.Println("Start position required, see help (-h)")
		os.Exit(1)
	}

	start := time.Now().UTC()
	if ts != "" {
		var err error
		start, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			fmt.Println("Timestamp parse error: ", err)
			os.Exit(1)
		}
	}

	w := os.Stdout
	if out != "" {
		var err error
		w, err = os.Create(out)
		if err != nil {
			fmt.Println("Failed to create output file: ", err)
			os.Exit(1)
		}
		defer w.Close()
	}

	step := speed / 3.6 * float64(interval)
	for i := 0; i < count; i++ {
		fix := start.Add(time.Duration(i*interval) * time.Second)

		rmc := sentence.RMC{
			Time:       fix,
			Valid:      true,
			Lat:        lat,
			Lng:        lon,
			SpeedKnots: speed * kmhToKnots,
			Course:     bearing,
		}
		gga := sentence.GGA{
			Time:       fix,
			Lat:        lat,
			Lng:        lon,
			FixQuality: 1,
			SatsUsed:   8,
			HDOP:       0.9,
			Altitude:   500,
		}

		for _, s := range []interface{ Encode() (string, error) }{&rmc, &gga} {
			line, err := s.Encode()
			if err != nil {
				fmt.Println("Encode error: ", err)
				os.Exit(1)
			}
			fmt.Fprintln(w, line)
		}

		lat, lon = move(lat, lon, bearing, step)
	}
}

// move dead-reckons a position by dist meters along the bearing.
func move(lat, lon, bearing, dist float64) (float64, float64) {
	b := bearing * math.Pi / 180
	dLat := dist * math.Cos(b) / earthRadius * 180 / math.Pi
	dLon := dist * math.Sin(b) / (earthRadius * math.Cos(lat*math.Pi/180)) * 180 / math.Pi
	return lat + dLat, lon + dLon
}
