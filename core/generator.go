package core

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
)

// StationProfile is a station name and the mean temperature values are drawn around
type StationProfile struct {
	Name string
	Mean float64
}

// DefaultStations is a small sample of weather stations
var DefaultStations = []StationProfile{
	{"Abha", 18.0},
	{"Accra", 26.4},
	{"Addis Ababa", 16.0},
	{"Alexandria", 20.0},
	{"Amsterdam", 10.2},
	{"Anchorage", 2.8},
	{"Bangkok", 28.6},
	{"Beirut", 20.9},
	{"Bergen", 7.7},
	{"Cairo", 21.4},
	{"Dakar", 24.0},
	{"Dublin", 9.8},
	{"Hamburg", 9.7},
	{"Istanbul", 13.9},
	{"Jakarta", 26.7},
	{"Lima", 18.9},
	{"Montréal", 6.8},
	{"Nairobi", 17.8},
	{"Oslo", 5.7},
	{"Reykjavík", 4.3},
	{"São Paulo", 19.2},
	{"Tokyo", 15.4},
	{"Yakutsk", -8.8},
	{"Zürich", 9.3},
}

// GeneratorOptions controls measurement generation
type GeneratorOptions struct {
	Rows     int
	Seed     int64
	Stations []StationProfile // DefaultStations when empty
	StdDev   float64          // 10 when zero
}

// GenerateMeasurements writes opts.Rows "station;value" lines to w. Values
// are normally distributed around each station's mean, clamped to
// [-99.9, 99.9] and rounded to one fractional digit. Equal options give
// byte-identical output.
func GenerateMeasurements(w io.Writer, opts GeneratorOptions) error {
	if opts.Rows < 0 {
		return fmt.Errorf("row count must not be negative: %d", opts.Rows)
	}
	stations := opts.Stations
	if len(stations) == 0 {
		stations = DefaultStations
	}
	stddev := opts.StdDev
	if stddev == 0 {
		stddev = 10
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	bw := bufio.NewWriter(w)
	line := make([]byte, 0, 64)
	for i := 0; i < opts.Rows; i++ {
		station := stations[rng.Intn(len(stations))]
		value := station.Mean + rng.NormFloat64()*stddev
		value = math.Round(min(max(value, -99.9), 99.9)*10) / 10

		line = append(line[:0], station.Name...)
		line = append(line, fieldDelimiter)
		line = strconv.AppendFloat(line, value, 'f', 1, 64)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("failed to write measurement: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush measurements: %w", err)
	}
	return nil
}
