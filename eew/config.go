package eew

import (
	"fmt"

	"github.com/spf13/viper"
)

// StationRecord and RegionRecord are the plain station/region shapes
// external loaders hand the engine; the engine never parses GeoJSON or any
// other file format itself. The converters below turn such records into
// engine values; the CLI demo does not use them and builds its stations and
// regions in code.
type StationRecord struct {
	ID   int     `mapstructure:"id"`
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
	Name string  `mapstructure:"name"`
	Amp  float64 `mapstructure:"amp"`
}

type RegionRecord struct {
	Code    string      `mapstructure:"code"`
	Name    string      `mapstructure:"name"`
	Polygon [][]float64 `mapstructure:"polygon"` // [[lat, lon], ...]
}

// ScenarioDefaults is the optional scenario configuration the CLI
// resolves through viper. The engine core never requires a config file to
// run, so a missing file falls back to defaults rather than erroring.
type ScenarioDefaults struct {
	Lat             float64
	Lon             float64
	Depth           float64
	Magnitude       float64
	EEWTracking     bool
	RuptureVelocity float64
	Seed            uint64
	HasSeed         bool
}

var scenarioDefaultsLoaded = false
var cachedDefaults = ScenarioDefaults{
	Lat: 35.7, Lon: 139.7, Depth: 10, Magnitude: 6.0,
	EEWTracking: true, RuptureVelocity: DefaultRuptureVelocity,
}

// LoadScenarioDefaults searches configPaths for a "scenario" config file
// (any format viper supports: TOML/YAML/JSON) and caches the result of the
// first call that returns without error. A missing file is not an error:
// defaults are used, and that all-defaults result is cached too.
func LoadScenarioDefaults(configPaths ...string) (ScenarioDefaults, error) {
	if scenarioDefaultsLoaded {
		return cachedDefaults, nil
	}

	v := viper.New()
	v.SetConfigName("scenario")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetDefault("lat", cachedDefaults.Lat)
	v.SetDefault("lon", cachedDefaults.Lon)
	v.SetDefault("depth", cachedDefaults.Depth)
	v.SetDefault("magnitude", cachedDefaults.Magnitude)
	v.SetDefault("eew_tracking", cachedDefaults.EEWTracking)
	v.SetDefault("rupture_velocity", cachedDefaults.RuptureVelocity)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return ScenarioDefaults{}, fmt.Errorf("eew: reading scenario config: %w", err)
		}
		// Missing file: defaults stand.
	}

	d := ScenarioDefaults{
		Lat:             v.GetFloat64("lat"),
		Lon:             v.GetFloat64("lon"),
		Depth:           v.GetFloat64("depth"),
		Magnitude:       v.GetFloat64("magnitude"),
		EEWTracking:     v.GetBool("eew_tracking"),
		RuptureVelocity: v.GetFloat64("rupture_velocity"),
	}
	if v.IsSet("seed") {
		d.Seed = v.GetUint64("seed")
		d.HasSeed = true
	}

	scenarioDefaultsLoaded = true
	cachedDefaults = d
	return cachedDefaults, nil
}

// StationsFromRecords converts loaded station records into engine Stations.
func StationsFromRecords(records []StationRecord) []*Station {
	out := make([]*Station, len(records))
	for i, r := range records {
		amp := r.Amp
		if amp <= 0 {
			amp = 1.0
		}
		out[i] = NewStation(r.ID, r.Lat, r.Lon, r.Name, amp)
	}
	return out
}

// RegionsFromRecords converts loaded region records into engine Regions.
func RegionsFromRecords(records []RegionRecord) []Region {
	out := make([]Region, len(records))
	for i, r := range records {
		ring := make(Polygon, len(r.Polygon))
		for j, pt := range r.Polygon {
			if len(pt) < 2 {
				continue
			}
			ring[j] = LatLon{Lat: pt[0], Lon: pt[1]}
		}
		out[i] = Region{Code: r.Code, Name: r.Name, Polygons: []Polygon{ring}}
	}
	return out
}
