package eew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenarioDefaultsFallsBackWithoutFile(t *testing.T) {
	scenarioDefaultsLoaded = false
	d, err := LoadScenarioDefaults("/path/that/does/not/exist")
	require.NoError(t, err)
	assert.Equal(t, 6.0, d.Magnitude)
	assert.Equal(t, DefaultRuptureVelocity, d.RuptureVelocity)
}

func TestStationsFromRecordsDefaultsMissingAmp(t *testing.T) {
	stations := StationsFromRecords([]StationRecord{
		{ID: 1, Lat: 35.0, Lon: 139.0, Name: "a"},
		{ID: 2, Lat: 36.0, Lon: 140.0, Name: "b", Amp: 2.0},
	})
	require.Len(t, stations, 2)
	assert.Equal(t, 1.0, stations[0].Amp)
	assert.Equal(t, 2.0, stations[1].Amp)
}

func TestRegionsFromRecordsBuildsPolygon(t *testing.T) {
	regions := RegionsFromRecords([]RegionRecord{
		{Code: "A", Name: "Region A", Polygon: [][]float64{{35.0, 139.0}, {35.0, 140.0}, {36.0, 140.0}}},
	})
	require.Len(t, regions, 1)
	require.Len(t, regions[0].Polygons, 1)
	assert.True(t, regions[0].contains(35.5, 139.7))
}
