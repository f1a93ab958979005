package eew

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func square(minLat, minLon, maxLat, maxLon float64) Polygon {
	return Polygon{
		{Lat: minLat, Lon: minLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: maxLat, Lon: minLon},
	}
}

func TestPointInRing(t *testing.T) {
	ring := square(35.0, 139.0, 36.0, 140.0)
	assert.True(t, pointInRing(35.5, 139.5, ring))
	assert.False(t, pointInRing(37.0, 141.0, ring))
}

func TestAggregatorCachesStationRegionOnce(t *testing.T) {
	regions := []Region{
		{Code: "A", Name: "Region A", Polygons: []Polygon{square(35.0, 139.0, 36.0, 140.0)}},
		{Code: "B", Name: "Region B", Polygons: []Polygon{square(36.0, 140.0, 37.0, 141.0)}},
	}
	stations := []*Station{
		NewStation(1, 35.5, 139.5, "in-a", 1.0),
		NewStation(2, 36.5, 140.5, "in-b", 1.0),
		NewStation(3, 50.0, 160.0, "outside", 1.0),
	}

	agg := NewAggregator(regions, stations)
	assert.Equal(t, "A", agg.stationRegion[1])
	assert.Equal(t, "B", agg.stationRegion[2])
	_, ok := agg.stationRegion[3]
	assert.False(t, ok)
}

func TestAggregatorRebuildTracksMaxima(t *testing.T) {
	regions := []Region{
		{Code: "A", Name: "Region A", Polygons: []Polygon{square(35.0, 139.0, 36.0, 140.0)}},
	}
	stations := []*Station{
		NewStation(1, 35.2, 139.2, "s1", 1.0),
		NewStation(2, 35.8, 139.8, "s2", 1.0),
	}
	agg := NewAggregator(regions, stations)

	stations[0].Intensity = 3.0
	stations[1].Intensity = 5.0
	agg.Rebuild(stations)

	assert.Equal(t, 5.0, agg.RegionMax["A"])
	assert.Equal(t, 5.0, agg.OverallMax)
	assert.Equal(t, "Region A", agg.OverallMaxRegion)
}
