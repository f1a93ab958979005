package eew

// Polygon is a simple lat/lon ring. The engine never decodes GeoJSON
// itself; it consumes already-parsed rings.
type Polygon []LatLon

// Region is a named polygon (or multi-polygon) with a code. It owns no
// mutable state; the Aggregator derives {code -> max intensity} from it.
type Region struct {
	Code     string
	Name     string
	Polygons []Polygon // multi-polygon support: any ring membership counts
}

// pointInRing is a standard ray-casting point-in-polygon test over (lon,
// lat) pairs.
func pointInRing(lat, lon float64, ring Polygon) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, xi := ring[i].Lat, ring[i].Lon
		yj, xj := ring[j].Lat, ring[j].Lon
		intersects := (yi > lat) != (yj > lat) &&
			lon < (xj-xi)*(lat-yi)/(yj-yi)+xi
		if intersects {
			inside = !inside
		}
	}
	return inside
}

func (r Region) contains(lat, lon float64) bool {
	for _, ring := range r.Polygons {
		if pointInRing(lat, lon, ring) {
			return true
		}
	}
	return false
}

// Aggregator maps stations to regions once (point-in-polygon, O(stations *
// regions)) and caches the result for the scenario's lifetime. Per tick it
// recomputes region/overall maxima in O(stations) by walking the cache
// Rebuilding the station->region cache every tick would be quadratic,
// so it is precomputed once.
type Aggregator struct {
	regions       []Region
	stationRegion map[int]string // station ID -> region code, cached once

	RegionMax        map[string]float64
	OverallMax       float64
	OverallMaxRegion string
}

// NewAggregator builds the station->region cache immediately from the
// given regions and stations.
func NewAggregator(regions []Region, stations []*Station) *Aggregator {
	a := &Aggregator{
		regions:       regions,
		stationRegion: make(map[int]string, len(stations)),
		RegionMax:     make(map[string]float64, len(regions)),
	}
	for _, st := range stations {
		for _, r := range regions {
			if r.contains(st.Lat, st.Lon) {
				a.stationRegion[st.ID] = r.Code
				break
			}
		}
	}
	return a
}

// Rebuild recomputes per-region and overall maxima from the current station
// intensities. It never touches the station->region cache.
func (a *Aggregator) Rebuild(stations []*Station) {
	regionMax := make(map[string]float64, len(a.regions))
	for _, r := range a.regions {
		regionMax[r.Code] = UnobservedIntensity
	}

	overallMax := UnobservedIntensity
	overallRegion := ""
	for _, st := range stations {
		code, ok := a.stationRegion[st.ID]
		if !ok {
			continue
		}
		if st.Intensity > regionMax[code] {
			regionMax[code] = st.Intensity
		}
		if st.Intensity > overallMax {
			overallMax = st.Intensity
			overallRegion = a.regionName(code)
		}
	}

	a.RegionMax = regionMax
	a.OverallMax = overallMax
	a.OverallMaxRegion = overallRegion
}

func (a *Aggregator) regionName(code string) string {
	for _, r := range a.regions {
		if r.Code == code {
			return r.Name
		}
	}
	return code
}
