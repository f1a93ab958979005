package eew

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/Costany/eew-sim/eew/history"
)

// Engine ticks happen every dt, but status logs are throttled to roughly
// this cadence of scenario time so logging volume doesn't scale with tick
// rate.
const statusLogCadence = 10.0

// ScenarioOptions configures scenario creation.
type ScenarioOptions struct {
	EEWTracking bool
	Seed        uint64
	HasSeed     bool
}

// ScenarioHandle identifies a live scenario. Handles are single-use across
// Reset: Reset invalidates the handle passed to it and returns a fresh one
// bound to the same underlying scenario slot, so a caller holding a
// pre-reset handle observes ErrStaleHandle rather than silently rebound
// state.
type ScenarioHandle struct {
	id uuid.UUID
}

// Scenario owns exactly one mode's sources, the shared station set, region
// aggregator, and (single mode) tracker.
type Scenario struct {
	mode Mode

	single *PointSource
	multi  *Scheduler

	stations   []*Station
	aggregator *Aggregator
	tracker    *Tracker

	rng *RNG

	scenarioTime float64
	timeScale    float64

	seenLevels        map[int]bool
	lastDetectedCount int

	lastStableSnapshot string
	stableTime         float64
	finalReportFired   bool

	history *history.Recorder

	logger log.Logger
}

// Mode distinguishes a single-hypocenter scenario from a multi-source
// rupture scenario.
type Mode int

const (
	ModeSingle Mode = iota
	ModeMulti
)

// FrameReport carries the events emitted by a single Tick.
type FrameReport struct {
	NewIntensityLevels     []int
	Revision               *RevisionEvent
	FinalReport            bool
	StationDetectionsDelta int
}

// SourceView is a read-only snapshot of one active source.
type SourceView struct {
	Lat, Lon, Depth, Magnitude    float64
	PRadiusKm, SRadiusKm, Elapsed float64
}

// StationView is a read-only snapshot of one station.
type StationView struct {
	ID              int
	Lat, Lon        float64
	Intensity       float64
	SDominant       bool
	PArrived        bool
	SArrived        bool
	PArrivalTime    float64
	HasPArrivalTime bool
}

// EEWEstimateView is a read-only snapshot of the tracker (single mode only).
type EEWEstimateView struct {
	Lat, Lon, Depth, Magnitude float64
	Revisions                  int
	Converged                  bool
}

// SceneSnapshot is the full read-only view external collaborators consume
// at end-of-tick.
type SceneSnapshot struct {
	ScenarioTime     float64
	Sources          []SourceView
	Stations         []StationView
	RegionMax        map[string]float64
	OverallMax       float64
	OverallMaxRegion string
	EEWEstimate      *EEWEstimateView
}

// Driver owns the set of live scenarios and is the sole caller of engine
// internals.
type Driver struct {
	scenarios map[uuid.UUID]*Scenario
	logger    log.Logger
}

// NewDriver returns a Driver that logs engine-internal events through
// logger.
func NewDriver(logger log.Logger) *Driver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Driver{scenarios: make(map[uuid.UUID]*Scenario), logger: logger}
}

func cloneStations(stations []*Station) []*Station {
	out := make([]*Station, len(stations))
	for i, s := range stations {
		cp := *s
		out[i] = &cp
	}
	return out
}

// CreateSingleScenario builds a scenario around one hypocenter.
func (d *Driver) CreateSingleScenario(lat, lon, depth, magnitude float64, stations []*Station, regions []Region, opts ScenarioOptions) (ScenarioHandle, error) {
	src, err := NewPointSource(lat, lon, depth, magnitude)
	if err != nil {
		return ScenarioHandle{}, err
	}
	sc := d.newScenarioBase(stations, regions, opts)
	sc.mode = ModeSingle
	sc.single = src
	sc.tracker = NewTracker(lat, lon, src.Depth, magnitude, opts.EEWTracking, sc.rng)
	// The live source starts at the tracker's (possibly perturbed) estimate,
	// not at truth: revisions then teleport it toward truth while its Time
	// keeps running, same as on Reset.
	sc.single.Lat = sc.tracker.CurrentLat
	sc.single.Lon = sc.tracker.CurrentLon
	sc.single.Depth = sc.tracker.CurrentDepth
	sc.single.Magnitude = sc.tracker.CurrentMagnitude
	return d.register(sc), nil
}

// CreateMultiScenario builds a scenario around a polyline rupture.
func (d *Driver) CreateMultiScenario(fault PolylineFault, sources []*RuptureSource, startIndex int, direction Direction, ruptureVelocity float64, stations []*Station, regions []Region, opts ScenarioOptions) (ScenarioHandle, error) {
	sched, err := NewScheduler(fault, sources, startIndex, direction, ruptureVelocity)
	if err != nil {
		return ScenarioHandle{}, err
	}
	sc := d.newScenarioBase(stations, regions, opts)
	sc.mode = ModeMulti
	sc.multi = sched
	return d.register(sc), nil
}

func (d *Driver) newScenarioBase(stations []*Station, regions []Region, opts ScenarioOptions) *Scenario {
	owned := cloneStations(stations)
	var rng *RNG
	if opts.HasSeed {
		rng = NewRNG(opts.Seed)
	} else {
		rng = NewRNG(uint64(len(owned)+1) * 2654435761)
	}
	logger := log.With(d.logger, "component", "scenario")
	return &Scenario{
		stations:   owned,
		aggregator: NewAggregator(regions, owned),
		rng:        rng,
		timeScale:  1.0,
		seenLevels: make(map[int]bool),
		history:    history.NewRecorder(),
		logger:     logger,
	}
}

func (d *Driver) register(sc *Scenario) ScenarioHandle {
	id := uuid.New()
	sc.logger = log.With(sc.logger, "scenario", id.String())
	d.scenarios[id] = sc
	return ScenarioHandle{id: id}
}

func (d *Driver) lookup(h ScenarioHandle) (*Scenario, error) {
	sc, ok := d.scenarios[h.id]
	if !ok {
		return nil, ErrStaleHandle
	}
	return sc, nil
}

// Tick advances the scenario by dt seconds (scaled by its time_scale) and
// returns the events observed this tick.
func (d *Driver) Tick(h ScenarioHandle, dt float64) (FrameReport, error) {
	sc, err := d.lookup(h)
	if err != nil {
		return FrameReport{}, err
	}
	if dt < 0 {
		return FrameReport{}, ErrNegativeDT
	}
	scaledDT := dt * sc.timeScale

	// 1. advance active scenario.
	switch sc.mode {
	case ModeSingle:
		if err := sc.single.Advance(scaledDT); err != nil {
			return FrameReport{}, err
		}
		sc.scenarioTime = sc.single.Time
	case ModeMulti:
		if err := sc.multi.Tick(scaledDT); err != nil {
			return FrameReport{}, err
		}
		sc.scenarioTime = sc.multi.ScenarioTime
	}

	// 2. update station set, collect newly-crossed intensity levels.
	newLevels := sc.updateStations(scaledDT)

	// 3. rebuild region aggregator.
	sc.aggregator.Rebuild(sc.stations)

	// 4. feed tracker (single mode only); teleport governing source on
	// revision while preserving its elapsed Time.
	detectedCount := sc.countDetections()
	delta := detectedCount - sc.lastDetectedCount
	sc.lastDetectedCount = detectedCount

	var revision *RevisionEvent
	if sc.mode == ModeSingle && sc.tracker != nil {
		revision = sc.tracker.Update(detectedCount, sc.rng)
		if revision != nil {
			sc.single.Lat = revision.Lat
			sc.single.Lon = revision.Lon
			sc.single.Depth = revision.Depth
			sc.single.Magnitude = revision.Magnitude
			level.Info(sc.logger).Log("event", "correction", "revision", revision.Count, "overthrown", revision.Overthrown)
			sc.history.RecordRevision(history.RevisionRecord{
				Time: sc.scenarioTime, Count: revision.Count,
				Lat: revision.Lat, Lon: revision.Lon, Depth: revision.Depth, Magnitude: revision.Magnitude,
				Overthrown: revision.Overthrown,
			})
		}
	}

	sc.history.RecordStations(sc.historyStationIntensities(), sc.scenarioTime)

	// 5. final-report detection.
	finalReport := sc.checkFinalReport(scaledDT)

	if len(newLevels) > 0 || revision != nil || finalReport {
		level.Debug(sc.logger).Log("event", "tick", "t", fmt.Sprintf("%.1f", sc.scenarioTime), "new_levels", len(newLevels))
	} else if math.Mod(sc.scenarioTime, statusLogCadence) < scaledDT {
		level.Debug(sc.logger).Log("event", "status", "t", fmt.Sprintf("%.1f", sc.scenarioTime))
	}

	return FrameReport{
		NewIntensityLevels:     newLevels,
		Revision:               revision,
		FinalReport:            finalReport,
		StationDetectionsDelta: delta,
	}, nil
}

func (sc *Scenario) updateStations(dt float64) []int {
	var newLevels []int
	for _, st := range sc.stations {
		switch sc.mode {
		case ModeSingle:
			snap := pointSourceSnapshot(sc.single, st.Lat, st.Lon)
			st.Update(snap, sc.single.Time, dt, sc.rng)
		case ModeMulti:
			sc.updateStationMulti(st, dt)
		}
		if lvl, ok := ScaleLevel(st.Intensity); ok {
			if !sc.seenLevels[lvl] {
				sc.seenLevels[lvl] = true
				newLevels = append(newLevels, lvl)
			}
		}
	}
	sort.Ints(newLevels)
	return newLevels
}

// updateStationMulti feeds a station the multi-source aggregate:
// arrival flags are the union across every active source (the wave that
// reaches a site first governs arrival), the growth target is the
// pointwise-max envelope the Scheduler already computes, and the dominant
// source's magnitude drives the growth-rate randomization.
func (sc *Scenario) updateStationMulti(st *Station, dt float64) {
	active := sc.multi.ActiveSources()
	if len(active) == 0 {
		return
	}

	pArrived, sArrived := false, false
	dominantMagnitude := active[0].Magnitude
	bestDEpi := math.Inf(1)
	for _, rs := range active {
		dEpi := rs.EpicentralDistanceKm(st.Lat, st.Lon)
		if dEpi < bestDEpi {
			bestDEpi = dEpi
			dominantMagnitude = rs.Magnitude
		}
		if rs.Time >= rs.PArrivalTime(st.Lat, st.Lon) {
			pArrived = true
		}
		if rs.Time >= rs.SArrivalTime(st.Lat, st.Lon) {
			sArrived = true
		}
	}
	st.recordArrival(pArrived, sArrived, sc.multi.ScenarioTime, dominantMagnitude, bestDEpi)

	if !st.PArrived {
		st.TargetIntensity = UnobservedIntensity
		st.Intensity = UnobservedIntensity
		return
	}

	target, _ := sc.multi.CalcIntensity(st.Lat, st.Lon, st.Amp)
	if !st.SArrived {
		target = target/1.5 - 0.5
		if target < UnobservedIntensity {
			target = UnobservedIntensity
		}
	}
	st.UpdateWithTarget(target, dominantMagnitude, dt, sc.rng)
}

func (sc *Scenario) historyStationIntensities() []history.StationIntensity {
	out := make([]history.StationIntensity, len(sc.stations))
	for i, st := range sc.stations {
		out[i] = history.StationIntensity{ID: st.ID, Intensity: st.Intensity}
	}
	return out
}

func (sc *Scenario) countDetections() int {
	n := 0
	for _, st := range sc.stations {
		if st.Intensity >= 3 {
			n++
		}
	}
	return n
}

func (sc *Scenario) checkFinalReport(dt float64) bool {
	snapshot := ""
	for _, st := range sc.stations {
		if st.Intensity > 2.5 {
			snapshot += fmt.Sprintf("%.1f", st.Intensity)
		}
	}

	if snapshot == sc.lastStableSnapshot && snapshot != "" {
		sc.stableTime += dt
	} else {
		sc.stableTime = 0
		sc.lastStableSnapshot = snapshot
		sc.finalReportFired = false
	}

	magnitude := sc.governingMagnitude()
	threshold := math.Exp(magnitude) * 0.3

	if sc.stableTime > threshold && !sc.finalReportFired && snapshot != "" {
		sc.finalReportFired = true
		level.Info(sc.logger).Log("event", "final_report", "stable_time", fmt.Sprintf("%.1f", sc.stableTime))
		return true
	}
	return false
}

func (sc *Scenario) governingMagnitude() float64 {
	switch sc.mode {
	case ModeSingle:
		return sc.single.Magnitude
	case ModeMulti:
		if len(sc.multi.Sources) == 0 {
			return minMagnitude
		}
		return sc.multi.Sources[0].Magnitude
	}
	return minMagnitude
}

// Reset restores a scenario to its initial state and returns a fresh
// handle. The handle passed in becomes stale immediately.
func (d *Driver) Reset(h ScenarioHandle) (ScenarioHandle, error) {
	sc, err := d.lookup(h)
	if err != nil {
		return ScenarioHandle{}, err
	}
	delete(d.scenarios, h.id)

	for _, st := range sc.stations {
		st.Reset()
	}
	sc.scenarioTime = 0
	sc.seenLevels = make(map[int]bool)
	sc.lastDetectedCount = 0
	sc.lastStableSnapshot = ""
	sc.stableTime = 0
	sc.finalReportFired = false
	sc.history = history.NewRecorder()

	switch sc.mode {
	case ModeSingle:
		sc.single.Time = 0
		if sc.tracker != nil {
			sc.tracker = NewTracker(sc.tracker.TrueLat, sc.tracker.TrueLon, sc.tracker.TrueDepth, sc.tracker.TrueMagnitude, sc.tracker.Enabled, sc.rng)
			sc.single.Lat = sc.tracker.CurrentLat
			sc.single.Lon = sc.tracker.CurrentLon
			sc.single.Depth = sc.tracker.CurrentDepth
			sc.single.Magnitude = sc.tracker.CurrentMagnitude
		}
	case ModeMulti:
		sc.multi.ScenarioTime = 0
		for _, src := range sc.multi.Sources {
			src.Active = false
			src.Time = 0
		}
	}
	sc.aggregator.Rebuild(sc.stations) // station->region cache itself persists

	newID := uuid.New()
	d.scenarios[newID] = sc
	return ScenarioHandle{id: newID}, nil
}

// History returns the scenario's history recorder. Reset gives the
// scenario a new recorder; a pointer fetched before Reset keeps referring
// to the old one, so callers must re-fetch it (with the new handle) after
// a Reset if they want the fresh recorder.
func (d *Driver) History(h ScenarioHandle) (*history.Recorder, error) {
	sc, err := d.lookup(h)
	if err != nil {
		return nil, err
	}
	return sc.history, nil
}

// SetTimeScale adjusts the scenario's clock multiplier.
func (d *Driver) SetTimeScale(h ScenarioHandle, factor float64) error {
	sc, err := d.lookup(h)
	if err != nil {
		return err
	}
	sc.timeScale = factor
	return nil
}

// Snapshot returns a read-only view of the scenario's current state.
func (d *Driver) Snapshot(h ScenarioHandle) (SceneSnapshot, error) {
	sc, err := d.lookup(h)
	if err != nil {
		return SceneSnapshot{}, err
	}

	var sources []SourceView
	switch sc.mode {
	case ModeSingle:
		sources = []SourceView{{
			Lat: sc.single.Lat, Lon: sc.single.Lon, Depth: sc.single.Depth, Magnitude: sc.single.Magnitude,
			PRadiusKm: sc.single.PWaveRadiusKm(), SRadiusKm: sc.single.SWaveRadiusKm(), Elapsed: sc.single.Time,
		}}
	case ModeMulti:
		for _, rs := range sc.multi.ActiveSources() {
			sources = append(sources, SourceView{
				Lat: rs.Lat, Lon: rs.Lon, Depth: rs.Depth, Magnitude: rs.Magnitude,
				PRadiusKm: rs.PWaveRadiusKm(), SRadiusKm: rs.SWaveRadiusKm(), Elapsed: rs.Time,
			})
		}
	}

	stationViews := make([]StationView, len(sc.stations))
	for i, st := range sc.stations {
		sDominant := sc.stationIsSDominant(st)
		stationViews[i] = StationView{
			ID: st.ID, Lat: st.Lat, Lon: st.Lon,
			Intensity: st.Intensity, SDominant: sDominant,
			PArrived: st.PArrived, SArrived: st.SArrived,
			PArrivalTime: st.PArrivalTime, HasPArrivalTime: st.HasPArrivalTime,
		}
	}

	regionMax := make(map[string]float64, len(sc.aggregator.RegionMax))
	for k, v := range sc.aggregator.RegionMax {
		regionMax[k] = v
	}

	var estimate *EEWEstimateView
	if sc.mode == ModeSingle && sc.tracker != nil {
		estimate = &EEWEstimateView{
			Lat: sc.tracker.CurrentLat, Lon: sc.tracker.CurrentLon,
			Depth: sc.tracker.CurrentDepth, Magnitude: sc.tracker.CurrentMagnitude,
			Revisions: sc.tracker.RevisionCount, Converged: sc.tracker.Converged(),
		}
	}

	return SceneSnapshot{
		ScenarioTime:     sc.scenarioTime,
		Sources:          sources,
		Stations:         stationViews,
		RegionMax:        regionMax,
		OverallMax:       sc.aggregator.OverallMax,
		OverallMaxRegion: sc.aggregator.OverallMaxRegion,
		EEWEstimate:      estimate,
	}, nil
}

// stationIsSDominant reports whether the site's currently governing branch
// is S-dominant, recomputed from the live source state (Station itself
// does not retain this; it is a derived read-only fact for snapshots).
func (sc *Scenario) stationIsSDominant(st *Station) bool {
	switch sc.mode {
	case ModeSingle:
		return Envelope(sc.single, st.Lat, st.Lon, st.Amp).SDominant
	case ModeMulti:
		_, sDom := sc.multi.CalcIntensity(st.Lat, st.Lon, st.Amp)
		return sDom
	}
	return false
}
