// Package history records a compact, append-only log of station
// intensities over time plus EEW revision events.
package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// compressIntensity maps an observed intensity (range roughly [-3, 7]) into
// a 2-digit zero-padded integer, the same (intensity+3)*10 encoding the
// original recorder used to keep snapshot strings short.
func compressIntensity(intensity float64) int {
	v := int((intensity + 3) * 10)
	if v < 0 {
		v = 0
	}
	if v > 98 {
		v = 98
	}
	return v
}

func decompressIntensity(code int) float64 {
	return float64(code)/10 - 3
}

// Snapshot is one recorded station-intensity frame. Raw is the literal
// encoded string ("<time><compressed digits...>"), kept alongside the
// parsed fields because Summary() must be able to reproduce the original's
// parsing quirk (see Summary doc).
type Snapshot struct {
	Time float64
	Raw  string
}

// RevisionRecord is one logged EEW tracker revision.
type RevisionRecord struct {
	Time       float64
	Count      int
	Lat, Lon   float64
	Depth      float64
	Magnitude  float64
	Overthrown bool
}

// Recorder accumulates station snapshots and revision events for a single
// scenario run. It holds no reference to the scenario itself (pure
// data sink), matching the rest of the engine's no-back-pointer design.
type Recorder struct {
	snapshots    []Snapshot
	lastSnapshot string
	revisions    []RevisionRecord
	stationOrder []int // station IDs, fixed at first RecordStations call

	haveTime            bool
	firstTime, lastTime float64
	maxIntensity        float64
}

// NewRecorder returns an empty history recorder.
func NewRecorder() *Recorder {
	return &Recorder{maxIntensity: -3}
}

func (r *Recorder) observeTime(t float64) {
	if !r.haveTime {
		r.haveTime = true
		r.firstTime = t
	}
	r.lastTime = t
}

// StationIntensity is the minimal view RecordStations needs from a station,
// kept independent of eew.Station so this package has no import-cycle risk
// with the engine core.
type StationIntensity struct {
	ID        int
	Intensity float64
}

// RecordStations appends a snapshot of every station's compressed intensity
// at the given scenario time, but only if it differs from the last
// recorded snapshot: a quiet scenario produces one entry, not one per
// tick.
//
// The encoded string is "<int(time)><compressed...>" with a variable-width
// timestamp prefix: int(time) is 1 digit before t=10s, 2 digits from 10s to
// 99s, and so on. This is preserved deliberately; see Summary.
func (r *Recorder) RecordStations(stations []StationIntensity, t float64) bool {
	if r.stationOrder == nil {
		r.stationOrder = make([]int, len(stations))
		for i, s := range stations {
			r.stationOrder[i] = s.ID
		}
	}

	compressed := make([]byte, 0, len(stations)*2)
	for _, s := range stations {
		code := compressIntensity(s.Intensity)
		compressed = append(compressed, byte('0'+code/10), byte('0'+code%10))
	}
	compressedStr := string(compressed)

	if compressedStr == r.lastSnapshot {
		return false
	}
	r.lastSnapshot = compressedStr
	r.observeTime(t)
	for _, s := range stations {
		if v := decompressIntensity(compressIntensity(s.Intensity)); v > r.maxIntensity {
			r.maxIntensity = v
		}
	}

	raw := strconv.Itoa(int(t)) + compressedStr
	r.snapshots = append(r.snapshots, Snapshot{Time: t, Raw: raw})
	return true
}

// RecordRevision appends an EEW tracker revision event to the log.
func (r *Recorder) RecordRevision(rev RevisionRecord) {
	r.observeTime(rev.Time)
	r.revisions = append(r.revisions, rev)
}

// Report is the aggregate per-scenario summary: how many records were
// taken, the time span they cover, the strongest intensity observed in any
// recorded snapshot, and how many EEW revisions fired.
type Report struct {
	TotalRecords   int // station snapshots plus revision records
	StationRecords int
	EEWRevisions   int
	Duration       float64 // seconds between first and last record
	MaxIntensity   float64 // -3 when nothing above the sentinel was recorded
}

// Report aggregates everything recorded so far. Unlike Summary, it is
// computed from counters maintained at record time, so it is immune to the
// fixed-width timestamp quirk Summary reproduces.
func (r *Recorder) Report() Report {
	rep := Report{
		TotalRecords:   len(r.snapshots) + len(r.revisions),
		StationRecords: len(r.snapshots),
		EEWRevisions:   len(r.revisions),
		MaxIntensity:   r.maxIntensity,
	}
	if r.haveTime {
		rep.Duration = r.lastTime - r.firstTime
	}
	return rep
}

// Snapshots returns every recorded station snapshot, in recording order.
func (r *Recorder) Snapshots() []Snapshot {
	out := make([]Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Revisions returns every recorded revision event, in recording order.
func (r *Recorder) Revisions() []RevisionRecord {
	out := make([]RevisionRecord, len(r.revisions))
	copy(out, r.revisions)
	return out
}

// SummaryEntry is one parsed entry from Summary.
type SummaryEntry struct {
	// Time as parsed assuming a fixed 10-character timestamp prefix. The
	// prefix was only ever written with as many digits as int(time)
	// actually has (see RecordStations), so whenever int(time) has fewer
	// than 10 digits, Time here absorbs leading intensity digits and is
	// wrong; a raw string shorter than 10 characters is reported through
	// ParseError instead. Summary slices at the fixed offset
	// unconditionally regardless of how many digits RecordStations actually
	// wrote.
	Time       int
	Stations   []float64
	ParseError error
}

// Summary parses every recorded snapshot using a fixed 10-character
// timestamp width. This is a deliberately preserved mismatch with
// RecordStations' variable-width encoding; callers needing correct
// timestamps should use Snapshots() instead, which carries the true
// float64 time alongside each entry.
func (r *Recorder) Summary() []SummaryEntry {
	const fixedWidth = 10
	out := make([]SummaryEntry, 0, len(r.snapshots))
	for _, snap := range r.snapshots {
		entry := SummaryEntry{}
		if len(snap.Raw) < fixedWidth {
			entry.ParseError = fmt.Errorf("history: snapshot %q shorter than fixed timestamp width", snap.Raw)
			out = append(out, entry)
			continue
		}
		timePart := snap.Raw[:fixedWidth]
		body := snap.Raw[fixedWidth:]

		parsedTime, err := strconv.Atoi(timePart)
		if err != nil {
			entry.ParseError = fmt.Errorf("history: parsing timestamp prefix %q: %w", timePart, err)
			out = append(out, entry)
			continue
		}
		entry.Time = parsedTime

		stations := make([]float64, 0, len(body)/2)
		for i := 0; i+1 < len(body); i += 2 {
			code, err := strconv.Atoi(body[i : i+2])
			if err != nil {
				entry.ParseError = fmt.Errorf("history: parsing station code %q: %w", body[i:i+2], err)
				break
			}
			stations = append(stations, decompressIntensity(code))
		}
		entry.Stations = stations
		out = append(out, entry)
	}
	return out
}

// ExportCSV writes every recorded snapshot (true time, raw encoded string)
// as CSV, in the teacher's export.go idiom of a thin encoding/csv wrapper.
func (r *Recorder) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"time", "encoded"}); err != nil {
		return fmt.Errorf("history: writing CSV header: %w", err)
	}
	for _, snap := range r.snapshots {
		row := []string{strconv.FormatFloat(snap.Time, 'f', -1, 64), snap.Raw}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("history: writing CSV row: %w", err)
		}
	}
	return cw.Error()
}
