package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Costany/eew-sim/eew"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run a simulation scenario to completion",
	Long:  `Builds a scenario from flags and ticks it until --duration elapses, printing frame reports as they occur. Single mode takes the hypocenter and tracking options from the flags only; the scenario config file is read only by multi mode, for the demo rupture's magnitude and rupture velocity.`,
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().String("mode", "single", "scenario mode: single or multi")
	runCmd.Flags().Float64("lat", 35.7, "hypocenter latitude")
	runCmd.Flags().Float64("lon", 139.7, "hypocenter longitude")
	runCmd.Flags().Float64("depth", 10, "hypocenter depth, km")
	runCmd.Flags().Float64("magnitude", 6.0, "hypocenter magnitude")
	runCmd.Flags().Float64("duration", 120, "scenario duration to simulate, seconds")
	runCmd.Flags().Float64("dt", 1.0, "tick size, seconds")
	runCmd.Flags().Bool("eew-tracking", true, "enable the progressively-corrected EEW estimate tracker")
	runCmd.Flags().Uint64("seed", 0, "RNG seed (0 means unseeded/derived from station count)")
	runCmd.Flags().String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9105) for the run's duration")
}

func runScenario(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	depth, _ := cmd.Flags().GetFloat64("depth")
	magnitude, _ := cmd.Flags().GetFloat64("magnitude")
	duration, _ := cmd.Flags().GetFloat64("duration")
	dt, _ := cmd.Flags().GetFloat64("dt")
	eewTracking, _ := cmd.Flags().GetBool("eew-tracking")
	seed, _ := cmd.Flags().GetUint64("seed")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	zlevel := zerolog.InfoLevel
	if verbose {
		zlevel = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(zlevel).With().Timestamp().Logger()

	if metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			zlog.Info().Str("addr", metricsAddr).Msg("serving Prometheus metrics")
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				zlog.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	configPaths := []string{"."}
	if cfgFile != "" {
		configPaths = append(configPaths, cfgFile)
	}
	defaults, err := eew.LoadScenarioDefaults(configPaths...)
	if err != nil {
		return fmt.Errorf("loading scenario defaults: %w", err)
	}

	stations := demoStations()
	regions := demoRegions()

	engineLogger := log.NewLogfmtLogger(os.Stdout)
	if !verbose {
		engineLogger = kitlevel.NewFilter(engineLogger, kitlevel.AllowInfo())
	} else {
		engineLogger = kitlevel.NewFilter(engineLogger, kitlevel.AllowDebug())
	}
	driver := eew.NewDriver(engineLogger)

	opts := eew.ScenarioOptions{EEWTracking: eewTracking}
	if seed != 0 {
		opts.Seed = seed
		opts.HasSeed = true
	}

	var handle eew.ScenarioHandle
	switch mode {
	case "single":
		handle, err = driver.CreateSingleScenario(lat, lon, depth, magnitude, stations, regions, opts)
	case "multi":
		handle, err = createDemoMultiScenario(driver, defaults, stations, regions, opts)
	default:
		return fmt.Errorf("unknown mode %q (want single or multi)", mode)
	}
	if err != nil {
		return fmt.Errorf("creating scenario: %w", err)
	}

	zlog.Info().Str("mode", mode).Float64("magnitude", magnitude).Float64("duration", duration).Msg("scenario started")

	elapsed := 0.0
	for elapsed < duration {
		report, err := driver.Tick(handle, dt)
		if err != nil {
			return fmt.Errorf("tick at t=%.1f: %w", elapsed, err)
		}
		elapsed += dt
		ticksTotal.Inc()

		for _, lvl := range report.NewIntensityLevels {
			zlog.Info().Int("level", lvl).Float64("t", elapsed).Msg("intensity level crossed")
		}
		if report.Revision != nil {
			revisionsTotal.Inc()
			zlog.Info().Int("revision", report.Revision.Count).Bool("overthrown", report.Revision.Overthrown).
				Float64("lat", report.Revision.Lat).Float64("lon", report.Revision.Lon).
				Float64("magnitude", report.Revision.Magnitude).Msg("EEW estimate revised")
		}
		if report.FinalReport {
			finalReportsTotal.Inc()
			zlog.Info().Float64("t", elapsed).Msg("final report")
		}

		snap, err := driver.Snapshot(handle)
		if err != nil {
			return fmt.Errorf("snapshot at t=%.1f: %w", elapsed, err)
		}
		overallMaxIntensity.Set(snap.OverallMax)
		scenarioTimeSeconds.Set(snap.ScenarioTime)
	}

	finalSnap, err := driver.Snapshot(handle)
	if err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	printSummary(zlog, finalSnap)

	hist, err := driver.History(handle)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}
	report := hist.Report()
	zlog.Info().Int("records", report.TotalRecords).Int("revisions", report.EEWRevisions).
		Float64("duration", report.Duration).Float64("max_intensity", report.MaxIntensity).
		Msg("history report")

	return nil
}

func printSummary(zlog zerolog.Logger, snap eew.SceneSnapshot) {
	zlog.Info().Float64("overall_max", snap.OverallMax).Str("region", snap.OverallMaxRegion).Msg("scenario summary")
	for code, max := range snap.RegionMax {
		zlog.Info().Str("region", code).Float64("max_intensity", max).Msg("region summary")
	}
	if snap.EEWEstimate != nil {
		zlog.Info().Float64("lat", snap.EEWEstimate.Lat).Float64("lon", snap.EEWEstimate.Lon).
			Float64("depth", snap.EEWEstimate.Depth).Float64("magnitude", snap.EEWEstimate.Magnitude).
			Int("revisions", snap.EEWEstimate.Revisions).Bool("converged", snap.EEWEstimate.Converged).
			Msg("final EEW estimate")
	}
}

// demoStations returns a small fixed station layout around the Kanto region,
// standing in for a GeoJSON-loaded list (the engine never parses GeoJSON
// itself; that decoding step is a CLI concern).
func demoStations() []*eew.Station {
	return []*eew.Station{
		eew.NewStation(1, 35.68, 139.77, "Tokyo", 1.0),
		eew.NewStation(2, 35.44, 139.64, "Yokohama", 1.0),
		eew.NewStation(3, 35.17, 136.91, "Nagoya", 0.9),
		eew.NewStation(4, 34.69, 135.50, "Osaka", 0.9),
		eew.NewStation(5, 43.06, 141.35, "Sapporo", 1.1),
		eew.NewStation(6, 26.21, 127.68, "Naha", 1.2),
	}
}

func demoRegions() []eew.Region {
	kanto := eew.Polygon{
		{Lat: 34.8, Lon: 138.8}, {Lat: 34.8, Lon: 140.5}, {Lat: 36.5, Lon: 140.5}, {Lat: 36.5, Lon: 138.8},
	}
	kansai := eew.Polygon{
		{Lat: 34.2, Lon: 135.0}, {Lat: 34.2, Lon: 136.5}, {Lat: 35.2, Lon: 136.5}, {Lat: 35.2, Lon: 135.0},
	}
	return []eew.Region{
		{Code: "KANTO", Name: "Kanto", Polygons: []eew.Polygon{kanto}},
		{Code: "KANSAI", Name: "Kansai", Polygons: []eew.Polygon{kansai}},
	}
}

// createDemoMultiScenario builds a short demo rupture polyline through the
// Kanto region when --mode multi is requested.
func createDemoMultiScenario(driver *eew.Driver, defaults eew.ScenarioDefaults, stations []*eew.Station, regions []eew.Region, opts eew.ScenarioOptions) (eew.ScenarioHandle, error) {
	fault := eew.PolylineFault{Vertices: []eew.LatLon{
		{Lat: 35.2, Lon: 139.2},
		{Lat: 35.6, Lon: 139.6},
		{Lat: 36.0, Lon: 140.0},
	}}
	src1, err := eew.NewPointSource(35.2, 139.2, 10, defaults.Magnitude)
	if err != nil {
		return eew.ScenarioHandle{}, err
	}
	src2, err := eew.NewPointSource(35.8, 139.8, 12, defaults.Magnitude-0.3)
	if err != nil {
		return eew.ScenarioHandle{}, err
	}
	sources := []*eew.RuptureSource{{PointSource: src1}, {PointSource: src2}}
	return driver.CreateMultiScenario(fault, sources, 0, eew.DirectionForward, defaults.RuptureVelocity, stations, regions, opts)
}
