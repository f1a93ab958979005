package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eewsim",
		Name:      "ticks_total",
		Help:      "Total number of scenario ticks processed.",
	})

	revisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eewsim",
		Name:      "eew_revisions_total",
		Help:      "Total number of EEW tracker revisions observed.",
	})

	finalReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eewsim",
		Name:      "final_reports_total",
		Help:      "Total number of final-report events observed.",
	})

	overallMaxIntensity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eewsim",
		Name:      "overall_max_intensity",
		Help:      "Current overall maximum observed JMA intensity across all stations.",
	})

	scenarioTimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eewsim",
		Name:      "scenario_time_seconds",
		Help:      "Current scenario-relative simulation time, in seconds.",
	})
)
