// Package metrics declares the Prometheus instruments scraped off the
// control surface's /metrics resource, grounded in the same promauto idiom
// ManuGH-xg2g's internal/metrics package uses.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlaysTotal counts every item the automation loop successfully started
	// on the main player, labeled by source tier (override, mainshow,
	// bumpers). Plays made by requirement handlers are not counted.
	PlaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radio_plays_total",
		Help: "Total number of items started on the main player, by source.",
	}, []string{"source"})

	// PlayFailuresTotal counts spawn/play failures, labeled by source tier.
	PlayFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radio_play_failures_total",
		Help: "Total number of play attempts that failed to start, by source.",
	}, []string{"source"})

	// RequirementFiresTotal counts requirement dispatches whose handler
	// returned without error, labeled by the command name.
	RequirementFiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radio_requirement_fires_total",
		Help: "Total number of requirements dispatched, by command type.",
	}, []string{"command"})

	// SilencePaddedSecondsTotal accumulates how many seconds the loop has
	// deliberately spent sleeping to pad a gap (spec §4.6 step 7).
	SilencePaddedSecondsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radio_silence_padded_seconds_total",
		Help: "Cumulative seconds of deliberate silence padding.",
	})

	// OverrideActive reports whether the manual override flag is currently
	// set (1) or not (0).
	OverrideActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radio_override_active",
		Help: "Whether manual override mode is currently enabled.",
	})

	// MainshowSize and BumperSize report the live (non-tombstoned) size of
	// the two rotating playlist views, sampled by the automation loop on
	// each iteration that reaches the gap-filling step.
	MainshowSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radio_mainshow_size",
		Help: "Number of non-tombstoned entries remaining in the active main show view.",
	})
	BumperSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radio_bumper_size",
		Help: "Number of non-tombstoned entries remaining in the active bumper view.",
	})
)
