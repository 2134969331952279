package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicepilot_intents_total",
		Help: "Utterances classified, by intent.",
	}, []string{"intent"})

	intentFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicepilot_intent_failures_total",
		Help: "Intents that did not complete, by intent and result.",
	}, []string{"intent", "result"})

	executionMillis = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicepilot_execution_ms",
		Help:    "Time spent executing one intent against the page.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	captureSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicepilot_capture_sessions_total",
		Help: "Recognizer capture sessions started, by trigger.",
	}, []string{"trigger"})

	rearmFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicepilot_rearm_failures_total",
		Help: "Continuous-mode restarts that failed.",
	})
)

const (
	triggerUser  = "user"
	triggerRearm = "rearm"
)
