package elevenlabs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	synthesisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicepilot_tts_synthesis_total",
		Help: "ElevenLabs synthesis requests by status",
	}, []string{"status"})

	firstByteMillis = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicepilot_tts_first_byte_ms",
		Help:    "Latency of the ElevenLabs response headers",
		Buckets: prometheus.ExponentialBuckets(20, 1.6, 10),
	})
)
