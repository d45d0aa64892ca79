package viewer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fileLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lascloud_file_loads_total",
		Help: "LAS files loaded into the viewer, by outcome.",
	}, []string{"status"})

	loadedPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lascloud_loaded_points",
		Help: "Total points currently held in the viewer registry.",
	})

	renderSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lascloud_render_seconds",
		Help:    "Time spent building and rendering views.",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	planeTrainSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lascloud_plane_train_seconds",
		Help:    "Time spent training separating planes.",
		Buckets: prometheus.DefBuckets,
	})
)
