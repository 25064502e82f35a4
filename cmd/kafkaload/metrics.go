// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xmidt-org/kafkasampler"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// metrics holds the run's Prometheus collectors.
type metrics struct {
	registry *prometheus.Registry

	samples  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration prometheus.Histogram
	bytes    prometheus.Counter
	active   prometheus.Gauge
}

func newMetrics() *metrics {
	m := metrics{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafkaload_samples_total",
			Help: "Samples completed, by outcome.",
		}, []string{"outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafkaload_sample_errors_total",
			Help: "Failed samples, by error type.",
		}, []string{"error_type"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kafkaload_sample_duration_seconds",
			Help:    "Latency of a sample from send to acknowledgment.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafkaload_bytes_sent_total",
			Help: "Value bytes of successful samples.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kafkaload_active_users",
			Help: "Virtual users currently running.",
		}),
	}

	m.registry.MustRegister(m.samples, m.errors, m.duration, m.bytes, m.active)
	return &m
}

// observe records one sample.  It is registered as a sample event listener.
func (m *metrics) observe(e *kafkasampler.SampleEvent) {
	m.duration.Observe(e.Duration.Seconds())

	if e.Success {
		m.samples.WithLabelValues(outcomeSuccess).Inc()
		m.bytes.Add(float64(e.BytesSent))
		return
	}

	m.samples.WithLabelValues(outcomeFailure).Inc()
	m.errors.WithLabelValues(e.ErrorType).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
