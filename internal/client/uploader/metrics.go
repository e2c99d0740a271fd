package uploader

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for orchestrated uploads.
type Observer interface {
	RecordAttempt(method models.Method, duration time.Duration, outcome string)
	RecordUpload(method models.Method, sizeBytes int64, success bool)
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeAborted = "aborted"
)

func outcomeOf(res models.UploadResult) string {
	switch {
	case res.Success:
		return OutcomeSuccess
	case res.Aborted:
		return OutcomeAborted
	default:
		return OutcomeFailure
	}
}

// PrometheusObserver exports uploader metrics to Prometheus.
type PrometheusObserver struct {
	attemptDuration *prometheus.HistogramVec
	attempts        *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	uploadedBytes   *prometheus.CounterVec
}

// NewPrometheusObserver registers the attempt and upload metrics with reg.
// Registering twice reuses the already registered collectors.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "mediaupload"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Latency of single transport attempts.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
		}, []string{"method", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Transport attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Orchestrated uploads by final method and result.",
		}, []string{"method", "result"}),
		uploadedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully uploaded.",
		}, []string{"method"}),
	}

	var err error
	if o.attemptDuration, err = register(reg, o.attemptDuration); err != nil {
		return nil, err
	}
	if o.attempts, err = register(reg, o.attempts); err != nil {
		return nil, err
	}
	if o.uploads, err = register(reg, o.uploads); err != nil {
		return nil, err
	}
	if o.uploadedBytes, err = register(reg, o.uploadedBytes); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register uploader metric: %w", err)
	}
	return c, nil
}

func (o *PrometheusObserver) RecordAttempt(method models.Method, duration time.Duration, outcome string) {
	if o == nil {
		return
	}
	o.attemptDuration.WithLabelValues(string(method), outcome).Observe(duration.Seconds())
	o.attempts.WithLabelValues(string(method), outcome).Inc()
}

func (o *PrometheusObserver) RecordUpload(method models.Method, sizeBytes int64, success bool) {
	if o == nil {
		return
	}
	result := OutcomeFailure
	if success {
		result = OutcomeSuccess
		o.uploadedBytes.WithLabelValues(string(method)).Add(float64(sizeBytes))
	}
	o.uploads.WithLabelValues(string(method), result).Inc()
}

type nopObserver struct{}

func (nopObserver) RecordAttempt(models.Method, time.Duration, string) {}

func (nopObserver) RecordUpload(models.Method, int64, bool) {}
