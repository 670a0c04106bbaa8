package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewWithRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWith(registry)

	if m.PostingsCreated == nil || m.HTTPRequests == nil || m.PackTransitions == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.PostingsCreated.Inc()
	m.PackTransitions.WithLabelValues("submit").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}
