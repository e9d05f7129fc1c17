package health

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// StatusGauge exports check results as prometheus gauges.
type StatusGauge struct {
	status   *prometheus.GaugeVec
	duration *prometheus.GaugeVec
}

// NewStatusGauge registers the health gauges with reg.
//
//	vendora_health_status{check}            0 healthy, 1 degraded, 2 unhealthy
//	vendora_health_check_duration_seconds{check}
func NewStatusGauge(reg prometheus.Registerer) (*StatusGauge, error) {
	g := &StatusGauge{
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vendora",
			Subsystem: "health",
			Name:      "status",
			Help:      "Latest health status per check (0 healthy, 1 degraded, 2 unhealthy).",
		}, []string{"check"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vendora",
			Subsystem: "health",
			Name:      "check_duration_seconds",
			Help:      "Duration of the latest run of each check.",
		}, []string{"check"}),
	}
	for _, c := range []prometheus.Collector{g.status, g.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("health: register gauge: %w", err)
		}
	}
	return g, nil
}

// Record updates the gauges from a report.
func (g *StatusGauge) Record(r Report) {
	for name, res := range r.Results {
		g.status.WithLabelValues(name).Set(float64(res.Status))
		g.duration.WithLabelValues(name).Set(res.Duration.Seconds())
	}
}
