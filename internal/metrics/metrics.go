package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rollcall/internal/attendance"
)

// Set holds the attendance gauges the worker keeps fresh.
type Set struct {
	Events         prometheus.Gauge
	Present        prometheus.Gauge
	Absent         prometheus.Gauge
	OverallPercent prometheus.Gauge
	RosterSize     prometheus.Gauge
}

// New registers the gauges on reg.
func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		Events: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rollcall_attendance_events_total",
			Help: "Number of saved attendance records.",
		}),
		Present: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rollcall_attendance_present_total",
			Help: "Present marks across all records.",
		}),
		Absent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rollcall_attendance_absent_total",
			Help: "Absent marks across all records.",
		}),
		OverallPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rollcall_attendance_overall_percent",
			Help: "Rounded overall attendance percentage.",
		}),
		RosterSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rollcall_roster_students",
			Help: "Students currently on the roster.",
		}),
	}
}

// Update sets the gauges from a freshly computed aggregate.
func (s *Set) Update(st attendance.Stats, rosterSize int) {
	s.Events.Set(float64(st.TotalEvents))
	s.Present.Set(float64(st.TotalPresent))
	s.Absent.Set(float64(st.TotalAbsent))
	s.OverallPercent.Set(float64(st.OverallPercent))
	s.RosterSize.Set(float64(rosterSize))
}
