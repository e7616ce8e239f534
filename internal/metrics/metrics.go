package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics. Registered on the default registry so
// promhttp.Handler picks them up without extra wiring.
var (
	AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hosteldesk_attendance_marks_total",
		Help: "Attendance marks accepted, by stored status.",
	}, []string{"status"})

	SweepBackfills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hosteldesk_sweep_backfills_total",
		Help: "Absent records inserted by the auto-absence sweep.",
	})

	RoomChangeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hosteldesk_room_change_transitions_total",
		Help: "Room-change request transitions, by resulting state.",
	}, []string{"to"})
)
