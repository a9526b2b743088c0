package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters, exposed on /metrics via promhttp.
var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eduscan_scans_total",
		Help: "Scan and manual attendance attempts by result.",
	}, []string{"result"})

	RecordsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eduscan_attendance_upserts_total",
		Help: "Attendance records written (insert or same-day replace).",
	})

	SummaryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eduscan_ai_summary_requests_total",
		Help: "AI summary generations by result.",
	}, []string{"result"})
)

// Scan result label values.
const (
	ResultOK        = "ok"
	ResultDuplicate = "duplicate"
	ResultUnknown   = "unknown_student"
	ResultDenied    = "denied"
	ResultError     = "error"
)
