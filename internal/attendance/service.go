package attendance

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eduscan/internal/access"
	"eduscan/internal/metrics"
	"eduscan/internal/model"
	"eduscan/internal/store"
)

// lateHour is the local hour from which a derived status flips to LATE.
// Exactly 9:00 is already late.
const lateHour = 9

// Outcome is what the caller displays after a successful recording.
type Outcome struct {
	Student  model.Student          `json:"student"`
	Status   model.AttendanceStatus `json:"status"`
	MarkedAt string                 `json:"markedAt"`
}

// Service is the attendance recording engine: identifier resolution, grade
// authorization, time-of-day status derivation and the per-day upsert.
type Service struct {
	store  *store.Store
	window time.Duration

	mu       sync.Mutex
	lastScan map[string]time.Time
}

// NewService creates an engine over st with the given scan debounce window.
func NewService(st *store.Store, window time.Duration) *Service {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &Service{
		store:    st,
		window:   window,
		lastScan: make(map[string]time.Time),
	}
}

// Record resolves rawID to a student, authorizes actor, derives the status
// from now's local hour and upserts the day's record. A nil actor is an
// unattended kiosk; the record is marked by the system sentinel. On any
// failure the store is left untouched.
func (s *Service) Record(rawID string, actor *model.User, now time.Time) (Outcome, error) {
	id := strings.TrimSpace(rawID)
	if id == "" {
		metrics.ScansTotal.WithLabelValues(metrics.ResultUnknown).Inc()
		return Outcome{}, &UnknownStudentError{ID: rawID}
	}
	student, ok, err := s.store.StudentByID(id)
	if err != nil {
		metrics.ScansTotal.WithLabelValues(metrics.ResultError).Inc()
		return Outcome{}, err
	}
	if !ok {
		metrics.ScansTotal.WithLabelValues(metrics.ResultUnknown).Inc()
		return Outcome{}, &UnknownStudentError{ID: id}
	}
	if err := access.AssertCanMark(actor, student); err != nil {
		metrics.ScansTotal.WithLabelValues(metrics.ResultDenied).Inc()
		return Outcome{}, err
	}
	return s.save(student, deriveStatus(now), actor, now)
}

// RecordManual marks a student with an explicitly chosen status (list mode),
// bypassing the time-of-day derivation. This is the only route to ABSENT.
func (s *Service) RecordManual(studentID string, status model.AttendanceStatus, actor *model.User, now time.Time) (Outcome, error) {
	if !status.Valid() {
		return Outcome{}, fmt.Errorf("invalid status %q", status)
	}
	id := strings.TrimSpace(studentID)
	student, ok, err := s.store.StudentByID(id)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, &UnknownStudentError{ID: id}
	}
	if err := access.AssertCanMark(actor, student); err != nil {
		metrics.ScansTotal.WithLabelValues(metrics.ResultDenied).Inc()
		return Outcome{}, err
	}
	return s.save(student, status, actor, now)
}

// Scan is Record behind a per-identifier debounce: the same identifier seen
// again within the window of its last successful outcome is dropped without
// touching the store. Purely a trigger debounce; the per-day upsert already
// makes repeats idempotent in their data effect.
func (s *Service) Scan(rawID string, actor *model.User, now time.Time) (Outcome, error) {
	id := strings.TrimSpace(rawID)
	s.mu.Lock()
	if last, ok := s.lastScan[id]; ok && now.Sub(last) < s.window {
		s.mu.Unlock()
		metrics.ScansTotal.WithLabelValues(metrics.ResultDuplicate).Inc()
		return Outcome{}, ErrDuplicateScan
	}
	s.mu.Unlock()

	out, err := s.Record(id, actor, now)
	if err != nil {
		return Outcome{}, err
	}
	s.mu.Lock()
	s.lastScan[id] = now
	s.mu.Unlock()
	return out, nil
}

func (s *Service) save(student model.Student, status model.AttendanceStatus, actor *model.User, now time.Time) (Outcome, error) {
	markedBy := model.SystemMarker
	if actor != nil {
		markedBy = actor.ID
	}
	rec := model.AttendanceRecord{
		ID:        uuid.NewString(),
		StudentID: student.ID,
		Date:      model.DateOf(now),
		Timestamp: now,
		Status:    status,
		MarkedBy:  markedBy,
	}
	if err := s.store.MarkAttendance(rec); err != nil {
		metrics.ScansTotal.WithLabelValues(metrics.ResultError).Inc()
		return Outcome{}, err
	}
	metrics.ScansTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.RecordsUpserted.Inc()
	return Outcome{
		Student:  student,
		Status:   status,
		MarkedAt: now.Format("3:04:05 PM"),
	}, nil
}

func deriveStatus(now time.Time) model.AttendanceStatus {
	if now.Hour() >= lateHour {
		return model.StatusLate
	}
	return model.StatusPresent
}
