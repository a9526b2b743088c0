package attendance

import (
	"errors"
	"testing"
	"time"

	"eduscan/internal/access"
	"eduscan/internal/model"
	"eduscan/internal/store"
)

// The seeded store has ST-2024-001/002 in Grade 10, ST-2024-003 in Grade 9,
// admin1 and teacher1 (assigned Grade 10).

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, 3*time.Second), st
}

func admin(t *testing.T, st *store.Store) *model.User {
	t.Helper()
	u, err := st.UserByID("admin1")
	if err != nil || u == nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	return u
}

func teacher(t *testing.T, st *store.Store) *model.User {
	t.Helper()
	u, err := st.UserByID("teacher1")
	if err != nil || u == nil {
		t.Fatalf("seeded teacher missing: %v", err)
	}
	return u
}

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 28, hour, min, 0, 0, time.Local)
}

func TestStatusDerivationBoundary(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want model.AttendanceStatus
	}{
		{name: "early morning", now: at(7, 0), want: model.StatusPresent},
		{name: "one minute before nine", now: at(8, 59), want: model.StatusPresent},
		{name: "exactly nine", now: at(9, 0), want: model.StatusLate},
		{name: "afternoon", now: at(14, 30), want: model.StatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t)
			out, err := svc.Record("ST-2024-001", admin(t, st), tt.now)
			if err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			if out.Status != tt.want {
				t.Errorf("Record() status = %s, want %s", out.Status, tt.want)
			}
		})
	}
}

func TestIdempotentDailyUpsert(t *testing.T) {
	svc, st := newTestService(t)
	actor := admin(t, st)

	if _, err := svc.Record("ST-2024-001", actor, at(8, 0)); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}
	out, err := svc.RecordManual("ST-2024-001", model.StatusAbsent, actor, at(10, 0))
	if err != nil {
		t.Fatalf("second Record() error = %v", err)
	}
	if out.Status != model.StatusAbsent {
		t.Errorf("second outcome status = %s, want ABSENT", out.Status)
	}

	records, _ := st.Attendance()
	count := 0
	for _, r := range records {
		if r.StudentID == "ST-2024-001" && r.Date == "2026-08-28" {
			count++
			if r.Status != model.StatusAbsent {
				t.Errorf("surviving record status = %s, want the second write (ABSENT)", r.Status)
			}
		}
	}
	if count != 1 {
		t.Errorf("records for (ST-2024-001, 2026-08-28) = %d, want exactly 1", count)
	}
}

func TestGradeRestrictionNoMutation(t *testing.T) {
	svc, st := newTestService(t)

	// teacher1 is assigned Grade 10; ST-2024-003 is in Grade 9.
	_, err := svc.Record("ST-2024-003", teacher(t, st), at(8, 0))
	var denied *access.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("Record() error = %v, want *access.DeniedError", err)
	}
	if denied.Assigned != "Grade 10" || denied.StudentGrade != "Grade 9" {
		t.Errorf("DeniedError = %+v", denied)
	}

	records, _ := st.Attendance()
	if len(records) != 0 {
		t.Errorf("store records = %d after denial, want 0", len(records))
	}
}

func TestUnknownStudentNoMutation(t *testing.T) {
	svc, st := newTestService(t)

	tests := []struct{ name, id string }{
		{name: "unknown id", id: "NOT-A-REAL-ID"},
		{name: "blank id", id: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(tt.id, admin(t, st), at(8, 0))
			var unknown *UnknownStudentError
			if !errors.As(err, &unknown) {
				t.Fatalf("Record(%q) error = %v, want *UnknownStudentError", tt.id, err)
			}
		})
	}
	records, _ := st.Attendance()
	if len(records) != 0 {
		t.Errorf("store records = %d, want 0", len(records))
	}
}

func TestMarkedBySentinelWithoutSession(t *testing.T) {
	svc, st := newTestService(t)

	if _, err := svc.Record("ST-2024-001", nil, at(8, 0)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	records, _ := st.Attendance()
	if len(records) != 1 || records[0].MarkedBy != model.SystemMarker {
		t.Errorf("records = %+v, want one record marked by %q", records, model.SystemMarker)
	}
}

func TestScanDebounce(t *testing.T) {
	svc, st := newTestService(t)
	actor := admin(t, st)
	base := at(8, 0)

	if _, err := svc.Scan("ST-2024-001", actor, base); err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}
	if _, err := svc.Scan("ST-2024-001", actor, base.Add(2*time.Second)); err != ErrDuplicateScan {
		t.Errorf("repeat within window error = %v, want ErrDuplicateScan", err)
	}
	// A different identifier inside the window is not suppressed.
	if _, err := svc.Scan("ST-2024-002", actor, base.Add(2*time.Second)); err != nil {
		t.Errorf("different id within window error = %v, want nil", err)
	}
	// Past the window the same identifier records again.
	if _, err := svc.Scan("ST-2024-001", actor, base.Add(4*time.Second)); err != nil {
		t.Errorf("repeat past window error = %v, want nil", err)
	}
}

func TestScanFailureDoesNotArmDebounce(t *testing.T) {
	svc, st := newTestService(t)
	actor := admin(t, st)
	base := at(8, 0)

	if _, err := svc.Scan("NOT-A-REAL-ID", actor, base); err == nil {
		t.Fatal("Scan(unknown) error = nil, want UnknownStudentError")
	}
	// The failed scan must not count as a "successful outcome" for debounce.
	_, err := svc.Scan("NOT-A-REAL-ID", actor, base.Add(time.Second))
	var unknown *UnknownStudentError
	if !errors.As(err, &unknown) {
		t.Errorf("second Scan(unknown) error = %v, want *UnknownStudentError again", err)
	}
}

func TestRecordManualValidatesStatus(t *testing.T) {
	svc, st := newTestService(t)
	if _, err := svc.RecordManual("ST-2024-001", "SLEEPING", admin(t, st), at(8, 0)); err == nil {
		t.Error("RecordManual(invalid status) error = nil, want error")
	}
}
