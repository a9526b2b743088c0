package report

import (
	"testing"
	"time"

	"eduscan/internal/model"
)

func rec(student, date string, status model.AttendanceStatus) model.AttendanceRecord {
	return model.AttendanceRecord{StudentID: student, Date: date, Status: status}
}

func TestPerStudentSummary(t *testing.T) {
	records := []model.AttendanceRecord{
		rec("s1", "2026-08-25", model.StatusPresent),
		rec("s1", "2026-08-26", model.StatusPresent),
		rec("s1", "2026-08-27", model.StatusLate),
		rec("s1", "2026-08-28", model.StatusAbsent),
		rec("s2", "2026-08-28", model.StatusPresent), // other student, ignored
	}
	got := PerStudentSummary("s1", records)
	want := Summary{Total: 4, Present: 2, Absent: 1, Late: 1, Percentage: 50}
	if got != want {
		t.Errorf("PerStudentSummary() = %+v, want %+v", got, want)
	}
}

func TestPerStudentSummaryEmpty(t *testing.T) {
	got := PerStudentSummary("s1", nil)
	if got.Total != 0 || got.Percentage != 0 {
		t.Errorf("PerStudentSummary(no records) = %+v, want zero totals and percentage 0", got)
	}
}

func TestPerStudentSummaryRounding(t *testing.T) {
	records := []model.AttendanceRecord{
		rec("s1", "d1", model.StatusPresent),
		rec("s1", "d2", model.StatusPresent),
		rec("s1", "d3", model.StatusAbsent),
	}
	if got := PerStudentSummary("s1", records); got.Percentage != 67 {
		t.Errorf("Percentage = %d, want 67 (2/3 rounded)", got.Percentage)
	}
}

func TestDailyTotals(t *testing.T) {
	records := []model.AttendanceRecord{
		rec("s1", "2026-08-28", model.StatusPresent),
		rec("s2", "2026-08-28", model.StatusLate),
		rec("s3", "2026-08-28", model.StatusAbsent),
		rec("s1", "2026-08-27", model.StatusPresent), // different day
	}
	got := DailyTotals(records, "2026-08-28")
	if got.Present != 1 || got.Late != 1 || got.Absent != 1 {
		t.Errorf("DailyTotals() = %+v, want 1/1/1", got)
	}
}

func TestTrailingWindow(t *testing.T) {
	anchor := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	records := []model.AttendanceRecord{
		rec("s1", "2026-08-28", model.StatusPresent),
		rec("s2", "2026-08-28", model.StatusAbsent),
		rec("s1", "2026-08-26", model.StatusPresent),
		rec("s1", "2026-08-20", model.StatusPresent), // outside window
	}
	got := TrailingWindow(records, 5, anchor)
	if len(got) != 5 {
		t.Fatalf("TrailingWindow() = %d entries, want 5", len(got))
	}
	wantDates := []string{"2026-08-24", "2026-08-25", "2026-08-26", "2026-08-27", "2026-08-28"}
	for i, d := range wantDates {
		if got[i].Date != d {
			t.Errorf("window[%d].Date = %s, want %s (oldest first)", i, got[i].Date, d)
		}
	}
	// Zero-record days appear with zero counts, not omitted.
	if got[0].Present != 0 || got[0].Absent != 0 {
		t.Errorf("window[0] = %+v, want zero counts", got[0])
	}
	if got[2].Present != 1 {
		t.Errorf("window[2].Present = %d, want 1", got[2].Present)
	}
	if got[4].Present != 1 || got[4].Absent != 1 {
		t.Errorf("window[4] = %+v, want 1 present 1 absent", got[4])
	}
}

func TestExportCSV(t *testing.T) {
	students := []model.Student{
		{ID: "ST-1", Name: "Alice Smith", Grade: "Grade 10"},
		{ID: "ST-2", Name: "Eva Green", Grade: "Grade 9"},
	}
	records := []model.AttendanceRecord{
		rec("ST-1", "2026-08-27", model.StatusPresent),
		rec("ST-1", "2026-08-28", model.StatusLate),
	}
	got := ExportCSV(students, records)
	want := "Student ID, Name, Grade, Total Days, Present, Absent, Late\n" +
		"ST-1, Alice Smith, Grade 10, 2, 1, 0, 1\n" +
		"ST-2, Eva Green, Grade 9, 0, 0, 0, 0\n"
	if got != want {
		t.Errorf("ExportCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.Local)
	if got := ExportFilename(now); got != "Attendance_Report_2026-08-28.csv" {
		t.Errorf("ExportFilename() = %s", got)
	}
}
