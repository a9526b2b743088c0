// Package report computes read-only views over the attendance collection.
// Everything here is recomputed from the full record set on each call; at the
// expected scale a linear scan beats maintaining indexes.
package report

import (
	"math"
	"time"

	"eduscan/internal/model"
)

// Totals are status counts for a single day.
type Totals struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
	Absent  int    `json:"absent"`
}

// DayCount is one point of a trailing-window series.
type DayCount struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
}

// Summary is one student's all-time attendance rollup.
type Summary struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Late       int `json:"late"`
	Percentage int `json:"percentage"`
}

// DailyTotals counts statuses among records for the given calendar date.
func DailyTotals(records []model.AttendanceRecord, date string) Totals {
	t := Totals{Date: date}
	for _, r := range records {
		if r.Date != date {
			continue
		}
		switch r.Status {
		case model.StatusPresent:
			t.Present++
		case model.StatusLate:
			t.Late++
		case model.StatusAbsent:
			t.Absent++
		}
	}
	return t
}

// TrailingWindow returns one DayCount per day for the last n calendar days
// ending at anchor, oldest first. Days with no records appear with zero
// counts rather than being omitted.
func TrailingWindow(records []model.AttendanceRecord, days int, anchor time.Time) []DayCount {
	if days <= 0 {
		days = 5
	}
	out := make([]DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := model.DateOf(anchor.AddDate(0, 0, -i))
		dc := DayCount{Date: date}
		for _, r := range records {
			if r.Date != date {
				continue
			}
			switch r.Status {
			case model.StatusPresent:
				dc.Present++
			case model.StatusAbsent:
				dc.Absent++
			}
		}
		out = append(out, dc)
	}
	return out
}

// PerStudentSummary rolls up every record for one student. Percentage is
// present/total rounded to the nearest integer, 0 when there are no records.
func PerStudentSummary(studentID string, records []model.AttendanceRecord) Summary {
	var s Summary
	for _, r := range records {
		if r.StudentID != studentID {
			continue
		}
		s.Total++
		switch r.Status {
		case model.StatusPresent:
			s.Present++
		case model.StatusAbsent:
			s.Absent++
		case model.StatusLate:
			s.Late++
		}
	}
	if s.Total > 0 {
		s.Percentage = int(math.Round(float64(s.Present) / float64(s.Total) * 100))
	}
	return s
}
