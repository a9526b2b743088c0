package report

import (
	"fmt"
	"strings"
	"time"

	"eduscan/internal/model"
)

// csvHeader is the exact export header; consumers parse it verbatim, so the
// comma-space separation is part of the format.
const csvHeader = "Student ID, Name, Grade, Total Days, Present, Absent, Late"

// ExportCSV renders the per-student summary for every student, one row each,
// in student order.
func ExportCSV(students []model.Student, records []model.AttendanceRecord) string {
	var b strings.Builder
	b.WriteString(csvHeader + "\n")
	for _, s := range students {
		sum := PerStudentSummary(s.ID, records)
		fmt.Fprintf(&b, "%s, %s, %s, %d, %d, %d, %d\n",
			s.ID, s.Name, s.Grade, sum.Total, sum.Present, sum.Absent, sum.Late)
	}
	return b.String()
}

// ExportFilename stamps the export with the current date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("Attendance_Report_%s.csv", model.DateOf(now))
}
