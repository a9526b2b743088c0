package model

import "time"

// UserRole distinguishes school administrators from grade-assigned teachers.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
)

// AttendanceStatus is the per-day outcome for a student.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusLate    AttendanceStatus = "LATE"
)

// Valid reports whether s is one of the three known statuses.
func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLate
}

// SystemMarker is recorded as markedBy when no user session is active,
// e.g. attendance arriving from an unattended scanner kiosk.
const SystemMarker = "system"

// User is a staff account. GradeAssigned is set only for teachers and names
// a Grade by its display name, not its id.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          UserRole `json:"role"`
	GradeAssigned string   `json:"gradeAssigned,omitempty"`
}

// Student is a registered student. ID doubles as the scan payload printed on
// the student's ID card. Grade is a denormalized grade name; it should match
// some Grade.Name but is tolerated as free text when it does not.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FatherName string `json:"fatherName"`
	Grade      string `json:"grade"`
	Section    string `json:"section"`
	RollNo     string `json:"rollNo"`
	Contact    string `json:"contact"`
}

// Grade is a class level with its subject list.
type Grade struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
}

// AttendanceRecord is one student's outcome for one calendar day.
// (StudentID, Date) is the natural key: the store keeps at most one record
// per pair, last write wins.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	StudentID string           `json:"studentId"`
	Date      string           `json:"date"` // local calendar day, YYYY-MM-DD
	Timestamp time.Time        `json:"timestamp"`
	Status    AttendanceStatus `json:"status"`
	MarkedBy  string           `json:"markedBy"`
}

// DateOf formats t as the local calendar day used in AttendanceRecord.Date.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
