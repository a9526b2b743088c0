// Package access decides which students and grades a user may see and
// mutate. Administrators see everything; teachers are restricted to their
// assigned grade. The checks are pure functions of the acting user and the
// target, and must be applied at every mutation entry point.
package access

import (
	"fmt"

	"eduscan/internal/model"
)

// DeniedError reports a teacher acting outside their assigned grade. Both
// grades are carried so callers can surface an actionable message.
type DeniedError struct {
	Assigned     string
	StudentGrade string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("restricted: assigned to %s, student is in %s", e.Assigned, e.StudentGrade)
}

// CanManageGrade reports whether user may manage students in gradeName.
func CanManageGrade(user *model.User, gradeName string) bool {
	if user == nil {
		return false
	}
	if user.Role == model.RoleAdmin {
		return true
	}
	return user.Role == model.RoleTeacher && user.GradeAssigned == gradeName
}

// VisibleStudents filters students down to what user may see. Admins see all;
// teachers see only their assigned grade, and none at all when unassigned.
func VisibleStudents(user *model.User, students []model.Student) []model.Student {
	if user != nil && user.Role == model.RoleAdmin {
		return students
	}
	visible := make([]model.Student, 0, len(students))
	if user == nil || user.GradeAssigned == "" {
		return visible
	}
	for _, s := range students {
		if s.Grade == user.GradeAssigned {
			visible = append(visible, s)
		}
	}
	return visible
}

// AssertCanMark returns a *DeniedError when a grade-assigned teacher tries to
// mark a student outside that grade. Admins and sessionless (system) callers
// are unrestricted.
func AssertCanMark(user *model.User, student model.Student) error {
	if user == nil || user.Role != model.RoleTeacher || user.GradeAssigned == "" {
		return nil
	}
	if student.Grade != user.GradeAssigned {
		return &DeniedError{Assigned: user.GradeAssigned, StudentGrade: student.Grade}
	}
	return nil
}
