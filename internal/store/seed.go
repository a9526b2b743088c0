package store

import (
	"fmt"

	"eduscan/internal/model"
)

// defaultGrades builds the ten canonical grades, each with the fixed
// four-subject list.
func defaultGrades() []model.Grade {
	grades := make([]model.Grade, 0, 10)
	for i := 1; i <= 10; i++ {
		grades = append(grades, model.Grade{
			ID:       fmt.Sprintf("g%d", i),
			Name:     fmt.Sprintf("Grade %d", i),
			Subjects: []string{"Math", "Science", "English", "History"},
		})
	}
	return grades
}

// seed populates first-run defaults. Users and students seed only when their
// document has never been written; grades also regenerate when the document
// exists but holds an empty array, so deleting every grade heals itself.
func (s *Store) seed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []model.User
	ok, err := s.readDoc(keyUsers, &users)
	if err != nil {
		return err
	}
	if !ok {
		users = []model.User{
			{ID: "admin1", Name: "Super Admin", Email: "admin@school.com", Role: model.RoleAdmin},
			{ID: "teacher1", Name: "John Doe", Email: "teacher@school.com", Role: model.RoleTeacher, GradeAssigned: "Grade 10"},
		}
		if err := s.writeDoc(keyUsers, users); err != nil {
			return err
		}
	}

	var grades []model.Grade
	if _, err := s.readDoc(keyGrades, &grades); err != nil {
		return err
	}
	if len(grades) == 0 {
		if err := s.writeDoc(keyGrades, defaultGrades()); err != nil {
			return err
		}
	}

	var students []model.Student
	ok, err = s.readDoc(keyStudents, &students)
	if err != nil {
		return err
	}
	if !ok {
		students = []model.Student{
			{ID: "ST-2024-001", Name: "Alice Smith", FatherName: "Bob Smith", Grade: "Grade 10", Section: "A", RollNo: "101", Contact: "555-0101"},
			{ID: "ST-2024-002", Name: "Charlie Brown", FatherName: "David Brown", Grade: "Grade 10", Section: "A", RollNo: "102", Contact: "555-0102"},
			{ID: "ST-2024-003", Name: "Eva Green", FatherName: "Frank Green", Grade: "Grade 9", Section: "B", RollNo: "201", Contact: "555-0103"},
		}
		if err := s.writeDoc(keyStudents, students); err != nil {
			return err
		}
	}
	return nil
}
