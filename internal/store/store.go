package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"eduscan/internal/model"
)

// Logical document keys. Each key holds one whole JSON document that is read
// and rewritten in full on every access.
const (
	keyUsers      = "users"
	keyStudents   = "students"
	keyAttendance = "attendance"
	keyGrades     = "grades"
	keySession    = "session"
)

// Store is a process-local document store over sqlite: one row per logical
// key, the value a JSON array (or object, for the session slot). The mutex
// serializes read-modify-write cycles so handlers and the scan consumer never
// interleave a mutation.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the store at path and runs first-run
// seeding. Use ":memory:" for a throwaway store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &Store{db: db}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) readDoc(key string, out any) (bool, error) {
	var doc string
	err := s.db.QueryRow(`SELECT doc FROM documents WHERE key = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(doc), out)
}

func (s *Store) writeDoc(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO documents (key, doc) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc`, key, string(b))
	return err
}

func (s *Store) deleteDoc(key string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE key = ?`, key)
	return err
}

// Users returns all staff accounts.
func (s *Store) Users() ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	if _, err := s.readDoc(keyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUser upserts a user by id, preserving its position in the collection.
func (s *Store) SaveUser(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	if _, err := s.readDoc(keyUsers, &users); err != nil {
		return err
	}
	return s.writeDoc(keyUsers, upsert(users, u, func(x model.User) string { return x.ID }))
}

// DeleteUser removes a user by id; a miss is not an error.
func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	if _, err := s.readDoc(keyUsers, &users); err != nil {
		return err
	}
	return s.writeDoc(keyUsers, remove(users, id, func(x model.User) string { return x.ID }))
}

// Students returns all students.
func (s *Store) Students() ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var students []model.Student
	if _, err := s.readDoc(keyStudents, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// StudentByID looks a student up by exact id. The second return is false when
// no student matches.
func (s *Store) StudentByID(id string) (model.Student, bool, error) {
	students, err := s.Students()
	if err != nil {
		return model.Student{}, false, err
	}
	for _, st := range students {
		if st.ID == id {
			return st, true, nil
		}
	}
	return model.Student{}, false, nil
}

// SaveStudent upserts a student by id, preserving position.
func (s *Store) SaveStudent(st model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var students []model.Student
	if _, err := s.readDoc(keyStudents, &students); err != nil {
		return err
	}
	return s.writeDoc(keyStudents, upsert(students, st, func(x model.Student) string { return x.ID }))
}

// DeleteStudent removes a student by id; a miss is not an error. Attendance
// records referencing the student are left in place.
func (s *Store) DeleteStudent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var students []model.Student
	if _, err := s.readDoc(keyStudents, &students); err != nil {
		return err
	}
	return s.writeDoc(keyStudents, remove(students, id, func(x model.Student) string { return x.ID }))
}

// Grades returns all grades, regenerating the ten defaults whenever the
// collection is missing or empty. The regenerated set is persisted before
// returning, so a full wipe heals itself on the next read.
func (s *Store) Grades() ([]model.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var grades []model.Grade
	if _, err := s.readDoc(keyGrades, &grades); err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		grades = defaultGrades()
		if err := s.writeDoc(keyGrades, grades); err != nil {
			return nil, err
		}
	}
	return grades, nil
}

// SaveGrade upserts a grade by id, preserving position.
func (s *Store) SaveGrade(g model.Grade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var grades []model.Grade
	if _, err := s.readDoc(keyGrades, &grades); err != nil {
		return err
	}
	return s.writeDoc(keyGrades, upsert(grades, g, func(x model.Grade) string { return x.ID }))
}

// DeleteGrade removes a grade by id. Students and users referencing the
// grade's name keep their now-dangling reference; grade is a free-text field
// and deletion does not cascade.
func (s *Store) DeleteGrade(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var grades []model.Grade
	if _, err := s.readDoc(keyGrades, &grades); err != nil {
		return err
	}
	return s.writeDoc(keyGrades, remove(grades, id, func(x model.Grade) string { return x.ID }))
}

// Attendance returns every attendance record.
func (s *Store) Attendance() ([]model.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []model.AttendanceRecord
	if _, err := s.readDoc(keyAttendance, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MarkAttendance writes rec, replacing any existing record with the same
// (StudentID, Date) pair. Last write wins; no history is kept.
func (s *Store) MarkAttendance(rec model.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []model.AttendanceRecord
	if _, err := s.readDoc(keyAttendance, &records); err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.StudentID == rec.StudentID && r.Date == rec.Date {
			continue
		}
		kept = append(kept, r)
	}
	return s.writeDoc(keyAttendance, append(kept, rec))
}

// Session returns the active user, or nil when logged out.
func (s *Store) Session() (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var u model.User
	ok, err := s.readDoc(keySession, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// SetSession stores u as the active session.
func (s *Store) SetSession(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeDoc(keySession, u)
}

// ClearSession logs out.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteDoc(keySession)
}

// Login matches a user by email and role. There is no password check; any
// credential matching an email+role pair is accepted. Returns nil when no
// user matches.
func (s *Store) Login(email string, role model.UserRole) (*model.User, error) {
	users, err := s.Users()
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	for _, u := range users {
		if strings.ToLower(u.Email) == email && u.Role == role {
			return &u, nil
		}
	}
	return nil, nil
}

// UserByID looks a staff account up by id.
func (s *Store) UserByID(id string) (*model.User, error) {
	users, err := s.Users()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

// upsert replaces the element with the same id in place, or appends.
func upsert[T any](items []T, item T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// remove drops the element with the given id, if present.
func remove[T any](items []T, target string, id func(T) string) []T {
	kept := items[:0]
	for _, it := range items {
		if id(it) == target {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}
