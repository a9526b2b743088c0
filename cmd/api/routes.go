package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	qrcode "github.com/skip2/go-qrcode"

	"eduscan/internal/access"
	"eduscan/internal/attendance"
	"eduscan/internal/auth"
	"eduscan/internal/config"
	"eduscan/internal/model"
	"eduscan/internal/report"
	"eduscan/internal/scan"
	"eduscan/internal/store"
	"eduscan/internal/summary"
)

type server struct {
	cfg        config.App
	store      *store.Store
	engine     *attendance.Service
	summarizer *summary.GeminiClient
	redis      *redis.Client
	source     scan.Source
}

func (s server) routes(r *gin.Engine) {
	r.POST("/v1/login", s.login)

	v1 := r.Group("/v1", auth.Bearer(s.cfg.JWTSigningKey, s.cfg.JWTIssuer))
	v1.POST("/logout", s.logout)
	v1.GET("/session", s.session)

	admin := v1.Group("", auth.AdminOnly())
	admin.GET("/users", s.listUsers)
	admin.POST("/users", s.saveUser)
	admin.DELETE("/users/:id", s.deleteUser)
	admin.POST("/grades", s.saveGrade)
	admin.DELETE("/grades/:id", s.deleteGrade)

	v1.GET("/grades", s.listGrades)

	v1.GET("/students", s.listStudents)
	v1.POST("/students", s.saveStudent)
	v1.DELETE("/students/:id", s.deleteStudent)
	v1.GET("/students/:id/idcard.png", s.idCard)

	v1.POST("/scanner/feed", s.feedScanner)
	v1.POST("/scanner/stop", s.stopScanner)

	v1.POST("/attendance/scan", s.recordScan)
	v1.POST("/attendance", s.recordManual)
	v1.GET("/attendance", s.dayAttendance)

	v1.GET("/reports/daily", s.reportDaily)
	v1.GET("/reports/window", s.reportWindow)
	v1.GET("/reports/students/:id", s.reportStudent)
	v1.GET("/reports/export.csv", s.exportCSV)
	v1.POST("/reports/summary", s.aiSummary)

	v1.GET("/dashboard", s.dashboard)
}

// actor resolves the acting user from the bearer claims. Returns nil (not an
// error) when the account has since been deleted.
func (s server) actor(c *gin.Context) (*model.User, error) {
	claimsAny, _ := c.Get(auth.ClaimsKey)
	claims, ok := claimsAny.(auth.Claims)
	if !ok {
		return nil, errors.New("no claims in context")
	}
	return s.store.UserByID(claims.Subject)
}

func (s server) login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role" binding:"required,oneof=ADMIN TEACHER"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.store.Login(req.Email, model.UserRole(req.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := s.store.SetSession(*user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	token, exp, err := auth.Issue(*user, s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.Unix(),
		"user":       user,
	})
}

func (s server) logout(c *gin.Context) {
	if err := s.store.ClearSession(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s server) session(c *gin.Context) {
	user, err := s.store.Session()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s server) listUsers(c *gin.Context) {
	users, err := s.store.Users()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s server) saveUser(c *gin.Context) {
	var req struct {
		ID            string `json:"id"`
		Name          string `json:"name" binding:"required"`
		Email         string `json:"email" binding:"required,email"`
		Role          string `json:"role" binding:"required,oneof=ADMIN TEACHER"`
		GradeAssigned string `json:"gradeAssigned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := model.User{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		Role:  model.UserRole(req.Role),
	}
	if u.Role == model.RoleTeacher {
		u.GradeAssigned = req.GradeAssigned
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := s.store.SaveUser(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s server) deleteUser(c *gin.Context) {
	if err := s.store.DeleteUser(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s server) listGrades(c *gin.Context) {
	grades, err := s.store.Grades()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"grades": grades})
}

func (s server) saveGrade(c *gin.Context) {
	var req struct {
		ID       string   `json:"id"`
		Name     string   `json:"name" binding:"required"`
		Subjects []string `json:"subjects"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g := model.Grade{ID: req.ID, Name: req.Name, Subjects: req.Subjects}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if err := s.store.SaveGrade(g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, g)
}

// deleteGrade does not cascade: students and teachers referencing the grade
// name keep a dangling reference, tolerated because grade is free text.
func (s server) deleteGrade(c *gin.Context) {
	if err := s.store.DeleteGrade(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s server) listStudents(c *gin.Context) {
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	students, err := s.store.Students()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": access.VisibleStudents(actor, students)})
}

func (s server) saveStudent(c *gin.Context) {
	var req struct {
		ID         string `json:"id"`
		Name       string `json:"name" binding:"required"`
		FatherName string `json:"fatherName"`
		Grade      string `json:"grade" binding:"required"`
		Section    string `json:"section"`
		RollNo     string `json:"rollNo"`
		Contact    string `json:"contact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !access.CanManageGrade(actor, req.Grade) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to manage " + req.Grade})
		return
	}
	if req.ID != "" {
		// Editing an existing student must also be allowed for its current grade.
		existing, found, err := s.store.StudentByID(req.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if found && !access.CanManageGrade(actor, existing.Grade) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to manage " + existing.Grade})
			return
		}
	}
	st := model.Student{
		ID:         req.ID,
		Name:       req.Name,
		FatherName: req.FatherName,
		Grade:      req.Grade,
		Section:    req.Section,
		RollNo:     req.RollNo,
		Contact:    req.Contact,
	}
	if st.ID == "" {
		st.ID = newStudentID(time.Now())
	}
	if err := s.store.SaveStudent(st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (s server) deleteStudent(c *gin.Context) {
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	st, found, err := s.store.StudentByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if found && !access.CanManageGrade(actor, st.Grade) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to manage " + st.Grade})
		return
	}
	if err := s.store.DeleteStudent(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// idCard renders a PNG QR code of the student id, the same payload the
// scanner decodes back at the gate.
func (s server) idCard(c *gin.Context) {
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	st, found, err := s.store.StudentByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	if !access.CanManageGrade(actor, st.Grade) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to manage " + st.Grade})
		return
	}
	png, err := qrcode.Encode(st.ID, qrcode.Medium, 300)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// feedScanner injects a decoded payload into the in-memory scan source, the
// path a USB/webcam decoder on the same host uses. With the redis backend,
// kiosks push straight to the list instead.
func (s server) feedScanner(c *gin.Context) {
	var req struct {
		Payload string `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	src, ok := s.source.(*scan.ChannelSource)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "scanner feed runs through redis on this deployment"})
		return
	}
	if err := src.Emit(req.Payload); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// stopScanner releases the scan source. Scans stop flowing until restart.
func (s server) stopScanner(c *gin.Context) {
	if err := s.source.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s server) recordScan(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out, err := s.engine.Scan(req.Identifier, actor, time.Now())
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s server) recordManual(c *gin.Context) {
	var req struct {
		StudentID string `json:"student_id" binding:"required"`
		Status    string `json:"status" binding:"omitempty,oneof=PRESENT ABSENT LATE"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var out attendance.Outcome
	if req.Status == "" {
		out, err = s.engine.Record(req.StudentID, actor, time.Now())
	} else {
		out, err = s.engine.RecordManual(req.StudentID, model.AttendanceStatus(req.Status), actor, time.Now())
	}
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// dayAttendance lists the records for one calendar day, restricted to
// students the caller can see. Backs list mode.
func (s server) dayAttendance(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = model.DateOf(time.Now())
	}
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	students, err := s.store.Students()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	visible := make(map[string]bool)
	for _, st := range access.VisibleStudents(actor, students) {
		visible[st.ID] = true
	}
	records, err := s.store.Attendance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	day := make([]model.AttendanceRecord, 0)
	for _, r := range records {
		if r.Date == date && visible[r.StudentID] {
			day = append(day, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "records": day})
}

func (s server) reportDaily(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = model.DateOf(time.Now())
	}
	records, err := s.store.Attendance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report.DailyTotals(records, date))
}

func (s server) reportWindow(c *gin.Context) {
	days := 5
	if v := c.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			days = parsed
		}
	}
	records, err := s.store.Attendance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": report.TrailingWindow(records, days, time.Now())})
}

func (s server) reportStudent(c *gin.Context) {
	records, err := s.store.Attendance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report.PerStudentSummary(c.Param("id"), records))
}

func (s server) exportCSV(c *gin.Context) {
	students, err := s.store.Students()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	records, err := s.store.Attendance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	csv := report.ExportCSV(students, records)
	c.Header("Content-Disposition", `attachment; filename="`+report.ExportFilename(time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}

func (s server) aiSummary(c *gin.Context) {
	students, err := s.store.Students()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	records, err := s.store.Attendance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	snap := summary.Snapshot{Students: students, Records: records}
	var sm summary.Summarizer
	if s.summarizer != nil {
		sm = s.summarizer
	}
	c.JSON(http.StatusOK, gin.H{"report": summary.Report(c.Request.Context(), sm, snap)})
}

// dashboard returns grade-scoped today's totals and the trailing 5-day
// series, the way the landing page consumes them.
func (s server) dashboard(c *gin.Context) {
	actor, err := s.actor(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	students, err := s.store.Students()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	records, err := s.store.Attendance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	visible := access.VisibleStudents(actor, students)
	ids := make(map[string]bool, len(visible))
	for _, st := range visible {
		ids[st.ID] = true
	}
	scoped := make([]model.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if ids[r.StudentID] {
			scoped = append(scoped, r)
		}
	}
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"totalStudents": len(visible),
		"today":         report.DailyTotals(scoped, model.DateOf(now)),
		"series":        report.TrailingWindow(scoped, 5, now),
	})
}

// respondRecordError maps engine failures to HTTP statuses. Duplicate scans
// are not failures; we acknowledge and drop them.
func respondRecordError(c *gin.Context, err error) {
	var unknown *attendance.UnknownStudentError
	var denied *access.DeniedError
	switch {
	case errors.Is(err, attendance.ErrDuplicateScan):
		c.JSON(http.StatusOK, gin.H{"duplicate": true})
	case errors.As(err, &unknown):
		c.JSON(http.StatusNotFound, gin.H{"error": unknown.Error()})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{
			"error":         denied.Error(),
			"assignedGrade": denied.Assigned,
			"studentGrade":  denied.StudentGrade,
		})
	default:
		log.Printf("attendance recording failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// newStudentID mints an externally visible student id; this is the payload
// printed into the ID-card QR.
func newStudentID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ST-%d-%s", now.Year(), suffix)
}
