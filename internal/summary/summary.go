// Package summary is the AI-report boundary: a Summarizer capability that
// turns a read-only snapshot of students and attendance into a prose string.
// Failures never propagate past Report; callers always get displayable text.
package summary

import (
	"context"
	"fmt"
	"log"
	"strings"

	"eduscan/internal/metrics"
	"eduscan/internal/model"
	"eduscan/internal/report"
)

// Fixed fallback strings surfaced instead of errors.
const (
	MsgNotConfigured = "API Key not configured. Please add your Gemini API Key."
	MsgFailed        = "Failed to generate AI report."
	MsgEmpty         = "No analysis generated."
)

// Snapshot is the read-only dataset handed to the provider.
type Snapshot struct {
	Students []model.Student
	Records  []model.AttendanceRecord
}

// Summarizer generates a prose report from a snapshot.
type Summarizer interface {
	Generate(ctx context.Context, snap Snapshot) (string, error)
}

// Report wraps a Summarizer with the fixed sentinels: a nil summarizer means
// no API key is configured and the provider is never invoked; a provider
// failure yields the failure sentinel rather than an error.
func Report(ctx context.Context, s Summarizer, snap Snapshot) string {
	if s == nil {
		metrics.SummaryRequests.WithLabelValues("unconfigured").Inc()
		return MsgNotConfigured
	}
	text, err := s.Generate(ctx, snap)
	if err != nil {
		log.Printf("summary generation failed: %v", err)
		metrics.SummaryRequests.WithLabelValues("error").Inc()
		return MsgFailed
	}
	metrics.SummaryRequests.WithLabelValues("ok").Inc()
	if strings.TrimSpace(text) == "" {
		return MsgEmpty
	}
	return text
}

// BuildPrompt condenses the snapshot to one line per student before asking
// for trends, at-risk students and positives.
func BuildPrompt(snap Snapshot) string {
	var lines []string
	for _, s := range snap.Students {
		sum := report.PerStudentSummary(s.ID, snap.Records)
		lines = append(lines, fmt.Sprintf("%s (%s): Present %d, Absent %d, Late %d",
			s.Name, s.Grade, sum.Present, sum.Absent, sum.Late))
	}
	return fmt.Sprintf(`Analyze the following student attendance data and provide a brief executive summary.
Identify trends, students at risk of chronic absenteeism, and positive behaviors.
Keep it professional and concise (max 3 paragraphs).

Data:
%s`, strings.Join(lines, "\n"))
}
