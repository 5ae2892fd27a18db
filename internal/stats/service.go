// Package stats computes attendance aggregates on demand from current store
// state. Nothing is materialized; results always reflect the latest ledger
// at query time, at a cost linear in session count.
package stats

import (
	"context"
	"sort"

	"classlogger/internal/attendance"
	"classlogger/internal/directory"
	"classlogger/internal/model"
	"classlogger/internal/session"
)

// Service aggregates ledger and session data per student.
type Service struct {
	sessions *session.Repository
	records  *attendance.Repository
	dir      *directory.Directory
}

// NewService creates an aggregation service.
func NewService(sessions *session.Repository, records *attendance.Repository, dir *directory.Directory) *Service {
	return &Service{sessions: sessions, records: records, dir: dir}
}

// SubjectAttendanceForStudent reports, for every subject in every classroom
// the student belongs to, how many sessions were held, how many the student
// attended, and the resulting percentage (0 when no sessions were held).
func (s *Service) SubjectAttendanceForStudent(ctx context.Context, studentID string) ([]model.SubjectAttendance, error) {
	student, err := s.dir.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]model.SubjectAttendance, 0)
	for _, classroomID := range student.Classrooms {
		classroom, err := s.dir.Classroom(ctx, classroomID)
		if err != nil {
			return nil, err
		}
		for _, subjectID := range classroom.Subjects {
			subject, err := s.dir.Subject(ctx, subjectID)
			if err != nil {
				// A dangling subject reference skips that subject rather
				// than losing the whole report.
				continue
			}
			total, attended, err := s.countForSubject(ctx, studentID, subjectID)
			if err != nil {
				return nil, err
			}
			percentage := 0.0
			if total > 0 {
				percentage = float64(attended) / float64(total) * 100
			}
			out = append(out, model.SubjectAttendance{
				SubjectID:       subjectID,
				SubjectName:     subject.Name,
				SubjectCode:     subject.Code,
				TotalClasses:    total,
				AttendedClasses: attended,
				Percentage:      percentage,
			})
		}
	}
	return out, nil
}

func (s *Service) countForSubject(ctx context.Context, studentID, subjectID string) (total, attended int, err error) {
	sessions, err := s.sessions.BySubject(ctx, subjectID)
	if err != nil {
		return 0, 0, err
	}
	for _, sess := range sessions {
		total++
		rec, err := s.records.Find(ctx, sess.ID, studentID)
		if err != nil {
			return 0, 0, err
		}
		if rec != nil && rec.Status == model.Present {
			attended++
		}
	}
	return total, attended, nil
}

// History returns the student's per-session record for one subject, newest
// first by session start time. Sessions without a record appear as ABSENT.
// Only sessions held in classrooms the student belongs to are counted.
func (s *Service) History(ctx context.Context, studentID, subjectID string) ([]model.AttendanceRecord, error) {
	student, err := s.dir.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	subject, err := s.dir.Subject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	memberships := make(map[string]bool, len(student.Classrooms))
	for _, id := range student.Classrooms {
		memberships[id] = true
	}

	sessions, err := s.sessions.BySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	history := make([]model.AttendanceRecord, 0, len(sessions))
	for _, sess := range sessions {
		if !memberships[sess.ClassroomID] {
			continue
		}
		entry := model.AttendanceRecord{
			SessionID:   sess.ID,
			SubjectName: subject.Name,
			Date:        sess.Date,
			StartTime:   sess.StartTime,
			EndTime:     sess.EndTime,
			Status:      model.Absent,
		}
		rec, err := s.records.Find(ctx, sess.ID, studentID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			entry.Status = rec.Status
			entry.MarkedAt = rec.MarkedAt
			entry.SelfieURL = rec.SelfieURL
		}
		history = append(history, entry)
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].StartTime > history[j].StartTime
	})
	return history, nil
}
