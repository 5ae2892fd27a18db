// Package directory is the single read-through lookup layer for profile and
// configuration documents. Every workflow that needs a teacher, student,
// classroom or subject goes through here instead of fetching ad hoc, so the
// decode-and-validate step lives in one place.
package directory

import (
	"context"

	"classlogger/internal/apperr"
	"classlogger/internal/docstore"
	"classlogger/internal/model"
)

// Directory resolves entity documents from the remote store.
type Directory struct {
	store docstore.Store
}

// New creates a directory over the given store.
func New(store docstore.Store) *Directory {
	return &Directory{store: store}
}

// Teacher fetches a teacher profile.
func (d *Directory) Teacher(ctx context.Context, id string) (model.Teacher, error) {
	var t model.Teacher
	if err := d.store.Get(ctx, docstore.Teachers, id, &t); err != nil {
		return model.Teacher{}, err
	}
	if t.ID == "" || t.Name == "" {
		return model.Teacher{}, apperr.Newf(apperr.NotFound, "teacher %s has no usable profile", id)
	}
	return t, nil
}

// Student fetches a student profile.
func (d *Directory) Student(ctx context.Context, id string) (model.Student, error) {
	var s model.Student
	if err := d.store.Get(ctx, docstore.Students, id, &s); err != nil {
		return model.Student{}, err
	}
	if s.ID == "" || s.Name == "" {
		return model.Student{}, apperr.Newf(apperr.NotFound, "student %s has no usable profile", id)
	}
	return s, nil
}

// Classroom fetches a classroom configuration document.
func (d *Directory) Classroom(ctx context.Context, id string) (model.Classroom, error) {
	var c model.Classroom
	if err := d.store.Get(ctx, docstore.Classrooms, id, &c); err != nil {
		return model.Classroom{}, err
	}
	if c.ID == "" {
		return model.Classroom{}, apperr.Newf(apperr.NotFound, "classroom %s has no usable document", id)
	}
	return c, nil
}

// Subject fetches a subject document.
func (d *Directory) Subject(ctx context.Context, id string) (model.Subject, error) {
	var s model.Subject
	if err := d.store.Get(ctx, docstore.Subjects, id, &s); err != nil {
		return model.Subject{}, err
	}
	if s.ID == "" {
		return model.Subject{}, apperr.Newf(apperr.NotFound, "subject %s has no usable document", id)
	}
	return s, nil
}

// TeacherClassrooms resolves every classroom a teacher belongs to. Dangling
// classroom references are skipped.
func (d *Directory) TeacherClassrooms(ctx context.Context, teacherID string) ([]model.Classroom, error) {
	t, err := d.Teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	classrooms := make([]model.Classroom, 0, len(t.Classrooms))
	for _, id := range t.Classrooms {
		c, err := d.Classroom(ctx, id)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, nil
}

// ClassroomSubjects resolves every subject taught in a classroom. Dangling
// subject references are skipped.
func (d *Directory) ClassroomSubjects(ctx context.Context, classroomID string) ([]model.Subject, error) {
	c, err := d.Classroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	subjects := make([]model.Subject, 0, len(c.Subjects))
	for _, id := range c.Subjects {
		s, err := d.Subject(ctx, id)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, nil
}

// TeacherName resolves a teacher's display name, empty on lookup failure.
// Session listings tolerate missing names rather than failing the whole list.
func (d *Directory) TeacherName(ctx context.Context, id string) string {
	t, err := d.Teacher(ctx, id)
	if err != nil {
		return ""
	}
	return t.Name
}

// SubjectName resolves a subject's display name, empty on lookup failure.
func (d *Directory) SubjectName(ctx context.Context, id string) string {
	s, err := d.Subject(ctx, id)
	if err != nil {
		return ""
	}
	return s.Name
}

// ClassroomName resolves a classroom's display name, empty on lookup failure.
func (d *Directory) ClassroomName(ctx context.Context, id string) string {
	c, err := d.Classroom(ctx, id)
	if err != nil {
		return ""
	}
	return c.Name
}
