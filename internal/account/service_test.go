package account

import (
	"context"
	"errors"
	"testing"

	"classlogger/internal/apperr"
	"classlogger/internal/docstore"
	"classlogger/internal/model"
)

type fakeEnrollment struct {
	exists     bool
	checkErr   error
	relabelErr error
	relabeled  [2]string
}

func (f *fakeEnrollment) CheckName(ctx context.Context, name string) (bool, error) {
	return f.exists, f.checkErr
}

func (f *fakeEnrollment) UpdateLabel(ctx context.Context, oldLabel, newLabel string) error {
	f.relabeled = [2]string{oldLabel, newLabel}
	return f.relabelErr
}

func TestRegisterAndLoginTeacher(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemory(), &fakeEnrollment{exists: true})

	id, err := svc.RegisterTeacher(ctx, "Rao@School.edu", "correct-horse", model.Teacher{Name: "Ms. Rao"})
	if err != nil {
		t.Fatalf("RegisterTeacher: %v", err)
	}

	teacher, err := svc.LoginTeacher(ctx, "rao@school.edu", "correct-horse")
	if err != nil {
		t.Fatalf("LoginTeacher: %v", err)
	}
	if teacher.ID != id || teacher.Name != "Ms. Rao" {
		t.Errorf("profile = %+v", teacher)
	}

	if _, err := svc.LoginTeacher(ctx, "rao@school.edu", "wrong"); apperr.KindOf(err) != apperr.Auth {
		t.Errorf("wrong password = %v, want Auth", err)
	}
	// a teacher credential cannot log in as a student
	if _, err := svc.LoginStudent(ctx, "rao@school.edu", "correct-horse"); apperr.KindOf(err) != apperr.Auth {
		t.Errorf("role mismatch = %v, want Auth", err)
	}
}

func TestRegisterStudentRelabelsEnrolledFace(t *testing.T) {
	ctx := context.Background()
	face := &fakeEnrollment{exists: true}
	svc := NewService(docstore.NewMemory(), face)

	id, warning, err := svc.RegisterStudent(ctx, "asha@school.edu", "correct-horse", model.Student{Name: "Asha"})
	if err != nil {
		t.Fatalf("RegisterStudent: %v", err)
	}
	if warning != "" {
		t.Errorf("unexpected warning: %q", warning)
	}
	if face.relabeled != [2]string{"Asha", id} {
		t.Errorf("relabel = %v, want Asha -> %s", face.relabeled, id)
	}
}

func TestRegisterStudentRequiresEnrolledFace(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &fakeEnrollment{exists: false})
	_, _, err := svc.RegisterStudent(context.Background(), "asha@school.edu", "correct-horse", model.Student{Name: "Asha"})
	if apperr.KindOf(err) != apperr.Verification {
		t.Errorf("RegisterStudent = %v, want Verification", err)
	}
}

func TestRegisterStudentRelabelFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	svc := NewService(store, &fakeEnrollment{exists: true, relabelErr: errors.New("boom")})

	id, warning, err := svc.RegisterStudent(ctx, "asha@school.edu", "correct-horse", model.Student{Name: "Asha"})
	if err != nil {
		t.Fatalf("RegisterStudent = %v, want success with warning", err)
	}
	if warning == "" {
		t.Error("expected a warning after relabel failure")
	}
	// the account is not rolled back
	var st model.Student
	if err := store.Get(ctx, docstore.Students, id, &st); err != nil {
		t.Errorf("student profile missing after warning outcome: %v", err)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemory(), &fakeEnrollment{exists: true})

	if _, err := svc.RegisterTeacher(ctx, "rao@school.edu", "correct-horse", model.Teacher{Name: "Ms. Rao"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.RegisterTeacher(ctx, "RAO@school.edu", "other-password", model.Teacher{Name: "Impostor"})
	if apperr.KindOf(err) != apperr.Validation {
		t.Errorf("duplicate = %v, want Validation", err)
	}
}

func TestCredentialValidation(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &fakeEnrollment{exists: true})
	if _, err := svc.RegisterTeacher(context.Background(), "not-an-email", "correct-horse", model.Teacher{Name: "X"}); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("bad email = %v, want Validation", err)
	}
	if _, err := svc.RegisterTeacher(context.Background(), "a@b.c", "short", model.Teacher{Name: "X"}); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("short password = %v, want Validation", err)
	}
}
