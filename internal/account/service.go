// Package account is the identity service: credential login and account
// creation for teachers and students. Student registration is coupled to the
// face service's pre-enrolled labels: the registration name must already
// exist server-side, and is relabeled to the new account id afterwards.
package account

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"classlogger/internal/apperr"
	"classlogger/internal/auth"
	"classlogger/internal/docstore"
	"classlogger/internal/model"

	"github.com/google/uuid"
)

// FaceEnrollment is the slice of the face service the registration flow
// needs. Implemented by faceclient.Client.
type FaceEnrollment interface {
	CheckName(ctx context.Context, name string) (bool, error)
	UpdateLabel(ctx context.Context, oldLabel, newLabel string) error
}

// Service resolves and creates accounts.
type Service struct {
	store docstore.Store
	face  FaceEnrollment
	now   func() time.Time
}

// NewService creates an account service.
func NewService(store docstore.Store, face FaceEnrollment) *Service {
	return &Service{store: store, face: face, now: time.Now}
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// resolve checks credentials and role, returning the account document.
func (s *Service) resolve(ctx context.Context, email, password, role string) (model.Account, error) {
	var acct model.Account
	err := s.store.Get(ctx, docstore.Accounts, accountKey(email), &acct)
	if apperr.IsNotFound(err) {
		return model.Account{}, apperr.New(apperr.Auth, "invalid email or password")
	}
	if err != nil {
		return model.Account{}, err
	}
	if acct.Role != role {
		return model.Account{}, apperr.New(apperr.Auth, "invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return model.Account{}, apperr.New(apperr.Auth, "invalid email or password")
	}
	return acct, nil
}

// LoginTeacher checks credentials and returns the teacher profile. A valid
// credential with a missing profile document is a failure, not an empty
// success.
func (s *Service) LoginTeacher(ctx context.Context, email, password string) (model.Teacher, error) {
	acct, err := s.resolve(ctx, email, password, auth.RoleTeacher)
	if err != nil {
		return model.Teacher{}, err
	}
	var t model.Teacher
	if err := s.store.Get(ctx, docstore.Teachers, acct.UserID, &t); err != nil {
		return model.Teacher{}, apperr.Wrap(apperr.NotFound, "teacher profile not found", err)
	}
	return t, nil
}

// LoginStudent checks credentials and returns the student profile.
func (s *Service) LoginStudent(ctx context.Context, email, password string) (model.Student, error) {
	acct, err := s.resolve(ctx, email, password, auth.RoleStudent)
	if err != nil {
		return model.Student{}, err
	}
	var st model.Student
	if err := s.store.Get(ctx, docstore.Students, acct.UserID, &st); err != nil {
		return model.Student{}, apperr.Wrap(apperr.NotFound, "student profile not found", err)
	}
	return st, nil
}

// RegisterTeacher creates a teacher account and profile, returning the new
// user id.
func (s *Service) RegisterTeacher(ctx context.Context, email, password string, profile model.Teacher) (string, error) {
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}
	if profile.Name == "" {
		return "", apperr.New(apperr.Validation, "name is required")
	}

	userID, err := s.createAccount(ctx, email, password, auth.RoleTeacher)
	if err != nil {
		return "", err
	}

	profile.ID = userID
	profile.Email = accountKey(email)
	profile.CreatedAt = s.now().UnixMilli()
	if profile.Classrooms == nil {
		profile.Classrooms = []string{}
	}
	if err := s.store.Set(ctx, docstore.Teachers, userID, profile); err != nil {
		return "", err
	}
	return userID, nil
}

// RegisterStudent creates a student account and profile. The student's face
// must already be enrolled server-side under their registration name; after
// the account exists, the enrolled label is updated to the account id. A
// relabel failure after the account was created is reported as a warning,
// not a failure — the account is not rolled back.
func (s *Service) RegisterStudent(ctx context.Context, email, password string, profile model.Student) (userID, warning string, err error) {
	if err := validateCredentials(email, password); err != nil {
		return "", "", err
	}
	if profile.Name == "" {
		return "", "", apperr.New(apperr.Validation, "name is required")
	}

	exists, err := s.face.CheckName(ctx, profile.Name)
	if err != nil {
		return "", "", err
	}
	if !exists {
		return "", "", apperr.Newf(apperr.Verification, "no enrolled face found for %q; complete face enrollment first", profile.Name)
	}

	userID, err = s.createAccount(ctx, email, password, auth.RoleStudent)
	if err != nil {
		return "", "", err
	}

	profile.ID = userID
	profile.Email = accountKey(email)
	profile.CreatedAt = s.now().UnixMilli()
	if profile.Classrooms == nil {
		profile.Classrooms = []string{}
	}
	if err := s.store.Set(ctx, docstore.Students, userID, profile); err != nil {
		return "", "", err
	}

	if err := s.face.UpdateLabel(ctx, profile.Name, userID); err != nil {
		warning = "account created, but linking the enrolled face failed; face verification will not recognize this account until the label is fixed"
	}
	return userID, warning, nil
}

func (s *Service) createAccount(ctx context.Context, email, password, role string) (string, error) {
	key := accountKey(email)

	var existing model.Account
	err := s.store.Get(ctx, docstore.Accounts, key, &existing)
	if err == nil {
		return "", apperr.New(apperr.Validation, "an account with this email already exists")
	}
	if !apperr.IsNotFound(err) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	userID := uuid.NewString()
	acct := model.Account{
		Email:        key,
		Role:         role,
		UserID:       userID,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UnixMilli(),
	}
	if err := s.store.Set(ctx, docstore.Accounts, key, acct); err != nil {
		return "", err
	}
	return userID, nil
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return apperr.New(apperr.Validation, "a valid email is required")
	}
	if len(password) < 8 {
		return apperr.New(apperr.Validation, "password must be at least 8 characters")
	}
	return nil
}
