// Package directory is the student identity store: registration and
// credential checks for the institutional addresses the assistant serves.
package directory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"time"

	"github.com/coprodeli/coprodelito/pkg/session"
)

// Institutional addresses only: "nombre.apellido@spc.edu.pe", lowercase.
var emailPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+@spc\.edu\.pe$`)

const passwordLength = 8

var (
	ErrInvalidEmail      = errors.New("email must be nombre.apellido@spc.edu.pe")
	ErrInvalidPassword   = errors.New("password must be exactly 8 characters")
	ErrAlreadyRegistered = errors.New("student already registered")
	ErrBadCredentials    = errors.New("unknown student or wrong password")
)

// Student is one registered identity. The email doubles as the subject ID
// used by the conversation engine.
type Student struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists student identities.
type Store interface {
	// Register validates and stores a new student. Fails with
	// ErrAlreadyRegistered when the email is taken.
	Register(ctx context.Context, email, password string) (*Student, error)

	// Authenticate checks the credentials and returns the student, or
	// ErrBadCredentials. Lookups and password mismatches are deliberately
	// indistinguishable.
	Authenticate(ctx context.Context, email, password string) (*Student, error)

	Close() error
}

// ValidateCredentials applies the registration rules shared by all drivers.
func ValidateCredentials(email, password string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) != passwordLength {
		return ErrInvalidPassword
	}
	return nil
}

func newStudent(email string) *Student {
	return &Student{
		Email:     email,
		Name:      session.DisplayName(email),
		CreatedAt: time.Now(),
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
