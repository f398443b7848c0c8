package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no identity matches.
var ErrNotFound = errors.New("identity not found")

// Identity is a student or teacher profile. Attendance code only reads it.
type Identity struct {
	USN       string `json:"usn"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsTeacher bool   `json:"is_teacher"`
	PhotoPath string `json:"photo_path,omitempty"`
}

// Directory looks up identities.
type Directory interface {
	ByUSN(ctx context.Context, usn string) (Identity, error)
	ByName(ctx context.Context, name string) (Identity, error)
	Students(ctx context.Context) ([]Identity, error)
	// PasswordHash returns the bcrypt hash stored for usn.
	PasswordHash(ctx context.Context, usn string) (string, error)
	TeacherSubjects(ctx context.Context, usn string) ([]string, error)
}

// Resolve finds an identity by USN, falling back to display name because
// existing clients send the student's name as the identifier.
func Resolve(ctx context.Context, dir Directory, identifier string) (Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Identity{}, ErrNotFound
	}
	id, err := dir.ByUSN(ctx, identifier)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return id, err
	}
	return dir.ByName(ctx, identifier)
}
