package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"smartattendance/internal/identity"
)

// ErrInvalidCredentials is returned for an unknown USN or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginResult is a successful login.
type LoginResult struct {
	Tokens   TokenPair
	Identity identity.Identity
}

// Authenticator checks passwords against the identity directory.
type Authenticator struct {
	dir    identity.Directory
	signer *Signer
	logger *zap.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(dir identity.Directory, signer *Signer, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{dir: dir, signer: signer, logger: logger}
}

// Login verifies usn and password and issues tokens carrying the user's role.
func (a *Authenticator) Login(ctx context.Context, usn, password string) (LoginResult, error) {
	usn = strings.TrimSpace(usn)
	if usn == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	id, err := a.dir.ByUSN(ctx, usn)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	hash, err := a.dir.PasswordHash(ctx, usn)
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup password: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		a.logger.Info("login rejected", zap.String("usn", usn))
		return LoginResult{}, ErrInvalidCredentials
	}

	role := roleOf(id)
	tokens, err := a.signer.Issue(id.USN, role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	a.logger.Info("login", zap.String("usn", id.USN), zap.String("role", role))
	return LoginResult{Tokens: tokens, Identity: id}, nil
}

// Refresh exchanges a refresh token for a new pair. The role is read again
// from the directory so a changed role takes effect.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	claims, err := a.signer.ParseRefresh(refreshToken)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	id, err := a.dir.ByUSN(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	tokens, err := a.signer.Issue(id.USN, roleOf(id))
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return LoginResult{Tokens: tokens, Identity: id}, nil
}

func roleOf(id identity.Identity) string {
	if id.IsTeacher {
		return RoleTeacher
	}
	return RoleStudent
}

// HashPassword returns a bcrypt hash for seeding users.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
