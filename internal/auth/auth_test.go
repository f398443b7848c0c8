package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"smartattendance/internal/identity"
)

func newTestSigner() *Signer {
	return NewSigner("test-key", "test-issuer", 15*time.Minute, time.Hour)
}

func TestIssueAndParse(t *testing.T) {
	s := newTestSigner()
	pair, err := s.Issue("T1", RoleTeacher)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := s.Parse(pair.AccessToken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "T1" || claims.Role != RoleTeacher {
		t.Fatalf("claims = %+v", claims)
	}
	if !pair.RefreshExp.After(pair.AccessExp) {
		t.Fatal("refresh token should outlive access token")
	}
}

func TestParseRejects(t *testing.T) {
	s := newTestSigner()
	good, _ := s.Issue("U1", RoleStudent)

	other := NewSigner("other-key", "test-issuer", time.Minute, time.Minute)
	foreign, _ := other.Issue("U1", RoleStudent)

	wrongIssuer := NewSigner("test-key", "someone-else", time.Minute, time.Minute)
	misissued, _ := wrongIssuer.Issue("U1", RoleStudent)

	expiredSigner := newTestSigner()
	expiredSigner.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiredSigner.Issue("U1", RoleStudent)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong key", foreign.AccessToken},
		{"wrong issuer", misissued.AccessToken},
		{"expired", expired.AccessToken},
		{"truncated", good.AccessToken[:len(good.AccessToken)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func testDirectory(t *testing.T) *identity.MemoryDirectory {
	t.Helper()
	dir := identity.NewMemoryDirectory()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	dir.Put(identity.Identity{USN: "T1", Name: "Meera", IsTeacher: true}, string(hash))
	dir.Put(identity.Identity{USN: "U1", Name: "Asha"}, string(hash))
	return dir
}

func TestLogin(t *testing.T) {
	s := newTestSigner()
	a := NewAuthenticator(testDirectory(t), s, nil)
	ctx := context.Background()

	res, err := a.Login(ctx, "T1", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := s.Parse(res.Tokens.AccessToken)
	if err != nil || claims.Role != RoleTeacher {
		t.Fatalf("claims = %+v, %v", claims, err)
	}
	if res.Identity.Name != "Meera" {
		t.Fatalf("identity = %+v", res.Identity)
	}

	res, err = a.Login(ctx, " U1 ", "secret")
	if err != nil {
		t.Fatalf("Login student: %v", err)
	}
	if claims, _ := s.Parse(res.Tokens.AccessToken); claims.Role != RoleStudent {
		t.Fatalf("student role = %q", claims.Role)
	}

	for _, tc := range [][2]string{{"U1", "wrong"}, {"NOPE", "secret"}, {"", "secret"}, {"U1", ""}} {
		if _, err := a.Login(ctx, tc[0], tc[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q, %q): err = %v, want ErrInvalidCredentials", tc[0], tc[1], err)
		}
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestSigner()
	teacher, _ := s.Issue("T1", RoleTeacher)
	student, _ := s.Issue("U1", RoleStudent)

	r := gin.New()
	r.GET("/me", Authenticate(s), func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.String(http.StatusOK, p.USN)
	})
	r.GET("/teach", Authenticate(s), RequireTeacher(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"not bearer", "/me", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"student ok", "/me", "Bearer " + student.AccessToken, http.StatusOK},
		{"student forbidden", "/teach", "Bearer " + student.AccessToken, http.StatusForbidden},
		{"teacher ok", "/teach", "bearer " + teacher.AccessToken, http.StatusNoContent},
		{"refresh token as bearer", "/teach", "Bearer " + teacher.RefreshToken, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestTokenTypes(t *testing.T) {
	s := newTestSigner()
	pair, err := s.Issue("U1", RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.ParseAccess(pair.AccessToken); err != nil {
		t.Fatalf("ParseAccess(access): %v", err)
	}
	if _, err := s.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ParseAccess(refresh): err = %v, want ErrInvalidToken", err)
	}
	if _, err := s.ParseRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("ParseRefresh(refresh): %v", err)
	}
	if _, err := s.ParseRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ParseRefresh(access): err = %v, want ErrInvalidToken", err)
	}
}

func TestRefresh(t *testing.T) {
	s := newTestSigner()
	dir := testDirectory(t)
	a := NewAuthenticator(dir, s, nil)
	ctx := context.Background()

	login, err := a.Login(ctx, "T1", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	res, err := a.Refresh(ctx, login.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := s.ParseAccess(res.Tokens.AccessToken)
	if err != nil || claims.Subject != "T1" || claims.Role != RoleTeacher {
		t.Fatalf("refreshed claims = %+v, %v", claims, err)
	}

	if _, err := a.Refresh(ctx, login.Tokens.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Refresh with access token: err = %v", err)
	}
	ghost, _ := s.Issue("GHOST", RoleStudent)
	if _, err := a.Refresh(ctx, ghost.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Refresh for unknown user: err = %v", err)
	}
}
