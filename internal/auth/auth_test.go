package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"finzen/internal/log"
	"finzen/internal/tables/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.New(nil), Config{
		Secret:     "0123456789abcdef0123",
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, log.Discard())
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	sess, err := svc.SignUp(ctx, SignUpInput{Email: "Ana@Example.com", Password: "secreto", FullName: " Ana López "})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if sess.User.Email != "ana@example.com" || sess.User.FullName != "Ana López" || sess.Token == "" {
		t.Fatalf("unexpected session %+v", sess)
	}

	if _, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "secreto", FullName: "Otra"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	in, err := svc.SignIn(ctx, "ANA@example.com", "secreto")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if in.User.ID != sess.User.ID {
		t.Fatalf("signed in as %s, want %s", in.User.ID, sess.User.ID)
	}

	for _, tc := range []struct{ email, password string }{
		{"ana@example.com", "incorrecto"},
		{"nadie@example.com", "secreto"},
		{"not-an-email", "secreto"},
	} {
		if _, err := svc.SignIn(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("SignIn(%q): expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestService(t)
	cases := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"bad email", SignUpInput{Email: "ana", Password: "secreto", FullName: "Ana"}, ErrInvalidEmail},
		{"display name form", SignUpInput{Email: "Ana <ana@example.com>", Password: "secreto", FullName: "Ana"}, ErrInvalidEmail},
		{"short password", SignUpInput{Email: "ana@example.com", Password: "12345", FullName: "Ana"}, ErrWeakPassword},
		{"blank name", SignUpInput{Email: "ana@example.com", Password: "123456", FullName: "  "}, ErrInvalidName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SignUp(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	sess, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "secreto", FullName: "Ana"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	u, err := svc.CurrentUser(ctx, sess.Token)
	if err != nil || u.ID != sess.User.ID {
		t.Fatalf("CurrentUser = %+v, %v", u, err)
	}

	if _, err := svc.CurrentUser(ctx, sess.Token+"x"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("tampered token: expected ErrInvalidSession, got %v", err)
	}
	if _, err := svc.CurrentUser(ctx, ""); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("empty token: expected ErrInvalidSession, got %v", err)
	}

	other := NewService(memory.New(nil), Config{Secret: "another-secret-value", BcryptCost: bcrypt.MinCost}, nil)
	if _, err := other.CurrentUser(ctx, sess.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("foreign secret: expected ErrInvalidSession, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.CurrentUser(ctx, sess.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expired token: expected ErrInvalidSession, got %v", err)
	}
}

func TestMiddlewareAttachesUser(t *testing.T) {
	svc := newTestService(t)
	sess, err := svc.SignUp(context.Background(), SignUpInput{Email: "ana@example.com", Password: "secreto", FullName: "Ana"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	var seen string
	h := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := UserFromContext(r.Context()); ok {
			seen = u.ID
		}
	}))

	rec := httptest.NewRecorder()
	SetCookie(rec, sess, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != sess.User.ID {
		t.Fatalf("expected user %s in context, got %q", sess.User.ID, seen)
	}

	seen = ""
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "" {
		t.Fatal("invalid token must not attach a user")
	}
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec, true)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].MaxAge >= 0 || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookie %+v", cookies)
	}
}
