// Package auth is the identity collaborator: sign-up, sign-in and session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/tables"
)

const (
	MinPasswordLength = 6
	maxPasswordBytes  = 72
	maxFullNameLength = 100
	issuer            = "finzen"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too short")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrInvalidName        = errors.New("invalid full name")
	ErrInvalidSession     = errors.New("invalid session")
)

type Config struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

type Service struct {
	users  tables.UserStore
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

func NewService(users tables.UserStore, cfg Config, logger *log.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		users:  users,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentAuth),
		now:    time.Now,
	}
}

// SignUpInput carries the sign-up form.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

// Session is an issued token together with the user it identifies.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      core.User
}

// SignUp registers a user and opens a session for them.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Session{}, err
	}
	if err := checkPassword(in.Password); err != nil {
		return Session{}, err
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" || utf8.RuneCountInString(name) > maxFullNameLength {
		return Session{}, ErrInvalidName
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, core.User{
		Email:        email,
		FullName:     name,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, tables.ErrDuplicate) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID)
	return s.issue(user)
}

// SignIn checks the credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.users.FindUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, tables.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Sign-in rejected", log.FieldUserID, user.ID)
		return Session{}, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "User signed in", log.FieldUserID, user.ID)
	return s.issue(user)
}

// CurrentUser resolves a session token to its user.
func (s *Service) CurrentUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrInvalidSession
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject == "" {
		return core.User{}, ErrInvalidSession
	}

	user, err := s.users.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, tables.ErrNotFound) {
			return core.User{}, ErrInvalidSession
		}
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Service) issue(user core.User) (Session, error) {
	now := s.now()
	expires := now.Add(s.cfg.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: signed, ExpiresAt: expires, User: user}, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func checkPassword(p string) error {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(p) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}
