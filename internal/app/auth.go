package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"geo-elevate/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenKey = "auth_token"
	userKey  = "user"
	guestKey = "guest_mode"
)

// AuthAPI is the remote credential-issuing service.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (domain.AuthResponse, error)
	Signup(ctx context.Context, username, email, password string) (domain.AuthResponse, error)
	CurrentUser(ctx context.Context, token string) (domain.User, error)
}

type loginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type signupInput struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// AuthSession holds the credential state of the process. Exactly one of
// anonymous, guest or authenticated holds at a time.
type AuthSession struct {
	api      AuthAPI
	store    KVStore
	validate *validator.Validate
	now      func() time.Time

	mu    sync.RWMutex
	user  *domain.User
	token string
	guest bool
	epoch uint64
}

func NewAuthSession(api AuthAPI, store KVStore) *AuthSession {
	return &AuthSession{
		api:      api,
		store:    store,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Hydrate restores the persisted state. Expired or rejected tokens are
// cleared; an unreachable auth service keeps the stored identity.
func (s *AuthSession) Hydrate(ctx context.Context) error {
	guest, err := s.get(ctx, guestKey)
	if err != nil {
		return err
	}
	if guest == "true" {
		s.set(nil, "", true)
		return nil
	}

	token, err := s.get(ctx, tokenKey)
	if err != nil {
		return err
	}
	rawUser, err := s.get(ctx, userKey)
	if err != nil {
		return err
	}
	if token == "" || rawUser == "" {
		s.set(nil, "", false)
		return nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Printf("discarding unreadable stored user: %v", err)
		return s.clearCredentials(ctx)
	}
	if tokenExpired(token, s.now()) {
		log.Printf("stored token for %s expired", user.Username)
		return s.clearCredentials(ctx)
	}

	s.set(&user, token, false)

	current, err := s.api.CurrentUser(ctx, token)
	switch {
	case err == nil:
		s.mu.Lock()
		fresh := s.token == token
		if fresh {
			s.user = &current
		}
		s.mu.Unlock()
		if !fresh {
			return nil
		}
		rawCurrent, err := json.Marshal(current)
		if err != nil {
			return err
		}
		if err := s.store.Set(ctx, userKey, string(rawCurrent)); err != nil {
			log.Printf("failed to persist refreshed user %s: %v", current.Username, err)
		}
	case errors.Is(err, domain.ErrUnauthorized):
		log.Printf("stored token for %s rejected", user.Username)
		return s.clearCredentials(ctx)
	default:
		log.Printf("could not verify stored token, keeping session: %v", err)
	}
	return nil
}

// Login authenticates with username and password.
func (s *AuthSession) Login(ctx context.Context, username, password string) (domain.User, error) {
	in := loginInput{Username: strings.TrimSpace(username), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return domain.User{}, validationError(err)
	}
	resp, err := s.api.Login(ctx, in.Username, in.Password)
	if err != nil {
		return domain.User{}, err
	}
	return resp.User, s.authenticate(ctx, resp)
}

// Signup creates an account and signs in.
func (s *AuthSession) Signup(ctx context.Context, username, email, password string) (domain.User, error) {
	in := signupInput{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return domain.User{}, validationError(err)
	}
	resp, err := s.api.Signup(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		return domain.User{}, err
	}
	return resp.User, s.authenticate(ctx, resp)
}

// ContinueAsGuest switches to guest mode; scores stay local only.
func (s *AuthSession) ContinueAsGuest(ctx context.Context) error {
	s.set(nil, "", true)
	if err := s.store.Delete(ctx, tokenKey, userKey); err != nil {
		return err
	}
	return s.store.Set(ctx, guestKey, "true")
}

// Logout returns to the anonymous state and clears persisted credentials.
func (s *AuthSession) Logout(ctx context.Context) error {
	s.set(nil, "", false)
	return s.store.Delete(ctx, tokenKey, userKey, guestKey)
}

// Invalidate drops credentials the score service rejected.
func (s *AuthSession) Invalidate() {
	s.mu.RLock()
	hadToken := s.token != ""
	s.mu.RUnlock()
	if !hadToken {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.clearCredentials(ctx); err != nil {
		log.Printf("clear rejected credentials: %v", err)
	}
}

// Status reports which of the three auth states holds.
func (s *AuthSession) Status() domain.AuthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.user != nil && s.token != "":
		return domain.AuthAuthenticated
	case s.guest:
		return domain.AuthGuest
	default:
		return domain.AuthAnonymous
	}
}

// Authenticated reports whether scores should be mirrored remotely.
func (s *AuthSession) Authenticated() bool {
	return s.Status() == domain.AuthAuthenticated
}

// User returns the signed in user, if any.
func (s *AuthSession) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, or "" when not authenticated.
func (s *AuthSession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Epoch changes on every state transition. Asynchronous work tags its
// result with the epoch it started in.
func (s *AuthSession) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *AuthSession) authenticate(ctx context.Context, resp domain.AuthResponse) error {
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: auth response without token", domain.ErrServer)
	}
	user := resp.User
	s.set(&user, resp.AccessToken, false)

	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, tokenKey, resp.AccessToken); err != nil {
		return err
	}
	if err := s.store.Set(ctx, userKey, string(rawUser)); err != nil {
		return err
	}
	return s.store.Delete(ctx, guestKey)
}

func (s *AuthSession) clearCredentials(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.epoch++
	s.mu.Unlock()
	return s.store.Delete(ctx, tokenKey, userKey)
}

func (s *AuthSession) set(user *domain.User, token string, guest bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
	s.guest = guest
	s.epoch++
}

func (s *AuthSession) get(ctx context.Context, key string) (string, error) {
	value, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	return value, err
}

// tokenExpired reads the exp claim without verifying the signature. Tokens
// that are not JWTs are left to the server to judge.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), false)
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid email address")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(parts, "; "))
}
