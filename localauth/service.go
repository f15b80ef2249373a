package localauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/jwt"
	"github.com/MrEthical07/goAccess/password"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/google/uuid"
)

var (
	// ErrUserExists is returned by AddUser for a duplicate username.
	ErrUserExists = errors.New("localauth: user already exists")
	// ErrUserNotFound is returned for an unknown user ID.
	ErrUserNotFound = errors.New("localauth: user not found")
	// ErrTokenRevoked is returned for a token invalidated by Logout.
	ErrTokenRevoked = errors.New("localauth: token revoked")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("localauth: invalid token")
	// ErrAccountLocked is returned while the shared limiter bars a user.
	// It matches goAccess.ErrInvalidCredentials so the session manager
	// counts it as a failed attempt.
	ErrAccountLocked = fmt.Errorf("%w: account temporarily locked", goAccess.ErrInvalidCredentials)
)

var (
	_ goAccess.Authenticator   = (*Service)(nil)
	_ goAccess.PasswordChanger = (*Service)(nil)
)

var userNamespace = uuid.MustParse("6f1c2a4e-8d3b-5e7f-9a0b-1c2d3e4f5a6b")

// Limiter is a shared per-user failure counter. lockout.RedisLimiter
// satisfies it.
type Limiter interface {
	RecordFailure(ctx context.Context, user string) (bool, error)
	Locked(ctx context.Context, user string) (bool, time.Duration, error)
	Reset(ctx context.Context, user string) error
}

// User is a stored account.
type User struct {
	ID           string
	Username     string
	DisplayName  string
	Role         permission.Role
	UnitID       string
	UnitName     string
	PasswordHash string
	// FirstLogin is set until the user changes the initial password.
	FirstLogin bool
}

// NewUser describes an account to create. An empty ID is derived from the
// username, so a user seeded again in a new process keeps its ID and stays
// valid for tokens issued earlier.
type NewUser struct {
	ID          string
	Username    string
	Password    string
	DisplayName string
	Role        permission.Role
	UnitID      string
	UnitName    string
}

// Service is an in-process authentication service for development and
// tests. Users live in memory with Argon2id hashes; tokens are JWTs issued
// by a jwt.Manager and revoked by ID on logout.
type Service struct {
	tokens  *jwt.Manager
	hasher  *password.Argon2
	limiter Limiter
	now     func() time.Time

	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]string
	revoked    map[string]time.Time
	// dummyHash keeps unknown-user logins as slow as wrong passwords.
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter enables the shared failure counter.
func WithLimiter(l Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithClock overrides time.Now for revocation bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service issuing tokens with tokens and hashing with hasher.
func New(tokens *jwt.Manager, hasher *password.Argon2, opts ...Option) (*Service, error) {
	if tokens == nil {
		return nil, errors.New("localauth: token manager is required")
	}
	if hasher == nil {
		return nil, errors.New("localauth: password hasher is required")
	}

	s := &Service{
		tokens:     tokens,
		hasher:     hasher,
		now:        time.Now,
		byID:       make(map[string]*User),
		byUsername: make(map[string]string),
		revoked:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash("localauth-dummy-" + uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("localauth: prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// AddUser creates an account and returns its ID. New accounts are flagged
// FirstLogin.
func (s *Service) AddUser(u NewUser) (string, error) {
	username := normalize(u.Username)
	if username == "" {
		return "", errors.New("localauth: username is required")
	}
	if _, err := permission.ParseRole(string(u.Role)); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(u.Password)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := u.ID
	if id == "" {
		id = uuid.NewSHA1(userNamespace, []byte(username)).String()
	}
	if _, ok := s.byUsername[username]; ok {
		return "", ErrUserExists
	}
	if _, ok := s.byID[id]; ok {
		return "", ErrUserExists
	}
	s.byID[id] = &User{
		ID:           id,
		Username:     username,
		DisplayName:  u.DisplayName,
		Role:         u.Role,
		UnitID:       u.UnitID,
		UnitName:     u.UnitName,
		PasswordHash: hash,
		FirstLogin:   true,
	}
	s.byUsername[username] = id
	return id, nil
}

// Login verifies creds and issues a token.
func (s *Service) Login(ctx context.Context, creds goAccess.Credentials) (goAccess.LoginResult, error) {
	username := normalize(creds.Username)
	if username == "" || creds.Password == "" {
		return goAccess.LoginResult{}, goAccess.ErrInvalidCredentials
	}

	if s.limiter != nil {
		locked, _, err := s.limiter.Locked(ctx, username)
		if err != nil {
			return goAccess.LoginResult{}, err
		}
		if locked {
			return goAccess.LoginResult{}, ErrAccountLocked
		}
	}

	user, ok := s.lookupUsername(username)
	hash := s.dummyHash
	if ok {
		hash = user.PasswordHash
	}
	match, err := s.hasher.Verify(creds.Password, hash)
	if err != nil || !match || !ok {
		s.recordFailure(ctx, username)
		return goAccess.LoginResult{}, goAccess.ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, username); err != nil {
			return goAccess.LoginResult{}, err
		}
	}

	token, _, err := s.tokens.Issue(jwt.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		UnitID:   user.UnitID,
	})
	if err != nil {
		return goAccess.LoginResult{}, err
	}
	return goAccess.LoginResult{Token: token, Identity: identityOf(user)}, nil
}

func (s *Service) recordFailure(ctx context.Context, username string) {
	if s.limiter == nil {
		return
	}
	// The caller already returns ErrInvalidCredentials; a limiter outage
	// must not turn a bad password into a different error.
	_, _ = s.limiter.RecordFailure(ctx, username)
}

// FetchIdentity resolves the current profile of the token's user.
func (s *Service) FetchIdentity(_ context.Context, token string) (goAccess.Identity, error) {
	user, _, err := s.authorize(token)
	if err != nil {
		return goAccess.Identity{}, err
	}
	return identityOf(user), nil
}

// Logout revokes token. Revoking an invalid token reports Success false.
func (s *Service) Logout(_ context.Context, token string) (goAccess.LogoutResult, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return goAccess.LogoutResult{Success: false, Message: "invalid token"}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	exp := s.now()
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	s.revoked[claims.ID] = exp
	return goAccess.LogoutResult{Success: true}, nil
}

// ChangePassword replaces the password of the token's user after verifying
// oldPassword. The new password must differ from the current one.
func (s *Service) ChangePassword(_ context.Context, token, oldPassword, newPassword string) error {
	user, _, err := s.authorize(token)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return goAccess.ErrInvalidCredentials
	}
	if same, err := s.hasher.Verify(newPassword, user.PasswordHash); err == nil && same {
		return goAccess.ErrPasswordReuse
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", goAccess.ErrPasswordPolicy, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	stored.PasswordHash = hash
	stored.FirstLogin = false
	return nil
}

// User returns a copy of the stored account.
func (s *Service) User(id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

func (s *Service) authorize(token string) (User, *jwt.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return User{}, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.revoked[claims.ID]; ok {
		return User{}, nil, ErrTokenRevoked
	}
	u, ok := s.byID[claims.UID]
	if !ok {
		return User{}, nil, ErrUserNotFound
	}
	return *u, claims, nil
}

func (s *Service) lookupUsername(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return User{}, false
	}
	return *s.byID[id], true
}

// pruneLocked drops revocations whose tokens have expired anyway.
func (s *Service) pruneLocked() {
	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
}

func identityOf(u User) goAccess.Identity {
	return goAccess.Identity{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		UnitID:      u.UnitID,
		UnitName:    u.UnitName,
		FirstLogin:  u.FirstLogin,
	}
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
