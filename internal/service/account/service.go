// Package account is a local profile simulation. Passwords are stored and compared in plaintext;
// nothing here is an authentication system.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/model/user"
	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

// MinPasswordLength applies to registration and password changes.
const MinPasswordLength = 6

var (
	ErrFieldsRequired       = errors.New("all fields are required")
	ErrUsernameWhitespace   = errors.New("username contains whitespace")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrWrongCurrentPassword = errors.New("current password does not match")
	ErrUnknownLanguage      = errors.New("unknown language")
)

var feedback = map[error]string{
	ErrFieldsRequired:       "All fields are required.",
	ErrUsernameWhitespace:   "Username cannot contain spaces.",
	ErrPasswordTooShort:     fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength),
	ErrUsernameTaken:        "Username is already taken.",
	ErrInvalidCredentials:   "Invalid username or password.",
	ErrNotLoggedIn:          "Please log in first.",
	ErrWrongCurrentPassword: "Incorrect current password.",
	ErrUnknownLanguage:      "Please choose a supported language.",
}

// Feedback returns the sentence shown to the user for err, or a generic message for unexpected errors.
func Feedback(err error) string {
	for sentinel, text := range feedback {
		if errors.Is(err, sentinel) {
			return text
		}
	}
	return "Something went wrong. Please try again."
}

// Registration is the sign-up form.
type Registration struct {
	FullName string        `json:"fullName"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Language user.Language `json:"language"`
}

// Profile is the signed-in view.
type Profile struct {
	User         user.User `json:"user"`
	CheckInCount int       `json:"checkInCount"`
}

// CheckInCounter reports how many mood entries exist.
type CheckInCounter interface {
	Count(ctx context.Context) (int, error)
}

// Service manages the username → user table and the current-user marker.
type Service struct {
	store    storage.Store
	checkIns CheckInCounter
	logger   *zap.Logger

	mu sync.Mutex
}

// NewService creates the account service. checkIns may be nil.
func NewService(store storage.Store, checkIns CheckInCounter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, checkIns: checkIns, logger: logger.Named("account")}
}

// ValidateUsername rejects usernames containing whitespace. It never touches storage.
func ValidateUsername(username string) error {
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return ErrUsernameWhitespace
	}
	return nil
}

// Register creates a user and logs them in.
func (s *Service) Register(ctx context.Context, reg Registration) (user.User, error) {
	if strings.TrimSpace(reg.FullName) == "" || strings.TrimSpace(reg.Username) == "" || strings.TrimSpace(reg.Password) == "" {
		return user.User{}, ErrFieldsRequired
	}
	if err := ValidateUsername(reg.Username); err != nil {
		return user.User{}, err
	}
	if len(reg.Password) < MinPasswordLength {
		return user.User{}, ErrPasswordTooShort
	}
	if reg.Language == "" {
		reg.Language = user.English
	}
	if !reg.Language.Valid() {
		return user.User{}, ErrUnknownLanguage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return user.User{}, err
	}
	if _, taken := users[reg.Username]; taken {
		return user.User{}, ErrUsernameTaken
	}

	created := user.User{
		Username: reg.Username,
		FullName: strings.TrimSpace(reg.FullName),
		Password: reg.Password,
		Language: reg.Language,
	}
	users[created.Username] = created

	if err := s.store.Set(ctx, storage.KeyUsers, users); err != nil {
		return user.User{}, fmt.Errorf("save users: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyCurrentUser, created.Username); err != nil {
		return user.User{}, fmt.Errorf("save current user: %w", err)
	}

	s.logger.Info("account registered", zap.String("username", created.Username))
	return created.Public(), nil
}

// Login sets the current-user marker on an exact password match.
func (s *Service) Login(ctx context.Context, username, password string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return user.User{}, err
	}

	u, ok := users[username]
	if !ok || u.Password != password {
		return user.User{}, ErrInvalidCredentials
	}

	if err := s.store.Set(ctx, storage.KeyCurrentUser, username); err != nil {
		return user.User{}, fmt.Errorf("save current user: %w", err)
	}
	return u.Public(), nil
}

// Logout clears the current-user marker.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}
	return nil
}

// Current returns the logged-in user. A marker pointing at a deleted record is cleared.
func (s *Service) Current(ctx context.Context) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.current(ctx)
	if err != nil {
		return user.User{}, err
	}
	return u.Public(), nil
}

// Profile returns the current user with their check-in count.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	u, err := s.Current(ctx)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{User: u}
	if s.checkIns != nil {
		if profile.CheckInCount, err = s.checkIns.Count(ctx); err != nil {
			return Profile{}, err
		}
	}
	return profile, nil
}

// ChangePassword replaces the current user's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.current(ctx)
	if err != nil {
		return err
	}
	if u.Password != current {
		return ErrWrongCurrentPassword
	}
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	u.Password = next
	users[u.Username] = u

	if err := s.store.Set(ctx, storage.KeyUsers, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

// DeleteAccount removes the current user's record only, then logs out.
func (s *Service) DeleteAccount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.current(ctx)
	if err != nil {
		return err
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	delete(users, u.Username)

	if err := s.store.Set(ctx, storage.KeyUsers, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	if err := s.store.Delete(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}

	s.logger.Info("account deleted", zap.String("username", u.Username))
	return nil
}

func (s *Service) current(ctx context.Context) (user.User, error) {
	var username string
	ok, err := s.store.Get(ctx, storage.KeyCurrentUser, &username)
	if err != nil {
		return user.User{}, fmt.Errorf("load current user: %w", err)
	}
	if !ok || username == "" {
		return user.User{}, ErrNotLoggedIn
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return user.User{}, err
	}
	u, ok := users[username]
	if !ok {
		if err := s.store.Delete(ctx, storage.KeyCurrentUser); err != nil {
			return user.User{}, fmt.Errorf("clear stale current user: %w", err)
		}
		return user.User{}, ErrNotLoggedIn
	}
	return u, nil
}

func (s *Service) loadUsers(ctx context.Context) (map[string]user.User, error) {
	users := make(map[string]user.User)
	if _, err := s.store.Get(ctx, storage.KeyUsers, &users); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if users == nil {
		users = make(map[string]user.User)
	}
	return users, nil
}
