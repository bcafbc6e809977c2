// Package directory manages registered accounts.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/google/uuid"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// MaxPasswordLength is the longest password, in bytes, bcrypt can hash.
const MaxPasswordLength = 72

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore loads and saves the whole directory.
type UserStore interface {
	LoadUsers(ctx context.Context) ([]models.User, error)
	SaveUsers(ctx context.Context, users []models.User) error
}

// BlobUserStore keeps the directory under a single blob store key.
type BlobUserStore struct {
	store storage.Store
}

func NewBlobUserStore(s storage.Store) *BlobUserStore {
	return &BlobUserStore{store: s}
}

func (b *BlobUserStore) LoadUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := storage.GetJSON(ctx, b.store, storage.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (b *BlobUserStore) SaveUsers(ctx context.Context, users []models.User) error {
	return storage.SetJSON(ctx, b.store, storage.KeyUsers, users)
}

// Directory registers and authenticates users.
type Directory struct {
	mu       sync.Mutex
	users    UserStore
	verifier auth.CredentialVerifier
	now      func() time.Time
	newID    func() string
}

// New creates a Directory. A nil verifier defaults to bcrypt.
func New(users UserStore, verifier auth.CredentialVerifier) *Directory {
	if verifier == nil {
		verifier = auth.Bcrypt{}
	}
	return &Directory{
		users:    users,
		verifier: verifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Register validates and stores a new account.
func (d *Directory) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, models.NewValidationError("name", "name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, models.NewValidationError("email", "email address is not valid")
	}
	if len(password) < MinPasswordLength {
		return nil, models.NewValidationError("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return nil, models.NewValidationError("password",
			fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return nil, models.ErrDuplicateEmail
		}
	}

	stored, err := d.verifier.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:        d.newID(),
		Name:      name,
		Email:     email,
		Password:  stored,
		CreatedAt: d.now().UTC(),
	}
	if err := d.users.SaveUsers(ctx, append(users, user)); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	slog.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return &user, nil
}

// Authenticate finds the user matching email (case-insensitive) and
// password. Unknown email and wrong password yield the same error.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, models.NewValidationError("email", "email is required")
	}
	if password == "" {
		return nil, models.NewValidationError("password", "password is required")
	}

	d.mu.Lock()
	users, err := d.users.LoadUsers(ctx)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	for _, u := range users {
		if strings.EqualFold(u.Email, email) && d.verifier.Verify(password, u.Password) {
			return &u, nil
		}
	}
	return nil, models.ErrInvalidCredentials
}

// Count returns the number of registered users.
func (d *Directory) Count(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	users, err := d.users.LoadUsers(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
