package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-directory-api/internal/domain"
	"github.com/go-directory-api/internal/infrastructure/sns"
	"github.com/go-directory-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail        = "email"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldBirthDate    = "birth_date"
	fieldPasswordHash = "password_hash"
	fieldAvatarKey    = "avatar_key"
)

const birthDateLayout = "2006-01-02"

type Service interface {
	Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) (*domain.User, error)
	UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType string) error
	Avatar(ctx context.Context, userID string) (io.ReadCloser, string, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    userStore
	avatars objectStore
	events  sns.EventPublisher
}

type ServiceDeps struct {
	UserRepo    userStore
	AvatarStore objectStore
	Events      sns.EventPublisher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:    deps.UserRepo,
		avatars: deps.AvatarStore,
		events:  deps.Events,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrValidation)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	var birthDate time.Time
	if req.BirthDate != "" {
		birthDate, err = time.Parse(birthDateLayout, req.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("birth_date must be in YYYY-MM-DD format: %w", domain.ErrValidation)
		}
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    birthDate,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	s.publish(ctx, sns.EventUserCreated, u.UserID)
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		other, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if other.UserID != userID {
				return nil, fmt.Errorf("email already registered: %w", domain.ErrValidation)
			}
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		updates[fieldEmail] = email
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.BirthDate != nil {
		t, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("birth_date must be in YYYY-MM-DD format: %w", domain.ErrValidation)
		}
		updates[fieldBirthDate] = t
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates[fieldPasswordHash] = string(hash)
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// Delete disables the account and returns the record as it stood immediately
// before removal, so callers can report what was deleted.
func (s *service) Delete(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return nil, err
	}
	// Avatar cleanup never blocks the delete.
	if u.AvatarKey != "" {
		if err := s.avatars.Delete(ctx, u.AvatarKey); err != nil {
			slog.Warn("failed to delete avatar object", "user_id", userID, "key", u.AvatarKey, "err", err)
		}
	}
	s.publish(ctx, sns.EventUserDeleted, userID)
	return u, nil
}

func (s *service) UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType string) error {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return err
	}
	key := fmt.Sprintf("avatars/%s", userID)
	if _, err := s.avatars.Upload(ctx, key, r, contentType); err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldAvatarKey: key})
}

func (s *service) Avatar(ctx context.Context, userID string) (io.ReadCloser, string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if u.AvatarKey == "" {
		return nil, "", fmt.Errorf("avatar not found: %w", domain.ErrNotFound)
	}
	return s.avatars.Download(ctx, u.AvatarKey)
}

// publish broadcasts an account event. Event delivery never fails the
// triggering operation.
func (s *service) publish(ctx context.Context, event, userID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAccountEvent(ctx, event, userID); err != nil {
		slog.Warn("failed to publish account event", "event", event, "user_id", userID, "err", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
