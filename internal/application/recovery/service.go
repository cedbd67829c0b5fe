package recovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-directory-api/internal/domain"
	jwtinfra "github.com/go-directory-api/internal/infrastructure/jwt"
	"golang.org/x/crypto/bcrypt"
)

const birthDateLayout = "2006-01-02"

type ChallengeRequest struct {
	Email     string `json:"email" validate:"required,email"`
	BirthDate string `json:"birth_date" validate:"required"` // YYYY-MM-DD
}

type ChallengeResult struct {
	UserID        string
	RecoveryToken string
}

// Service authorises password resets through an email + birthdate challenge.
type Service interface {
	Verify(ctx context.Context, req ChallengeRequest) (*ChallengeResult, error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type jwtSigner interface {
	Sign(userID, purpose string, ttl time.Duration) (string, error)
}

type service struct {
	repo        userStore
	jwtProvider jwtSigner
	tokenTTL    time.Duration
}

type ServiceDeps struct {
	UserRepo    userStore
	JWTProvider jwtSigner
	TokenTTL    time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.UserRepo,
		jwtProvider: deps.JWTProvider,
		tokenTTL:    deps.TokenTTL,
	}
}

// Verify checks the shared secret and, on success, returns the user id plus
// a short-lived recovery token that authorises the follow-up password
// change. It never mutates state, and every failure mode — unknown email or
// wrong date — yields the identical error so accounts cannot be enumerated.
func (s *service) Verify(ctx context.Context, req ChallengeRequest) (*ChallengeResult, error) {
	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("birth_date must be in YYYY-MM-DD format: %w", domain.ErrValidation)
	}
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, challengeMismatch()
	}
	if u.BirthDate.IsZero() || !u.BirthDate.Equal(birthDate) {
		return nil, challengeMismatch()
	}
	recoveryToken, err := s.jwtProvider.Sign(u.UserID, jwtinfra.PurposeRecovery, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &ChallengeResult{UserID: u.UserID, RecoveryToken: recoveryToken}, nil
}

// ChangePassword is the explicit follow-up update after a successful
// challenge. The handler layer enforces that the caller holds a
// recovery-purpose token for this user.
func (s *service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)})
}

func challengeMismatch() error {
	return fmt.Errorf("challenge mismatch: %w", domain.ErrAuth)
}
