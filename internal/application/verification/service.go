package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-directory-api/internal/domain"
	"github.com/go-directory-api/internal/infrastructure/smtp"
	pkgtoken "github.com/go-directory-api/internal/pkg/token"
)

// Service drives the Unverified -> PendingVerification -> Verified transition
// for a user's email address.
type Service interface {
	Issue(ctx context.Context, userID string) error
	Resend(ctx context.Context, userID string) error
	CheckStatus(ctx context.Context, userID string) (bool, error)
	Validate(ctx context.Context, token string) error
	Revoke(ctx context.Context, userID string) error
}

type tokenStore interface {
	Put(ctx context.Context, v *domain.VerificationToken) error
	GetByToken(ctx context.Context, token string) (*domain.VerificationToken, error)
	MarkUsed(ctx context.Context, userID, verType string, usedAt time.Time) error
	Delete(ctx context.Context, userID, verType string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	tokens   tokenStore
	users    userStore
	mailer   smtp.Mailer
	tokenTTL time.Duration
}

type ServiceDeps struct {
	TokenRepo tokenStore
	UserRepo  userStore
	Mailer    smtp.Mailer
	TokenTTL  time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		tokens:   deps.TokenRepo,
		users:    deps.UserRepo,
		mailer:   deps.Mailer,
		tokenTTL: deps.TokenTTL,
	}
}

// Issue creates a fresh verification token for the user and mails it.
// Storing the token replaces any outstanding one, so at most one token is
// valid per user at any time. A mail failure is reported as a delivery
// error but does not roll the token back — the caller can resend.
func (s *service) Issue(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	tok, err := pkgtoken.New()
	if err != nil {
		return err
	}
	now := time.Now()
	v := &domain.VerificationToken{
		UserID:    u.UserID,
		Type:      domain.VerificationEmail,
		Token:     tok,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenTTL).Unix(),
	}
	if err := s.tokens.Put(ctx, v); err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Verify your email", "Your verification token: "+tok)
}

// Resend re-issues the token unless the address is already verified.
func (s *service) Resend(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}
	return s.Issue(ctx, userID)
}

// CheckStatus is a pure read of the verified flag.
func (s *service) CheckStatus(ctx context.Context, userID string) (bool, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.EmailVerified, nil
}

// Validate consumes the token and flips the user's verified flag. Each token
// validates at most once: the consume step fails with ErrAlreadyUsed on a
// second attempt, and a superseded token no longer resolves at all.
func (s *service) Validate(ctx context.Context, token string) error {
	v, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if v.UsedAt != 0 {
		return fmt.Errorf("verification token already consumed: %w", domain.ErrAlreadyUsed)
	}
	now := time.Now()
	if v.ExpiresAt < now.Unix() {
		return fmt.Errorf("verification token expired: %w", domain.ErrExpired)
	}
	if err := s.tokens.MarkUsed(ctx, v.UserID, v.Type, now); err != nil {
		return err
	}
	return s.users.Update(ctx, v.UserID, map[string]interface{}{"email_verified": true})
}

// Revoke discards any outstanding token for the user, whether or not one
// exists. Called when the account itself is removed.
func (s *service) Revoke(ctx context.Context, userID string) error {
	return s.tokens.Delete(ctx, userID, domain.VerificationEmail)
}
