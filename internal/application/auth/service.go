package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-directory-api/internal/domain"
	jwtinfra "github.com/go-directory-api/internal/infrastructure/jwt"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a well-formed bcrypt digest compared against when the email
// has no account. The result is discarded.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer string
	User   *domain.User
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Ranking(ctx context.Context) ([]domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ScanAll(ctx context.Context) ([]domain.User, error)
}

type jwtSigner interface {
	Sign(userID, purpose string, ttl time.Duration) (string, error)
}

type service struct {
	repo          userStore
	jwtProvider   jwtSigner
	sessionExpiry time.Duration
}

type ServiceDeps struct {
	UserRepo      userStore
	JWTProvider   jwtSigner
	SessionExpiry time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:          deps.UserRepo,
		jwtProvider:   deps.JWTProvider,
		sessionExpiry: deps.SessionExpiry,
	}
}

// Login checks credentials and returns a bearer token plus the profile.
// Unknown email and wrong password produce the identical error so the
// response never reveals whether an account exists.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Burn a comparison so the unknown-email path costs the same.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrAuth)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrAuth)
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, jwtinfra.PurposeSession, s.sessionExpiry)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, User: u}, nil
}

// Ranking returns users ordered by score descending. Ties break on user id
// ascending so repeated calls with unchanged scores return the same order.
func (s *service) Ranking(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Score != users[j].Score {
			return users[i].Score > users[j].Score
		}
		return users[i].UserID < users[j].UserID
	})
	return users, nil
}
