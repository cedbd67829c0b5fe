package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-directory-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, purpose string, ttl time.Duration) (string, error) {
	args := m.Called(userID, purpose, ttl)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, signer *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		JWTProvider: signer,
		TokenTTL:    15 * time.Minute,
	})
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

// --- Verify tests ---

func TestVerify_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID:    "u1",
		BirthDate: date(t, "2000-01-01"),
	}, nil)
	signer := &mockJWTSigner{}
	signer.On("Sign", "u1", "recovery", 15*time.Minute).Return("recovery-token", nil)

	svc := newService(us, signer)
	result, err := svc.Verify(context.Background(), ChallengeRequest{
		Email:     "Alice@Example.com",
		BirthDate: "2000-01-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, "recovery-token", result.RecoveryToken)
	signer.AssertExpectations(t)
}

func TestVerify_WrongDate_SameErrorAsUnknownEmail(t *testing.T) {
	known := &mockUserStore{}
	known.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID:    "u1",
		BirthDate: date(t, "2000-01-01"),
	}, nil)
	unknown := &mockUserStore{}
	unknown.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	_, errWrongDate := newService(known, &mockJWTSigner{}).Verify(context.Background(),
		ChallengeRequest{Email: "alice@example.com", BirthDate: "1999-01-01"})
	_, errUnknownEmail := newService(unknown, &mockJWTSigner{}).Verify(context.Background(),
		ChallengeRequest{Email: "ghost@example.com", BirthDate: "2000-01-01"})

	require.Error(t, errWrongDate)
	require.Error(t, errUnknownEmail)
	// Identical message content so accounts cannot be enumerated.
	assert.Equal(t, errWrongDate.Error(), errUnknownEmail.Error())
	assert.True(t, errors.Is(errWrongDate, domain.ErrAuth))
	assert.True(t, errors.Is(errUnknownEmail, domain.ErrAuth))
}

func TestVerify_NoStoredBirthDate_Mismatch(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, &mockJWTSigner{})
	_, err := svc.Verify(context.Background(), ChallengeRequest{
		Email:     "alice@example.com",
		BirthDate: "2000-01-01",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuth))
}

func TestVerify_InvalidDateFormat(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockJWTSigner{})
	_, err := svc.Verify(context.Background(), ChallengeRequest{
		Email:     "alice@example.com",
		BirthDate: "January 1st",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestVerify_NeverMutatesState(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(&domain.User{
		UserID:    "u1",
		BirthDate: date(t, "2000-01-01"),
	}, nil)

	svc := newService(us, &mockJWTSigner{})
	_, _ = svc.Verify(context.Background(), ChallengeRequest{
		Email:     "alice@example.com",
		BirthDate: "1999-12-31",
	})

	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- ChangePassword tests ---

func TestChangePassword_Rehashes(t *testing.T) {
	us := &mockUserStore{}
	var captured map[string]interface{}
	us.On("Update", mock.Anything, "u1", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(2).(map[string]interface{})
	}).Return(nil)

	svc := newService(us, &mockJWTSigner{})
	err := svc.ChangePassword(context.Background(), "u1", "newpassword1")

	require.NoError(t, err)
	hash, ok := captured["password_hash"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "newpassword1", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword1")))
}

func TestChangePassword_PropagatesNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "missing", mock.Anything).Return(domain.ErrNotFound)

	svc := newService(us, &mockJWTSigner{})
	err := svc.ChangePassword(context.Background(), "missing", "newpassword1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
