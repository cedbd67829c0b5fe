package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-directory-api/internal/application/recovery"
	"github.com/go-directory-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecoveryService struct{ mock.Mock }

func (m *mockRecoveryService) Verify(ctx context.Context, req recovery.ChallengeRequest) (*recovery.ChallengeResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*recovery.ChallengeResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRecoveryService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	return m.Called(ctx, userID, newPassword).Error(0)
}

func TestChallenge_Success(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("Verify", mock.Anything, recovery.ChallengeRequest{
		Email:     "alice@example.com",
		BirthDate: "2000-01-01",
	}).Return(&recovery.ChallengeResult{UserID: "u1", RecoveryToken: "recovery-token"}, nil)

	h := NewPasswordRecoveryHandler(svc)
	rec := httptest.NewRecorder()
	h.Challenge(rec, httptest.NewRequest(http.MethodPost, "/v1/password-recovery/challenge",
		jsonBody(t, map[string]string{"email": "alice@example.com", "birth_date": "2000-01-01"})))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id": "u1", "recovery_token": "recovery-token"}`, rec.Body.String())
}

func TestChallenge_Mismatch(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("Verify", mock.Anything, mock.Anything).Return(nil, domain.ErrAuth)

	h := NewPasswordRecoveryHandler(svc)
	rec := httptest.NewRecorder()
	h.Challenge(rec, httptest.NewRequest(http.MethodPost, "/v1/password-recovery/challenge",
		jsonBody(t, map[string]string{"email": "alice@example.com", "birth_date": "1999-01-01"})))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChallenge_MissingBirthDate(t *testing.T) {
	svc := &mockRecoveryService{}
	h := NewPasswordRecoveryHandler(svc)
	rec := httptest.NewRecorder()
	h.Challenge(rec, httptest.NewRequest(http.MethodPost, "/v1/password-recovery/challenge",
		jsonBody(t, map[string]string{"email": "alice@example.com"})))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestChangePassword_UsesClaimsUserID(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("ChangePassword", mock.Anything, "u1", "newpassword1").Return(nil)

	r := chi.NewRouter()
	r.With(withClaims("u1")).Post("/v1/password-recovery/change-password", NewPasswordRecoveryHandler(svc).ChangePassword)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/password-recovery/change-password",
		jsonBody(t, map[string]string{"new_password": "newpassword1"})))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestChangePassword_TooShort(t *testing.T) {
	svc := &mockRecoveryService{}
	r := chi.NewRouter()
	r.With(withClaims("u1")).Post("/v1/password-recovery/change-password", NewPasswordRecoveryHandler(svc).ChangePassword)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/password-recovery/change-password",
		jsonBody(t, map[string]string{"new_password": "short"})))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "ChangePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_NoClaims(t *testing.T) {
	h := NewPasswordRecoveryHandler(&mockRecoveryService{})
	rec := httptest.NewRecorder()
	h.ChangePassword(rec, httptest.NewRequest(http.MethodPost, "/v1/password-recovery/change-password",
		jsonBody(t, map[string]string{"new_password": "newpassword1"})))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
