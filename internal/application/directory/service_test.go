package directory

import (
	"context"
	"errors"
	"io"
	"testing"

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
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	if rc, _ := args.Get(0).(io.ReadCloser); rc != nil {
		return rc, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}
func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishAccountEvent(ctx context.Context, event, userID string) error {
	return m.Called(ctx, event, userID).Error(0)
}

// --- helpers ---

func newService(us *mockUserStore, os *mockObjectStore, pub *mockPublisher) Service {
	deps := ServiceDeps{UserRepo: us, AvatarStore: os}
	if pub != nil {
		deps.Events = pub
	}
	return NewService(deps)
}

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Email:     "Alice@Example.com",
		Password:  "password123",
		FirstName: "Alice",
		LastName:  "Smith",
		BirthDate: "2000-01-01",
	}
}

func ptr[T any](v T) *T { return &v }

// --- Create tests ---

func TestCreate_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Create(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	us.AssertExpectations(t)
}

func TestCreate_InvalidBirthDate(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil)
	req := baseReq()
	req.BirthDate = "not-a-date"
	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreate_EmailCheckStorageFailure(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrStorage)

	svc := newService(us, nil, nil)
	_, err := svc.Create(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	svc := newService(us, nil, nil)
	u, err := svc.Create(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email) // stored lowercase
	assert.Equal(t, "Alice", u.FirstName)
	assert.True(t, u.Enable)
	assert.False(t, u.EmailVerified)
	assert.NotEmpty(t, u.UserID)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
	us.AssertExpectations(t)
}

func TestCreate_PublishesAccountEvent(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	pub := &mockPublisher{}
	pub.On("PublishAccountEvent", mock.Anything, "user.created", mock.Anything).Return(nil)

	svc := newService(us, nil, pub)
	_, err := svc.Create(context.Background(), baseReq())

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestCreate_EventFailureDoesNotFailCreation(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	pub := &mockPublisher{}
	pub.On("PublishAccountEvent", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sns down"))

	svc := newService(us, nil, pub)
	_, err := svc.Create(context.Background(), baseReq())

	require.NoError(t, err)
}

// --- GetByEmail tests ---

func TestGetByEmail_NormalisesAddress(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(&domain.User{UserID: "u2"}, nil)

	svc := newService(us, nil, nil)
	u, err := svc.GetByEmail(context.Background(), "  Bob@Example.COM ")

	require.NoError(t, err)
	assert.Equal(t, "u2", u.UserID)
	us.AssertExpectations(t)
}

// --- Update tests ---

func TestUpdate_EmptyRequest_ReturnsExistingUser(t *testing.T) {
	us := &mockUserStore{}
	existing := &domain.User{UserID: "u1", FirstName: "Alice"}
	us.On("Get", mock.Anything, "u1").Return(existing, nil)

	svc := newService(us, nil, nil)
	u, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{})

	require.NoError(t, err)
	assert.Equal(t, existing, u)
	us.AssertExpectations(t)
}

func TestUpdate_InvalidBirthDate(t *testing.T) {
	svc := newService(&mockUserStore{}, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{
		BirthDate: ptr("bad-date"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdate_EmailTakenByOtherUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{UserID: "u2"}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{
		Email: ptr("taken@example.com"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdate_EmailCheckStorageFailure(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, domain.ErrStorage)

	svc := newService(us, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{
		Email: ptr("new@example.com"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_PasswordIsRehashed(t *testing.T) {
	us := &mockUserStore{}
	var captured map[string]interface{}
	us.On("Update", mock.Anything, "u1", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(2).(map[string]interface{})
	}).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{
		Password: ptr("newpassword1"),
	})

	require.NoError(t, err)
	hash, ok := captured["password_hash"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "newpassword1", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword1")))
}

func TestUpdate_NotFoundPropagates(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "missing", mock.Anything).Return(domain.ErrNotFound)

	svc := newService(us, nil, nil)
	_, err := svc.Update(context.Background(), "missing", domain.UpdateUserRequest{
		FirstName: ptr("Bob"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Delete tests ---

func TestDelete_ReturnsRecordBeforeRemoval(t *testing.T) {
	us := &mockUserStore{}
	existing := &domain.User{UserID: "u1", Email: "alice@example.com"}
	us.On("Get", mock.Anything, "u1").Return(existing, nil)
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)

	svc := newService(us, nil, nil)
	u, err := svc.Delete(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, existing, u)
	us.AssertExpectations(t)
}

func TestDelete_RemovesStoredAvatar(t *testing.T) {
	us := &mockUserStore{}
	os := &mockObjectStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1"}, nil)
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)
	os.On("Delete", mock.Anything, "avatars/u1").Return(nil)

	svc := newService(us, os, nil)
	_, err := svc.Delete(context.Background(), "u1")

	require.NoError(t, err)
	os.AssertExpectations(t)
}

func TestDelete_AvatarCleanupFailureTolerated(t *testing.T) {
	us := &mockUserStore{}
	os := &mockObjectStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1"}, nil)
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)
	os.On("Delete", mock.Anything, "avatars/u1").Return(errors.New("s3 down"))

	svc := newService(us, os, nil)
	u, err := svc.Delete(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestDelete_NotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil)
	_, err := svc.Delete(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	us.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

// --- Avatar tests ---

func TestUploadAvatar_StoresKeyOnUser(t *testing.T) {
	us := &mockUserStore{}
	os := &mockObjectStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	os.On("Upload", mock.Anything, "avatars/u1", mock.Anything, "image/png").Return("s3://b/avatars/u1", nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"avatar_key": "avatars/u1"}).Return(nil)

	svc := newService(us, os, nil)
	err := svc.UploadAvatar(context.Background(), "u1", nil, "image/png")

	require.NoError(t, err)
	us.AssertExpectations(t)
	os.AssertExpectations(t)
}

func TestAvatar_NotSet(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, &mockObjectStore{}, nil)
	_, _, err := svc.Avatar(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
