package user

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
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

type mockObjects struct{ mock.Mock }

func (m *mockObjects) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	return m.Called(ctx, key, r, contentType).Error(0)
}
func (m *mockObjects) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	user  []notification.Event
	admin []notification.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notification.Event) *domain.Notification {
	r.user = append(r.user, ev)
	return &domain.Notification{UserID: ev.RecipientID, Type: ev.Type}
}

func (r *recordingNotifier) NotifyAdmin(_ context.Context, ev notification.Event) *domain.Notification {
	r.admin = append(r.admin, ev)
	return &domain.Notification{Type: ev.Type}
}

// --- helpers ---

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(us *mockUserStore, objs *mockObjects, jwt *mockJWTSigner, notes *recordingNotifier) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		Objects:     objs,
		JWTProvider: jwt,
		Notifier:    notes,
		Now:         func() time.Time { return t0 },
	})
}

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Password:  "password123",
		Email:     "Alice@Example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Role:      domain.RoleRenter,
	}
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func ptr[T any](v T) *T { return &v }

// --- Register tests ---

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	svc := newService(us, nil, nil, &recordingNotifier{})
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	req := baseReq()
	req.Role = domain.RoleAdmin

	svc := newService(&mockUserStore{}, nil, nil, &recordingNotifier{})
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	notes := &recordingNotifier{}

	svc := newService(us, nil, nil, notes)
	u, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleRenter, u.Role)
	assert.Equal(t, 1, u.Enable)
	assert.Equal(t, t0, u.CreatedAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
	us.AssertExpectations(t)

	require.Len(t, notes.admin, 1)
	assert.Equal(t, domain.NotificationNewUser, notes.admin[0].Type)
	assert.Equal(t, "New user registered: alice@example.com (renter)", notes.admin[0].Message)
	assert.Equal(t, u.UserID, notes.admin[0].RelatedUserID)
	require.Len(t, notes.user, 2)
	assert.Equal(t, domain.NotificationWelcome, notes.user[0].Type)
	assert.Equal(t, domain.NotificationTip, notes.user[1].Type)
	assert.Equal(t, u.UserID, notes.user[0].RecipientID)
}

// --- Login tests ---

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	jwt := &mockJWTSigner{}
	u := &domain.User{UserID: "u1", Email: "alice@example.com", Role: domain.RoleLandlord, Enable: 1, PasswordHash: hashed(t, "password123")}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	jwt.On("Sign", "u1", domain.RoleLandlord).Return("token", nil)

	svc := newService(us, nil, jwt, &recordingNotifier{})
	res, err := svc.Login(context.Background(), domain.LoginRequest{Email: " ALICE@example.com", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, "token", res.Bearer)
	assert.Equal(t, u, res.User)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{Enable: 1, PasswordHash: hashed(t, "password123")}, nil)

	svc := newService(us, nil, &mockJWTSigner{}, &recordingNotifier{})
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_Disabled(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{Enable: 0, PasswordHash: hashed(t, "password123")}, nil)

	svc := newService(us, nil, &mockJWTSigner{}, &recordingNotifier{})
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, &mockJWTSigner{}, &recordingNotifier{})
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "bob@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- Profile tests ---

func TestUpdateProfile_EmptyRequest_ReturnsExistingUser(t *testing.T) {
	us := &mockUserStore{}
	existing := &domain.User{UserID: "u1", FirstName: "Alice"}
	us.On("Get", mock.Anything, "u1").Return(existing, nil)
	notes := &recordingNotifier{}

	svc := newService(us, nil, nil, notes)
	u, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{})

	require.NoError(t, err)
	assert.Equal(t, existing, u)
	assert.Empty(t, notes.user)
	us.AssertExpectations(t)
}

func TestUpdateProfile_NotifiesSelf(t *testing.T) {
	us := &mockUserStore{}
	updated := &domain.User{UserID: "u1", FirstName: "Bob"}
	us.On("Update", mock.Anything, "u1", map[string]interface{}{fieldFirstName: "Bob"}).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(updated, nil)
	notes := &recordingNotifier{}

	svc := newService(us, nil, nil, notes)
	u, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{FirstName: ptr(" Bob ")})

	require.NoError(t, err)
	assert.Equal(t, "Bob", u.FirstName)
	require.Len(t, notes.user, 1)
	assert.Equal(t, domain.NotificationProfileUpdate, notes.user[0].Type)
	assert.Equal(t, "u1", notes.user[0].RecipientID)
	assert.Equal(t, "Your profile has been updated successfully", notes.user[0].Message)
	us.AssertExpectations(t)
}

func TestUpdateProfile_PropagatesStoreError(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(domain.ErrNotFound)

	svc := newService(us, nil, nil, &recordingNotifier{})
	_, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{LastName: ptr("Smith")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetProfilePicture_ReplacesOldObject(t *testing.T) {
	us := &mockUserStore{}
	objs := &mockObjects{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", ProfilePicture: ptr("profile_pictures/u1/old.png")}, nil)
	objs.On("Upload", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "profile_pictures/u1/") && strings.HasSuffix(k, ".jpg")
	}), mock.Anything, "").Return(nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	objs.On("Delete", mock.Anything, "profile_pictures/u1/old.png").Return(nil)

	svc := newService(us, objs, nil, &recordingNotifier{})
	u, err := svc.SetProfilePicture(context.Background(), "u1", "me.jpg", strings.NewReader("img"))

	require.NoError(t, err)
	require.NotNil(t, u.ProfilePicture)
	assert.NotEqual(t, "profile_pictures/u1/old.png", *u.ProfilePicture)
	objs.AssertExpectations(t)
}

func TestSetProfilePicture_RejectsNonImage(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockObjects{}, nil, &recordingNotifier{})
	_, err := svc.SetProfilePicture(context.Background(), "u1", "cv.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- ChangePassword tests ---

func TestChangePassword_WrongCurrent(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: hashed(t, "password123")}, nil)

	svc := newService(us, nil, nil, &recordingNotifier{})
	err := svc.ChangePassword(context.Background(), "u1", "wrong", "newpassword1")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_AlertsUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: hashed(t, "password123")}, nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	notes := &recordingNotifier{}

	svc := newService(us, nil, nil, notes)
	require.NoError(t, svc.ChangePassword(context.Background(), "u1", "password123", "newpassword1"))

	require.Len(t, notes.user, 1)
	assert.Equal(t, domain.NotificationAccountAlert, notes.user[0].Type)
}
