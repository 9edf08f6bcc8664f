package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
	s3infra "github.com/go-rental-api/internal/infrastructure/s3"
	"github.com/go-rental-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPhone          = "phone"
	fieldFirstName      = "first_name"
	fieldLastName       = "last_name"
	fieldPasswordHash   = "password_hash"
	fieldProfilePicture = "profile_picture"
)

const profilePrefix = "profile_pictures"

type LoginResult struct {
	Bearer string       `json:"bearer"`
	User   *domain.User `json:"user"`
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	SetProfilePicture(ctx context.Context, userID, filename string, body io.Reader) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, ev notification.Event) *domain.Notification
	NotifyAdmin(ctx context.Context, ev notification.Event) *domain.Notification
}

type service struct {
	repo        userStore
	objects     objectStore
	jwtProvider jwtSigner
	notify      notifier
	now         func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	Objects     objectStore
	JWTProvider jwtSigner
	Notifier    notifier
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:        deps.UserRepo,
		objects:     deps.Objects,
		jwtProvider: deps.JWTProvider,
		notify:      deps.Notifier,
		now:         now,
	}
}

// Register creates a landlord or renter account. Admin accounts are not
// created through this path.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if req.Role != domain.RoleLandlord && req.Role != domain.RoleRenter {
		return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}

	s.notify.NotifyAdmin(ctx, notification.Event{
		Type:          domain.NotificationNewUser,
		Message:       fmt.Sprintf("New user registered: %s (%s)", u.Email, u.Role),
		RelatedUserID: u.UserID,
	})
	s.notify.Notify(ctx, notification.Event{
		Type:        domain.NotificationWelcome,
		RecipientID: u.UserID,
		Message:     "Welcome to YebetKiray! Complete your profile to get started.",
	})
	s.notify.Notify(ctx, notification.Event{
		Type:        domain.NotificationTip,
		RecipientID: u.UserID,
		Message:     "Tip: Browse properties and save your favorites for quick access.",
	})
	return u, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if u.Enable != 1 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, User: u}, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates[fieldLastName] = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		updates[fieldPhone] = strings.TrimSpace(*req.Phone)
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	s.profileUpdated(ctx, userID)
	return s.repo.Get(ctx, userID)
}

// SetProfilePicture stores a new picture and drops the previous object.
func (s *service) SetProfilePicture(ctx context.Context, userID, filename string, body io.Reader) (*domain.User, error) {
	if !s3infra.IsImage(filename) {
		return nil, fmt.Errorf("%s is not a supported image: %w", filename, domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := s3infra.ObjectKey(profilePrefix, userID, id.New(), filename)
	if err := s.objects.Upload(ctx, key, body, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldProfilePicture: key}); err != nil {
		return nil, err
	}
	if u.ProfilePicture != nil && *u.ProfilePicture != "" {
		if err := s.objects.Delete(ctx, *u.ProfilePicture); err != nil {
			slog.Warn("failed to delete old profile picture", "user_id", userID, "err", err)
		}
	}
	s.profileUpdated(ctx, userID)
	u.ProfilePicture = &key
	return u, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return err
	}
	s.notify.Notify(ctx, notification.Event{
		Type:        domain.NotificationAccountAlert,
		RecipientID: userID,
		Message:     "Your password was changed. If this wasn't you, contact support.",
	})
	return nil
}

func (s *service) profileUpdated(ctx context.Context, userID string) {
	s.notify.Notify(ctx, notification.Event{
		Type:        domain.NotificationProfileUpdate,
		RecipientID: userID,
		Message:     "Your profile has been updated successfully",
	})
}
