package property

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/pkg/id"
)

// Service owns the listing lifecycle: submission, admin verification,
// rejection with a resubmission deadline, and the featured overlay.
type Service interface {
	Submit(ctx context.Context, landlordID string, in domain.PropertyInput, images []ImageUpload) (*domain.Property, error)
	Get(ctx context.Context, propertyID string) (*domain.Property, error)
	Detail(ctx context.Context, propertyID string, viewer Viewer) (*Detail, error)
	Update(ctx context.Context, propertyID, userID string, in domain.PropertyInput) (*domain.Property, error)
	Delete(ctx context.Context, propertyID, userID string) error

	Verify(ctx context.Context, propertyID, adminID string) (*domain.Property, error)
	Reject(ctx context.Context, propertyID, adminID, reason string) (*domain.Property, error)
	ApplyFeatured(ctx context.Context, propertyID string, plan domain.FeaturedPlan, amount int) (*domain.Property, error)

	VerificationQueue(ctx context.Context) ([]domain.Property, error)
	ListVerified(ctx context.Context) ([]domain.Property, error)
	ListFeatured(ctx context.Context) ([]domain.Property, error)
	ListByLandlord(ctx context.Context, landlordID string) ([]domain.Property, error)
	Search(ctx context.Context, f domain.SearchFilter) ([]domain.Property, error)

	AddImages(ctx context.Context, propertyID, userID string, uploads []ImageUpload) ([]domain.PropertyImage, error)
	DeleteImage(ctx context.Context, imageID, userID string) error
	ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error)

	SweepRejected(ctx context.Context) (int, error)
	ScanExpiringFeatured(ctx context.Context) (int, error)
	SweepExpiredFeatured(ctx context.Context) (int, error)
}

type propertyStore interface {
	Put(ctx context.Context, p *domain.Property) error
	Get(ctx context.Context, propertyID string) (*domain.Property, error)
	Delete(ctx context.Context, propertyID string) error
	ListByStatus(ctx context.Context, status domain.VerificationState) ([]domain.Property, error)
	ListByLandlord(ctx context.Context, landlordID string) ([]domain.Property, error)
	ListFeatured(ctx context.Context) ([]domain.Property, error)
}

type imageStore interface {
	Put(ctx context.Context, img *domain.PropertyImage) error
	Get(ctx context.Context, imageID string) (*domain.PropertyImage, error)
	ListByProperty(ctx context.Context, propertyID string) ([]domain.PropertyImage, error)
	Delete(ctx context.Context, imageID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type viewStore interface {
	Record(ctx context.Context, v *domain.PropertyView) (bool, error)
	CountByProperty(ctx context.Context, propertyID string) (int, error)
}

type recentStore interface {
	Touch(ctx context.Context, rv *domain.RecentlyViewed) error
}

type favoriteStore interface {
	Exists(ctx context.Context, userID, propertyID string) (bool, error)
	CountByProperty(ctx context.Context, propertyID string) (int, error)
}

type userLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type notifier interface {
	Notify(ctx context.Context, ev notification.Event) *domain.Notification
	NotifyAdmin(ctx context.Context, ev notification.Event) *domain.Notification
}

type service struct {
	repo      propertyStore
	images    imageStore
	objects   objectStore
	views     viewStore
	recent    recentStore
	favorites favoriteStore
	users     userLookup
	notify    notifier
	urlTTL    time.Duration
	now       func() time.Time
}

type ServiceDeps struct {
	PropertyRepo propertyStore
	ImageRepo    imageStore
	Objects      objectStore
	ViewRepo     viewStore
	RecentRepo   recentStore
	FavoriteRepo favoriteStore
	UserRepo     userLookup
	Notifier     notifier
	ImageURLTTL  time.Duration
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	ttl := deps.ImageURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{
		repo:      deps.PropertyRepo,
		images:    deps.ImageRepo,
		objects:   deps.Objects,
		views:     deps.ViewRepo,
		recent:    deps.RecentRepo,
		favorites: deps.FavoriteRepo,
		users:     deps.UserRepo,
		notify:    deps.Notifier,
		urlTTL:    ttl,
		now:       now,
	}
}

func (s *service) Submit(ctx context.Context, landlordID string, in domain.PropertyInput, images []ImageUpload) (*domain.Property, error) {
	if len(images) > domain.MaxPropertyImages {
		return nil, fmt.Errorf("you can upload up to %d images only: %w", domain.MaxPropertyImages, domain.ErrBadRequest)
	}
	if err := checkUploads(images); err != nil {
		return nil, err
	}
	landlord, err := s.users.Get(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	if landlord.Role != domain.RoleLandlord {
		return nil, fmt.Errorf("only landlords can list properties: %w", domain.ErrForbidden)
	}
	now := s.now()
	p := &domain.Property{
		PropertyID:  id.New(),
		LandlordID:  landlordID,
		IsAvailable: true,
		Status:      domain.VerificationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := in.Apply(p); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	if _, err := s.storeImages(ctx, p.PropertyID, 0, images); err != nil {
		if rmErr := s.remove(ctx, p); rmErr != nil {
			slog.Error("failed to remove listing after image upload error", "property_id", p.PropertyID, "err", rmErr)
		}
		return nil, err
	}
	s.notify.NotifyAdmin(ctx, notification.Event{
		Type:       domain.NotificationPropertySubmission,
		Message:    submissionMessage(p.Title, landlord.Email),
		PropertyID: p.PropertyID,
	})
	return p, nil
}

func (s *service) Get(ctx context.Context, propertyID string) (*domain.Property, error) {
	return s.repo.Get(ctx, propertyID)
}

// Update edits a listing. A rejected listing goes back to the verification
// queue as a resubmission; any other listing keeps its state.
func (s *service) Update(ctx context.Context, propertyID, userID string, in domain.PropertyInput) (*domain.Property, error) {
	p, err := s.ownedBy(ctx, propertyID, userID)
	if err != nil {
		return nil, err
	}
	if err := in.Apply(p); err != nil {
		return nil, err
	}
	now := s.now()
	p.UpdatedAt = now
	resubmitted := p.Resubmit(now)
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	if resubmitted {
		email := userID
		if u, err := s.users.Get(ctx, userID); err == nil {
			email = u.Email
		}
		s.notify.NotifyAdmin(ctx, notification.Event{
			Type:       domain.NotificationPropertyResubmission,
			Message:    resubmissionMessage(p.Title, email),
			PropertyID: p.PropertyID,
		})
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, propertyID, userID string) error {
	p, err := s.ownedBy(ctx, propertyID, userID)
	if err != nil {
		return err
	}
	return s.remove(ctx, p)
}

func (s *service) Verify(ctx context.Context, propertyID, adminID string) (*domain.Property, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	p.Verify(adminID, s.now())
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	s.notify.Notify(ctx, notification.Event{
		Type:        domain.NotificationVerification,
		RecipientID: p.LandlordID,
		Message:     verificationMessage(p.Title),
		PropertyID:  p.PropertyID,
	})
	return p, nil
}

func (s *service) Reject(ctx context.Context, propertyID, adminID, reason string) (*domain.Property, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	p.Reject(reason, s.now())
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	slog.Info("property rejected", "property_id", p.PropertyID, "admin_id", adminID, "auto_delete_at", p.AutoDeleteAt)
	s.notify.Notify(ctx, notification.Event{
		Type:        domain.NotificationRejection,
		RecipientID: p.LandlordID,
		Message:     rejectionMessage(p.Title, reason),
		PropertyID:  p.PropertyID,
	})
	return p, nil
}

func (s *service) VerificationQueue(ctx context.Context) ([]domain.Property, error) {
	props, err := s.repo.ListByStatus(ctx, domain.VerificationPending)
	if err != nil {
		return nil, err
	}
	sort.Slice(props, func(i, j int) bool { return props[i].UpdatedAt.Before(props[j].UpdatedAt) })
	return props, nil
}

// ListVerified returns the public listings: verified and available, newest first.
func (s *service) ListVerified(ctx context.Context) ([]domain.Property, error) {
	props, err := s.repo.ListByStatus(ctx, domain.VerificationVerified)
	if err != nil {
		return nil, err
	}
	out := props[:0]
	for _, p := range props {
		if p.IsAvailable {
			out = append(out, p)
		}
	}
	newestFirst(out)
	return out, nil
}

// ListFeatured returns verified, available listings whose featured period is active.
func (s *service) ListFeatured(ctx context.Context) ([]domain.Property, error) {
	props, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := props[:0]
	for _, p := range props {
		if p.IsVerified() && p.IsAvailable && p.IsFeaturedAt(now) {
			out = append(out, p)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *service) ListByLandlord(ctx context.Context, landlordID string) ([]domain.Property, error) {
	props, err := s.repo.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	newestFirst(props)
	return props, nil
}

func (s *service) Search(ctx context.Context, f domain.SearchFilter) ([]domain.Property, error) {
	props, err := s.ListVerified(ctx)
	if err != nil {
		return nil, err
	}
	out := props[:0]
	for i := range props {
		if f.Matches(&props[i]) {
			out = append(out, props[i])
		}
	}
	return out, nil
}

// ownedBy loads a listing and checks that userID is its landlord.
func (s *service) ownedBy(ctx context.Context, propertyID, userID string) (*domain.Property, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.LandlordID != userID {
		return nil, fmt.Errorf("not the owner of this property: %w", domain.ErrForbidden)
	}
	return p, nil
}

// remove deletes a listing together with its images. Object deletion is best effort.
func (s *service) remove(ctx context.Context, p *domain.Property) error {
	imgs, err := s.images.ListByProperty(ctx, p.PropertyID)
	if err != nil {
		return err
	}
	for _, img := range imgs {
		if err := s.objects.Delete(ctx, img.Object); err != nil {
			slog.Warn("failed to delete image object", "property_id", p.PropertyID, "object", img.Object, "err", err)
		}
		if err := s.images.Delete(ctx, img.ImageID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, p.PropertyID)
}

func newestFirst(props []domain.Property) {
	sort.SliceStable(props, func(i, j int) bool { return props[i].CreatedAt.After(props[j].CreatedAt) })
}
