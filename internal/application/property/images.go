package property

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-rental-api/internal/domain"
	s3infra "github.com/go-rental-api/internal/infrastructure/s3"
	"github.com/go-rental-api/internal/pkg/id"
)

const imagePrefix = "property_images"

var errNotVisible = fmt.Errorf("property not found: %w", domain.ErrNotFound)

// ImageUpload is one picture received from the client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (s *service) AddImages(ctx context.Context, propertyID, userID string, uploads []ImageUpload) ([]domain.PropertyImage, error) {
	p, err := s.ownedBy(ctx, propertyID, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.images.ListByProperty(ctx, p.PropertyID)
	if err != nil {
		return nil, err
	}
	if len(existing)+len(uploads) > domain.MaxPropertyImages {
		return nil, fmt.Errorf("maximum %d images allowed, you have %d already: %w",
			domain.MaxPropertyImages, len(existing), domain.ErrBadRequest)
	}
	stored, err := s.storeImages(ctx, p.PropertyID, len(existing), uploads)
	if err != nil {
		return nil, err
	}
	return s.withURLs(ctx, stored), nil
}

func checkUploads(uploads []ImageUpload) error {
	for _, up := range uploads {
		if !s3infra.IsImage(up.Filename) {
			return fmt.Errorf("%s is not a supported image: %w", up.Filename, domain.ErrBadRequest)
		}
	}
	return nil
}

// storeImages uploads the pictures; the first image of a listing becomes primary.
func (s *service) storeImages(ctx context.Context, propertyID string, existing int, uploads []ImageUpload) ([]domain.PropertyImage, error) {
	if err := checkUploads(uploads); err != nil {
		return nil, err
	}
	out := make([]domain.PropertyImage, 0, len(uploads))
	for i, up := range uploads {
		imageID := id.New()
		key := s3infra.ObjectKey(imagePrefix, propertyID, imageID, up.Filename)
		if err := s.objects.Upload(ctx, key, up.Body, up.ContentType); err != nil {
			return out, err
		}
		img := domain.PropertyImage{
			ImageID:    imageID,
			PropertyID: propertyID,
			Object:     key,
			IsPrimary:  existing == 0 && i == 0,
			UploadedAt: s.now(),
		}
		if err := s.images.Put(ctx, &img); err != nil {
			if delErr := s.objects.Delete(ctx, key); delErr != nil {
				slog.Warn("failed to delete orphaned image object", "property_id", propertyID, "object", key, "err", delErr)
			}
			return out, err
		}
		out = append(out, img)
	}
	return out, nil
}

func (s *service) DeleteImage(ctx context.Context, imageID, userID string) error {
	img, err := s.images.Get(ctx, imageID)
	if err != nil {
		return err
	}
	if _, err := s.ownedBy(ctx, img.PropertyID, userID); err != nil {
		return err
	}
	if err := s.images.Delete(ctx, img.ImageID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, img.Object); err != nil {
		slog.Warn("failed to delete image object", "image_id", img.ImageID, "object", img.Object, "err", err)
	}
	return nil
}

func (s *service) ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error) {
	imgs, err := s.images.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return s.withURLs(ctx, imgs), nil
}

func (s *service) withURLs(ctx context.Context, imgs []domain.PropertyImage) []domain.PropertyImage {
	for i := range imgs {
		u, err := s.objects.PresignedURL(ctx, imgs[i].Object, s.urlTTL)
		if err != nil {
			slog.Warn("failed to presign image url", "image_id", imgs[i].ImageID, "err", err)
			continue
		}
		imgs[i].URL = u
	}
	return imgs
}
