package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civicreport-be/apperror"
	"civicreport-be/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

const (
	MaxUploadFiles = 3
	MaxImageBytes  = 5 << 20
)

// Upload is one file received from a multipart request.
type Upload struct {
	Name string
	Data []byte
}

type UploadedImage struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type ImageService struct {
	store  storage.ObjectStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewImageService accepts a nil store; every call then fails as an upstream error.
func NewImageService(store storage.ObjectStore, logger zerolog.Logger) *ImageService {
	return &ImageService{
		store:  store,
		logger: logger.With().Str("component", "images").Logger(),
		now:    time.Now,
	}
}

// Upload checks every file before storing any. Files stored before a failing
// one are left in place.
func (s *ImageService) Upload(ctx context.Context, files []Upload) ([]UploadedImage, error) {
	if len(files) == 0 {
		return nil, apperror.ValidationFailed("images", "No files uploaded")
	}
	if len(files) > MaxUploadFiles {
		return nil, apperror.ValidationFailed("images", fmt.Sprintf("You can upload a maximum of %d images.", MaxUploadFiles))
	}

	types := make([]*mimetype.MIME, len(files))
	for i, f := range files {
		if len(f.Data) == 0 {
			return nil, apperror.ValidationFailed("images", fmt.Sprintf("%s is empty", f.Name))
		}
		if len(f.Data) > MaxImageBytes {
			return nil, apperror.ValidationFailed("images", fmt.Sprintf("%s exceeds the 5MB limit", f.Name))
		}
		mt := mimetype.Detect(f.Data)
		if !strings.HasPrefix(mt.String(), "image/") {
			return nil, apperror.ValidationFailed("images", "Only image files are allowed!")
		}
		types[i] = mt
	}

	if s.store == nil {
		return nil, apperror.Upstream("Image storage is not configured", nil)
	}

	out := make([]UploadedImage, 0, len(files))
	for i, f := range files {
		key := storage.GenerateKey(f.Name, types[i].Extension(), s.now())
		if err := s.store.Put(ctx, key, f.Data, types[i].String()); err != nil {
			return nil, apperror.Upstream("Failed to upload image", err)
		}
		s.logger.Info().Str("key", key).Int("bytes", len(f.Data)).Msg("image stored")
		out = append(out, UploadedImage{URL: s.store.URL(key), Key: key})
	}
	return out, nil
}

// Delete removes an uploaded image. Deleting a missing key succeeds.
func (s *ImageService) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")
	if !storage.ValidKey(key) {
		return apperror.ValidationFailed("key", "Invalid image key")
	}
	if s.store == nil {
		return apperror.Upstream("Image storage is not configured", nil)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return apperror.Upstream("Failed to delete image", err)
	}
	s.logger.Info().Str("key", key).Msg("image deleted")
	return nil
}
