package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"storefront/internal/storage"

	"github.com/google/uuid"
)

const MaxUploadBytes = 5 << 20

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadService struct {
	Store storage.Store
	Now   func() time.Time
}

func NewUploadService(st storage.Store) *UploadService { return &UploadService{Store: st, Now: time.Now} }

// Image stores an image under uploads/YYYY/MM/<uuid>.<ext> and returns its
// public URL.
func (s *UploadService) Image(ctx context.Context, body io.Reader, size int64, contentType string) (string, error) {
	ext, ok := imageExt[contentType]
	if !ok {
		return "", Invalid("only jpeg, png, gif and webp images are accepted")
	}
	if size > MaxUploadBytes {
		return "", Invalidf("file exceeds %d MB", MaxUploadBytes>>20)
	}
	key := fmt.Sprintf("uploads/%s/%s%s", s.Now().UTC().Format("2006/01"), uuid.NewString(), ext)
	url, err := s.Store.Put(ctx, key, io.LimitReader(body, MaxUploadBytes), contentType)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return url, nil
}
