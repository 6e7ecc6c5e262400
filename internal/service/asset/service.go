// Package asset stores location images and series cover art in blob storage
// and keeps the owning documents pointed at them.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/storybible-backend/internal/adapter/blob"
	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type locationModifier interface {
	Modify(ctx context.Context, seriesID, id string, fn func(l *domain.Location) (bool, error)) (*domain.Location, error)
	Get(ctx context.Context, id, seriesID string) (*domain.Location, error)
}

type seriesUpdater interface {
	Get(ctx context.Context, id string) (*domain.Series, error)
	Update(ctx context.Context, id string, patch domain.SeriesPatch) (*domain.Series, error)
}

// Service provides image upload and lookup.
type Service struct {
	blobs      blob.Store
	locations  locationModifier
	series     seriesUpdater
	presignTTL time.Duration
	log        *slog.Logger
}

func NewService(log *slog.Logger, blobs blob.Store, locations locationModifier, series seriesUpdater, presignTTL time.Duration) *Service {
	return &Service{
		blobs:      blobs,
		locations:  locations,
		series:     series,
		presignTTL: presignTTL,
		log:        log.With("service", "asset"),
	}
}

// UploadLocationImage stores the image and appends its key to the location.
// The blob is removed again when the location cannot be updated.
func (s *Service) UploadLocationImage(ctx context.Context, seriesID, locationID, filename, contentType string, r io.Reader) (*domain.Location, error) {
	if _, err := s.locations.Get(ctx, locationID, seriesID); err != nil {
		return nil, err
	}

	key := objectKey(seriesID, "locations/"+locationID, filename)
	if _, err := s.blobs.Put(ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("put image: %w", err)
	}

	loc, err := s.locations.Modify(ctx, seriesID, locationID, func(l *domain.Location) (bool, error) {
		l.Images = append(l.Images, key)
		return true, nil
	})
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	s.log.InfoContext(ctx, "location image uploaded",
		slog.String("location_id", locationID),
		slog.String("key", key),
	)
	return loc, nil
}

// RemoveLocationImage drops key from the location and deletes the blob.
// A key the location does not hold is a no-op.
func (s *Service) RemoveLocationImage(ctx context.Context, seriesID, locationID, key string) (*domain.Location, error) {
	var removed bool
	loc, err := s.locations.Modify(ctx, seriesID, locationID, func(l *domain.Location) (bool, error) {
		i := slices.Index(l.Images, key)
		if i < 0 {
			return false, nil
		}
		l.Images = slices.Delete(l.Images, i, i+1)
		removed = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if removed {
		s.discard(ctx, key)
		s.log.InfoContext(ctx, "location image removed",
			slog.String("location_id", locationID),
			slog.String("key", key),
		)
	}
	return loc, nil
}

// SetSeriesCover stores the cover and points Series.CoverURL at its key. A
// previous cover stored by this service is deleted.
func (s *Service) SetSeriesCover(ctx context.Context, seriesID, filename, contentType string, r io.Reader) (*domain.Series, error) {
	cur, err := s.series.Get(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	key := objectKey(seriesID, "cover", filename)
	if _, err := s.blobs.Put(ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("put cover: %w", err)
	}

	updated, err := s.series.Update(ctx, seriesID, domain.SeriesPatch{CoverURL: domain.Set(key)})
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	if cur.CoverURL != nil && strings.HasPrefix(*cur.CoverURL, coverPrefix(seriesID)) {
		s.discard(ctx, *cur.CoverURL)
	}

	s.log.InfoContext(ctx, "series cover set",
		slog.String("series_id", seriesID),
		slog.String("key", key),
	)
	return updated, nil
}

// ImageURL returns a time-limited URL for key. Drivers that cannot presign
// return the key itself.
func (s *Service) ImageURL(ctx context.Context, key string) (string, error) {
	url, err := s.blobs.PresignURL(ctx, key, s.presignTTL)
	if errors.Is(err, blob.ErrUnsupported) {
		return key, nil
	}
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if _, err := s.blobs.Delete(ctx, key); err != nil {
		s.log.WarnContext(ctx, "delete blob failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func coverPrefix(seriesID string) string {
	return "series/" + seriesID + "/cover/"
}

// objectKey builds series/<sid>/<scope>/<uuid>-<name>. Only the base name of
// filename is kept.
func objectKey(seriesID, scope, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return fmt.Sprintf("series/%s/%s/%s-%s", seriesID, scope, uuid.New().String(), name)
}
