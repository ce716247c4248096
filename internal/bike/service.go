package bike

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ilia-darchiashvili/bike-rentals/internal/interval"
	"github.com/ilia-darchiashvili/bike-rentals/internal/logger"
	"github.com/ilia-darchiashvili/bike-rentals/internal/reservation"
)

var (
	ErrBikeNotFound    = errors.New("bike not found")
	ErrAddressNotFound = errors.New("could not resolve address to coordinates")
	ErrInstantInPast   = errors.New("availability instant is in the past")
)

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
}

// ImageStore removes stored bike images when a listing goes away.
type ImageStore interface {
	Remove(path string) error
}

type Service interface {
	Create(ctx context.Context, req CreateBikeRequest) (*Bike, error)
	GetAll(ctx context.Context) ([]Bike, error)
	GetByID(ctx context.Context, id int) (*Bike, error)
	Update(ctx context.Context, id int, req UpdateBikeRequest) (*Bike, error)
	Delete(ctx context.Context, id int) error
	AttachImage(ctx context.Context, id int, path string) error

	// FilterAvailable returns bikes listed as available, free at the given
	// instant, matching the filters.
	FilterAvailable(ctx context.Context, at time.Time, f Filters) ([]Bike, error)
}

type service struct {
	repo     Repository
	geocoder Geocoder
	images   ImageStore
}

func NewService(repo Repository, geocoder Geocoder, images ImageStore) Service {
	return &service{
		repo:     repo,
		geocoder: geocoder,
		images:   images,
	}
}

func (s *service) Create(ctx context.Context, req CreateBikeRequest) (*Bike, error) {
	lat, lng, err := s.geocoder.Geocode(ctx, req.Address)
	if err != nil {
		logger.Error("geocode failed", "address", req.Address, "error", err)
		return nil, ErrAddressNotFound
	}

	return s.repo.Create(ctx, &Bike{
		Model:       req.Model,
		Color:       req.Color,
		Address:     req.Address,
		Rating:      req.Rating,
		Location:    Location{Lat: lat, Lng: lng},
		IsAvailable: *req.IsAvailable,
	})
}

func (s *service) GetAll(ctx context.Context) ([]Bike, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) GetByID(ctx context.Context, id int) (*Bike, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id int, req UpdateBikeRequest) (*Bike, error) {
	// The address may have changed, re-geocode unconditionally like create.
	lat, lng, err := s.geocoder.Geocode(ctx, req.Address)
	if err != nil {
		logger.Error("geocode failed", "address", req.Address, "error", err)
		return nil, ErrAddressNotFound
	}

	return s.repo.Update(ctx, &Bike{
		ID:          id,
		Model:       req.Model,
		Color:       req.Color,
		Address:     req.Address,
		Rating:      req.Rating,
		Location:    Location{Lat: lat, Lng: lng},
		IsAvailable: *req.IsAvailable,
	})
}

func (s *service) Delete(ctx context.Context, id int) error {
	image, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if image != nil && s.images != nil {
		if err := s.images.Remove(*image); err != nil {
			logger.Error("failed to remove bike image", "path", *image, "error", err)
		}
	}

	return nil
}

func (s *service) AttachImage(ctx context.Context, id int, path string) error {
	return s.repo.SetImage(ctx, id, path)
}

func (s *service) FilterAvailable(ctx context.Context, at time.Time, f Filters) ([]Bike, error) {
	// Business rule, not an engine invariant: nobody reserves the past.
	if at.Before(time.Now()) {
		return nil, ErrInstantInPast
	}

	bikes, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	at = at.UTC()
	matched := make([]Bike, 0, len(bikes))
	for _, b := range bikes {
		if !b.IsAvailable {
			continue
		}
		if !matchesFilters(b, f) {
			continue
		}
		if !interval.AvailableAt(reservation.Intervals(b.Reservations), at) {
			continue
		}
		matched = append(matched, b)
	}

	return matched, nil
}

func matchesFilters(b Bike, f Filters) bool {
	if f.Model != "" && !containsFold(b.Model, f.Model) {
		return false
	}
	if f.Color != "" && !containsFold(b.Color, f.Color) {
		return false
	}
	if f.Address != "" && !containsFold(b.Address, f.Address) {
		return false
	}
	if f.Rating != nil {
		if b.Rating == nil || *b.Rating != *f.Rating {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
