package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prodlast/cospace-backend/internal/domain"
	"github.com/prodlast/cospace-backend/internal/repo/postgres"
)

type PlaceService interface {
	Create(ctx context.Context, req *domain.PlaceRequest) (*domain.Place, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Place, error)
	List(ctx context.Context) ([]domain.Place, error)
}

type placeService struct {
	placeRepo postgres.PlaceRepo
}

func NewPlaceService(placeRepo postgres.PlaceRepo) PlaceService {
	return &placeService{placeRepo: placeRepo}
}

func (s *placeService) Create(ctx context.Context, req *domain.PlaceRequest) (*domain.Place, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	placeType, _ := domain.ParsePlaceType(req.Type)
	place, err := s.placeRepo.Create(ctx, placeType, req.Capacity, req.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create place: %w", err)
	}
	return place, nil
}

func (s *placeService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	place, err := s.placeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	if place == nil {
		return nil, domain.ErrNotFound
	}
	return place, nil
}

func (s *placeService) List(ctx context.Context) ([]domain.Place, error) {
	places, err := s.placeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	return places, nil
}
