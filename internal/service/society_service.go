package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/repository"
)

// SocietyService manages society profiles. Point counters are never written here.
type SocietyService interface {
	Create(ctx context.Context, payload dto.SocietyCreateRequest) (dto.SocietyResponse, error)
	Update(ctx context.Context, id string, payload dto.SocietyUpdateRequest) (dto.SocietyResponse, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, idOrName string) (dto.SocietyDetailResponse, error)
	List(ctx context.Context, req dto.SocietyListRequest) (dto.SocietyListResponse, error)
}

type societyService struct {
	repo       repository.SocietyRepository
	activities repository.LoggedActivityRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	sanitizer  *bluemonday.Policy
}

// NewSocietyService constructs the society service.
func NewSocietyService(repo repository.SocietyRepository, activities repository.LoggedActivityRepository, validate *validator.Validate, logger zerolog.Logger) SocietyService {
	return &societyService{
		repo:       repo,
		activities: activities,
		validator:  validate,
		logger:     logger.With().Str("component", "society_service").Logger(),
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

func (s *societyService) Create(ctx context.Context, payload dto.SocietyCreateRequest) (dto.SocietyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SocietyResponse{}, validationError(err)
	}

	name := strings.TrimSpace(payload.Name)
	if err := s.ensureNameAvailable(ctx, name, ""); err != nil {
		return dto.SocietyResponse{}, err
	}

	society := models.Society{
		Name:        name,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		ColorScheme: strings.TrimSpace(payload.ColorScheme),
		Logo:        strings.TrimSpace(payload.Logo),
		Photo:       strings.TrimSpace(payload.Photo),
	}
	if err := s.repo.Create(ctx, &society); err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create society")
		return dto.SocietyResponse{}, err
	}

	return dto.NewSocietyResponse(society), nil
}

func (s *societyService) Update(ctx context.Context, id string, payload dto.SocietyUpdateRequest) (dto.SocietyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SocietyResponse{}, validationError(err)
	}

	society, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.SocietyResponse{}, lookupError(err, "society not found")
	}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if err := s.ensureNameAvailable(ctx, name, society.ID); err != nil {
			return dto.SocietyResponse{}, err
		}
		society.Name = name
	}
	if payload.Description != nil {
		society.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.ColorScheme != nil {
		society.ColorScheme = strings.TrimSpace(*payload.ColorScheme)
	}
	if payload.Logo != nil {
		society.Logo = strings.TrimSpace(*payload.Logo)
	}
	if payload.Photo != nil {
		society.Photo = strings.TrimSpace(*payload.Photo)
	}

	if err := s.repo.UpdateProfile(ctx, &society); err != nil {
		s.logger.Error().Err(err).Str("society_id", id).Msg("failed to update society")
		return dto.SocietyResponse{}, err
	}

	return dto.NewSocietyResponse(society), nil
}

func (s *societyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "society not found")
	}
	return nil
}

func (s *societyService) Get(ctx context.Context, idOrName string) (dto.SocietyDetailResponse, error) {
	society, err := s.repo.GetByID(ctx, idOrName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		society, err = s.repo.GetByName(ctx, idOrName)
	}
	if err != nil {
		return dto.SocietyDetailResponse{}, lookupError(err, "society not found")
	}

	items, _, err := s.activities.List(ctx, repository.LoggedActivityFilter{SocietyID: &society.ID})
	if err != nil {
		return dto.SocietyDetailResponse{}, err
	}

	return dto.SocietyDetailResponse{
		SocietyResponse:  dto.NewSocietyResponse(society),
		LoggedActivities: dto.NewLoggedActivityResponseSlice(items),
	}, nil
}

func (s *societyService) List(ctx context.Context, req dto.SocietyListRequest) (dto.SocietyListResponse, error) {
	societies, total, err := s.repo.List(ctx, repository.SocietyFilter{
		Page: repository.Page{Page: req.Page, PageSize: req.PageSize},
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		return dto.SocietyListResponse{}, err
	}

	items := make([]dto.SocietyResponse, 0, len(societies))
	for _, society := range societies {
		items = append(items, dto.NewSocietyResponse(society))
	}
	return dto.SocietyListResponse{Items: items, Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total)}, nil
}

func (s *societyService) ensureNameAvailable(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return domainError(ErrAlreadyExists, "society %s already exists", name)
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}
