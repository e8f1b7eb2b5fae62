package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/repository"
)

// ActivityTypeService manages the catalogue of point-worthy activity types.
type ActivityTypeService interface {
	Create(ctx context.Context, payload dto.ActivityTypeCreateRequest) (dto.ActivityTypeResponse, error)
	List(ctx context.Context) ([]dto.ActivityTypeResponse, error)
}

// ActivityService schedules activities members can log against.
type ActivityService interface {
	Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	List(ctx context.Context, page, pageSize int) (dto.ActivityListResponse, error)
}

type activityTypeService struct {
	repo      repository.ActivityTypeRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityTypeService constructs the activity type service.
func NewActivityTypeService(repo repository.ActivityTypeRepository, validate *validator.Validate, logger zerolog.Logger) ActivityTypeService {
	return &activityTypeService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "activity_type_service").Logger(),
	}
}

func (s *activityTypeService) Create(ctx context.Context, payload dto.ActivityTypeCreateRequest) (dto.ActivityTypeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityTypeResponse{}, validationError(err)
	}

	name := strings.TrimSpace(payload.Name)
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return dto.ActivityTypeResponse{}, domainError(ErrAlreadyExists, "activity type %s already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ActivityTypeResponse{}, err
	}

	activityType := models.ActivityType{
		Name:                         name,
		Description:                  strings.TrimSpace(payload.Description),
		Value:                        payload.Value,
		SupportsMultipleParticipants: payload.SupportsMultipleParticipants,
	}
	if err := s.repo.Create(ctx, &activityType); err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create activity type")
		return dto.ActivityTypeResponse{}, err
	}

	return dto.NewActivityTypeResponse(activityType), nil
}

func (s *activityTypeService) List(ctx context.Context) ([]dto.ActivityTypeResponse, error) {
	activityTypes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ActivityTypeResponse, 0, len(activityTypes))
	for _, activityType := range activityTypes {
		responses = append(responses, dto.NewActivityTypeResponse(activityType))
	}
	return responses, nil
}

type activityService struct {
	repo      repository.ActivityRepository
	types     repository.ActivityTypeRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo repository.ActivityRepository, types repository.ActivityTypeRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		types:     types,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, validationError(err)
	}

	date, err := time.Parse(dto.DateLayout, strings.TrimSpace(payload.Date))
	if err != nil {
		return dto.ActivityResponse{}, badInput("date must use the YYYY-MM-DD format")
	}

	activityType, err := s.types.GetByID(ctx, strings.TrimSpace(payload.ActivityTypeID))
	if err != nil {
		return dto.ActivityResponse{}, lookupError(err, "activity type not found")
	}

	activity := models.Activity{
		Name:           strings.TrimSpace(payload.Name),
		Description:    strings.TrimSpace(payload.Description),
		ActivityTypeID: activityType.ID,
		ActivityDate:   date,
		AddedByID:      actor.ID,
	}
	if err := s.repo.Create(ctx, &activity); err != nil {
		s.logger.Error().Err(err).Str("actor_id", actor.ID).Msg("failed to create activity")
		return dto.ActivityResponse{}, err
	}
	activity.ActivityType = activityType

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) List(ctx context.Context, page, pageSize int) (dto.ActivityListResponse, error) {
	activities, total, err := s.repo.List(ctx, repository.Page{Page: page, PageSize: pageSize})
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	items := make([]dto.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		items = append(items, dto.NewActivityResponse(activity))
	}
	return dto.ActivityListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}
