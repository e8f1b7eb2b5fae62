package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// RoleService manages role definitions.
type RoleService interface {
	Create(ctx context.Context, payload dto.RoleCreateRequest) (dto.RoleResponse, error)
	List(ctx context.Context, search string, page, pageSize int) (dto.RoleListResponse, error)
	Update(ctx context.Context, id string, payload dto.RoleUpdateRequest) (dto.RoleResponse, error)
	Delete(ctx context.Context, id string) error
}

type roleService struct {
	repo      repository.RoleRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRoleService constructs the role service.
func NewRoleService(repo repository.RoleRepository, validate *validator.Validate, logger zerolog.Logger) RoleService {
	return &roleService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "role_service").Logger(),
	}
}

func (s *roleService) Create(ctx context.Context, payload dto.RoleCreateRequest) (dto.RoleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RoleResponse{}, validationError(err)
	}

	name := string(workflow.NormalizeRole(payload.Name))
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return dto.RoleResponse{}, domainError(ErrAlreadyExists, "role %s already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.RoleResponse{}, err
	}

	role := models.Role{Name: name, Description: strings.TrimSpace(payload.Description)}
	if err := s.repo.Create(ctx, &role); err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create role")
		return dto.RoleResponse{}, err
	}

	return dto.NewRoleResponse(role), nil
}

func (s *roleService) List(ctx context.Context, search string, page, pageSize int) (dto.RoleListResponse, error) {
	roles, total, err := s.repo.List(ctx, strings.TrimSpace(search), repository.Page{Page: page, PageSize: pageSize})
	if err != nil {
		return dto.RoleListResponse{}, err
	}

	items := make([]dto.RoleResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, dto.NewRoleResponse(role))
	}
	return dto.RoleListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}

func (s *roleService) Update(ctx context.Context, id string, payload dto.RoleUpdateRequest) (dto.RoleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RoleResponse{}, validationError(err)
	}

	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.RoleResponse{}, lookupError(err, "role does not exist")
	}

	changed := false
	if payload.Name != nil {
		name := string(workflow.NormalizeRole(*payload.Name))
		if name == "" {
			return dto.RoleResponse{}, badInput("role name cannot be blank")
		}
		if name != role.Name {
			if workflow.Role(role.Name).Builtin() {
				return dto.RoleResponse{}, badInput("role %s cannot be renamed", role.Name)
			}
			if _, err := s.repo.GetByName(ctx, name); err == nil {
				return dto.RoleResponse{}, domainError(ErrAlreadyExists, "role %s already exists", name)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.RoleResponse{}, err
			}
			role.Name = name
			changed = true
		}
	}
	if payload.Description != nil {
		description := strings.TrimSpace(*payload.Description)
		if description != role.Description {
			role.Description = description
			changed = true
		}
	}
	if !changed {
		return dto.RoleResponse{}, badInput("no change specified")
	}

	if err := s.repo.Update(ctx, &role); err != nil {
		s.logger.Error().Err(err).Str("role_id", id).Msg("failed to update role")
		return dto.RoleResponse{}, lookupError(err, "role does not exist")
	}
	return dto.NewRoleResponse(role), nil
}

func (s *roleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "role does not exist")
	}
	return nil
}
