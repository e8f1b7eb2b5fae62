package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/repository"
)

// Identity is what a verified token says about its bearer.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// UserService resolves authenticated identities to users and serves reference lookups.
type UserService interface {
	Resolve(ctx context.Context, identity Identity) (models.User, error)
	Centers(ctx context.Context) ([]dto.CenterResponse, error)
}

type userService struct {
	users   repository.UserRepository
	centers repository.CenterRepository
	logger  zerolog.Logger
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository, centers repository.CenterRepository, logger zerolog.Logger) UserService {
	return &userService{
		users:   users,
		centers: centers,
		logger:  logger.With().Str("component", "user_service").Logger(),
	}
}

// Resolve loads the user named by the token subject, provisioning one on first sight.
func (s *userService) Resolve(ctx context.Context, identity Identity) (models.User, error) {
	subject := strings.TrimSpace(identity.Subject)
	if subject == "" {
		return models.User{}, badInput("token subject is required")
	}

	user, err := s.users.GetByID(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return models.User{}, badInput("token email is required to register a new user")
	}

	user = models.User{
		ID:    subject,
		Name:  strings.TrimSpace(identity.Name),
		Email: email,
		Photo: strings.TrimSpace(identity.Picture),
	}
	if user.Name == "" {
		user.Name = email
	}
	if err := s.users.Create(ctx, &user); err != nil {
		// A concurrent first request may have provisioned the same subject.
		if existing, getErr := s.users.GetByID(ctx, subject); getErr == nil {
			return existing, nil
		}
		s.logger.Error().Err(err).Str("user_id", subject).Msg("failed to provision user")
		return models.User{}, err
	}
	s.logger.Info().Str("user_id", subject).Msg("provisioned user on first request")

	return s.users.GetByID(ctx, subject)
}

func (s *userService) Centers(ctx context.Context) ([]dto.CenterResponse, error) {
	centers, err := s.centers.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CenterResponse, 0, len(centers))
	for _, center := range centers {
		responses = append(responses, dto.NewCenterResponse(center))
	}
	return responses, nil
}
