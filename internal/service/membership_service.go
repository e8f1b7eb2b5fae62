package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// MembershipService places users into societies and society offices.
type MembershipService interface {
	AppointExecutive(ctx context.Context, actor Actor, payload dto.ExecutiveAppointmentRequest) (dto.UserResponse, error)
	AssignSociety(ctx context.Context, actor Actor, userID string, payload dto.SocietyAssignmentRequest) (dto.UserResponse, error)
}

// MembershipDependencies wires the collaborators of the membership service.
type MembershipDependencies struct {
	Transactor repository.Transactor
	Users      repository.UserRepository
	Roles      repository.RoleRepository
	Societies  repository.SocietyRepository
	Audit      AuditRecorder
	Validator  *validator.Validate
	Logger     zerolog.Logger
}

type membershipService struct {
	tx        repository.Transactor
	users     repository.UserRepository
	roles     repository.RoleRepository
	societies repository.SocietyRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMembershipService constructs the membership service.
func NewMembershipService(deps MembershipDependencies) MembershipService {
	return &membershipService{
		tx:        deps.Transactor,
		users:     deps.Users,
		roles:     deps.Roles,
		societies: deps.Societies,
		audit:     deps.Audit,
		validator: deps.Validator,
		logger:    deps.Logger.With().Str("component", "membership_service").Logger(),
	}
}

// AppointExecutive gives the office to the user and takes it from whoever held it in the same society.
func (s *membershipService) AppointExecutive(ctx context.Context, actor Actor, payload dto.ExecutiveAppointmentRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, validationError(err)
	}
	if !actor.Roles.Has(workflow.RoleSuccessOps) {
		return dto.UserResponse{}, forbidden("insufficient permissions")
	}

	office := workflow.NormalizeRole(payload.Role)
	if !office.Executive() {
		return dto.UserResponse{}, badInput("%s is not a society office", office)
	}
	role, err := s.roles.GetByName(ctx, string(office))
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "role %s does not exist", office)
	}
	society, err := s.societies.GetByID(ctx, strings.TrimSpace(payload.SocietyID))
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "society does not exist")
	}
	user, err := s.users.GetByID(ctx, strings.TrimSpace(payload.UserID))
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user does not exist")
	}
	if !user.HasSociety() || *user.SocietyID != society.ID {
		return dto.UserResponse{}, badInput("%s is not a member of %s", user.Name, society.Name)
	}
	if user.RoleSet().Has(office) {
		return dto.UserResponse{}, domainError(ErrAlreadyExists, "%s is already %s of %s", user.Name, office, society.Name)
	}

	var replaced int64
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		var err error
		if replaced, err = users.RemoveRoleInSociety(ctx, role.ID, society.ID); err != nil {
			return err
		}
		return users.AddRole(ctx, user.ID, role.ID)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Str("society_id", society.ID).Msg("failed to appoint society executive")
		return dto.UserResponse{}, err
	}

	s.record(ctx, actor, "membership.executive_appointed", user.ID, map[string]interface{}{
		"role":       role.Name,
		"society_id": society.ID,
		"replaced":   replaced,
	})
	return s.reload(ctx, user.ID)
}

// AssignSociety moves the user into the society. Offices held in a previous society are dropped.
func (s *membershipService) AssignSociety(ctx context.Context, actor Actor, userID string, payload dto.SocietyAssignmentRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, validationError(err)
	}
	if !actor.Roles.Has(workflow.RoleSuccessOps) {
		return dto.UserResponse{}, forbidden("insufficient permissions")
	}

	society, err := s.societies.GetByID(ctx, strings.TrimSpace(payload.SocietyID))
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "society does not exist")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user does not exist")
	}
	if user.HasSociety() && *user.SocietyID == society.ID {
		return dto.UserResponse{}, domainError(ErrAlreadyExists, "%s is already a member of %s", user.Name, society.Name)
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		if user.HasSociety() {
			if err := users.RemoveRolesByName(ctx, user.ID, executiveRoleNames()); err != nil {
				return err
			}
		}
		return users.SetSociety(ctx, user.ID, society.ID)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Str("society_id", society.ID).Msg("failed to assign society")
		return dto.UserResponse{}, lookupError(err, "user does not exist")
	}

	metadata := map[string]interface{}{"society_id": society.ID}
	if user.HasSociety() {
		metadata["previous_society_id"] = *user.SocietyID
	}
	s.record(ctx, actor, "membership.society_assigned", user.ID, metadata)
	return s.reload(ctx, user.ID)
}

func (s *membershipService) reload(ctx context.Context, userID string) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user does not exist")
	}
	return dto.NewUserResponse(user), nil
}

func (s *membershipService) record(ctx context.Context, actor Actor, action, entityID string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "user",
		EntityID:   entityID,
		Metadata:   metadata,
	})
}

func executiveRoleNames() []string {
	roles := workflow.ExecutiveRoles()
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return names
}
