package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/notify"
	"github.com/noah-isme/society-points-api/internal/observability"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// RedemptionService drives redemption requests from creation to a decision.
type RedemptionService interface {
	Create(ctx context.Context, actor Actor, payload dto.RedemptionCreateRequest) (dto.RedemptionResponse, error)
	Update(ctx context.Context, actor Actor, id string, payload dto.RedemptionUpdateRequest) (dto.RedemptionResponse, error)
	Get(ctx context.Context, id string) (dto.RedemptionResponse, error)
	List(ctx context.Context, req dto.RedemptionListRequest) (dto.RedemptionListResponse, error)
	Decide(ctx context.Context, actor Actor, id string, payload dto.RedemptionDecisionRequest) (dto.RedemptionResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

// RedemptionPolicy holds the configurable redemption rules.
type RedemptionPolicy struct {
	// AllowOverdraw lets an approval push a society's remaining points below zero.
	AllowOverdraw bool
	// DeletePendingOnly restricts deletion to requests that are still pending.
	DeletePendingOnly bool
}

// RedemptionDependencies wires the collaborators of the redemption service.
type RedemptionDependencies struct {
	Transactor  repository.Transactor
	Redemptions repository.RedemptionRepository
	Societies   repository.SocietyRepository
	Centers     repository.CenterRepository
	Audit       AuditRecorder
	Notifier    Notifier
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

type redemptionService struct {
	tx          repository.Transactor
	redemptions repository.RedemptionRepository
	societies   repository.SocietyRepository
	centers     repository.CenterRepository
	audit       AuditRecorder
	notifier    Notifier
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	policy      RedemptionPolicy
	now         func() time.Time
}

// NewRedemptionService constructs the redemption service.
func NewRedemptionService(deps RedemptionDependencies, policy RedemptionPolicy) RedemptionService {
	return &redemptionService{
		tx:          deps.Transactor,
		redemptions: deps.Redemptions,
		societies:   deps.Societies,
		centers:     deps.Centers,
		audit:       deps.Audit,
		notifier:    deps.Notifier,
		validator:   deps.Validator,
		logger:      deps.Logger.With().Str("component", "redemption_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/society-points-api/internal/service/redemption"),
		sanitizer:   bluemonday.StrictPolicy(),
		policy:      policy,
		now:         time.Now,
	}
}

func (s *redemptionService) Create(ctx context.Context, actor Actor, payload dto.RedemptionCreateRequest) (dto.RedemptionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "redemptions.create", trace.WithAttributes(attribute.String("actor.id", actor.ID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.RedemptionResponse{}, failSpan(span, validationError(err), "validation_failed")
	}
	if !actor.Roles.Has(workflow.RolePresident) {
		return dto.RedemptionResponse{}, failSpan(span, forbidden("only a society president can request a redemption"), "role_not_permitted")
	}
	if !actor.HasSociety() {
		return dto.RedemptionResponse{}, failSpan(span, forbidden("you are not a member of any society yet"), "no_society")
	}

	center, err := s.centers.GetByName(ctx, strings.TrimSpace(payload.Center))
	if err != nil {
		return dto.RedemptionResponse{}, failSpan(span, lookupError(err, "center %q not found", payload.Center), "center_lookup_failed")
	}

	redemption := models.RedemptionRequest{
		Name:        strings.TrimSpace(payload.Reason),
		Description: s.clean(payload.Description),
		Value:       payload.Value,
		Status:      workflow.RedemptionPending,
		UserID:      actor.ID,
		SocietyID:   actor.SocietyID,
		CenterID:    center.ID,
	}
	if err := s.redemptions.Create(ctx, &redemption); err != nil {
		s.logger.Error().Err(err).Str("user_id", actor.ID).Msg("failed to persist redemption request")
		return dto.RedemptionResponse{}, failSpan(span, err, "persist_failed")
	}

	return s.load(ctx, redemption.ID)
}

func (s *redemptionService) Update(ctx context.Context, actor Actor, id string, payload dto.RedemptionUpdateRequest) (dto.RedemptionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RedemptionResponse{}, validationError(err)
	}

	redemption, err := s.redemptions.GetByID(ctx, id)
	if err != nil {
		return dto.RedemptionResponse{}, lookupError(err, "redemption request does not exist")
	}
	if !s.canManage(actor, redemption) {
		return dto.RedemptionResponse{}, notFound("redemption request does not exist")
	}
	if redemption.Status != workflow.RedemptionPending {
		return dto.RedemptionResponse{}, forbidden("only pending redemption requests can be edited")
	}

	if payload.Name != nil {
		redemption.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Value != nil {
		redemption.Value = *payload.Value
	}
	if payload.Description != nil {
		redemption.Description = s.clean(*payload.Description)
	}

	if err := s.redemptions.UpdatePending(ctx, &redemption); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return dto.RedemptionResponse{}, forbidden("only pending redemption requests can be edited")
		}
		s.logger.Error().Err(err).Str("redemption_id", id).Msg("failed to update redemption request")
		return dto.RedemptionResponse{}, err
	}

	return s.load(ctx, redemption.ID)
}

func (s *redemptionService) Get(ctx context.Context, id string) (dto.RedemptionResponse, error) {
	return s.load(ctx, id)
}

func (s *redemptionService) List(ctx context.Context, req dto.RedemptionListRequest) (dto.RedemptionListResponse, error) {
	filter := repository.RedemptionFilter{
		Page: repository.Page{Page: req.Page, PageSize: req.PageSize},
		Name: strings.TrimSpace(req.Name),
	}

	if name := strings.TrimSpace(req.Society); name != "" {
		society, err := s.societies.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.RedemptionListResponse{}, badInput("society with name %s not found", name)
			}
			return dto.RedemptionListResponse{}, err
		}
		filter.SocietyID = &society.ID
	}
	if name := strings.TrimSpace(req.Center); name != "" {
		center, err := s.centers.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.RedemptionListResponse{}, badInput("center with name %s not found", name)
			}
			return dto.RedemptionListResponse{}, err
		}
		filter.CenterID = &center.ID
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := workflow.ParseRedemptionStatus(raw)
		if !ok {
			return dto.RedemptionListResponse{}, badInput("invalid status filter %q", raw)
		}
		filter.Status = &status
	}

	items, total, err := s.redemptions.List(ctx, filter)
	if err != nil {
		return dto.RedemptionListResponse{}, err
	}

	responses := make([]dto.RedemptionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewRedemptionResponse(item))
	}
	return dto.RedemptionListResponse{Items: responses, Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total)}, nil
}

// Decide approves or rejects a pending redemption. Approval debits the society's used points
// in the same transaction as the conditional status change.
func (s *redemptionService) Decide(ctx context.Context, actor Actor, id string, payload dto.RedemptionDecisionRequest) (dto.RedemptionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "redemptions.decide", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("redemption.id", id),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.RedemptionResponse{}, failSpan(span, validationError(err), "validation_failed")
	}
	target := workflow.DecisionTarget(payload.Status)
	span.SetAttributes(attribute.String("redemption.target", string(target)))

	redemption, err := s.redemptions.GetByID(ctx, id)
	if err != nil {
		return dto.RedemptionResponse{}, failSpan(span, lookupError(err, "resource does not exist"), "lookup_failed")
	}
	if err := workflow.Redemptions.Check(redemption.Status, target, actor.Roles); err != nil {
		return dto.RedemptionResponse{}, failSpan(span, redemptionTransitionError(err), "transition_rejected")
	}

	decidedAt := s.now().UTC()
	fields := map[string]interface{}{
		"decided_by_id": actor.ID,
		"decided_at":    decidedAt,
	}
	if comment := s.clean(payload.Comment); comment != "" {
		fields["comment"] = comment
	}
	if target == workflow.RedemptionRejected {
		if rejection := s.clean(payload.Rejection); rejection != "" {
			fields["rejection"] = rejection
		}
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		change := repository.StatusChange{From: string(redemption.Status), To: string(target), Fields: fields}
		if err := s.redemptions.WithTx(tx).Transition(ctx, redemption.ID, change); err != nil {
			return err
		}
		if target != workflow.RedemptionApproved {
			return nil
		}
		return s.societies.WithTx(tx).Credit(ctx, redemption.SocietyID, models.PointsUsed, redemption.Value, repository.CreditOptions{
			RequireBalance: !s.policy.AllowOverdraw,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleTransition):
			return dto.RedemptionResponse{}, failSpan(span, redemptionTransitionError(err), "stale")
		case errors.Is(err, repository.ErrInsufficientPoints):
			return dto.RedemptionResponse{}, failSpan(span, &DomainError{
				Kind:    ErrConflict,
				Message: fmt.Sprintf("society has insufficient remaining points for a redemption of %d", redemption.Value),
				Err:     err,
			}, "insufficient_points")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.RedemptionResponse{}, failSpan(span, lookupError(err, "society not found"), "society_missing")
		}
		s.logger.Error().Err(err).Str("redemption_id", redemption.ID).Msg("failed to decide redemption request")
		return dto.RedemptionResponse{}, failSpan(span, err, "persist_failed")
	}

	observability.Transitions().WithLabelValues("redemption", string(target)).Inc()
	if target == workflow.RedemptionApproved {
		observability.LedgerCredits().WithLabelValues(string(models.PointsUsed)).Inc()
		observability.LedgerPoints().WithLabelValues(string(models.PointsUsed)).Add(float64(redemption.Value))
	}
	s.record(ctx, actor, "redemption."+string(target), redemption.ID, map[string]interface{}{
		"society_id": redemption.SocietyID,
		"value":      redemption.Value,
	})

	response, err := s.load(ctx, redemption.ID)
	if err != nil {
		return dto.RedemptionResponse{}, err
	}
	s.notifyDecision(redemption, response)
	return response, nil
}

func (s *redemptionService) Delete(ctx context.Context, actor Actor, id string) error {
	redemption, err := s.redemptions.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, "redemption request does not exist")
	}

	isOps := actor.Roles.Has(workflow.RoleSuccessOps)
	isOwner := actor.Roles.Has(workflow.RolePresident) && redemption.UserID == actor.ID
	if !isOps && !isOwner {
		return forbidden("only success ops or the submitting president can delete this redemption request")
	}
	if s.policy.DeletePendingOnly && redemption.Status != workflow.RedemptionPending {
		return forbidden("only pending redemption requests can be deleted")
	}

	if err := s.redemptions.Delete(ctx, redemption.ID); err != nil {
		return lookupError(err, "redemption request does not exist")
	}

	s.record(ctx, actor, "redemption.deleted", redemption.ID, map[string]interface{}{
		"status": string(redemption.Status),
		"value":  redemption.Value,
	})
	return nil
}

// canManage reports whether actor may edit the redemption: success ops always, presidents within their society.
func (s *redemptionService) canManage(actor Actor, redemption models.RedemptionRequest) bool {
	if actor.Roles.Has(workflow.RoleSuccessOps) {
		return true
	}
	return actor.Roles.Has(workflow.RolePresident) && actor.SocietyID != "" && actor.SocietyID == redemption.SocietyID
}

func (s *redemptionService) notifyDecision(redemption models.RedemptionRequest, response dto.RedemptionResponse) {
	if s.notifier == nil || redemption.User.Email == "" {
		return
	}

	body := fmt.Sprintf("Your redemption request %q for %d points has been %s.", response.Name, response.Value, response.Status)
	if response.Rejection != "" {
		body += "\nReason: " + response.Rejection
	}
	if response.Comment != "" {
		body += "\nComment: " + response.Comment
	}

	email := notify.Email{
		Subject:    fmt.Sprintf("Redemption request %s", response.Status),
		Body:       body,
		Recipients: []string{redemption.User.Email},
	}
	if !s.notifier.Enqueue("redemption.decided", email) {
		s.logger.Warn().Str("redemption_id", redemption.ID).Msg("redemption decision email was not queued")
	}
}

func (s *redemptionService) load(ctx context.Context, id string) (dto.RedemptionResponse, error) {
	redemption, err := s.redemptions.GetByID(ctx, id)
	if err != nil {
		return dto.RedemptionResponse{}, lookupError(err, "redemption request does not exist")
	}
	return dto.NewRedemptionResponse(redemption), nil
}

func (s *redemptionService) record(ctx context.Context, actor Actor, action, entityID string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "redemption",
		EntityID:   entityID,
		Metadata:   metadata,
	})
}

func (s *redemptionService) clean(raw string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

func redemptionTransitionError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrRoleNotPermitted):
		return forbidden("insufficient permissions")
	case errors.Is(err, workflow.ErrUnknownTarget), errors.Is(err, workflow.ErrIllegalTransition), errors.Is(err, repository.ErrStaleTransition):
		return &DomainError{Kind: ErrForbidden, Message: "redemption request has already been decided", Err: err}
	default:
		return err
	}
}
