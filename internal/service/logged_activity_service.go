package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/notify"
	"github.com/noah-isme/society-points-api/internal/observability"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

const (
	// DefaultBatchLimit caps how many logged activities one approval call may name.
	DefaultBatchLimit = 20

	defaultSummaryTTL = 5 * time.Minute
)

// Notifier queues outbound email without blocking.
type Notifier interface {
	Enqueue(kind string, email notify.Email) bool
}

// LoggedActivityService drives logged activities from submission to a terminal state.
type LoggedActivityService interface {
	Submit(ctx context.Context, actor Actor, payload dto.LoggedActivityRequest) (dto.LoggedActivityResponse, error)
	Edit(ctx context.Context, actor Actor, id string, payload dto.LoggedActivityRequest) (dto.LoggedActivityResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Get(ctx context.Context, id string) (dto.LoggedActivityResponse, error)
	List(ctx context.Context, req dto.LoggedActivityListRequest) (dto.LoggedActivityListResponse, error)
	UserSummary(ctx context.Context, userID string) (dto.UserPointsSummary, error)
	SecretaryReview(ctx context.Context, actor Actor, id string, payload dto.SecretaryReviewRequest) (dto.LoggedActivityResponse, error)
	Reject(ctx context.Context, actor Actor, id string) (dto.LoggedActivityResponse, error)
	RequestInfo(ctx context.Context, actor Actor, id string, payload dto.MoreInfoRequest) error
	Approve(ctx context.Context, actor Actor, payload dto.ApprovalRequest) (dto.ApprovalResponse, error)
}

// LoggedActivityDependencies wires the collaborators of the logged activity service.
type LoggedActivityDependencies struct {
	Transactor repository.Transactor
	Activities repository.LoggedActivityRepository
	Societies  repository.SocietyRepository
	Users      repository.UserRepository
	Valuator   *ActivityValuator
	Audit      AuditRecorder
	Notifier   Notifier
	Cache      *redis.Client
	Validator  *validator.Validate
	Logger     zerolog.Logger
}

// LoggedActivityOptions tunes batch approval and the summary cache.
type LoggedActivityOptions struct {
	BatchLimit int
	SummaryTTL time.Duration
}

type loggedActivityService struct {
	tx         repository.Transactor
	activities repository.LoggedActivityRepository
	societies  repository.SocietyRepository
	users      repository.UserRepository
	valuator   *ActivityValuator
	audit      AuditRecorder
	notifier   Notifier
	cache      *redis.Client
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	sanitizer  *bluemonday.Policy
	batchLimit int
	summaryTTL time.Duration
	now        func() time.Time
}

// NewLoggedActivityService constructs the logged activity service.
func NewLoggedActivityService(deps LoggedActivityDependencies, opts LoggedActivityOptions) LoggedActivityService {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultBatchLimit
	}
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = defaultSummaryTTL
	}

	return &loggedActivityService{
		tx:         deps.Transactor,
		activities: deps.Activities,
		societies:  deps.Societies,
		users:      deps.Users,
		valuator:   deps.Valuator,
		audit:      deps.Audit,
		notifier:   deps.Notifier,
		cache:      deps.Cache,
		validator:  deps.Validator,
		logger:     deps.Logger.With().Str("component", "logged_activity_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/society-points-api/internal/service/logged_activity"),
		sanitizer:  bluemonday.StrictPolicy(),
		batchLimit: opts.BatchLimit,
		summaryTTL: opts.SummaryTTL,
		now:        time.Now,
	}
}

func (s *loggedActivityService) Submit(ctx context.Context, actor Actor, payload dto.LoggedActivityRequest) (dto.LoggedActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "logged_activities.submit", trace.WithAttributes(attribute.String("actor.id", actor.ID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, validationError(err), "validation_failed")
	}
	if !actor.HasSociety() {
		return dto.LoggedActivityResponse{}, failSpan(span, forbidden("you are not a member of any society yet"), "no_society")
	}

	description := s.clean(payload.Description)
	input, err := valuationInput(payload, description)
	if err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, err, "invalid_input")
	}

	valuation, err := s.valuator.Value(ctx, input)
	if err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, err, "valuation_failed")
	}

	item := models.LoggedActivity{
		Name:        strings.TrimSpace(payload.Name),
		Description: description,
		Photo:       strings.TrimSpace(payload.Photo),
		Status:      workflow.ActivityInReview,
		UserID:      actor.ID,
		SocietyID:   actor.SocietyID,
	}
	applyValuation(&item, valuation)

	if err := s.activities.Create(ctx, &item); err != nil {
		s.logger.Error().Err(err).Str("user_id", actor.ID).Msg("failed to persist logged activity")
		return dto.LoggedActivityResponse{}, failSpan(span, err, "persist_failed")
	}
	span.SetAttributes(attribute.String("logged_activity.id", item.ID), attribute.Int("logged_activity.value", item.Value))

	s.invalidateSummary(ctx, actor.ID)
	return s.load(ctx, item.ID)
}

func (s *loggedActivityService) Edit(ctx context.Context, actor Actor, id string, payload dto.LoggedActivityRequest) (dto.LoggedActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "logged_activities.edit", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("logged_activity.id", id),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, validationError(err), "validation_failed")
	}

	item, err := s.activities.GetByIDForUser(ctx, id, actor.ID)
	if err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, lookupError(err, "logged activity does not exist"), "lookup_failed")
	}
	if !item.Status.Editable() {
		return dto.LoggedActivityResponse{}, failSpan(span, conflict("not allowed, activity is already in pre-approval"), "not_editable")
	}

	description := item.Description
	if strings.TrimSpace(payload.Description) != "" {
		description = s.clean(payload.Description)
	}

	input, err := valuationInput(payload, description)
	if err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, err, "invalid_input")
	}
	switch {
	case input.ActivityID == "" && input.ActivityTypeID == "" && item.ActivityID != nil:
		if input.Date != nil {
			return dto.LoggedActivityResponse{}, failSpan(span, badInput("date cannot be changed for a scheduled activity"), "invalid_input")
		}
		input.ActivityID = *item.ActivityID
	case input.ActivityID == "":
		if input.ActivityTypeID == "" {
			input.ActivityTypeID = item.ActivityTypeID
		}
		if input.Date == nil {
			stored := item.ActivityDate
			input.Date = &stored
		}
	}
	if input.NoOfParticipants == nil {
		input.NoOfParticipants = item.NoOfParticipants
	}

	valuation, err := s.valuator.Value(ctx, input)
	if err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, err, "valuation_failed")
	}

	if name := strings.TrimSpace(payload.Name); name != "" {
		item.Name = name
	}
	if photo := strings.TrimSpace(payload.Photo); photo != "" {
		item.Photo = photo
	}
	item.Description = description
	applyValuation(&item, valuation)

	if err := s.activities.UpdateInReview(ctx, &item); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return dto.LoggedActivityResponse{}, failSpan(span, conflict("not allowed, activity is already in pre-approval"), "not_editable")
		}
		s.logger.Error().Err(err).Str("logged_activity_id", id).Msg("failed to update logged activity")
		return dto.LoggedActivityResponse{}, failSpan(span, err, "persist_failed")
	}

	s.invalidateSummary(ctx, actor.ID)
	return s.load(ctx, item.ID)
}

func (s *loggedActivityService) Delete(ctx context.Context, actor Actor, id string) error {
	item, err := s.activities.GetByIDForUser(ctx, id, actor.ID)
	if err != nil {
		return lookupError(err, "logged activity does not exist")
	}
	if !item.Status.Editable() {
		return conflict("you are not allowed to perform this operation")
	}

	if err := s.activities.DeleteInReview(ctx, item.ID); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return conflict("you are not allowed to perform this operation")
		}
		s.logger.Error().Err(err).Str("logged_activity_id", id).Msg("failed to delete logged activity")
		return err
	}

	s.invalidateSummary(ctx, actor.ID)
	return nil
}

func (s *loggedActivityService) Get(ctx context.Context, id string) (dto.LoggedActivityResponse, error) {
	return s.load(ctx, id)
}

func (s *loggedActivityService) List(ctx context.Context, req dto.LoggedActivityListRequest) (dto.LoggedActivityListResponse, error) {
	filter := repository.LoggedActivityFilter{
		Page: repository.Page{Page: req.Page, PageSize: req.PageSize},
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := workflow.ParseActivityStatus(raw)
		if !ok {
			return dto.LoggedActivityListResponse{}, badInput("invalid status filter %q", raw)
		}
		filter.Status = &status
	}
	if societyID := strings.TrimSpace(req.SocietyID); societyID != "" {
		filter.SocietyID = &societyID
	}
	if userID := strings.TrimSpace(req.UserID); userID != "" {
		filter.UserID = &userID
	}

	items, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return dto.LoggedActivityListResponse{}, err
	}

	return dto.LoggedActivityListResponse{
		Items:      dto.NewLoggedActivityResponseSlice(items),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *loggedActivityService) UserSummary(ctx context.Context, userID string) (dto.UserPointsSummary, error) {
	cacheKey := summaryCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var summary dto.UserPointsSummary
			if unmarshalErr := json.Unmarshal([]byte(cached), &summary); unmarshalErr == nil {
				observability.SummaryCacheLookups().WithLabelValues("hit").Inc()
				return summary, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read points summary cache")
		}
		observability.SummaryCacheLookups().WithLabelValues("miss").Inc()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserPointsSummary{}, lookupError(err, "user not found")
	}

	items, _, err := s.activities.List(ctx, repository.LoggedActivityFilter{UserID: &user.ID})
	if err != nil {
		return dto.UserPointsSummary{}, err
	}

	earned, err := s.activities.SumApprovedValue(ctx, user.ID)
	if err != nil {
		return dto.UserPointsSummary{}, err
	}

	summary := dto.UserPointsSummary{
		UserID:           user.ID,
		ActivitiesLogged: len(items),
		PointsEarned:     earned,
		Items:            dto.NewLoggedActivityResponseSlice(items),
	}
	if user.Society != nil {
		summary.Society = user.Society.Name
		summary.SocietyID = user.Society.ID
	}

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.summaryTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store points summary cache")
			}
		}
	}

	return summary, nil
}

func (s *loggedActivityService) SecretaryReview(ctx context.Context, actor Actor, id string, payload dto.SecretaryReviewRequest) (dto.LoggedActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "logged_activities.secretary_review", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("logged_activity.id", id),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, validationError(err), "validation_failed")
	}
	target, ok := workflow.ParseActivityStatus(payload.Status)
	if !ok {
		return dto.LoggedActivityResponse{}, failSpan(span, badInput("invalid status value"), "invalid_status")
	}

	item, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, lookupError(err, "logged activity not found"), "lookup_failed")
	}

	// Review acts with the secretary grant only; approval and its credit belong to Approve.
	roles := actor.Roles.Only(workflow.RoleSecretary)
	if err := s.transition(ctx, actor, roles, item, target, map[string]interface{}{"reviewer_id": actor.ID}); err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, err, "transition_failed")
	}

	return s.load(ctx, item.ID)
}

func (s *loggedActivityService) Reject(ctx context.Context, actor Actor, id string) (dto.LoggedActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "logged_activities.reject", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("logged_activity.id", id),
	))
	defer span.End()

	item, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, lookupError(err, "logged activity not found"), "lookup_failed")
	}
	if item.Status != workflow.ActivityPending {
		return dto.LoggedActivityResponse{}, failSpan(span, conflict("this logged activity is either in review, approved or already rejected"), "not_pending")
	}

	roles := actor.Roles.Only(workflow.RoleSuccessOps)
	if err := s.transition(ctx, actor, roles, item, workflow.ActivityRejected, map[string]interface{}{"approver_id": actor.ID}); err != nil {
		return dto.LoggedActivityResponse{}, failSpan(span, err, "transition_failed")
	}

	return s.load(ctx, item.ID)
}

func (s *loggedActivityService) RequestInfo(ctx context.Context, actor Actor, id string, payload dto.MoreInfoRequest) error {
	ctx, span := s.tracer.Start(ctx, "logged_activities.request_info", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("logged_activity.id", id),
	))
	defer span.End()

	comment := s.clean(payload.Comment)
	if comment == "" {
		return failSpan(span, badInput("context for extra information must be provided"), "missing_comment")
	}
	if !actor.Roles.Has(workflow.RoleSuccessOps) {
		return failSpan(span, forbidden("insufficient permissions"), "role_not_permitted")
	}

	item, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return failSpan(span, lookupError(err, "logged activity not found"), "lookup_failed")
	}

	email := notify.Email{
		Subject: fmt.Sprintf("More Info on Logged Activity for %s", item.Society.Name),
		Body: fmt.Sprintf(
			"Success Ops needs more information on this logged activity: %s.\nContext: %s.\nOpen /api/v1/logged-activities/%s and edit the description to give more information.",
			item.Name, comment, item.ID,
		),
		Recipients: []string{item.User.Email},
	}
	if s.notifier == nil || !s.notifier.Enqueue("logged_activity.more_info", email) {
		s.logger.Warn().Str("logged_activity_id", item.ID).Msg("more info email was not queued")
	}

	s.record(ctx, actor, "logged_activity.more_info_requested", item.ID, map[string]interface{}{"comment": comment})
	return nil
}

// transition applies a single table-checked status change for roles and records it.
// It never approves: approval credits the ledger and only approveOne performs it.
func (s *loggedActivityService) transition(ctx context.Context, actor Actor, roles workflow.RoleSet, item models.LoggedActivity, target workflow.ActivityStatus, fields map[string]interface{}) error {
	if target == workflow.ActivityApproved {
		return badInput("logged activities are approved through the approval endpoint")
	}
	if err := workflow.LoggedActivities.Check(item.Status, target, roles); err != nil {
		return activityTransitionError(err)
	}

	change := repository.StatusChange{From: string(item.Status), To: string(target), Fields: fields}
	if err := s.activities.Transition(ctx, item.ID, change); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return activityTransitionError(err)
		}
		s.logger.Error().Err(err).Str("logged_activity_id", item.ID).Msg("failed to transition logged activity")
		return err
	}

	observability.Transitions().WithLabelValues("logged_activity", string(target)).Inc()
	s.record(ctx, actor, "logged_activity."+strings.ReplaceAll(string(target), " ", "_"), item.ID, map[string]interface{}{
		"from":  string(item.Status),
		"to":    string(target),
		"value": item.Value,
	})
	s.invalidateSummary(ctx, item.UserID)
	return nil
}

func (s *loggedActivityService) load(ctx context.Context, id string) (dto.LoggedActivityResponse, error) {
	item, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return dto.LoggedActivityResponse{}, lookupError(err, "logged activity not found")
	}
	return dto.NewLoggedActivityResponse(item), nil
}

func (s *loggedActivityService) record(ctx context.Context, actor Actor, action, entityID string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "logged_activity",
		EntityID:   entityID,
		Metadata:   metadata,
	})
}

func (s *loggedActivityService) invalidateSummary(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate points summary cache")
	}
}

func (s *loggedActivityService) clean(raw string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

func summaryCacheKey(userID string) string {
	return "points:summary:user:" + userID
}

func valuationInput(payload dto.LoggedActivityRequest, description string) (ValuationInput, error) {
	input := ValuationInput{
		NoOfParticipants: payload.NoOfParticipants,
		Description:      description,
	}
	if payload.ActivityID != nil {
		input.ActivityID = strings.TrimSpace(*payload.ActivityID)
	}
	if payload.ActivityTypeID != nil {
		input.ActivityTypeID = strings.TrimSpace(*payload.ActivityTypeID)
	}
	if input.ActivityID != "" && input.ActivityTypeID != "" {
		return ValuationInput{}, badInput("exactly one of activity_id or activity_type_id is required")
	}
	if payload.Date != nil && strings.TrimSpace(*payload.Date) != "" {
		date, err := time.Parse(dto.DateLayout, strings.TrimSpace(*payload.Date))
		if err != nil {
			return ValuationInput{}, badInput("date must use the YYYY-MM-DD format")
		}
		input.Date = &date
	}
	return input, nil
}

func applyValuation(item *models.LoggedActivity, valuation Valuation) {
	item.ActivityTypeID = valuation.ActivityType.ID
	item.ActivityDate = valuation.ActivityDate
	item.Value = valuation.Value
	item.NoOfParticipants = valuation.NoOfParticipants
	item.ActivityID = nil
	if valuation.Activity != nil {
		activityID := valuation.Activity.ID
		item.ActivityID = &activityID
	}
}

func activityTransitionError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrRoleNotPermitted):
		return forbidden("insufficient permissions")
	case errors.Is(err, workflow.ErrUnknownTarget):
		return badInput("invalid status value")
	case errors.Is(err, workflow.ErrIllegalTransition), errors.Is(err, repository.ErrStaleTransition):
		return &DomainError{Kind: ErrConflict, Message: "logged activity is not in a state that allows this change", Err: err}
	default:
		return err
	}
}

func failSpan(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}
