package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/observability"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// Approve approves a bounded batch of pending logged activities and credits their societies.
//
// Each item is approved in its own transaction: the status change is conditional on the
// item still being pending and unredeemed, so an item is credited at most once even when
// two reviewers approve it concurrently. Items that lose that race are reported as skipped;
// items whose transaction fails are reported as failed and leave no trace in the ledger.
func (s *loggedActivityService) Approve(ctx context.Context, actor Actor, payload dto.ApprovalRequest) (dto.ApprovalResponse, error) {
	ctx, span := s.tracer.Start(ctx, "logged_activities.approve", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.Int("approval.requested", len(payload.LoggedActivityIDs)),
	))
	defer span.End()

	ids := payload.LoggedActivityIDs
	if len(ids) > s.batchLimit {
		return dto.ApprovalResponse{}, failSpan(span, forbidden("sorry, you can not approve more than %d logged activities at a go", s.batchLimit), "batch_too_large")
	}
	if len(ids) == 0 {
		return dto.ApprovalResponse{}, failSpan(span, badInput("a list with at least one logged activity id is needed"), "empty_batch")
	}
	if !workflow.LoggedActivities.Allows(workflow.ActivityPending, workflow.ActivityApproved, actor.Roles) {
		return dto.ApprovalResponse{}, failSpan(span, forbidden("insufficient permissions"), "role_not_permitted")
	}

	response := dto.ApprovalResponse{
		Approved: []dto.LoggedActivityResponse{},
		Skipped:  []string{},
		Failed:   []string{},
	}

	seen := make(map[string]struct{}, len(ids))
	eligible := make([]models.LoggedActivity, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if id == "" {
			response.Skipped = append(response.Skipped, raw)
			continue
		}

		item, err := s.activities.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.Skipped = append(response.Skipped, id)
				continue
			}
			return dto.ApprovalResponse{}, failSpan(span, err, "lookup_failed")
		}
		if !item.ApprovalEligible() {
			response.Skipped = append(response.Skipped, id)
			continue
		}
		eligible = append(eligible, item)
	}

	if len(eligible) == 0 {
		return dto.ApprovalResponse{}, failSpan(span, badInput("invalid logged activities or no pending logged activities in request"), "nothing_eligible")
	}

	approvedAt := s.now().UTC()
	for _, item := range eligible {
		err := s.approveOne(ctx, actor, item, approvedAt)
		switch {
		case err == nil:
			item.Status = workflow.ActivityApproved
			item.ApprovedAt = &approvedAt
			approver := actor.ID
			item.ApproverID = &approver
			response.Approved = append(response.Approved, dto.NewLoggedActivityResponse(item))

			observability.Transitions().WithLabelValues("logged_activity", string(workflow.ActivityApproved)).Inc()
			observability.LedgerCredits().WithLabelValues(string(models.PointsEarned)).Inc()
			observability.LedgerPoints().WithLabelValues(string(models.PointsEarned)).Add(float64(item.Value))
			s.record(ctx, actor, "logged_activity.approved", item.ID, map[string]interface{}{
				"society_id": item.SocietyID,
				"value":      item.Value,
			})
			s.invalidateSummary(ctx, item.UserID)
		case errors.Is(err, repository.ErrStaleTransition):
			response.Skipped = append(response.Skipped, item.ID)
		default:
			s.logger.Error().Err(err).Str("logged_activity_id", item.ID).Str("society_id", item.SocietyID).Msg("failed to approve logged activity")
			span.RecordError(err)
			response.Failed = append(response.Failed, item.ID)
		}
	}

	span.SetAttributes(
		attribute.Int("approval.approved", len(response.Approved)),
		attribute.Int("approval.skipped", len(response.Skipped)),
		attribute.Int("approval.failed", len(response.Failed)),
	)
	return response, nil
}

func (s *loggedActivityService) approveOne(ctx context.Context, actor Actor, item models.LoggedActivity, approvedAt time.Time) error {
	return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		change := repository.StatusChange{
			From: string(workflow.ActivityPending),
			To:   string(workflow.ActivityApproved),
			Fields: map[string]interface{}{
				"approved_at": approvedAt,
				"approver_id": actor.ID,
			},
		}
		if err := s.activities.WithTx(tx).Transition(ctx, item.ID, change); err != nil {
			return err
		}
		if item.Value <= 0 {
			return nil
		}
		return s.societies.WithTx(tx).Credit(ctx, item.SocietyID, models.PointsEarned, item.Value, repository.CreditOptions{})
	})
}
