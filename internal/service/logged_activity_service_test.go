package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

type loggedActivityHarness struct {
	*pointsFixture
	svc      *loggedActivityService
	notifier *recordingNotifier
	cache    *redis.Client
}

func newLoggedActivityHarness(t *testing.T) *loggedActivityHarness {
	t.Helper()
	db := setupServiceDB(t)
	fixture := seedPointsFixture(t, db)

	server := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	notifier := &recordingNotifier{}
	svc := NewLoggedActivityService(LoggedActivityDependencies{
		Transactor: repository.NewTransactor(db),
		Activities: repository.NewLoggedActivityRepository(db),
		Societies:  repository.NewSocietyRepository(db),
		Users:      repository.NewUserRepository(db),
		Valuator:   fixture.valuator(fixedNow),
		Audit:      NewAuditService(repository.NewAuditLogRepository(db), testLogger()),
		Notifier:   notifier,
		Cache:      cache,
		Validator:  testValidator(),
		Logger:     testLogger(),
	}, LoggedActivityOptions{}).(*loggedActivityService)
	svc.now = func() time.Time { return fixedNow }

	return &loggedActivityHarness{pointsFixture: fixture, svc: svc, notifier: notifier, cache: cache}
}

func (h *loggedActivityHarness) flatRequest(daysAgo int) dto.LoggedActivityRequest {
	return dto.LoggedActivityRequest{
		ActivityTypeID: stringPtr(h.flatType.ID),
		Date:           stringPtr(fixedNow.AddDate(0, 0, -daysAgo).Format(dto.DateLayout)),
		Name:           "Wrote about generics",
		Description:    "<b>Posted</b> on the blog",
	}
}

func TestSubmitLoggedActivityStartsInReview(t *testing.T) {
	h := newLoggedActivityHarness(t)

	response, err := h.svc.Submit(context.Background(), actorOf(h.fellow), h.flatRequest(2))
	require.NoError(t, err)
	require.Equal(t, string(workflow.ActivityInReview), response.Status)
	require.Equal(t, 1000, response.Value)
	require.Equal(t, "Posted on the blog", response.Description)
	require.Equal(t, h.society.ID, response.SocietyID)
	require.Equal(t, "Blog Post", response.ActivityType)
	require.Equal(t, "Ada", response.Owner)
	require.False(t, response.Redeemed)

	require.Zero(t, h.reloadSociety(t).TotalPoints, "submission never credits")
}

func TestSubmitLoggedActivityValidation(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()

	_, err := h.svc.Submit(ctx, actorOf(h.ops), h.flatRequest(2))
	require.ErrorIs(t, err, ErrForbidden, "actor without a society")

	_, err = h.svc.Submit(ctx, actorOf(h.fellow), h.flatRequest(31))
	require.ErrorIs(t, err, ErrStale)

	both := h.flatRequest(2)
	both.ActivityID = stringPtr("some-activity")
	_, err = h.svc.Submit(ctx, actorOf(h.fellow), both)
	require.ErrorIs(t, err, ErrBadInput)

	badDate := h.flatRequest(2)
	badDate.Date = stringPtr("31/03/2024")
	_, err = h.svc.Submit(ctx, actorOf(h.fellow), badDate)
	require.ErrorIs(t, err, ErrBadInput)

	perHead := dto.LoggedActivityRequest{
		ActivityTypeID:   stringPtr(h.perHeadType.ID),
		Date:             stringPtr(fixedNow.Format(dto.DateLayout)),
		NoOfParticipants: intPtr(3),
		Description:      "Ada, Sam, Pat",
	}
	response, err := h.svc.Submit(ctx, actorOf(h.fellow), perHead)
	require.NoError(t, err)
	require.Equal(t, 30, response.Value)

	var count int64
	require.NoError(t, h.db.Model(&models.LoggedActivity{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEditLoggedActivityOnlyWhileInReview(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()

	created, err := h.svc.Submit(ctx, actorOf(h.fellow), h.flatRequest(2))
	require.NoError(t, err)

	update := dto.LoggedActivityRequest{
		ActivityTypeID:   stringPtr(h.perHeadType.ID),
		NoOfParticipants: intPtr(4),
		Description:      "Ada, Sam, Pat, Oli",
	}
	edited, err := h.svc.Edit(ctx, actorOf(h.fellow), created.ID, update)
	require.NoError(t, err)
	require.Equal(t, 40, edited.Value)
	require.Equal(t, created.ActivityDate, edited.ActivityDate, "date carries over")
	require.Equal(t, created.Name, edited.Name)

	_, err = h.svc.Edit(ctx, actorOf(h.secretary), created.ID, update)
	require.ErrorIs(t, err, ErrNotFound, "only the owner sees the activity")

	_, err = h.svc.SecretaryReview(ctx, actorOf(h.secretary), created.ID, dto.SecretaryReviewRequest{Status: "pending"})
	require.NoError(t, err)

	_, err = h.svc.Edit(ctx, actorOf(h.fellow), created.ID, h.flatRequest(1))
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, h.svc.Delete(ctx, actorOf(h.fellow), created.ID), ErrConflict)

	stored, err := h.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 40, stored.Value)
	require.Equal(t, string(workflow.ActivityPending), stored.Status)
}

func TestEditScheduledActivityRejectsNewDate(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()

	scheduled := models.Activity{
		Name:           "Community meetup",
		ActivityTypeID: h.flatType.ID,
		ActivityDate:   fixedNow.AddDate(0, 0, -3),
		AddedByID:      h.ops.ID,
	}
	require.NoError(t, h.db.Omit("ActivityType").Create(&scheduled).Error)

	created, err := h.svc.Submit(ctx, actorOf(h.fellow), dto.LoggedActivityRequest{ActivityID: stringPtr(scheduled.ID)})
	require.NoError(t, err)

	_, err = h.svc.Edit(ctx, actorOf(h.fellow), created.ID, dto.LoggedActivityRequest{
		Date: stringPtr(fixedNow.AddDate(0, 0, -1).Format(dto.DateLayout)),
	})
	require.ErrorIs(t, err, ErrBadInput)

	edited, err := h.svc.Edit(ctx, actorOf(h.fellow), created.ID, dto.LoggedActivityRequest{Description: "brought snacks"})
	require.NoError(t, err)
	require.Equal(t, created.ActivityDate, edited.ActivityDate)
	require.Equal(t, "brought snacks", edited.Description)
}

func TestDeleteLoggedActivityInReview(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()

	created, err := h.svc.Submit(ctx, actorOf(h.fellow), h.flatRequest(2))
	require.NoError(t, err)

	require.ErrorIs(t, h.svc.Delete(ctx, actorOf(h.president), created.ID), ErrNotFound)
	require.NoError(t, h.svc.Delete(ctx, actorOf(h.fellow), created.ID))

	_, err = h.svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSecretaryReviewFollowsTransitionTable(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()

	first := h.logged(t, workflow.ActivityInReview, 100)
	second := h.logged(t, workflow.ActivityInReview, 100)

	_, err := h.svc.SecretaryReview(ctx, actorOf(h.fellow), first.ID, dto.SecretaryReviewRequest{Status: "pending"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.SecretaryReview(ctx, actorOf(h.secretary), first.ID, dto.SecretaryReviewRequest{Status: "approved"})
	require.ErrorIs(t, err, ErrBadInput)

	_, err = h.svc.SecretaryReview(ctx, actorOf(h.secretary), first.ID, dto.SecretaryReviewRequest{Status: "archived"})
	require.ErrorIs(t, err, ErrBadInput)

	response, err := h.svc.SecretaryReview(ctx, actorOf(h.secretary), first.ID, dto.SecretaryReviewRequest{Status: "Pending"})
	require.NoError(t, err)
	require.Equal(t, string(workflow.ActivityPending), response.Status)
	require.NotNil(t, response.ReviewerID)
	require.Equal(t, h.secretary.ID, *response.ReviewerID)

	_, err = h.svc.SecretaryReview(ctx, actorOf(h.secretary), first.ID, dto.SecretaryReviewRequest{Status: "rejected"})
	require.ErrorIs(t, err, ErrConflict, "pending is out of the secretary's reach")

	response, err = h.svc.SecretaryReview(ctx, actorOf(h.secretary), second.ID, dto.SecretaryReviewRequest{Status: "rejected"})
	require.NoError(t, err)
	require.Equal(t, string(workflow.ActivityRejected), response.Status)

	var audits int64
	require.NoError(t, h.db.Model(&models.AuditLog{}).Where("entity_type = ?", "logged_activity").Count(&audits).Error)
	require.Equal(t, int64(2), audits)
}

func TestSecretaryReviewNeverApprovesForDualRoleHolders(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()

	both := h.user(t, "Dee", "dee@example.com", &h.society.ID, workflow.RoleSecretary, workflow.RoleSuccessOps)
	pending := h.logged(t, workflow.ActivityPending, 250)
	inReview := h.logged(t, workflow.ActivityInReview, 250)

	_, err := h.svc.SecretaryReview(ctx, actorOf(both), pending.ID, dto.SecretaryReviewRequest{Status: "approved"})
	require.ErrorIs(t, err, ErrBadInput)

	_, err = h.svc.SecretaryReview(ctx, actorOf(both), pending.ID, dto.SecretaryReviewRequest{Status: "rejected"})
	require.ErrorIs(t, err, ErrConflict, "review acts only on items still in review")

	_, err = h.svc.SecretaryReview(ctx, actorOf(both), inReview.ID, dto.SecretaryReviewRequest{Status: "approved"})
	require.ErrorIs(t, err, ErrBadInput)

	stored, err := h.svc.Get(ctx, pending.ID)
	require.NoError(t, err)
	require.Equal(t, string(workflow.ActivityPending), stored.Status)
	require.Zero(t, h.reloadSociety(t).TotalPoints)

	result, err := h.svc.Approve(ctx, actorOf(both), dto.ApprovalRequest{LoggedActivityIDs: []string{pending.ID}})
	require.NoError(t, err)
	require.Len(t, result.Approved, 1)
	require.Equal(t, 250, h.reloadSociety(t).TotalPoints)
}

func TestRejectRequiresPendingAndSuccessOps(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()

	inReview := h.logged(t, workflow.ActivityInReview, 100)
	pending := h.logged(t, workflow.ActivityPending, 100)

	_, err := h.svc.Reject(ctx, actorOf(h.ops), inReview.ID)
	require.ErrorIs(t, err, ErrConflict)

	_, err = h.svc.Reject(ctx, actorOf(h.fellow), pending.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.Reject(ctx, actorOf(h.secretary), pending.ID)
	require.ErrorIs(t, err, ErrForbidden, "secretaries only reject during review")

	response, err := h.svc.Reject(ctx, actorOf(h.ops), pending.ID)
	require.NoError(t, err)
	require.Equal(t, string(workflow.ActivityRejected), response.Status)

	_, err = h.svc.Reject(ctx, actorOf(h.ops), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, h.reloadSociety(t).TotalPoints)
}

func TestRequestInfoQueuesEmailToOwner(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()
	item := h.logged(t, workflow.ActivityPending, 100)

	err := h.svc.RequestInfo(ctx, actorOf(h.ops), item.ID, dto.MoreInfoRequest{Comment: "  "})
	require.ErrorIs(t, err, ErrBadInput)

	err = h.svc.RequestInfo(ctx, actorOf(h.secretary), item.ID, dto.MoreInfoRequest{Comment: "who attended?"})
	require.ErrorIs(t, err, ErrForbidden)

	err = h.svc.RequestInfo(ctx, actorOf(h.ops), "missing", dto.MoreInfoRequest{Comment: "who attended?"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, h.svc.RequestInfo(ctx, actorOf(h.ops), item.ID, dto.MoreInfoRequest{Comment: "who attended?"}))
	require.Len(t, h.notifier.emails, 1)
	email := h.notifier.emails[0]
	require.Equal(t, []string{"ada@example.com"}, email.Recipients)
	require.Contains(t, email.Subject, "phoenix")
	require.Contains(t, email.Body, "who attended?")
	require.Contains(t, email.Body, item.ID)
	require.Equal(t, "logged_activity.more_info", h.notifier.kinds[0])

	h.notifier.full = true
	require.NoError(t, h.svc.RequestInfo(ctx, actorOf(h.ops), item.ID, dto.MoreInfoRequest{Comment: "again"}), "a full queue never fails the request")

	stored, err := h.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, string(workflow.ActivityPending), stored.Status)
}

func TestListLoggedActivitiesFilters(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()
	h.logged(t, workflow.ActivityInReview, 10)
	h.logged(t, workflow.ActivityPending, 20)
	h.logged(t, workflow.ActivityPending, 30)

	response, err := h.svc.List(ctx, dto.LoggedActivityListRequest{Status: "pending", SocietyID: h.society.ID})
	require.NoError(t, err)
	require.Len(t, response.Items, 2)
	require.Equal(t, int64(2), response.Pagination.TotalItems)

	_, err = h.svc.List(ctx, dto.LoggedActivityListRequest{Status: "archived"})
	require.ErrorIs(t, err, ErrBadInput)
}

func TestUserSummaryIsCachedUntilTheLedgerMoves(t *testing.T) {
	h := newLoggedActivityHarness(t)
	ctx := context.Background()
	pending := h.logged(t, workflow.ActivityPending, 250)

	summary, err := h.svc.UserSummary(ctx, h.fellow.ID)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ActivitiesLogged)
	require.Zero(t, summary.PointsEarned)
	require.Equal(t, "phoenix", summary.Society)

	cached, err := h.cache.Exists(ctx, summaryCacheKey(h.fellow.ID)).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), cached)

	_, err = h.svc.Approve(ctx, actorOf(h.ops), dto.ApprovalRequest{LoggedActivityIDs: []string{pending.ID}})
	require.NoError(t, err)

	cached, err = h.cache.Exists(ctx, summaryCacheKey(h.fellow.ID)).Result()
	require.NoError(t, err)
	require.Zero(t, cached, "approval invalidates the owner's summary")

	summary, err = h.svc.UserSummary(ctx, h.fellow.ID)
	require.NoError(t, err)
	require.Equal(t, 250, summary.PointsEarned)

	_, err = h.svc.UserSummary(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
