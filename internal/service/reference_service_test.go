package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

func TestSocietyServiceLifecycle(t *testing.T) {
	db := setupServiceDB(t)
	fixture := seedPointsFixture(t, db)
	svc := NewSocietyService(repository.NewSocietyRepository(db), repository.NewLoggedActivityRepository(db), testValidator(), testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.SocietyCreateRequest{Name: "phoenix"})
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Create(ctx, dto.SocietyCreateRequest{})
	require.ErrorIs(t, err, ErrBadInput)

	created, err := svc.Create(ctx, dto.SocietyCreateRequest{Name: " sparks ", Description: "<script>x</script>Builders"})
	require.NoError(t, err)
	require.Equal(t, "sparks", created.Name)
	require.Equal(t, "Builders", created.Description)
	require.Zero(t, created.RemainingPoints)

	_, err = svc.Update(ctx, created.ID, dto.SocietyUpdateRequest{Name: stringPtr("phoenix")})
	require.ErrorIs(t, err, ErrAlreadyExists)

	updated, err := svc.Update(ctx, created.ID, dto.SocietyUpdateRequest{Name: stringPtr("sparks"), ColorScheme: stringPtr("#ff0")})
	require.NoError(t, err, "keeping its own name is fine")
	require.Equal(t, "#ff0", updated.ColorScheme)

	fixture.logged(t, workflow.ActivityPending, 50)
	detail, err := svc.Get(ctx, "phoenix")
	require.NoError(t, err)
	require.Equal(t, fixture.society.ID, detail.ID)
	require.Len(t, detail.LoggedActivities, 1)

	detail, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, detail.LoggedActivities)

	list, err := svc.List(ctx, dto.SocietyListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)
	_, err = svc.Get(ctx, "sparks")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSocietyServiceUpdateNeverTouchesPoints(t *testing.T) {
	db := setupServiceDB(t)
	fixture := seedPointsFixture(t, db)
	require.NoError(t, db.Model(&models.Society{}).Where("id = ?", fixture.society.ID).Updates(map[string]interface{}{"total_points": 90, "used_points": 40}).Error)
	svc := NewSocietyService(repository.NewSocietyRepository(db), repository.NewLoggedActivityRepository(db), testValidator(), testLogger())

	updated, err := svc.Update(context.Background(), fixture.society.ID, dto.SocietyUpdateRequest{Description: stringPtr("new")})
	require.NoError(t, err)
	require.Equal(t, 50, updated.RemainingPoints)

	stored := fixture.reloadSociety(t)
	require.Equal(t, 90, stored.TotalPoints)
	require.Equal(t, 40, stored.UsedPoints)
}

func TestActivityServicesCreateAndList(t *testing.T) {
	db := setupServiceDB(t)
	fixture := seedPointsFixture(t, db)
	types := NewActivityTypeService(repository.NewActivityTypeRepository(db), testValidator(), testLogger())
	activities := NewActivityService(repository.NewActivityRepository(db), repository.NewActivityTypeRepository(db), testValidator(), testLogger())
	ctx := context.Background()

	_, err := types.Create(ctx, dto.ActivityTypeCreateRequest{Name: "blog post", Value: 5})
	require.ErrorIs(t, err, ErrAlreadyExists, "names are unique regardless of case")

	_, err = types.Create(ctx, dto.ActivityTypeCreateRequest{Name: "Talk", Value: 0})
	require.ErrorIs(t, err, ErrBadInput)

	talk, err := types.Create(ctx, dto.ActivityTypeCreateRequest{Name: "Talk", Value: 500})
	require.NoError(t, err)

	listed, err := types.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	_, err = activities.Create(ctx, actorOf(fixture.ops), dto.ActivityCreateRequest{Name: "Meetup", ActivityTypeID: "missing", Date: "2024-03-01"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = activities.Create(ctx, actorOf(fixture.ops), dto.ActivityCreateRequest{Name: "Meetup", ActivityTypeID: talk.ID, Date: "01-03-2024"})
	require.ErrorIs(t, err, ErrBadInput)

	activity, err := activities.Create(ctx, actorOf(fixture.ops), dto.ActivityCreateRequest{Name: "Meetup", ActivityTypeID: talk.ID, Date: "2024-03-01"})
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", activity.ActivityDate)
	require.Equal(t, "Talk", activity.ActivityType.Name)
	require.Equal(t, fixture.ops.ID, activity.AddedByID)

	page, err := activities.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestRoleServiceNormalizesNames(t *testing.T) {
	db := setupServiceDB(t)
	seedPointsFixture(t, db)
	svc := NewRoleService(repository.NewRoleRepository(db), testValidator(), testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.RoleCreateRequest{Name: " Success Ops "})
	require.ErrorIs(t, err, ErrAlreadyExists)

	created, err := svc.Create(ctx, dto.RoleCreateRequest{Name: "Alumni", Description: "former fellows"})
	require.NoError(t, err)
	require.Equal(t, "alumni", created.Name)

	list, err := svc.List(ctx, "alum", 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)
}

func TestUserServiceResolveProvisionsOnce(t *testing.T) {
	db := setupServiceDB(t)
	fixture := seedPointsFixture(t, db)
	svc := NewUserService(repository.NewUserRepository(db), repository.NewCenterRepository(db), testLogger())
	ctx := context.Background()

	existing, err := svc.Resolve(ctx, Identity{Subject: fixture.president.ID})
	require.NoError(t, err)
	require.True(t, existing.RoleSet().Has(workflow.RolePresident))
	require.Equal(t, "phoenix", existing.Society.Name)

	_, err = svc.Resolve(ctx, Identity{Subject: "new-user"})
	require.ErrorIs(t, err, ErrBadInput)

	created, err := svc.Resolve(ctx, Identity{Subject: "new-user", Email: "New@Example.com"})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", created.Email)
	require.Equal(t, "new@example.com", created.Name)
	require.Empty(t, created.Roles)
	require.False(t, created.HasSociety())

	again, err := svc.Resolve(ctx, Identity{Subject: "new-user"})
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)

	centers, err := svc.Centers(ctx)
	require.NoError(t, err)
	require.Len(t, centers, 1)
}

func TestAuditServiceMasksSensitiveMetadata(t *testing.T) {
	db := setupServiceDB(t)
	fixture := seedPointsFixture(t, db)
	svc := NewAuditService(repository.NewAuditLogRepository(db), testLogger())
	ctx := context.Background()

	svc.Record(ctx, AuditEntry{
		Actor:      actorOf(fixture.ops),
		Action:     "Redemption.Approved",
		EntityType: "redemption",
		EntityID:   "r-1",
		Metadata:   map[string]interface{}{"requester_email": "pat@example.com", "api_token": "abc", "value": 30},
	})

	list, err := svc.List(ctx, dto.AuditLogListRequest{EntityType: "redemption"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	entry := list.Items[0]
	require.Equal(t, "redemption.approved", entry.Action)
	require.Equal(t, "p***t@example.com", entry.Metadata["requester_email"])
	require.Equal(t, "***", entry.Metadata["api_token"])
	require.Equal(t, "success ops", entry.ActorRoles)
}

func TestMaskEmailAddress(t *testing.T) {
	require.Equal(t, "a***@example.com", maskEmailAddress("Al@Example.com"))
	require.Equal(t, "***", maskEmailAddress("not-an-email"))
	require.Empty(t, maskEmailAddress("  "))
}

// staleUserRepository misses the first lookup, as a request racing another
// provisioning of the same subject would.
type staleUserRepository struct {
	repository.UserRepository
	misses int
}

func (r *staleUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	if r.misses > 0 {
		r.misses--
		return models.User{}, gorm.ErrRecordNotFound
	}
	return r.UserRepository.GetByID(ctx, id)
}

func TestUserServiceResolveToleratesConcurrentProvisioning(t *testing.T) {
	db := setupServiceDB(t)
	fixture := seedPointsFixture(t, db)
	users := &staleUserRepository{UserRepository: repository.NewUserRepository(db), misses: 1}
	svc := NewUserService(users, repository.NewCenterRepository(db), testLogger())

	user, err := svc.Resolve(context.Background(), Identity{Subject: fixture.fellow.ID, Email: fixture.fellow.Email})
	require.NoError(t, err)
	require.Equal(t, fixture.fellow.ID, user.ID)
	require.True(t, user.RoleSet().Has(workflow.RoleFellow))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", fixture.fellow.Email).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
