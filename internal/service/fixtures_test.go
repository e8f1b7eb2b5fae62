package service

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/notify"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

var fixedNow = time.Date(2024, time.March, 31, 15, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type recordingNotifier struct {
	mu     sync.Mutex
	kinds  []string
	emails []notify.Email
	full   bool
}

func (n *recordingNotifier) Enqueue(kind string, email notify.Email) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.full {
		return false
	}
	n.kinds = append(n.kinds, kind)
	n.emails = append(n.emails, email)
	return true
}

type pointsFixture struct {
	db          *gorm.DB
	society     models.Society
	center      models.Center
	fellow      models.User
	secretary   models.User
	ops         models.User
	president   models.User
	flatType    models.ActivityType
	perHeadType models.ActivityType
	roles       map[workflow.Role]models.Role
}

func seedPointsFixture(t *testing.T, db *gorm.DB) *pointsFixture {
	t.Helper()

	f := &pointsFixture{db: db, roles: map[workflow.Role]models.Role{}}
	for _, role := range []workflow.Role{workflow.RoleFellow, workflow.RoleSecretary, workflow.RoleSuccessOps, workflow.RolePresident, workflow.RoleCIO} {
		model := models.Role{Name: string(role)}
		require.NoError(t, db.Create(&model).Error)
		f.roles[role] = model
	}

	f.society = models.Society{Name: "phoenix"}
	require.NoError(t, db.Create(&f.society).Error)
	f.center = models.Center{Name: "Lagos"}
	require.NoError(t, db.Create(&f.center).Error)

	f.fellow = f.user(t, "Ada", "ada@example.com", &f.society.ID, workflow.RoleFellow)
	f.secretary = f.user(t, "Sam", "sam@example.com", &f.society.ID, workflow.RoleFellow, workflow.RoleSecretary)
	f.president = f.user(t, "Pat", "pat@example.com", &f.society.ID, workflow.RoleFellow, workflow.RolePresident)
	f.ops = f.user(t, "Oli", "oli@example.com", nil, workflow.RoleSuccessOps)

	f.flatType = models.ActivityType{Name: "Blog Post", Value: 1000}
	require.NoError(t, db.Create(&f.flatType).Error)
	f.perHeadType = models.ActivityType{Name: "Open Source", Value: 10, SupportsMultipleParticipants: true}
	require.NoError(t, db.Create(&f.perHeadType).Error)

	return f
}

func (f *pointsFixture) user(t *testing.T, name, email string, societyID *string, roles ...workflow.Role) models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, SocietyID: societyID}
	for _, role := range roles {
		user.Roles = append(user.Roles, f.roles[role])
	}
	require.NoError(t, f.db.Omit("Roles.*").Create(&user).Error)
	return user
}

func (f *pointsFixture) logged(t *testing.T, status workflow.ActivityStatus, value int) models.LoggedActivity {
	t.Helper()
	item := models.LoggedActivity{
		Name:           "Meetup",
		Value:          value,
		Status:         status,
		ActivityDate:   fixedNow.AddDate(0, 0, -1),
		ActivityTypeID: f.flatType.ID,
		UserID:         f.fellow.ID,
		SocietyID:      f.society.ID,
	}
	require.NoError(t, f.db.Omit("ActivityType", "Activity", "User", "Society").Create(&item).Error)
	return item
}

func (f *pointsFixture) reloadSociety(t *testing.T) models.Society {
	t.Helper()
	var society models.Society
	require.NoError(t, f.db.First(&society, "id = ?", f.society.ID).Error)
	return society
}

func (f *pointsFixture) valuator(now time.Time) *ActivityValuator {
	valuator := NewActivityValuator(repository.NewActivityTypeRepository(f.db), repository.NewActivityRepository(f.db), DefaultClaimWindowDays)
	valuator.now = func() time.Time { return now }
	return valuator
}

func actorOf(user models.User) Actor {
	return ActorFromUser(user)
}

func stringPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}
