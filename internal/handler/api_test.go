package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/config"
	"github.com/noah-isme/society-points-api/internal/handler"
	"github.com/noah-isme/society-points-api/internal/middleware"
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/notify"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/router"
	"github.com/noah-isme/society-points-api/internal/service"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

const testSecret = "handler-secret"

type queueNotifier struct {
	emails []notify.Email
}

func (q *queueNotifier) Enqueue(kind string, email notify.Email) bool {
	q.emails = append(q.emails, email)
	return true
}

type apiEnv struct {
	app      *fiber.App
	db       *gorm.DB
	notifier *queueNotifier
	society  models.Society
	center   models.Center
	users    map[string]models.User
	flatType models.ActivityType
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &apiEnv{db: db, notifier: &queueNotifier{}, users: map[string]models.User{}}
	env.seed(t)

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	tx := repository.NewTransactor(db)
	societies := repository.NewSocietyRepository(db)
	loggedActivities := repository.NewLoggedActivityRepository(db)
	redemptions := repository.NewRedemptionRepository(db)
	types := repository.NewActivityTypeRepository(db)
	activities := repository.NewActivityRepository(db)
	users := repository.NewUserRepository(db)
	centers := repository.NewCenterRepository(db)
	audit := service.NewAuditService(repository.NewAuditLogRepository(db), logger)

	loggedActivityService := service.NewLoggedActivityService(service.LoggedActivityDependencies{
		Transactor: tx,
		Activities: loggedActivities,
		Societies:  societies,
		Users:      users,
		Valuator:   service.NewActivityValuator(types, activities, service.DefaultClaimWindowDays),
		Audit:      audit,
		Notifier:   env.notifier,
		Validator:  validate,
		Logger:     logger,
	}, service.LoggedActivityOptions{})
	redemptionService := service.NewRedemptionService(service.RedemptionDependencies{
		Transactor:  tx,
		Redemptions: redemptions,
		Societies:   societies,
		Centers:     centers,
		Audit:       audit,
		Notifier:    env.notifier,
		Validator:   validate,
		Logger:      logger,
	}, service.RedemptionPolicy{})
	userService := service.NewUserService(users, centers, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Test", JWTSecret: testSecret}, router.Dependencies{
		LoggedActivityHandler: handler.NewLoggedActivityHandler(loggedActivityService, handler.MoreInfoLimit{Max: 2, Window: time.Minute}, logger),
		RedemptionHandler:     handler.NewRedemptionHandler(redemptionService, logger),
		SocietyHandler:        handler.NewSocietyHandler(service.NewSocietyService(societies, loggedActivities, validate, logger), logger),
		ReferenceHandler: handler.NewReferenceHandler(
			service.NewActivityTypeService(types, validate, logger),
			service.NewActivityService(activities, types, validate, logger),
			service.NewRoleService(repository.NewRoleRepository(db), validate, logger),
			userService,
			logger,
		),
		MembershipHandler: handler.NewMembershipHandler(service.NewMembershipService(service.MembershipDependencies{
			Transactor: tx,
			Users:      users,
			Roles:      repository.NewRoleRepository(db),
			Societies:  societies,
			Audit:      audit,
			Validator:  validate,
			Logger:     logger,
		}), logger),
		UserHandler:   handler.NewUserHandler(loggedActivityService, logger),
		AuditHandler:  handler.NewAuditHandler(audit, logger),
		JWTMiddleware: middleware.JWTProtected(testSecret),
		CurrentUser:   middleware.CurrentUser(userService, logger),
	})
	env.app = app
	return env
}

func (e *apiEnv) seed(t *testing.T) {
	t.Helper()
	roles := map[workflow.Role]models.Role{}
	for _, role := range []workflow.Role{workflow.RoleFellow, workflow.RoleSecretary, workflow.RoleSuccessOps, workflow.RolePresident} {
		model := models.Role{Name: string(role)}
		require.NoError(t, e.db.Create(&model).Error)
		roles[role] = model
	}

	e.society = models.Society{Name: "phoenix", TotalPoints: 100}
	require.NoError(t, e.db.Create(&e.society).Error)
	e.center = models.Center{Name: "Lagos"}
	require.NoError(t, e.db.Create(&e.center).Error)
	e.flatType = models.ActivityType{Name: "Blog Post", Value: 1000}
	require.NoError(t, e.db.Create(&e.flatType).Error)

	add := func(key string, societyID *string, held ...workflow.Role) {
		user := models.User{ID: key, Name: key, Email: key + "@example.com", SocietyID: societyID}
		for _, role := range held {
			user.Roles = append(user.Roles, roles[role])
		}
		require.NoError(t, e.db.Omit("Roles.*").Create(&user).Error)
		e.users[key] = user
	}
	add("fellow", &e.society.ID, workflow.RoleFellow)
	add("secretary", &e.society.ID, workflow.RoleFellow, workflow.RoleSecretary)
	add("president", &e.society.ID, workflow.RoleFellow, workflow.RolePresident)
	add("ops", nil, workflow.RoleSuccessOps)
}

func (e *apiEnv) token(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@example.com",
		"name":  subject,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (e *apiEnv) do(t *testing.T, as, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, as))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}
