package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/models"
)

func TestHealthIsPublic(t *testing.T) {
	env := setupAPI(t)

	resp, body := env.do(t, "", http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	require.Equal(t, "Test", resp.Header.Get("X-Application"))

	resp, _ = env.do(t, "", http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentUserIsProvisionedFromToken(t *testing.T) {
	env := setupAPI(t)

	resp, body := env.do(t, "newcomer", http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var me dto.UserResponse
	decodeData(t, body, &me)
	require.Equal(t, "newcomer", me.ID)
	require.Equal(t, "newcomer@example.com", me.Email)
	require.Empty(t, me.Roles)
	require.Nil(t, me.Society)

	resp, body = env.do(t, "president", http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, body, &me)
	require.Equal(t, []string{"fellow", "society president"}, me.Roles)
	require.Equal(t, "phoenix", me.Society.Name)
}

func TestLoggedActivityFlowOverHTTP(t *testing.T) {
	env := setupAPI(t)
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(dto.DateLayout)

	resp, body := env.do(t, "fellow", http.MethodPost, "/api/v1/logged-activities", fiber.Map{
		"activity_type_id": env.flatType.ID,
		"date":             yesterday,
		"description":      "wrote a post",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	var logged dto.LoggedActivityResponse
	decodeData(t, body, &logged)
	require.Equal(t, "in review", logged.Status)

	resp, _ = env.do(t, "fellow", http.MethodPut, "/api/v1/logged-activities/"+logged.ID+"/review", fiber.Map{"status": "pending"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = env.do(t, "secretary", http.MethodPut, "/api/v1/logged-activities/"+logged.ID+"/review", fiber.Map{"status": "approved"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body.Message)

	resp, _ = env.do(t, "secretary", http.MethodPut, "/api/v1/logged-activities/"+logged.ID+"/review", fiber.Map{"status": "pending"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "fellow", http.MethodPut, "/api/v1/logged-activities/"+logged.ID, fiber.Map{"description": "changed"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, "secretary", http.MethodPut, "/api/v1/logged-activities/approval", fiber.Map{"logged_activities_ids": []string{logged.ID}})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = env.do(t, "ops", http.MethodPut, "/api/v1/logged-activities/approval", fiber.Map{"logged_activities_ids": []string{logged.ID}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	var approval dto.ApprovalResponse
	decodeData(t, body, &approval)
	require.Len(t, approval.Approved, 1)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/logged-activities/approval", fiber.Map{"logged_activities_ids": []string{logged.ID}})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var society models.Society
	require.NoError(t, env.db.First(&society, "id = ?", env.society.ID).Error)
	require.Equal(t, 1100, society.TotalPoints)

	resp, body = env.do(t, "fellow", http.MethodGet, "/api/v1/users/me/points", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var summary dto.UserPointsSummary
	decodeData(t, body, &summary)
	require.Equal(t, 1000, summary.PointsEarned)

	resp, _ = env.do(t, "fellow", http.MethodGet, "/api/v1/users/ops/points", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestBatchLimitOverHTTP(t *testing.T) {
	env := setupAPI(t)

	ids := make([]string, 21)
	for i := range ids {
		ids[i] = "id"
	}
	resp, body := env.do(t, "ops", http.MethodPut, "/api/v1/logged-activities/approval", fiber.Map{"logged_activities_ids": ids})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Contains(t, body.Message, "20")
}

func TestStaleClaimMapsToUnprocessable(t *testing.T) {
	env := setupAPI(t)
	old := time.Now().UTC().AddDate(0, 0, -45).Format(dto.DateLayout)

	resp, _ := env.do(t, "fellow", http.MethodPost, "/api/v1/logged-activities", fiber.Map{
		"activity_type_id": env.flatType.ID,
		"date":             old,
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPost, "/api/v1/logged-activities", fiber.Map{
		"activity_type_id": env.flatType.ID,
		"date":             time.Now().UTC().Format(dto.DateLayout),
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode, "no society")
}

func TestMoreInfoIsRateLimited(t *testing.T) {
	env := setupAPI(t)
	item := models.LoggedActivity{
		Name:           "Meetup",
		Value:          10,
		Status:         "pending",
		ActivityDate:   time.Now().UTC(),
		ActivityTypeID: env.flatType.ID,
		UserID:         env.users["fellow"].ID,
		SocietyID:      env.society.ID,
	}
	require.NoError(t, env.db.Omit("ActivityType", "Activity", "User", "Society").Create(&item).Error)

	path := "/api/v1/logged-activities/" + item.ID + "/more-info"
	resp, _ := env.do(t, "ops", http.MethodPost, path, fiber.Map{"comment": ""})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPost, path, fiber.Map{"comment": "who came?"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, env.notifier.emails, 1)

	resp, _ = env.do(t, "ops", http.MethodPost, path, fiber.Map{"comment": "again"})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRedemptionFlowOverHTTP(t *testing.T) {
	env := setupAPI(t)

	resp, _ := env.do(t, "fellow", http.MethodPost, "/api/v1/redemptions", fiber.Map{"reason": "Lunch", "value": 30, "center": "Lagos"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, "president", http.MethodPost, "/api/v1/redemptions", fiber.Map{"reason": "Lunch", "value": 30, "center": "Lagos"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	var redemption dto.RedemptionResponse
	decodeData(t, body, &redemption)

	resp, body = env.do(t, "president", http.MethodPost, "/api/v1/redemptions", fiber.Map{"reason": "Trip", "value": 500, "center": "Lagos"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var large dto.RedemptionResponse
	decodeData(t, body, &large)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/redemptions/"+redemption.ID+"/decision", fiber.Map{"status": "approved"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/redemptions/"+redemption.ID+"/decision", fiber.Map{"status": "rejected"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/redemptions/"+large.ID+"/decision", fiber.Map{"status": "approved"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var society models.Society
	require.NoError(t, env.db.First(&society, "id = ?", env.society.ID).Error)
	require.Equal(t, 30, society.UsedPoints)
	require.Equal(t, 70, society.RemainingPoints())

	resp, body = env.do(t, "ops", http.MethodGet, "/api/v1/redemptions?society=phoenix&status=pending", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var items []dto.RedemptionResponse
	decodeData(t, body, &items)
	require.Len(t, items, 1)
	require.NotEmpty(t, body.Meta)

	resp, _ = env.do(t, "ops", http.MethodGet, "/api/v1/redemptions?society=nowhere", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, "ops", http.MethodGet, "/api/v1/audit-logs?entity_type=redemption", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var audits []dto.AuditLogResponse
	decodeData(t, body, &audits)
	require.Len(t, audits, 1)

	resp, _ = env.do(t, "president", http.MethodGet, "/api/v1/audit-logs", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReferenceDataOverHTTP(t *testing.T) {
	env := setupAPI(t)

	resp, _ := env.do(t, "fellow", http.MethodPost, "/api/v1/activity-types", fiber.Map{"name": "Talk", "value": 10})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPost, "/api/v1/activity-types", fiber.Map{"name": "Blog Post", "value": 10})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body := env.do(t, "ops", http.MethodPost, "/api/v1/activity-types", fiber.Map{"name": "Talk", "value": 10})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var activityType dto.ActivityTypeResponse
	decodeData(t, body, &activityType)

	resp, _ = env.do(t, "president", http.MethodPost, "/api/v1/activities", fiber.Map{"name": "Meetup", "activity_type_id": activityType.ID, "date": "2024-03-01"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = env.do(t, "fellow", http.MethodGet, "/api/v1/activities", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var activities []dto.ActivityResponse
	decodeData(t, body, &activities)
	require.Len(t, activities, 1)

	resp, body = env.do(t, "fellow", http.MethodGet, "/api/v1/centers", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var centers []dto.CenterResponse
	decodeData(t, body, &centers)
	require.Len(t, centers, 1)

	resp, _ = env.do(t, "ops", http.MethodPost, "/api/v1/roles", fiber.Map{"name": "CIO"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = env.do(t, "fellow", http.MethodGet, "/api/v1/societies/phoenix", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var society dto.SocietyDetailResponse
	decodeData(t, body, &society)
	require.Equal(t, 100, society.RemainingPoints)

	resp, _ = env.do(t, "ops", http.MethodPost, "/api/v1/societies", fiber.Map{"name": "phoenix"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestMembershipOverHTTP(t *testing.T) {
	env := setupAPI(t)

	appoint := fiber.Map{"role": "society president", "society_id": env.society.ID, "user_id": "newbie"}
	resp, _ := env.do(t, "president", http.MethodPut, "/api/v1/roles/society-execs", appoint)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, "newbie", http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/roles/society-execs", appoint)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "newbie is not in phoenix yet")

	resp, body := env.do(t, "ops", http.MethodPut, "/api/v1/users/newbie/society", fiber.Map{"society_id": env.society.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var member dto.UserResponse
	decodeData(t, body, &member)
	require.NotNil(t, member.Society)
	require.Equal(t, "phoenix", member.Society.Name)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/users/newbie/society", fiber.Map{"society_id": env.society.ID})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body = env.do(t, "ops", http.MethodPut, "/api/v1/roles/society-execs", appoint)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, body, &member)
	require.Contains(t, member.Roles, "society president")

	resp, body = env.do(t, "president", http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var previous dto.UserResponse
	decodeData(t, body, &previous)
	require.Equal(t, []string{"fellow"}, previous.Roles)

	resp, _ = env.do(t, "president", http.MethodPost, "/api/v1/redemptions", fiber.Map{"value": 10, "reason": "books", "center": env.center.Name})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode, "the office moved to newbie")
}

func TestRoleEditOverHTTP(t *testing.T) {
	env := setupAPI(t)

	resp, body := env.do(t, "ops", http.MethodPost, "/api/v1/roles", fiber.Map{"name": "alumni"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var role dto.RoleResponse
	decodeData(t, body, &role)

	resp, _ = env.do(t, "fellow", http.MethodPut, "/api/v1/roles/"+role.ID, fiber.Map{"name": "mentors"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/roles/"+role.ID, fiber.Map{"name": "alumni"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "ops", http.MethodPut, "/api/v1/roles/missing", fiber.Map{"name": "mentors"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, "ops", http.MethodPut, "/api/v1/roles/"+role.ID, fiber.Map{"name": "Mentors"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, body, &role)
	require.Equal(t, "mentors", role.Name)
}
