package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	analysisService "github.com/cmlabs-hris/attendance-engine/internal/service/analysis"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/service/file"
	holidayService "github.com/cmlabs-hris/attendance-engine/internal/service/holiday"
	payrollService "github.com/cmlabs-hris/attendance-engine/internal/service/payroll"
	regularizationService "github.com/cmlabs-hris/attendance-engine/internal/service/regularization"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// demo centre coordinates from fixtures.SeedDemo
const (
	centreLat = 22.5526
	centreLon = 88.3524
)

type testServer struct {
	router *chi.Mux
	jwt    jwt.Service
	actors fixtures.DemoActors
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	attendanceRepo := memory.NewAttendanceRepository(store)
	regularizationRepo := memory.NewRegularizationRepository(store)
	holidayRepo := memory.NewHolidayRepository(store)
	employeeRepo := memory.NewEmployeeRepository(store)
	centreRepo := memory.NewCentreRepository(store)

	actors, err := fixtures.SeedDemo(context.Background(), store, holidayRepo, time.Now().UTC().Year())
	require.NoError(t, err)

	fileStorage, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	JWTService := jwt.NewJWTService(handlerTestSecret, time.Hour)
	router := NewRouter(
		RouterConfig{AppName: "attendance-engine-test", Version: "test", Env: "test", AllowedOrigins: []string{"*"}},
		JWTService,
		employeeRepo,
		NewAttendanceHandler(attendanceService.NewAttendanceService(attendanceRepo, employeeRepo, centreRepo, holidayRepo, 10)),
		NewRegularizationHandler(regularizationService.NewRegularizationService(
			memory.NewTransactor(store), regularizationRepo, attendanceRepo, employeeRepo, file.NewFileService(fileStorage), 9,
		)),
		NewAnalysisHandler(analysisService.NewAnalysisService(attendanceRepo, employeeRepo, holidayRepo)),
		NewPayrollHandler(payrollService.NewPayrollService(attendanceRepo, employeeRepo)),
		NewHolidayHandler(holidayService.NewHolidayService(holidayRepo)),
	)

	return &testServer{router: router, jwt: JWTService, actors: actors}
}

func (s *testServer) token(t *testing.T, role user.Role) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(s.actors[role])
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, role user.Role, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var reader bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reader).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, role))
	}

	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body response.Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func dataMap(t *testing.T, body response.Response) map[string]interface{} {
	t.Helper()
	m, ok := body.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", body.Data)
	return m
}

func punchBody(lat, lon float64, typ string) map[string]interface{} {
	return map[string]interface{}{"latitude": lat, "longitude": lon, "type": typ}
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, "", http.MethodGet, "/api/v1/attendance/me/today", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, body.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/holidays", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec, _ = s.serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_PunchFlow(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat, centreLon, "checkOut"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, body.Error.Message, "check in first")

	rec, body = s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat+0.02, centreLon, "checkIn"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.NotEmpty(t, body.Error.Details["distance_meters"])

	rec, body = s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat, centreLon, "checkIn"))
	require.Equal(t, http.StatusCreated, rec.Code, body)
	attendanceID := dataMap(t, body)["id"].(string)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat, centreLon, "checkIn"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = s.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/attendance/me/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	today := dataMap(t, body)
	assert.Equal(t, "checked_in", today["state"])
	assert.Equal(t, true, today["can_check_out"])

	rec, _ = s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat, centreLon, "checkOut"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat, centreLon, "checkOut"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/attendance/"+attendanceID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodDelete, "/api/v1/attendance/"+attendanceID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, user.RoleAdmin, http.MethodPatch, "/api/v1/attendance/"+attendanceID, map[string]interface{}{"status": "HalfDay"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ResolvesEmployeeFromUserID(t *testing.T) {
	s := newTestServer(t)

	// token issued without an employee_id claim
	actor := s.actors[user.RoleEmployee]
	actor.EmployeeID = ""
	token, _, err := s.jwt.GenerateAccessToken(actor)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(punchBody(centreLat, centreLon, "checkIn")))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", &buf)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, body := s.serve(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	assert.Equal(t, s.actors[user.RoleEmployee].EmployeeID, dataMap(t, body)["employee_id"])

	// users with no employee record stay without a profile
	token, _, err = s.jwt.GenerateAccessToken(user.Actor{UserID: "user-without-profile", Role: user.RoleEmployee})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/attendance/me/today", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, _ = s.serve(t, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_PunchValidation(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", map[string]interface{}{"type": "lunch"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Error.Details, "latitude")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+s.token(t, user.RoleEmployee))
	rec, _ = s.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminList(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/attendance", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, _ = s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat, centreLon, "checkIn"))
	_, _ = s.do(t, user.RoleManager, http.MethodPost, "/api/v1/attendance/punch", punchBody(centreLat, centreLon, "checkIn"))

	rec, body := s.do(t, user.RoleManager, http.MethodGet, "/api/v1/attendance?department=Science,Math&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body.Meta)
	assert.Equal(t, int64(2), body.Meta.TotalItems)
	assert.Equal(t, 2, body.Meta.TotalPages)
	assert.Equal(t, "1-1 of 2", body.Meta.Showing)
	assert.Len(t, body.Data, 1)

	rec, _ = s.do(t, user.RoleManager, http.MethodGet, "/api/v1/attendance?department=Administration", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(t, user.RoleManager, http.MethodGet, "/api/v1/attendance?month=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Error.Details, "month")
}

func TestRouter_RegularizationReview(t *testing.T) {
	s := newTestServer(t)
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	rec, body := s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/regularizations", map[string]interface{}{
		"date":      yesterday,
		"reason":    "Field visit",
		"type":      "OnDuty",
		"from_time": "09:00",
		"to_time":   "18:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	id := dataMap(t, body)["id"].(string)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodPatch, "/api/v1/regularizations/"+id+"/status", map[string]interface{}{"status": "Approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = s.do(t, user.RoleManager, http.MethodPatch, "/api/v1/regularizations/"+id+"/status", map[string]interface{}{"status": "Approved"})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "Approved", dataMap(t, body)["status"])

	rec, _ = s.do(t, user.RoleManager, http.MethodPatch, "/api/v1/regularizations/"+id+"/status", map[string]interface{}{"status": "Rejected"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = s.do(t, user.RoleManager, http.MethodGet, "/api/v1/attendance?date="+yesterday, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list, ok := body.Data.([]interface{})
	require.True(t, ok, "data is %T", body.Data)
	require.Len(t, list, 1)
	assert.Equal(t, 9.0, list[0].(map[string]interface{})["working_hours"])

	rec, body = s.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/regularizations?status=Approved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body.Data, 1)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/regularizations?scope=all", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodDelete, "/api/v1/regularizations/"+id, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_RegularizationMultipart(t *testing.T) {
	s := newTestServer(t)
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("data", fmt.Sprintf(`{"date":%q,"reason":"Worked from home","type":"WorkFromHome","latitude":22.5,"longitude":88.3}`, yesterday)))
	part, err := mw.CreateFormFile("photo", "proof.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/regularizations", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, user.RoleEmployee))

	rec, body := s.serve(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	photoURL, _ := dataMap(t, body)["photo_url"].(string)
	assert.Contains(t, photoURL, "http://localhost/uploads/regularizations/")
}

func TestRouter_PayrollAndAnalysis(t *testing.T) {
	s := newTestServer(t)
	employeeID := s.actors[user.RoleEmployee].EmployeeID

	rec, _ := s.do(t, user.RoleManager, http.MethodGet, "/api/v1/payroll/employees/"+employeeID+"/attendance", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := s.do(t, user.RoleHR, http.MethodGet, "/api/v1/payroll/employees/"+employeeID+"/attendance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := dataMap(t, body)
	assert.Equal(t, "26", detail["attendance_count"])
	assert.Equal(t, 4.0, detail["sundays_count"])
	assert.Equal(t, true, detail["defaulted"])

	now := time.Now().UTC()
	path := fmt.Sprintf("/api/v1/attendance/analysis?month=%d&year=%d", int(now.Month()), now.Year())
	rec, body = s.do(t, user.RoleEmployee, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := dataMap(t, body)
	assert.Equal(t, "default", summary["schedule_source"])
	assert.Equal(t, float64(now.Day()), summary["total_days"])

	rec, _ = s.do(t, user.RoleEmployee, http.MethodGet, path+"&employee_id="+s.actors[user.RoleManager].EmployeeID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/attendance/analysis?month=13&year=2024", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_Holidays(t *testing.T) {
	s := newTestServer(t)
	year := time.Now().UTC().Year()

	rec, body := s.do(t, user.RoleEmployee, http.MethodGet, fmt.Sprintf("/api/v1/holidays?year=%d", year), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body.Data, 4)

	newHoliday := map[string]interface{}{"date": fmt.Sprintf("%d-11-01", year), "name": "Founders Day", "type": "Office"}
	rec, _ = s.do(t, user.RoleEmployee, http.MethodPost, "/api/v1/holidays", newHoliday)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = s.do(t, user.RoleAdmin, http.MethodPost, "/api/v1/holidays", newHoliday)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := dataMap(t, body)["id"].(string)

	rec, _ = s.do(t, user.RoleAdmin, http.MethodPost, "/api/v1/holidays", newHoliday)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, user.RoleHR, http.MethodDelete, "/api/v1/holidays/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, user.RoleHR, http.MethodDelete, "/api/v1/holidays/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
