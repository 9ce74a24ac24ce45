package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"tasklist/backend/internal/cache"
	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/handlers"
	"tasklist/backend/internal/middleware"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/monitoring"
	"tasklist/backend/internal/repositories"
	"tasklist/backend/internal/services"
	"tasklist/backend/internal/testutil"
)

const testSecret = "handler-test-secret"

type HandlerTestSuite struct {
	suite.Suite
	store   *repositories.Store
	seed    *testutil.Seeder
	monitor *monitoring.Monitor
	router  *gin.Engine

	user  *models.User
	list  *models.List
	token string
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.store = testutil.NewStore(suite.T())
	suite.seed = testutil.NewSeeder(suite.T(), suite.store)
	suite.monitor = monitoring.NewMonitor()

	clock := datemath.FixedClock(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	settings := services.NewCachedSettingsService(services.NewSettingsService(suite.store, nil), cache.NewMultiLevelCache(nil), nil)
	recurring := services.NewRecurringEngine(suite.store, nil)
	tasks := services.NewTaskService(suite.store, recurring, settings, clock, nil)
	views := services.NewCategorizer(suite.store, settings)
	orderer := services.NewOrderer(suite.store, nil)
	sweeper := suite.monitor.ObserveSweeper(services.NewSweeper(suite.store, clock, nil))

	suite.router = handlers.NewRouter(handlers.RouterConfig{
		Tasks:    handlers.NewTaskHandler(tasks, views, orderer, nil),
		Settings: handlers.NewSettingsHandler(settings, nil),
		Admin:    handlers.NewAdminHandler(sweeper, nil),
		Monitor:  suite.monitor,
		Auth:     middleware.AuthzConfig{Secret: testSecret},
	})

	suite.user = suite.seed.User(models.AutoDeleteOneWeek, true)
	suite.list = suite.seed.List(suite.user.ID, "Work", true)
	suite.token = suite.tokenFor(suite.user.ID, "user")
}

func (suite *HandlerTestSuite) tokenFor(userID uuid.UUID, role string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	suite.Require().NoError(err)
	return token
}

func (suite *HandlerTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	return suite.doAs(suite.token, method, path, body)
}

func (suite *HandlerTestSuite) doAs(token, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type taskBody struct {
	ID            uuid.UUID `json:"id"`
	TaskName      string    `json:"taskName"`
	DueDate       *string   `json:"dueDate"`
	IsCompleted   bool      `json:"isCompleted"`
	DateCompleted *string   `json:"dateCompleted"`
	ListID        uuid.UUID `json:"listId"`
	ListViewOrder *int      `json:"listViewOrder"`
	Tags          []struct {
		ID      *uuid.UUID `json:"id"`
		TagName string     `json:"tagName"`
		Kind    string     `json:"kind"`
	} `json:"tags"`
	RecurringSchedule *struct {
		Cadence string `json:"cadence"`
	} `json:"recurringSchedule"`
}

func (suite *HandlerTestSuite) TestRequiresAuthentication() {
	w := suite.doAs("", http.MethodGet, "/tasks/today?today=2024-03-20", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.doAs("", http.MethodGet, "/health/live", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestCreateGetAndDeleteTask() {
	w := suite.do(http.MethodPost, "/tasks", map[string]interface{}{
		"taskName":          "Write report",
		"listId":            suite.list.ID,
		"dueDate":           "2024-03-21",
		"recurringSchedule": map[string]string{"cadence": "WEEKLY"},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created taskBody
	suite.decode(w, &created)
	suite.Equal("Write report", created.TaskName)
	suite.Require().NotNil(created.DueDate)
	suite.Equal("2024-03-21", *created.DueDate)
	suite.Nil(created.ListViewOrder)
	suite.NotNil(created.Tags)
	suite.Require().NotNil(created.RecurringSchedule)
	suite.Equal("WEEKLY", created.RecurringSchedule.Cadence)

	w = suite.do(http.MethodGet, "/tasks/"+created.ID.String(), nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodDelete, "/tasks/"+created.ID.String(), nil)
	suite.Equal(http.StatusConflict, w.Code, "scheduled tasks cannot be deleted")

	stranger := suite.seed.User(models.AutoDeleteNever, false)
	w = suite.doAs(suite.tokenFor(stranger.ID, "user"), http.MethodGet, "/tasks/"+created.ID.String(), nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, "/tasks/not-a-uuid", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCreateTask_Validation() {
	w := suite.do(http.MethodPost, "/tasks", map[string]interface{}{"listId": suite.list.ID})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/tasks", `{"taskName":"x","listId":"`+suite.list.ID.String()+`","dueDate":"tomorrow"}`)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/tasks", map[string]interface{}{"taskName": "x", "listId": uuid.Must(uuid.NewV4())})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestCompleteRecurringTaskReturnsSuccessor() {
	task := suite.seed.Task(suite.list.ID, "Daily sync", testutil.Due(testutil.Day(2024, 3, 15)))
	suite.seed.Schedule(task.ID, models.CadenceDaily)

	w := suite.do(http.MethodPut, "/tasks/"+task.ID.String(), map[string]interface{}{
		"taskName":          "Daily sync",
		"isCompleted":       true,
		"recurringSchedule": map[string]string{"cadence": "DAILY"},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Task      taskBody  `json:"task"`
		Successor *taskBody `json:"successor"`
	}
	suite.decode(w, &body)
	suite.True(body.Task.IsCompleted)
	suite.Require().NotNil(body.Task.DateCompleted)
	suite.Equal("2024-03-20", *body.Task.DateCompleted)
	suite.Require().NotNil(body.Successor)
	suite.Require().NotNil(body.Successor.DueDate)
	suite.Equal("2024-03-18", *body.Successor.DueDate, "Friday rolls to Monday on a standup list")
	suite.False(body.Successor.IsCompleted)
}

func (suite *HandlerTestSuite) TestUpdateTask_RequiresNameOrDueDate() {
	task := suite.seed.Task(suite.list.ID, "Something")
	w := suite.do(http.MethodPut, "/tasks/"+task.ID.String(), map[string]interface{}{"isCompleted": true})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestTodayAndStandupViews() {
	late := suite.seed.Task(suite.list.ID, "late", testutil.Due(testutil.Day(2024, 3, 18)))
	blocked := suite.seed.Tag(suite.user.ID, "blocked")
	suite.seed.TagTask(late.ID, blocked.ID)
	suite.seed.Task(suite.list.ID, "done friday", testutil.CompletedOn(testutil.Day(2024, 3, 15)))

	w := suite.do(http.MethodGet, "/tasks/today?today=2024-03-20", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var today []taskBody
	suite.decode(w, &today)
	suite.Require().Len(today, 1)
	suite.Require().Len(today[0].Tags, 2)
	suite.Equal("overdue", today[0].Tags[1].Kind)
	suite.Nil(today[0].Tags[1].ID)

	w = suite.do(http.MethodGet, "/tasks/today", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/tasks/standup?today=2024-03-18", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var standup struct {
		Today     []taskBody `json:"today"`
		Yesterday []taskBody `json:"yesterday"`
		Blocked   []taskBody `json:"blocked"`
	}
	suite.decode(w, &standup)
	suite.Len(standup.Today, 1)
	suite.Len(standup.Yesterday, 1, "Monday reaches back to Friday")
	suite.Len(standup.Blocked, 1)

	w = suite.do(http.MethodGet, "/lists/"+suite.list.ID.String()+"/tasks", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var byList []taskBody
	suite.decode(w, &byList)
	suite.Len(byList, 1)
}

func (suite *HandlerTestSuite) TestReorder() {
	a := suite.seed.Task(suite.list.ID, "a", testutil.Due(testutil.Day(2024, 3, 19)))
	b := suite.seed.Task(suite.list.ID, "b")

	w := suite.do(http.MethodPut, "/tasks/reorder", map[string]interface{}{
		"tasksToUpdate": []map[string]interface{}{
			{"id": a.ID, "newOrder": 1},
			{"id": b.ID, "newOrder": 0, "newDueDate": "2024-03-22", "fieldToUpdate": "combinedViewOrder"},
			{"id": uuid.Must(uuid.NewV4()), "newOrder": 2},
		},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success bool        `json:"success"`
		Updated []uuid.UUID `json:"updated"`
		Failed  []struct {
			Kind string `json:"kind"`
		} `json:"failed"`
	}
	suite.decode(w, &body)
	suite.False(body.Success)
	suite.Equal([]uuid.UUID{a.ID, b.ID}, body.Updated)
	suite.Require().Len(body.Failed, 1)
	suite.Equal("not_found", body.Failed[0].Kind)

	got, err := suite.store.Tasks.GetForUser(context.Background(), suite.user.ID, a.ID)
	suite.Require().NoError(err)
	suite.Equal("2024-03-19", datemath.Format(got.DueDate), "absent newDueDate leaves the date alone")
	suite.Require().NotNil(got.ListViewOrder)
	suite.Equal(1, *got.ListViewOrder)

	w = suite.do(http.MethodPut, "/tasks/reorder", map[string]interface{}{
		"tasksToUpdate": []map[string]interface{}{{"id": a.ID, "newOrder": 1, "fieldToUpdate": "taskName"}},
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteCompleted() {
	suite.seed.Task(suite.list.ID, "done", testutil.CompletedOn(testutil.Day(2024, 3, 1)))
	suite.seed.Task(suite.list.ID, "open")

	w := suite.do(http.MethodDelete, "/tasks/completed", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"deleted":1}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestSettings() {
	w := suite.do(http.MethodGet, "/settings", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var got map[string]interface{}
	suite.decode(w, &got)
	suite.Equal("7", got["autoDeleteTasks"])
	suite.Equal(true, got["dailyReportIgnoreWeekends"])

	w = suite.do(http.MethodPut, "/settings", map[string]interface{}{
		"autoDeleteTasks":           "14",
		"dailyReportIgnoreWeekends": false,
		"standupListIds":            []uuid.UUID{},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &got)
	suite.Equal("14", got["autoDeleteTasks"])
	suite.Equal(false, got["dailyReportIgnoreWeekends"])

	w = suite.do(http.MethodGet, "/settings", nil)
	suite.decode(w, &got)
	suite.Equal("14", got["autoDeleteTasks"], "cache is invalidated on update")

	w = suite.do(http.MethodPut, "/settings", map[string]interface{}{"autoDeleteTasks": 30})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPut, "/settings", map[string]interface{}{"autoDeleteTasks": 5})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/settings", map[string]interface{}{})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestAdminSweep() {
	suite.seed.Task(suite.list.ID, "old", testutil.CompletedOn(testutil.Day(2024, 3, 1)))

	w := suite.do(http.MethodPost, "/admin/sweep", nil)
	suite.Equal(http.StatusForbidden, w.Code)

	admin := suite.tokenFor(suite.user.ID, "admin")
	w = suite.doAs(admin, http.MethodPost, "/admin/sweep", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var report services.SweepReport
	suite.decode(w, &report)
	suite.True(report.DryRun)
	suite.Equal(int64(0), report.Deleted)

	w = suite.doAs(admin, http.MethodPost, "/admin/sweep?dryRun=false", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &report)
	suite.Equal(int64(1), report.Deleted)
	suite.Equal(int64(2), suite.monitor.GetMetrics().Sweeps.Runs)

	w = suite.doAs(admin, http.MethodPost, "/admin/sweep?dryRun=maybe", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
