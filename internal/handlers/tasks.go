package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"tasklist/backend/internal/middleware"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/services"
)

type TaskService interface {
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	CreateTask(ctx context.Context, userID uuid.UUID, in services.NewTask) (*models.Task, error)
	CompleteOrUpdateTask(ctx context.Context, userID, taskID uuid.UUID, patch services.TaskPatch) (*services.TaskResult, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	DeleteCompleted(ctx context.Context, userID uuid.UUID) (int64, error)
}

type TaskViews interface {
	Today(ctx context.Context, userID uuid.UUID, clientDate string) ([]services.TaskView, error)
	Upcoming(ctx context.Context, userID uuid.UUID, clientDate string) ([]services.TaskView, error)
	Completed(ctx context.Context, userID uuid.UUID) ([]services.TaskView, error)
	Standup(ctx context.Context, userID uuid.UUID, clientDate string) (*services.StandupView, error)
	ByList(ctx context.Context, userID, listID uuid.UUID) ([]services.TaskView, error)
}

type Reorderer interface {
	Reorder(ctx context.Context, userID uuid.UUID, updates []services.ReorderUpdate) (services.ReorderResult, error)
}

type TaskHandler struct {
	tasks   TaskService
	views   TaskViews
	orderer Reorderer
	logger  *zap.Logger
}

func NewTaskHandler(tasks TaskService, views TaskViews, orderer Reorderer, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{tasks: tasks, views: views, orderer: orderer, logger: logger}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return userID, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "kind": services.Kind(services.ErrValidation)})
		return uuid.Nil, false
	}
	return id, true
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskRespFromModel(task))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskRespFromModel(task))
}

// UpdateTask completes or edits a task. Completing a recurring task also
// returns the generated successor.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.tasks.CompleteOrUpdateTask(c.Request.Context(), userID, taskID, req.toInput())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newUpdateTaskResp(result))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) ListToday(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.views.Today(c.Request.Context(), userID, c.Query("today"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResps(views))
}

func (h *TaskHandler) ListUpcoming(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.views.Upcoming(c.Request.Context(), userID, c.Query("today"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResps(views))
}

func (h *TaskHandler) ListCompleted(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.views.Completed(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResps(views))
}

func (h *TaskHandler) DeleteCompleted(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	deleted, err := h.tasks.DeleteCompleted(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *TaskHandler) ListStandup(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.views.Standup(c.Request.Context(), userID, c.Query("today"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newStandupResp(view))
}

func (h *TaskHandler) ListByList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}

	views, err := h.views.ByList(c.Request.Context(), userID, listID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResps(views))
}

// Reorder applies a best-effort batch. Item failures are reported in the
// body with a 200; only a malformed batch is rejected outright.
func (h *TaskHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updates, err := req.toInput()
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	result, err := h.orderer.Reorder(c.Request.Context(), userID, updates)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newReorderResp(result))
}
