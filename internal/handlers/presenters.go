package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid"

	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/services"
)

type scheduleResp struct {
	ID      uuid.UUID      `json:"id"`
	Cadence models.Cadence `json:"cadence"`
}

type taskResp struct {
	ID                uuid.UUID           `json:"id"`
	TaskName          string              `json:"taskName"`
	DueDate           *string             `json:"dueDate"`
	IsCompleted       bool                `json:"isCompleted"`
	DateCompleted     *string             `json:"dateCompleted"`
	ListID            uuid.UUID           `json:"listId"`
	ListName          string              `json:"listName,omitempty"`
	ListViewOrder     *int                `json:"listViewOrder"`
	CombinedViewOrder *int                `json:"combinedViewOrder"`
	Tags              []services.TagLabel `json:"tags"`
	RecurringSchedule *scheduleResp       `json:"recurringSchedule"`
	CreatedAt         time.Time           `json:"createdAt"`
}

func newTaskResp(v services.TaskView) taskResp {
	t := v.Task
	resp := taskResp{
		ID:                t.ID,
		TaskName:          t.TaskName,
		DueDate:           datemath.FormatPtr(t.DueDate),
		IsCompleted:       t.IsCompleted,
		DateCompleted:     datemath.FormatPtr(t.DateCompleted),
		ListID:            t.ListID,
		ListViewOrder:     t.ListViewOrder,
		CombinedViewOrder: t.CombinedViewOrder,
		Tags:              v.Tags,
		CreatedAt:         t.CreatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []services.TagLabel{}
	}
	if t.List != nil {
		resp.ListName = t.List.ListName
	}
	if t.RecurringSchedule != nil {
		resp.RecurringSchedule = &scheduleResp{ID: t.RecurringSchedule.ID, Cadence: t.RecurringSchedule.Cadence}
	}
	return resp
}

func newTaskRespFromModel(t *models.Task) taskResp {
	return newTaskResp(services.NewTaskView(*t))
}

func newTaskResps(views []services.TaskView) []taskResp {
	out := make([]taskResp, 0, len(views))
	for _, v := range views {
		out = append(out, newTaskResp(v))
	}
	return out
}

type scheduleReq struct {
	Cadence string `json:"cadence"`
}

func (r *scheduleReq) toInput() *services.ScheduleInput {
	if r == nil {
		return nil
	}
	return &services.ScheduleInput{Cadence: r.Cadence}
}

type createTaskReq struct {
	TaskName          string                `json:"taskName"`
	ListID            uuid.UUID             `json:"listId"`
	DueDate           datemath.OptionalDate `json:"dueDate"`
	TagIDs            []uuid.UUID           `json:"tagIds"`
	RecurringSchedule *scheduleReq          `json:"recurringSchedule"`
}

func (r createTaskReq) toInput() services.NewTask {
	return services.NewTask{
		TaskName:          r.TaskName,
		ListID:            r.ListID,
		DueDate:           r.DueDate.Value,
		TagIDs:            r.TagIDs,
		RecurringSchedule: r.RecurringSchedule.toInput(),
	}
}

// updateTaskReq leaves absent fields untouched. recurringSchedule is the
// exception: absent or null removes the task's schedule.
type updateTaskReq struct {
	TaskName          *string               `json:"taskName"`
	DueDate           datemath.OptionalDate `json:"dueDate"`
	IsCompleted       *bool                 `json:"isCompleted"`
	DateCompleted     datemath.OptionalDate `json:"dateCompleted"`
	ListID            *uuid.UUID            `json:"listId"`
	TagIDs            []uuid.UUID           `json:"tagIds"`
	RecurringSchedule *scheduleReq          `json:"recurringSchedule"`
}

func (r updateTaskReq) toInput() services.TaskPatch {
	return services.TaskPatch{
		TaskName:          r.TaskName,
		DueDate:           r.DueDate,
		IsCompleted:       r.IsCompleted,
		DateCompleted:     r.DateCompleted,
		ListID:            r.ListID,
		TagIDs:            r.TagIDs,
		RecurringSchedule: r.RecurringSchedule.toInput(),
	}
}

type updateTaskResp struct {
	Task      taskResp  `json:"task"`
	Successor *taskResp `json:"successor"`
}

func newUpdateTaskResp(r *services.TaskResult) updateTaskResp {
	resp := updateTaskResp{Task: newTaskRespFromModel(r.Task)}
	if r.Successor != nil {
		s := newTaskRespFromModel(r.Successor)
		resp.Successor = &s
	}
	return resp
}

type reorderItem struct {
	ID            uuid.UUID             `json:"id"`
	FieldToUpdate string                `json:"fieldToUpdate"`
	NewOrder      *int                  `json:"newOrder"`
	NewDueDate    datemath.OptionalDate `json:"newDueDate"`
	NewListID     *uuid.UUID            `json:"newListId"`
}

type reorderReq struct {
	TasksToUpdate []reorderItem `json:"tasksToUpdate" binding:"required"`
}

func (r reorderReq) toInput() ([]services.ReorderUpdate, error) {
	updates := make([]services.ReorderUpdate, 0, len(r.TasksToUpdate))
	for i, item := range r.TasksToUpdate {
		field := item.FieldToUpdate
		if field == "" {
			field = services.ListView.String()
		}
		key, err := services.ParseOrderKey(field)
		if err != nil {
			return nil, fmt.Errorf("tasksToUpdate[%d]: %w", i, err)
		}
		if item.ID == uuid.Nil || item.NewOrder == nil {
			return nil, fmt.Errorf("%w: tasksToUpdate[%d]: id and newOrder are required", services.ErrValidation, i)
		}
		updates = append(updates, services.ReorderUpdate{
			ID:         item.ID,
			Key:        key,
			NewOrder:   *item.NewOrder,
			NewDueDate: item.NewDueDate,
			NewListID:  item.NewListID,
		})
	}
	return updates, nil
}

type reorderResp struct {
	Success bool                      `json:"success"`
	Updated []uuid.UUID               `json:"updated"`
	Failed  []services.ReorderFailure `json:"failed"`
}

func newReorderResp(r services.ReorderResult) reorderResp {
	return reorderResp{Success: r.Success(), Updated: r.Updated, Failed: r.Failed}
}

type standupResp struct {
	Today     []taskResp `json:"today"`
	Yesterday []taskResp `json:"yesterday"`
	Blocked   []taskResp `json:"blocked"`
}

func newStandupResp(v *services.StandupView) standupResp {
	return standupResp{
		Today:     newTaskResps(v.Today),
		Yesterday: newTaskResps(v.Yesterday),
		Blocked:   newTaskResps(v.Blocked),
	}
}

// retentionDays accepts the settings value as a JSON number or string.
type retentionDays struct {
	Value int
}

func (d *retentionDays) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("autoDeleteTasks: %q is not a number", s)
		}
		d.Value = n
		return nil
	}
	return json.Unmarshal(data, &d.Value)
}

type settingsReq struct {
	AutoDeleteTasks              *retentionDays `json:"autoDeleteTasks"`
	DailyReportIgnoreWeekends    *bool          `json:"dailyReportIgnoreWeekends"`
	StandupListIDs               []uuid.UUID    `json:"standupListIds"`
	ListsToShowCompletedTasksFor []uuid.UUID    `json:"listsToShowCompletedTasksFor"`
}

func (r settingsReq) toInput() (services.SettingsUpdate, error) {
	if r.AutoDeleteTasks == nil {
		return services.SettingsUpdate{}, fmt.Errorf("%w: autoDeleteTasks is required", services.ErrValidation)
	}
	return services.SettingsUpdate{
		AutoDeleteDays:            r.AutoDeleteTasks.Value,
		DailyReportIgnoreWeekends: r.DailyReportIgnoreWeekends,
		StandupListIDs:            r.StandupListIDs,
		ShowCompletedListIDs:      r.ListsToShowCompletedTasksFor,
	}, nil
}

// settingsResp renders autoDeleteTasks as the day count string the
// settings form uses.
type settingsResp struct {
	ID                        uuid.UUID `json:"id"`
	Email                     string    `json:"email"`
	AutoDeleteTasks           string    `json:"autoDeleteTasks"`
	DailyReportIgnoreWeekends bool      `json:"dailyReportIgnoreWeekends"`
}

func newSettingsResp(s *services.Settings) settingsResp {
	return settingsResp{
		ID:                        s.UserID,
		Email:                     s.Email,
		AutoDeleteTasks:           strconv.Itoa(s.AutoDeleteTasks.RetentionDays()),
		DailyReportIgnoreWeekends: s.DailyReportIgnoreWeekends,
	}
}
