package services

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/repositories"
)

// StandupView is the daily report: what is due, what got done since the
// previous working day, and what is blocked.
type StandupView struct {
	Today     []TaskView
	Yesterday []TaskView
	Blocked   []TaskView
}

// Categorizer builds the read views. Every date-dependent view is anchored
// on the caller's calendar day; the server clock is never consulted.
type Categorizer struct {
	store    *repositories.Store
	settings SettingsReader
}

func NewCategorizer(store *repositories.Store, settings SettingsReader) *Categorizer {
	return &Categorizer{store: store, settings: settings}
}

func parseClientDate(clientDate string) (time.Time, error) {
	day, err := datemath.Parse(clientDate)
	if err != nil {
		return time.Time{}, validationError("client date: %v", err)
	}
	return day, nil
}

// StandupWindow returns the inclusive completion window for the "yesterday"
// section. On a Monday with weekends ignored it reaches back to Friday.
func StandupWindow(today time.Time, ignoreWeekends bool) (start, end time.Time) {
	end = datemath.Truncate(today)
	back := -1
	if ignoreWeekends && end.Weekday() == time.Monday {
		back = -3
	}
	return datemath.AddDays(end, back), end
}

// Today returns open tasks due on or before the client day, in list order,
// with overdue tasks labelled.
func (c *Categorizer) Today(ctx context.Context, userID uuid.UUID, clientDate string) ([]TaskView, error) {
	day, err := parseClientDate(clientDate)
	if err != nil {
		return nil, err
	}
	tomorrow := datemath.AddDays(day, 1)
	open := false

	tasks, err := c.store.Tasks.Find(ctx, repositories.TaskQuery{
		UserID:    userID,
		Completed: &open,
		DueBefore: &tomorrow,
		OrderBy:   repositories.OrderListView,
	})
	if err != nil {
		return nil, storeError("list today tasks", err)
	}
	return TagOverdue(NewTaskViews(tasks), &day), nil
}

// Upcoming returns open tasks due after the client day, in combined order.
func (c *Categorizer) Upcoming(ctx context.Context, userID uuid.UUID, clientDate string) ([]TaskView, error) {
	day, err := parseClientDate(clientDate)
	if err != nil {
		return nil, err
	}
	tomorrow := datemath.AddDays(day, 1)
	open := false

	tasks, err := c.store.Tasks.Find(ctx, repositories.TaskQuery{
		UserID:    userID,
		Completed: &open,
		DueFrom:   &tomorrow,
		OrderBy:   repositories.OrderCombinedView,
	})
	if err != nil {
		return nil, storeError("list upcoming tasks", err)
	}
	return NewTaskViews(tasks), nil
}

func (c *Categorizer) Completed(ctx context.Context, userID uuid.UUID) ([]TaskView, error) {
	done := true
	tasks, err := c.store.Tasks.Find(ctx, repositories.TaskQuery{
		UserID:    userID,
		Completed: &done,
		OrderBy:   repositories.OrderCombinedView,
	})
	if err != nil {
		return nil, storeError("list completed tasks", err)
	}
	return NewTaskViews(tasks), nil
}

// ByList returns the open tasks of one of the user's lists in list order.
func (c *Categorizer) ByList(ctx context.Context, userID, listID uuid.UUID) ([]TaskView, error) {
	if _, err := c.store.Lists.GetForUser(ctx, userID, listID); err != nil {
		return nil, storeError("load list", err)
	}

	open := false
	tasks, err := c.store.Tasks.Find(ctx, repositories.TaskQuery{
		UserID:    userID,
		ListID:    &listID,
		Completed: &open,
		OrderBy:   repositories.OrderListView,
	})
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	return NewTaskViews(tasks), nil
}

// Standup builds the three report sections, all limited to standup lists.
func (c *Categorizer) Standup(ctx context.Context, userID uuid.UUID, clientDate string) (*StandupView, error) {
	day, err := parseClientDate(clientDate)
	if err != nil {
		return nil, err
	}

	settings, err := c.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	tomorrow := datemath.AddDays(day, 1)
	start, end := StandupWindow(day, settings.DailyReportIgnoreWeekends)
	open, done := false, true

	today, err := c.store.Tasks.Find(ctx, repositories.TaskQuery{
		UserID:      userID,
		Completed:   &open,
		DueBefore:   &tomorrow,
		StandupOnly: true,
		OrderBy:     repositories.OrderCombinedView,
	})
	if err != nil {
		return nil, storeError("list standup today", err)
	}

	yesterday, err := c.store.Tasks.Find(ctx, repositories.TaskQuery{
		UserID:        userID,
		Completed:     &done,
		CompletedFrom: &start,
		CompletedTo:   &end,
		StandupOnly:   true,
		OrderBy:       repositories.OrderCombinedView,
	})
	if err != nil {
		return nil, storeError("list standup yesterday", err)
	}

	blocked, err := c.store.Tasks.Find(ctx, repositories.TaskQuery{
		UserID:      userID,
		Completed:   &open,
		StandupOnly: true,
		BlockedOnly: true,
		OrderBy:     repositories.OrderCombinedView,
	})
	if err != nil {
		return nil, storeError("list standup blocked", err)
	}

	return &StandupView{
		Today:     TagOverdue(NewTaskViews(today), &day),
		Yesterday: NewTaskViews(yesterday),
		Blocked:   NewTaskViews(blocked),
	}, nil
}
