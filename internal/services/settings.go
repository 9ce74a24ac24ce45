package services

import (
	"context"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"tasklist/backend/internal/models"
	"tasklist/backend/internal/repositories"
)

type Settings struct {
	UserID                    uuid.UUID               `json:"id"`
	Email                     string                  `json:"email"`
	AutoDeleteTasks           models.AutoDeletePolicy `json:"autoDeleteTasks"`
	DailyReportIgnoreWeekends bool                    `json:"dailyReportIgnoreWeekends"`
}

// SettingsUpdate mirrors the settings form. A nil list slice leaves the
// matching list flags alone; an empty one clears them.
type SettingsUpdate struct {
	AutoDeleteDays            int
	DailyReportIgnoreWeekends *bool
	StandupListIDs            []uuid.UUID
	ShowCompletedListIDs      []uuid.UUID
}

// SettingsReader is what the views and the recurrence flow need.
type SettingsReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*Settings, error)
}

type SettingsService struct {
	store  *repositories.Store
	logger *zap.Logger
}

func NewSettingsService(store *repositories.Store, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, logger: logger}
}

func (s *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*Settings, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, storeError("load user", err)
	}
	return settingsFromUser(user), nil
}

func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, upd SettingsUpdate) (*Settings, error) {
	policy, ok := models.AutoDeletePolicyFromDays(upd.AutoDeleteDays)
	if !ok {
		return nil, validationError("autoDeleteTasks must be one of -1, 7, 14, 30")
	}

	fields := map[string]interface{}{"auto_delete_tasks": policy}
	if upd.DailyReportIgnoreWeekends != nil {
		fields["daily_report_ignore_weekends"] = *upd.DailyReportIgnoreWeekends
	}

	var settings *Settings
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		rows, err := tx.Users.UpdateSettings(ctx, userID, fields)
		if err != nil {
			return storeError("update settings", err)
		}
		if rows == 0 {
			return notFoundError("user %s", userID)
		}

		if upd.StandupListIDs != nil {
			if err := tx.Lists.SetStandup(ctx, userID, upd.StandupListIDs); err != nil {
				return storeError("update standup lists", err)
			}
		}
		if upd.ShowCompletedListIDs != nil {
			if err := tx.Lists.SetShowCompleted(ctx, userID, upd.ShowCompletedListIDs); err != nil {
				return storeError("update completed-task lists", err)
			}
		}

		user, err := tx.Users.Get(ctx, userID)
		if err != nil {
			return storeError("load user", err)
		}
		settings = settingsFromUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("settings updated",
		zap.String("user_id", userID.String()),
		zap.String("auto_delete_tasks", string(settings.AutoDeleteTasks)),
		zap.Bool("daily_report_ignore_weekends", settings.DailyReportIgnoreWeekends))
	return settings, nil
}

func settingsFromUser(u *models.User) *Settings {
	return &Settings{
		UserID:                    u.ID,
		Email:                     u.Email,
		AutoDeleteTasks:           u.AutoDeleteTasks,
		DailyReportIgnoreWeekends: u.DailyReportIgnoreWeekends,
	}
}
