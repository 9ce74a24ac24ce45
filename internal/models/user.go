package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type AutoDeletePolicy string

const (
	AutoDeleteNever    AutoDeletePolicy = "NEVER"
	AutoDeleteOneWeek  AutoDeletePolicy = "ONE_WEEK"
	AutoDeleteTwoWeeks AutoDeletePolicy = "TWO_WEEKS"
	AutoDeleteOneMonth AutoDeletePolicy = "ONE_MONTH"
)

// RetentionDays is the number of days a completed task is kept, or -1 for never.
func (p AutoDeletePolicy) RetentionDays() int {
	switch p {
	case AutoDeleteOneWeek:
		return 7
	case AutoDeleteTwoWeeks:
		return 14
	case AutoDeleteOneMonth:
		return 30
	}
	return -1
}

// AutoDeletePolicyFromDays maps the settings wire values -1/7/14/30.
func AutoDeletePolicyFromDays(days int) (AutoDeletePolicy, bool) {
	switch days {
	case -1:
		return AutoDeleteNever, true
	case 7:
		return AutoDeleteOneWeek, true
	case 14:
		return AutoDeleteTwoWeeks, true
	case 30:
		return AutoDeleteOneMonth, true
	}
	return "", false
}

type User struct {
	ID                        uuid.UUID        `json:"id" gorm:"primaryKey;type:uuid"`
	Email                     string           `json:"email" gorm:"unique;not null"`
	AutoDeleteTasks           AutoDeletePolicy `json:"autoDeleteTasks" gorm:"type:varchar(16);not null;default:'NEVER'"`
	DailyReportIgnoreWeekends bool             `json:"dailyReportIgnoreWeekends" gorm:"not null;default:false"`
	CreatedAt                 time.Time        `json:"createdAt"`
	UpdatedAt                 time.Time        `json:"updatedAt"`

	Lists []List `json:"lists,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		u.ID = id
	}
	if u.AutoDeleteTasks == "" {
		u.AutoDeleteTasks = AutoDeleteNever
	}
	return nil
}

// AllModels is the migration set.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&List{},
		&Tag{},
		&Task{},
		&TaskTag{},
		&RecurringSchedule{},
	}
}
