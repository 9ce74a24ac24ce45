package models

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Cadence string

const (
	CadenceDaily   Cadence = "DAILY"
	CadenceWeekly  Cadence = "WEEKLY"
	CadenceMonthly Cadence = "MONTHLY"
	CadenceYearly  Cadence = "YEARLY"
)

func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceYearly:
		return true
	}
	return false
}

// ParseCadence is case-insensitive; the second result is false for unknown values.
func ParseCadence(s string) (Cadence, bool) {
	c := Cadence(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// RecurringSchedule points at the single live task of a repeating series.
// Version increases on every relink or cadence change.
type RecurringSchedule struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Cadence   Cadence   `json:"cadence" gorm:"type:varchar(16);not null"`
	TaskID    uuid.UUID `json:"taskId" gorm:"type:uuid;not null;uniqueIndex"`
	Version   int64     `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *RecurringSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		s.ID = id
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
