package models_test

import (
	"testing"

	"tasklist/backend/internal/models"

	"github.com/gofrs/uuid"
)

func TestParseCadence(t *testing.T) {
	tests := []struct {
		input string
		want  models.Cadence
		ok    bool
	}{
		{"DAILY", models.CadenceDaily, true},
		{"weekly", models.CadenceWeekly, true},
		{" Monthly ", models.CadenceMonthly, true},
		{"YEARLY", models.CadenceYearly, true},
		{"HOURLY", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := models.ParseCadence(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseCadence(%q): expected ok=%v, got %v", tt.input, tt.ok, ok)
		}
		if ok && got != tt.want {
			t.Errorf("ParseCadence(%q): expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestAutoDeletePolicy_RoundTrip(t *testing.T) {
	for _, days := range []int{-1, 7, 14, 30} {
		policy, ok := models.AutoDeletePolicyFromDays(days)
		if !ok {
			t.Fatalf("expected %d to be accepted", days)
		}
		if policy.RetentionDays() != days {
			t.Errorf("expected %d days, got %d", days, policy.RetentionDays())
		}
	}

	if _, ok := models.AutoDeletePolicyFromDays(3); ok {
		t.Error("expected 3 to be rejected")
	}
}

func TestTask_TagsSkipsUnloaded(t *testing.T) {
	task := models.Task{
		ID: uuid.Must(uuid.NewV4()),
		TaskTags: []models.TaskTag{
			{TagID: uuid.Must(uuid.NewV4()), Tag: &models.Tag{TagName: "Blocked"}},
			{TagID: uuid.Must(uuid.NewV4())},
		},
	}

	if len(task.Tags()) != 1 {
		t.Errorf("expected 1 loaded tag, got %d", len(task.Tags()))
	}
	if task.Tags()[0].TagName != "Blocked" {
		t.Errorf("expected the loaded tag, got %q", task.Tags()[0].TagName)
	}
}

func TestBeforeCreate_AssignsIDs(t *testing.T) {
	task := &models.Task{}
	if err := task.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID == uuid.Nil {
		t.Error("expected task id to be assigned")
	}

	existing := uuid.Must(uuid.NewV4())
	list := &models.List{ID: existing}
	if err := list.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.ID != existing {
		t.Error("expected existing id to be kept")
	}

	schedule := &models.RecurringSchedule{}
	if err := schedule.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule.Version != 1 {
		t.Errorf("expected version 1, got %d", schedule.Version)
	}

	user := &models.User{}
	if err := user.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.AutoDeleteTasks != models.AutoDeleteNever {
		t.Errorf("expected NEVER default, got %s", user.AutoDeleteTasks)
	}
}
