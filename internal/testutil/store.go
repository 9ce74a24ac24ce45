// Package testutil seeds in-memory stores for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"tasklist/backend/internal/database"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/repositories"
)

// NewStore opens a migrated in-memory sqlite store closed with the test.
func NewStore(t testing.TB) *repositories.Store {
	t.Helper()

	pool, err := database.OpenSQLite(":memory:", logger.Silent, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(pool.DB))
	t.Cleanup(func() { _ = pool.Close() })

	return repositories.NewStore(pool.DB)
}

// Day is UTC midnight of the given calendar day.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DayPtr(y int, m time.Month, d int) *time.Time {
	t := Day(y, m, d)
	return &t
}

func IntPtr(i int) *int {
	return &i
}

// Seeder creates fixtures through the store's repositories.
type Seeder struct {
	t     testing.TB
	store *repositories.Store
	ctx   context.Context
	clock time.Time
}

func NewSeeder(t testing.TB, store *repositories.Store) *Seeder {
	return &Seeder{t: t, store: store, ctx: context.Background(), clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (s *Seeder) User(policy models.AutoDeletePolicy, ignoreWeekends bool) *models.User {
	s.t.Helper()
	u := &models.User{
		Email:                     uuid.Must(uuid.NewV4()).String() + "@example.com",
		AutoDeleteTasks:           policy,
		DailyReportIgnoreWeekends: ignoreWeekends,
	}
	require.NoError(s.t, s.store.Users.Create(s.ctx, u))
	return u
}

func (s *Seeder) List(userID uuid.UUID, name string, standup bool) *models.List {
	s.t.Helper()
	l := &models.List{UserID: userID, ListName: name, IsStandupList: standup}
	require.NoError(s.t, s.store.Lists.Create(s.ctx, l))
	return l
}

func (s *Seeder) Tag(userID uuid.UUID, name string) *models.Tag {
	s.t.Helper()
	tag := &models.Tag{UserID: userID, TagName: name, TagColor: "#999999"}
	require.NoError(s.t, s.store.Tags.Create(s.ctx, tag))
	return tag
}

// TaskOpt adjusts a task before it is inserted.
type TaskOpt func(*models.Task)

func Due(d time.Time) TaskOpt {
	return func(t *models.Task) { t.DueDate = &d }
}

func CompletedOn(d time.Time) TaskOpt {
	return func(t *models.Task) {
		t.IsCompleted = true
		t.DateCompleted = &d
	}
}

func ListOrder(n int) TaskOpt {
	return func(t *models.Task) { t.ListViewOrder = &n }
}

func CombinedOrder(n int) TaskOpt {
	return func(t *models.Task) { t.CombinedViewOrder = &n }
}

// Task inserts a task; creation times increase monotonically so ordering
// ties are deterministic.
func (s *Seeder) Task(listID uuid.UUID, name string, opts ...TaskOpt) *models.Task {
	s.t.Helper()
	s.clock = s.clock.Add(time.Second)
	task := &models.Task{TaskName: name, ListID: listID, CreatedAt: s.clock, UpdatedAt: s.clock}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(s.t, s.store.Tasks.Create(s.ctx, task))
	return task
}

func (s *Seeder) TagTask(taskID uuid.UUID, tagIDs ...uuid.UUID) {
	s.t.Helper()
	require.NoError(s.t, s.store.Tags.Attach(s.ctx, taskID, tagIDs))
}

func (s *Seeder) Schedule(taskID uuid.UUID, cadence models.Cadence) *models.RecurringSchedule {
	s.t.Helper()
	rs := &models.RecurringSchedule{TaskID: taskID, Cadence: cadence}
	require.NoError(s.t, s.store.Schedules.Create(s.ctx, rs))
	return rs
}
