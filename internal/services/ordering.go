package services

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/repositories"
)

// OrderKey selects one of the two task positions.
type OrderKey int

const (
	ListView OrderKey = iota + 1
	CombinedView
)

// ParseOrderKey maps the wire field names onto OrderKey.
func ParseOrderKey(field string) (OrderKey, error) {
	switch field {
	case "listViewOrder":
		return ListView, nil
	case "combinedViewOrder":
		return CombinedView, nil
	}
	return 0, validationError("field must be listViewOrder or combinedViewOrder, got %q", field)
}

func (k OrderKey) String() string {
	switch k {
	case ListView:
		return "listViewOrder"
	case CombinedView:
		return "combinedViewOrder"
	}
	return "unknown"
}

func (k OrderKey) column() repositories.OrderColumn {
	if k == CombinedView {
		return repositories.OrderCombinedView
	}
	return repositories.OrderListView
}

// ReorderUpdate moves one task. NewDueDate follows absent/null/value
// semantics; a nil NewListID keeps the task's list.
type ReorderUpdate struct {
	ID         uuid.UUID
	Key        OrderKey
	NewOrder   int
	NewDueDate datemath.OptionalDate
	NewListID  *uuid.UUID
}

type ReorderFailure struct {
	ID      uuid.UUID `json:"id"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

type ReorderResult struct {
	Updated []uuid.UUID      `json:"updated"`
	Failed  []ReorderFailure `json:"failed"`
}

func (r ReorderResult) Success() bool {
	return len(r.Failed) == 0
}

// Orderer applies reorder batches. A batch is best effort: each item is its
// own write, and a failed item neither stops nor undoes the others.
type Orderer struct {
	store  *repositories.Store
	logger *zap.Logger
}

func NewOrderer(store *repositories.Store, logger *zap.Logger) *Orderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orderer{store: store, logger: logger}
}

// Reorder validates the whole batch before writing anything, then applies
// the items in order.
func (o *Orderer) Reorder(ctx context.Context, userID uuid.UUID, updates []ReorderUpdate) (ReorderResult, error) {
	result := ReorderResult{Updated: []uuid.UUID{}, Failed: []ReorderFailure{}}

	for i, u := range updates {
		if u.ID == uuid.Nil {
			return result, validationError("update %d: id is required", i)
		}
		if u.Key != ListView && u.Key != CombinedView {
			return result, validationError("update %d: unknown ordering field", i)
		}
	}

	for _, u := range updates {
		if err := o.apply(ctx, userID, u); err != nil {
			o.logger.Warn("reorder item failed",
				zap.String("task_id", u.ID.String()),
				zap.String("field", u.Key.String()),
				zap.Error(err))
			result.Failed = append(result.Failed, ReorderFailure{
				ID:      u.ID,
				Kind:    Kind(err),
				Message: publicMessage(err),
			})
			continue
		}
		result.Updated = append(result.Updated, u.ID)
	}

	return result, nil
}

func (o *Orderer) apply(ctx context.Context, userID uuid.UUID, u ReorderUpdate) error {
	fields := map[string]interface{}{
		string(u.Key.column()): u.NewOrder,
	}
	if u.NewDueDate.Set {
		fields["due_date"] = u.NewDueDate.Value
	}
	if u.NewListID != nil {
		if _, err := o.store.Lists.GetForUser(ctx, userID, *u.NewListID); err != nil {
			return storeError("load target list", err)
		}
		fields["list_id"] = *u.NewListID
	}

	rows, err := o.store.Tasks.UpdateForUser(ctx, userID, u.ID, fields)
	if err != nil {
		return storeError("reorder task", err)
	}
	if rows == 0 {
		return notFoundError("task %s", u.ID)
	}
	return nil
}

// publicMessage hides store details from API payloads.
func publicMessage(err error) string {
	if errors.Is(err, ErrStore) || !IsKnown(err) {
		return "internal error"
	}
	return err.Error()
}
