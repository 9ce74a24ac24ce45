package services

import (
	"time"

	"github.com/gofrs/uuid"

	"tasklist/backend/internal/models"
)

type TagKind string

const (
	TagKindUser    TagKind = "user"
	TagKindOverdue TagKind = "overdue"
)

const (
	OverdueTagName  = "Overdue"
	OverdueTagColor = "#DC2626"
)

// TagLabel is a tag as shown on a task view. Synthetic labels have no ID.
type TagLabel struct {
	ID    *uuid.UUID `json:"id"`
	Name  string     `json:"tagName"`
	Color string     `json:"tagColor"`
	Kind  TagKind    `json:"kind"`
}

type TaskView struct {
	Task models.Task
	Tags []TagLabel
}

func overdueLabel() TagLabel {
	return TagLabel{Name: OverdueTagName, Color: OverdueTagColor, Kind: TagKindOverdue}
}

func NewTaskView(task models.Task) TaskView {
	tags := task.Tags()
	labels := make([]TagLabel, 0, len(tags))
	for i := range tags {
		id := tags[i].ID
		labels = append(labels, TagLabel{ID: &id, Name: tags[i].TagName, Color: tags[i].TagColor, Kind: TagKindUser})
	}
	return TaskView{Task: task, Tags: labels}
}

func NewTaskViews(tasks []models.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskView(t))
	}
	return views
}

// TagOverdue returns a copy of views where every task due strictly before
// ref carries the overdue label. The input is never modified; a nil ref
// returns the input as is.
func TagOverdue(views []TaskView, ref *time.Time) []TaskView {
	if ref == nil {
		return views
	}

	out := make([]TaskView, len(views))
	for i, v := range views {
		tags := make([]TagLabel, len(v.Tags), len(v.Tags)+1)
		copy(tags, v.Tags)
		if v.Task.DueDate != nil && v.Task.DueDate.Before(*ref) {
			tags = append(tags, overdueLabel())
		}
		out[i] = TaskView{Task: v.Task, Tags: tags}
	}
	return out
}
