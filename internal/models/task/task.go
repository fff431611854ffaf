package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"id" db:"uuid"`
	UserID      uuid.UUID  `json:"userId" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	Labels      []Label    `json:"labels" db:"-"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

// Label живёт только внутри своей задачи, имя уникально в рамках задачи.
type Label struct {
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const StatusOpen Status = "OPEN"
const StatusInProgress Status = "IN_PROGRESS"
const StatusDone Status = "DONE"

// statusOrder задаёт порядок OPEN < IN_PROGRESS < DONE.
var statusOrder = map[Status]int{
	StatusOpen:       0,
	StatusInProgress: 1,
	StatusDone:       2,
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransitionTo разрешает переход только вперёд или на месте.
func (s Status) CanTransitionTo(next Status) bool {
	return statusOrder[next] >= statusOrder[s]
}

func (t *Task) HasLabel(name string) bool {
	for _, l := range t.Labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

func (t *Task) LabelNames() []string {
	names := make([]string, len(t.Labels))
	for i, l := range t.Labels {
		names[i] = l.Name
	}
	return names
}
