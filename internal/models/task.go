package models

// TaskStatus is the workflow status of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// TaskPriority ranks task urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// Task is a task as returned by the backend. Overdue is derived server-side,
// which is why mutations always refetch rather than patch locally.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Deadline    string       `json:"deadline,omitempty"`
	Project     *Project     `json:"project,omitempty"`
	Assignees   []User       `json:"assignees,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	Overdue     bool         `json:"overdue,omitempty"`
}

// TaskRequest creates or updates a task.
type TaskRequest struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	Status      TaskStatus   `json:"status,omitempty"`
	Deadline    string       `json:"deadline,omitempty"`
	ProjectID   int64        `json:"projectId,omitempty"`
	Assignees   []int64      `json:"assignees,omitempty"`
}

// TaskStatusRequest changes only the status of a task (assignee path).
type TaskStatusRequest struct {
	Status TaskStatus `json:"status"`
}
