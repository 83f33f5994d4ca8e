package models

// TasksSummary is the aggregate task analytics view.
type TasksSummary struct {
	TotalTasks         int                  `json:"totalTasks"`
	TasksByStatus      map[TaskStatus]int   `json:"tasksByStatus"`
	TasksByPriority    map[TaskPriority]int `json:"tasksByPriority"`
	OverdueTasks       int                  `json:"overdueTasks"`
	CompletedThisWeek  int                  `json:"completedThisWeek"`
	CompletedThisMonth int                  `json:"completedThisMonth"`
}
