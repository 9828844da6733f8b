package task

// CreateTaskRequest represents the request to create a task.
// Status defaults to Pending when omitted.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// UpdateTaskRequest represents a partial update. Pointer fields make the
// merge presence-aware: a field absent from the JSON body is left
// unchanged, while a present field is applied even when empty, so a
// client can clear the description with "".
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// WeeklyCompletion is one (year, ISO week) bucket of the analytics report.
type WeeklyCompletion struct {
	Year                 int     `json:"year"`
	WeekNumber           int     `json:"week_number"`
	TotalTasks           int     `json:"total_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// TaskListResponse represents the response containing a list of tasks.
type TaskListResponse struct {
	Tasks     []Task `json:"tasks"`
	Total     int    `json:"total"`
	FromCache bool   `json:"from_cache"`
}
