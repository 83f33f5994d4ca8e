package models

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "PLANNING"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
	ProjectOnHold     ProjectStatus = "ON_HOLD"
)

// Project is a project as returned by the backend.
type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status,omitempty"`
	OwnerID     int64         `json:"ownerId,omitempty"`
	Owner       *User         `json:"owner,omitempty"`
	Members     []User        `json:"members,omitempty"`
	StartDate   string        `json:"startDate,omitempty"`
	EndDate     string        `json:"endDate,omitempty"`
	CreatedAt   string        `json:"createdAt,omitempty"`
	UpdatedAt   string        `json:"updatedAt,omitempty"`
	DeletedAt   *string       `json:"deletedAt,omitempty"`
}

// ProjectRequest creates or updates a project. Zero fields are omitted so the
// same type serves partial updates.
type ProjectRequest struct {
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`
	OwnerID     int64         `json:"ownerId,omitempty"`
	Status      ProjectStatus `json:"status,omitempty"`
	StartDate   string        `json:"startDate,omitempty"`
	EndDate     string        `json:"endDate,omitempty"`
}
