package models

import (
	"time"
)

// AccountSummary is the display projection of a user account. Accounts are owned by the
// users service; this service only reads them.
type AccountSummary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Title     string    `json:"title,omitempty" bson:"title"`
	Role      string    `json:"role,omitempty" bson:"role"`
	Email     string    `json:"email,omitempty" bson:"email"`
	IsAdmin   bool      `json:"isAdmin" bson:"isAdmin"`
	IsActive  bool      `json:"isActive" bson:"isActive"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Scope is the identity a request acts as. Non-admin scopes only reach tasks
// whose team contains AccountID.
type Scope struct {
	AccountID string
	IsAdmin   bool
}

// MemberView is a team member resolved for display.
type MemberView struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

type ActivityView struct {
	ID       string       `json:"id"`
	Type     ActivityType `json:"type"`
	Activity string       `json:"activity"`
	Date     time.Time    `json:"date"`
	By       MemberView   `json:"by"`
}

// TaskView is a task with team members and activity authors resolved.
type TaskView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        time.Time      `json:"date"`
	Priority    TaskPriority   `json:"priority"`
	Stage       TaskStage      `json:"stage"`
	Team        []MemberView   `json:"team"`
	Activities  []ActivityView `json:"activities"`
	SubTasks    []SubTask      `json:"subTasks"`
	Assets      []Asset        `json:"assets"`
	IsTrashed   bool           `json:"isTrashed"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
