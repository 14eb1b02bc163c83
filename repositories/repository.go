package repositories

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"taskify-project/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches a filter.
var ErrNotFound = errors.New("document not found")

// TaskFilter selects tasks. The scope restriction is always applied: a non-admin scope
// only matches tasks whose team contains its account id.
type TaskFilter struct {
	ID      *primitive.ObjectID
	Scope   models.Scope
	Stage   models.TaskStage
	Trashed *bool
	Search  string
}

// ByID is a filter for a single task inside the given scope.
func ByID(scope models.Scope, id primitive.ObjectID) TaskFilter {
	return TaskFilter{ID: &id, Scope: scope}
}

// Query renders the filter as a MongoDB query document.
func (f TaskFilter) Query() bson.M {
	query := bson.M{}
	if f.ID != nil {
		query["_id"] = *f.ID
	}
	if !f.Scope.IsAdmin {
		query["team"] = f.Scope.AccountID
	}
	if f.Stage != "" {
		query["stage"] = f.Stage
	}
	if f.Trashed != nil {
		query["isTrashed"] = *f.Trashed
	}
	if f.Search != "" {
		query["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	return query
}

// Matches applies the same rules as Query to an in-memory task.
func (f TaskFilter) Matches(task *models.Task) bool {
	if f.ID != nil && task.ID != *f.ID {
		return false
	}
	if !f.Scope.IsAdmin && !task.HasMember(f.Scope.AccountID) {
		return false
	}
	if f.Stage != "" && task.Stage != f.Stage {
		return false
	}
	if f.Trashed != nil && task.IsTrashed != *f.Trashed {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// TaskDetails are the fields an update overwrites.
type TaskDetails struct {
	Title       string
	Description string
	Date        time.Time
	Team        []string
	Stage       models.TaskStage
	Priority    models.TaskPriority
}

// TaskStore persists tasks. Single-task mutations return ErrNotFound when the filter
// matches nothing; each one is a single atomic document update.
type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	FindOne(ctx context.Context, filter TaskFilter) (*models.Task, error)
	// Find returns matching tasks newest first; limit <= 0 means no limit.
	Find(ctx context.Context, filter TaskFilter, limit int64) ([]models.Task, error)
	// FindReminderCandidates returns tasks with a description, a priority and a due date.
	FindReminderCandidates(ctx context.Context) ([]models.Task, error)
	UpdateDetails(ctx context.Context, filter TaskFilter, details TaskDetails) error
	PushActivity(ctx context.Context, filter TaskFilter, activity models.Activity) error
	PushSubTask(ctx context.Context, filter TaskFilter, subTask models.SubTask) error
	// PushAssets appends assets and returns the updated task.
	PushAssets(ctx context.Context, filter TaskFilter, assets []models.Asset) (*models.Task, error)
	PullAsset(ctx context.Context, filter TaskFilter, assetID primitive.ObjectID) error
	// SetTrashed updates every matching task and returns how many matched.
	SetTrashed(ctx context.Context, filter TaskFilter, trashed bool) (int64, error)
	// Delete removes every matching task and returns how many were removed.
	Delete(ctx context.Context, filter TaskFilter) (int64, error)
}

// AccountDirectory resolves account ids for display.
type AccountDirectory interface {
	Lookup(ctx context.Context, ids []string) (map[string]models.AccountSummary, error)
	// RecentActive returns the newest active accounts.
	RecentActive(ctx context.Context, limit int64) ([]models.AccountSummary, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Insert(ctx context.Context, notification *models.Notification) error
	// ListUnread returns notifications addressed to accountID it has not read, newest first.
	ListUnread(ctx context.Context, accountID string, limit int64) ([]models.Notification, error)
	// MarkRead adds accountID to the readers of one notification addressed to it.
	MarkRead(ctx context.Context, accountID, notificationID string) error
	MarkAllRead(ctx context.Context, accountID string) error
}

func normalizeTask(task *models.Task) {
	if task.Team == nil {
		task.Team = []string{}
	}
	if task.Activities == nil {
		task.Activities = []models.Activity{}
	}
	if task.SubTasks == nil {
		task.SubTasks = []models.SubTask{}
	}
	if task.Assets == nil {
		task.Assets = []models.Asset{}
	}
}
