package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStage string

const (
	StageTodo       TaskStage = "todo"
	StageInProgress TaskStage = "in-progress"
	StageCompleted  TaskStage = "completed"
)

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityNormal TaskPriority = "normal"
	PriorityNone   TaskPriority = "none"
)

type ActivityType string

const (
	ActivityAssigned   ActivityType = "assigned"
	ActivityStarted    ActivityType = "started"
	ActivityInProgress ActivityType = "in-progress"
	ActivityBug        ActivityType = "bug"
	ActivityCompleted  ActivityType = "completed"
	ActivityCommented  ActivityType = "commented"
)

// canonical lowercases and trims the value; the old "in progress" spelling maps to "in-progress".
func canonical(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "in progress" {
		return "in-progress"
	}
	return v
}

// ParseStage canonicalizes a stage received from a client.
func ParseStage(value string) (TaskStage, error) {
	switch s := TaskStage(canonical(value)); s {
	case StageTodo, StageInProgress, StageCompleted:
		return s, nil
	}
	return "", fmt.Errorf("invalid stage %q", value)
}

// ParsePriority canonicalizes a priority received from a client.
func ParsePriority(value string) (TaskPriority, error) {
	switch p := TaskPriority(canonical(value)); p {
	case PriorityHigh, PriorityMedium, PriorityNormal, PriorityNone:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority %q", value)
}

func ParseActivityType(value string) (ActivityType, error) {
	switch a := ActivityType(canonical(value)); a {
	case ActivityAssigned, ActivityStarted, ActivityInProgress, ActivityBug, ActivityCompleted, ActivityCommented:
		return a, nil
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}

type Activity struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Type     ActivityType       `json:"type" bson:"type"`
	Activity string             `json:"activity" bson:"activity"`
	Date     time.Time          `json:"date" bson:"date"`
	By       string             `json:"by" bson:"by"`
}

type SubTask struct {
	ID    primitive.ObjectID `json:"id" bson:"_id"`
	Title string             `json:"title" bson:"title"`
	Date  time.Time          `json:"date" bson:"date"`
	Tag   string             `json:"tag" bson:"tag"`
}

// Asset is a file attached to a task. Filename and StorageLocation are internal to the
// file storage; OriginalName is what the uploader called the file.
type Asset struct {
	ID              primitive.ObjectID `json:"id" bson:"_id"`
	Filename        string             `json:"filename" bson:"filename"`
	OriginalName    string             `json:"originalName" bson:"originalName"`
	StorageLocation string             `json:"-" bson:"path"`
	Size            int64              `json:"size" bson:"size"`
	MimeType        string             `json:"mimetype" bson:"mimetype"`
	UploadedBy      string             `json:"uploadedBy" bson:"uploadedBy"`
	UploadedAt      time.Time          `json:"uploadedAt" bson:"uploadedAt"`
}

type Task struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Date        time.Time          `json:"date" bson:"date"`
	Priority    TaskPriority       `json:"priority" bson:"priority"`
	Stage       TaskStage          `json:"stage" bson:"stage"`
	Team        []string           `json:"team" bson:"team"`
	Activities  []Activity         `json:"activities" bson:"activities"`
	SubTasks    []SubTask          `json:"subTasks" bson:"subTasks"`
	Assets      []Asset            `json:"assets" bson:"assets"`
	IsTrashed   bool               `json:"isTrashed" bson:"isTrashed"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FindAsset returns the asset with the given id, or nil.
func (t *Task) FindAsset(assetID primitive.ObjectID) *Asset {
	for i := range t.Assets {
		if t.Assets[i].ID == assetID {
			return &t.Assets[i]
		}
	}
	return nil
}

// HasMember reports whether accountID is on the task's team.
func (t *Task) HasMember(accountID string) bool {
	for _, member := range t.Team {
		if member == accountID {
			return true
		}
	}
	return false
}
