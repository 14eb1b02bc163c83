package models

import "time"

type NotificationType string

const (
	NotificationAlert   NotificationType = "alert"
	NotificationMessage NotificationType = "message"
)

// Notification is one broadcast record addressed to every account in Team.
type Notification struct {
	ID        string           `json:"id" bson:"_id"`
	Team      []string         `json:"team" bson:"team"`
	Text      string           `json:"text" bson:"text"`
	TaskID    string           `json:"task,omitempty" bson:"task,omitempty"`
	NotiType  NotificationType `json:"notiType" bson:"notiType"`
	IsRead    []string         `json:"isRead" bson:"isRead"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
}
