package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/models"
	"taskify-project/microservices/tasks-service/repositories"

	"github.com/sony/gobreaker"
)

// unreadLimit caps how many unread notifications are returned at once.
const unreadLimit = 50

type NotificationService struct {
	store   repositories.NotificationStore
	breaker *gobreaker.CircuitBreaker
}

// NewNotificationService builds the fan-out. breaker may be nil.
func NewNotificationService(store repositories.NotificationStore, breaker *gobreaker.CircuitBreaker) *NotificationService {
	return &NotificationService{store: store, breaker: breaker}
}

// AssignmentMessage is the text sent to a team when a task is assigned to it.
func AssignmentMessage(teamSize int, priority models.TaskPriority, date time.Time) string {
	text := "New task has been assigned to you"
	if teamSize > 1 {
		text += fmt.Sprintf(" and %d others.", teamSize-1)
	}
	text += fmt.Sprintf(" The task priority is set at %s priority, so check and act accordingly. The task date is %s. Thank you!",
		priority, date.Format("Mon Jan 02 2006"))
	return text
}

// ReminderMessage is the text of a deadline reminder.
func ReminderMessage(description string) string {
	return "Reminder: " + description
}

// NotifyAssignment creates one notification addressed to the whole team.
func (s *NotificationService) NotifyAssignment(ctx context.Context, task *models.Task, text string) error {
	return s.notify(ctx, &models.Notification{
		Team:     append([]string{}, task.Team...),
		Text:     text,
		TaskID:   task.ID.Hex(),
		NotiType: models.NotificationMessage,
		IsRead:   []string{},
	})
}

// SendReminder creates one alert addressed to a single account.
func (s *NotificationService) SendReminder(ctx context.Context, accountID string, task *models.Task) error {
	return s.notify(ctx, &models.Notification{
		Team:     []string{accountID},
		Text:     ReminderMessage(task.Description),
		TaskID:   task.ID.Hex(),
		NotiType: models.NotificationAlert,
		IsRead:   []string{},
	})
}

func (s *NotificationService) notify(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now().UTC()

	insert := func() (interface{}, error) {
		return nil, s.store.Insert(ctx, n)
	}

	var err error
	if s.breaker != nil {
		_, err = s.breaker.Execute(insert)
	} else {
		_, err = insert()
	}
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_CREATE_FAILED, Description: Failed to notify %d recipient(s) about task %s: %v", len(n.Team), n.TaskID, err)
		return dependency("Failed to notify the task team", err)
	}

	logging.Logger.Infof("Event ID: NOTIFICATION_CREATED, Description: Notification %s created for %d recipient(s)", n.ID, len(n.Team))
	return nil
}

// ListUnread returns the caller's unread notifications, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, scope models.Scope) ([]models.Notification, error) {
	notifications, err := s.store.ListUnread(ctx, scope.AccountID, unreadLimit)
	if err != nil {
		return nil, dependency("Failed to fetch notifications", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead marks one notification, or with readType "all" every notification, as read by the caller.
func (s *NotificationService) MarkRead(ctx context.Context, scope models.Scope, readType, notificationID string) error {
	if readType == "all" {
		if err := s.store.MarkAllRead(ctx, scope.AccountID); err != nil {
			return dependency("Failed to update notifications", err)
		}
		return nil
	}

	if notificationID == "" {
		return validation("Notification id is required")
	}
	err := s.store.MarkRead(ctx, scope.AccountID, notificationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("Notification not found")
	}
	if err != nil {
		return dependency("Failed to update notification", err)
	}
	return nil
}
