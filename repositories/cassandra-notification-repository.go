package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"taskify-project/microservices/tasks-service/models"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// CassandraNotificationRepo stores notifications in the "notifications" keyspace.
type CassandraNotificationRepo struct {
	session *gocql.Session
	logger  *logrus.Logger
}

// NewCassandraNotificationRepo connects to the cluster, creating the keyspace when missing.
func NewCassandraNotificationRepo(hosts string, logger *logrus.Logger) (*CassandraNotificationRepo, error) {
	cluster := gocql.NewCluster(strings.Split(hosts, ",")...)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: %v", err)
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_KEYSPACE_FAILED, Description: Failed to create keyspace: %v", err)
		session.Close()
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: Failed to connect to notifications keyspace: %v", err)
		return nil, err
	}

	logger.Info("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra notifications keyspace.")
	return &CassandraNotificationRepo{session: session, logger: logger}, nil
}

func (r *CassandraNotificationRepo) CloseSession() {
	r.session.Close()
	r.logger.Info("Event ID: CASSANDRA_SESSION_CLOSED, Description: Cassandra session closed.")
}

// CreateTable creates the notifications table and the index used to look up recipients.
func (r *CassandraNotificationRepo) CreateTable() error {
	err := r.session.Query(
		`CREATE TABLE IF NOT EXISTS task_notifications (
			id UUID PRIMARY KEY,
			team SET<TEXT>,
			text TEXT,
			task_id TEXT,
			noti_type TEXT,
			is_read SET<TEXT>,
			created_at TIMESTAMP
		)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	err = r.session.Query(`CREATE INDEX IF NOT EXISTS task_notifications_team_idx ON task_notifications (VALUES(team))`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications team index: %w", err)
	}
	return nil
}

func (r *CassandraNotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	id := gocql.TimeUUID()
	if n.ID != "" {
		parsed, err := gocql.ParseUUID(n.ID)
		if err != nil {
			return fmt.Errorf("invalid notification id: %w", err)
		}
		id = parsed
	}
	n.ID = id.String()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	err := r.session.Query(
		`INSERT INTO task_notifications (id, team, text, task_id, noti_type, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, n.Team, n.Text, n.TaskID, string(n.NotiType), n.IsRead, n.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *CassandraNotificationRepo) addressedTo(ctx context.Context, accountID string) ([]models.Notification, error) {
	iter := r.session.Query(
		`SELECT id, team, text, task_id, noti_type, is_read, created_at
		 FROM task_notifications WHERE team CONTAINS ?`, accountID,
	).WithContext(ctx).Iter()

	var (
		notifications []models.Notification
		id            gocql.UUID
		notiType      string
		n             models.Notification
	)
	for iter.Scan(&id, &n.Team, &n.Text, &n.TaskID, &notiType, &n.IsRead, &n.CreatedAt) {
		n.ID = id.String()
		n.NotiType = models.NotificationType(notiType)
		notifications = append(notifications, n)
		n = models.Notification{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}

func (r *CassandraNotificationRepo) ListUnread(ctx context.Context, accountID string, limit int64) ([]models.Notification, error) {
	all, err := r.addressedTo(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unread := []models.Notification{}
	for _, n := range all {
		if !mapset.NewThreadUnsafeSet(n.IsRead...).Contains(accountID) {
			unread = append(unread, n)
		}
	}
	sort.Slice(unread, func(i, j int) bool { return unread[i].CreatedAt.After(unread[j].CreatedAt) })
	if limit > 0 && int64(len(unread)) > limit {
		unread = unread[:limit]
	}
	return unread, nil
}

func (r *CassandraNotificationRepo) markRead(ctx context.Context, accountID string, id gocql.UUID) error {
	err := r.session.Query(`UPDATE task_notifications SET is_read = is_read + ? WHERE id = ?`,
		[]string{accountID}, id).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

func (r *CassandraNotificationRepo) MarkRead(ctx context.Context, accountID, notificationID string) error {
	id, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return ErrNotFound
	}

	var team []string
	err = r.session.Query(`SELECT team FROM task_notifications WHERE id = ?`, id).WithContext(ctx).Scan(&team)
	if err == gocql.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch notification: %w", err)
	}
	if !mapset.NewThreadUnsafeSet(team...).Contains(accountID) {
		return ErrNotFound
	}
	return r.markRead(ctx, accountID, id)
}

func (r *CassandraNotificationRepo) MarkAllRead(ctx context.Context, accountID string) error {
	unread, err := r.ListUnread(ctx, accountID, 0)
	if err != nil {
		return err
	}
	for _, n := range unread {
		id, err := gocql.ParseUUID(n.ID)
		if err != nil {
			continue
		}
		if err := r.markRead(ctx, accountID, id); err != nil {
			return err
		}
	}
	return nil
}
