package repositories

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"taskify-project/microservices/tasks-service/models"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryTaskRepo is a TaskStore kept in process memory. It backs STORE_BACKEND=memory.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[primitive.ObjectID]*models.Task
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{tasks: make(map[primitive.ObjectID]*models.Task)}
}

func cloneTask(t *models.Task) models.Task {
	c := *t
	c.Team = append([]string{}, t.Team...)
	c.Activities = append([]models.Activity{}, t.Activities...)
	c.SubTasks = append([]models.SubTask{}, t.SubTasks...)
	c.Assets = append([]models.Asset{}, t.Assets...)
	return c
}

func (r *MemoryTaskRepo) Insert(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	normalizeTask(task)

	stored := cloneTask(task)
	r.tasks[task.ID] = &stored
	return nil
}

// sorted returns matching tasks newest first. Callers hold the lock.
func (r *MemoryTaskRepo) sorted(match func(*models.Task) bool) []*models.Task {
	var out []*models.Task
	for _, t := range r.tasks {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out
}

func (r *MemoryTaskRepo) FindOne(_ context.Context, filter TaskFilter) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.sorted(filter.Matches)
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	t := cloneTask(matches[0])
	return &t, nil
}

func (r *MemoryTaskRepo) Find(_ context.Context, filter TaskFilter, limit int64) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.sorted(filter.Matches), limit), nil
}

func (r *MemoryTaskRepo) FindReminderCandidates(_ context.Context) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.sorted(func(t *models.Task) bool {
		return t.Description != "" && t.Priority != "" && !t.Date.IsZero()
	})
	return r.collect(matches, 0), nil
}

func (r *MemoryTaskRepo) collect(matches []*models.Task, limit int64) []models.Task {
	tasks := []models.Task{}
	for _, t := range matches {
		if limit > 0 && int64(len(tasks)) >= limit {
			break
		}
		tasks = append(tasks, cloneTask(t))
	}
	return tasks
}

// mutateOne applies fn to the newest matching task.
func (r *MemoryTaskRepo) mutateOne(filter TaskFilter, fn func(*models.Task)) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := r.sorted(filter.Matches)
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	fn(matches[0])
	matches[0].UpdatedAt = time.Now().UTC()
	t := cloneTask(matches[0])
	return &t, nil
}

func (r *MemoryTaskRepo) UpdateDetails(_ context.Context, filter TaskFilter, details TaskDetails) error {
	_, err := r.mutateOne(filter, func(t *models.Task) {
		t.Title = details.Title
		t.Description = details.Description
		t.Date = details.Date
		t.Team = append([]string{}, details.Team...)
		t.Stage = details.Stage
		t.Priority = details.Priority
	})
	return err
}

func (r *MemoryTaskRepo) PushActivity(_ context.Context, filter TaskFilter, activity models.Activity) error {
	_, err := r.mutateOne(filter, func(t *models.Task) {
		t.Activities = append(t.Activities, activity)
	})
	return err
}

func (r *MemoryTaskRepo) PushSubTask(_ context.Context, filter TaskFilter, subTask models.SubTask) error {
	_, err := r.mutateOne(filter, func(t *models.Task) {
		t.SubTasks = append(t.SubTasks, subTask)
	})
	return err
}

func (r *MemoryTaskRepo) PushAssets(_ context.Context, filter TaskFilter, assets []models.Asset) (*models.Task, error) {
	return r.mutateOne(filter, func(t *models.Task) {
		t.Assets = append(t.Assets, assets...)
	})
}

func (r *MemoryTaskRepo) PullAsset(_ context.Context, filter TaskFilter, assetID primitive.ObjectID) error {
	_, err := r.mutateOne(filter, func(t *models.Task) {
		kept := t.Assets[:0]
		for _, a := range t.Assets {
			if a.ID != assetID {
				kept = append(kept, a)
			}
		}
		t.Assets = kept
	})
	return err
}

func (r *MemoryTaskRepo) SetTrashed(_ context.Context, filter TaskFilter, trashed bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.tasks {
		if filter.Matches(t) {
			t.IsTrashed = trashed
			t.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, filter TaskFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tasks {
		if filter.Matches(t) {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

// MemoryAccountDirectory is an AccountDirectory over a fixed set of accounts.
type MemoryAccountDirectory struct {
	mu       sync.RWMutex
	accounts []models.AccountSummary
}

func NewMemoryAccountDirectory(accounts ...models.AccountSummary) *MemoryAccountDirectory {
	return &MemoryAccountDirectory{accounts: accounts}
}

func (d *MemoryAccountDirectory) Add(account models.AccountSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts = append(d.accounts, account)
}

func (d *MemoryAccountDirectory) Lookup(_ context.Context, ids []string) (map[string]models.AccountSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	wanted := mapset.NewThreadUnsafeSet(ids...)
	out := make(map[string]models.AccountSummary)
	for _, a := range d.accounts {
		if wanted.Contains(a.ID) {
			out[a.ID] = a
		}
	}
	return out, nil
}

func (d *MemoryAccountDirectory) RecentActive(_ context.Context, limit int64) ([]models.AccountSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []models.AccountSummary{}
	for i := len(d.accounts) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if d.accounts[i].IsActive {
			out = append(out, d.accounts[i])
		}
	}
	return out, nil
}

// MemoryNotificationRepo is a NotificationStore kept in process memory.
type MemoryNotificationRepo struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{}
}

func (r *MemoryNotificationRepo) Insert(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	stored := *n
	stored.Team = append([]string{}, n.Team...)
	stored.IsRead = append([]string{}, n.IsRead...)
	r.notifications = append(r.notifications, stored)
	return nil
}

// All returns every stored notification in insertion order.
func (r *MemoryNotificationRepo) All() []models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Notification{}, r.notifications...)
}

func addressedUnread(n *models.Notification, accountID string) bool {
	return mapset.NewThreadUnsafeSet(n.Team...).Contains(accountID) &&
		!mapset.NewThreadUnsafeSet(n.IsRead...).Contains(accountID)
}

func (r *MemoryNotificationRepo) ListUnread(_ context.Context, accountID string, limit int64) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Notification{}
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if addressedUnread(&r.notifications[i], accountID) {
			out = append(out, r.notifications[i])
		}
	}
	return out, nil
}

func (r *MemoryNotificationRepo) MarkRead(_ context.Context, accountID, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		n := &r.notifications[i]
		if n.ID != notificationID || !mapset.NewThreadUnsafeSet(n.Team...).Contains(accountID) {
			continue
		}
		if !mapset.NewThreadUnsafeSet(n.IsRead...).Contains(accountID) {
			n.IsRead = append(n.IsRead, accountID)
		}
		return nil
	}
	return ErrNotFound
}

func (r *MemoryNotificationRepo) MarkAllRead(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if addressedUnread(&r.notifications[i], accountID) {
			r.notifications[i].IsRead = append(r.notifications[i].IsRead, accountID)
		}
	}
	return nil
}
