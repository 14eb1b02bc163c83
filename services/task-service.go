package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/models"
	"taskify-project/microservices/tasks-service/repositories"
	"taskify-project/microservices/tasks-service/storage"

	mapset "github.com/deckarep/golang-set/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Delete/restore action selectors.
const (
	ActionDelete     = "delete"
	ActionDeleteAll  = "deleteAll"
	ActionRestore    = "restore"
	ActionRestoreAll = "restoreAll"
)

// TaskInput is the client payload of create and update.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Team        []string `json:"team"`
	Stage       string   `json:"stage"`
	Priority    string   `json:"priority"`
}

type ActivityInput struct {
	Type     string `json:"type"`
	Activity string `json:"activity"`
}

type SubTaskInput struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Tag   string `json:"tag"`
}

// TaskService is the single entry point for task reads and writes. Every call is
// evaluated inside the caller's scope; tasks outside it behave as absent.
type TaskService struct {
	tasks    repositories.TaskStore
	accounts repositories.AccountDirectory
	notifier *NotificationService
	files    storage.FileStorage
	now      func() time.Time
}

func NewTaskService(tasks repositories.TaskStore, accounts repositories.AccountDirectory, notifier *NotificationService, files storage.FileStorage) *TaskService {
	return &TaskService{
		tasks:    tasks,
		accounts: accounts,
		notifier: notifier,
		files:    files,
		now:      time.Now,
	}
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. An empty value yields fallback.
func ParseDate(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validation("Invalid date %q", value)
}

// uniqueTeam drops empty and repeated ids, keeping the first occurrence of each.
func uniqueTeam(team []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(team))
	for _, id := range team {
		id = strings.TrimSpace(id)
		if id == "" || !seen.Add(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (s *TaskService) validateDetails(in TaskInput) (repositories.TaskDetails, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return repositories.TaskDetails{}, validation("Title is required")
	}

	stage := models.StageTodo
	if strings.TrimSpace(in.Stage) != "" {
		parsed, err := models.ParseStage(in.Stage)
		if err != nil {
			return repositories.TaskDetails{}, validation("Invalid stage %q", in.Stage)
		}
		stage = parsed
	}

	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return repositories.TaskDetails{}, validation("Invalid priority %q", in.Priority)
	}

	date, err := ParseDate(in.Date, s.now().UTC())
	if err != nil {
		return repositories.TaskDetails{}, err
	}

	return repositories.TaskDetails{
		Title:       title,
		Description: in.Description,
		Date:        date,
		Team:        uniqueTeam(in.Team),
		Stage:       stage,
		Priority:    priority,
	}, nil
}

func parseTaskID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound(msgTaskNotFound)
	}
	return oid, nil
}

// storeError translates a store failure into the caller-facing taxonomy.
func storeError(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound(msgTaskNotFound)
	}
	return dependency(message, err)
}

func (s *TaskService) scoped(scope models.Scope, id string) (repositories.TaskFilter, error) {
	oid, err := parseTaskID(id)
	if err != nil {
		return repositories.TaskFilter{}, err
	}
	return repositories.ByID(scope, oid), nil
}

// CreateTask persists a new task with one "assigned" activity and then notifies its team.
// A notification failure is returned alongside the committed task.
func (s *TaskService) CreateTask(ctx context.Context, scope models.Scope, in TaskInput) (*models.Task, error) {
	if !scope.IsAdmin {
		return nil, unauthorized(msgAdminOnly)
	}
	details, err := s.validateDetails(in)
	if err != nil {
		return nil, err
	}

	text := AssignmentMessage(len(details.Team), details.Priority, details.Date)
	task := &models.Task{
		Title:       details.Title,
		Description: details.Description,
		Date:        details.Date,
		Priority:    details.Priority,
		Stage:       details.Stage,
		Team:        details.Team,
		Activities: []models.Activity{{
			ID:       primitive.NewObjectID(),
			Type:     models.ActivityAssigned,
			Activity: text,
			Date:     s.now().UTC(),
			By:       scope.AccountID,
		}},
	}
	if err := s.tasks.Insert(ctx, task); err != nil {
		logging.Logger.Errorf("Event ID: TASK_CREATE_FAILED, Description: Failed to create task %q: %v", task.Title, err)
		return nil, dependency("Failed to create task", err)
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID.Hex(), scope.AccountID)

	if err := s.notifier.NotifyAssignment(ctx, task, text); err != nil {
		return task, err
	}
	return task, nil
}

// DuplicateTask copies a task's team, sub-tasks, description, priority and stage into a
// new task titled "<title> - Duplicate" and dated now. Activities and assets are not copied.
func (s *TaskService) DuplicateTask(ctx context.Context, scope models.Scope, id string) (*models.Task, error) {
	if !scope.IsAdmin {
		return nil, unauthorized(msgAdminOnly)
	}
	filter, err := s.scoped(scope, id)
	if err != nil {
		return nil, err
	}
	source, err := s.tasks.FindOne(ctx, filter)
	if err != nil {
		return nil, storeError(err, "Failed to fetch task")
	}

	task := &models.Task{
		Title:       source.Title + " - Duplicate",
		Description: source.Description,
		Date:        s.now().UTC(),
		Priority:    source.Priority,
		Stage:       source.Stage,
		Team:        append([]string{}, source.Team...),
		SubTasks:    append([]models.SubTask{}, source.SubTasks...),
	}
	if err := s.tasks.Insert(ctx, task); err != nil {
		logging.Logger.Errorf("Event ID: TASK_DUPLICATE_FAILED, Description: Failed to duplicate task %s: %v", id, err)
		return nil, dependency("Failed to duplicate task", err)
	}
	logging.Logger.Infof("Event ID: TASK_DUPLICATED, Description: Task %s duplicated as %s", id, task.ID.Hex())

	text := AssignmentMessage(len(task.Team), task.Priority, task.Date)
	if err := s.notifier.NotifyAssignment(ctx, task, text); err != nil {
		return task, err
	}
	return task, nil
}

// UpdateTask overwrites title, description, date, team, stage and priority. It never notifies.
func (s *TaskService) UpdateTask(ctx context.Context, scope models.Scope, id string, in TaskInput) error {
	filter, err := s.scoped(scope, id)
	if err != nil {
		return err
	}
	details, err := s.validateDetails(in)
	if err != nil {
		return err
	}
	if err := s.tasks.UpdateDetails(ctx, filter, details); err != nil {
		return storeError(err, "Failed to update task")
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by %s", id, scope.AccountID)
	return nil
}

func (s *TaskService) PostActivity(ctx context.Context, scope models.Scope, id string, in ActivityInput) error {
	filter, err := s.scoped(scope, id)
	if err != nil {
		return err
	}
	activityType, err := models.ParseActivityType(in.Type)
	if err != nil {
		return validation("Invalid activity type %q", in.Type)
	}

	activity := models.Activity{
		ID:       primitive.NewObjectID(),
		Type:     activityType,
		Activity: in.Activity,
		Date:     s.now().UTC(),
		By:       scope.AccountID,
	}
	if err := s.tasks.PushActivity(ctx, filter, activity); err != nil {
		return storeError(err, "Failed to post activity")
	}
	return nil
}

func (s *TaskService) CreateSubTask(ctx context.Context, scope models.Scope, id string, in SubTaskInput) error {
	filter, err := s.scoped(scope, id)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return validation("Sub-task title is required")
	}
	date, err := ParseDate(in.Date, s.now().UTC())
	if err != nil {
		return err
	}

	subTask := models.SubTask{ID: primitive.NewObjectID(), Title: title, Date: date, Tag: in.Tag}
	if err := s.tasks.PushSubTask(ctx, filter, subTask); err != nil {
		return storeError(err, "Failed to add sub-task")
	}
	return nil
}

// TrashTask soft-deletes a task. Trashing an already trashed task succeeds.
func (s *TaskService) TrashTask(ctx context.Context, scope models.Scope, id string) error {
	filter, err := s.scoped(scope, id)
	if err != nil {
		return err
	}
	matched, err := s.tasks.SetTrashed(ctx, filter, true)
	if err != nil {
		return dependency("Failed to trash task", err)
	}
	if matched == 0 {
		return notFound(msgTaskNotFound)
	}
	logging.Logger.Infof("Event ID: TASK_TRASHED, Description: Task %s trashed by %s", id, scope.AccountID)
	return nil
}

// DeleteRestore applies one of the delete/restore actions. delete and restore target the
// task id; deleteAll and restoreAll target every trashed task in scope.
func (s *TaskService) DeleteRestore(ctx context.Context, scope models.Scope, id, action string) error {
	trashed := true
	bulk := repositories.TaskFilter{Scope: scope, Trashed: &trashed}

	switch action {
	case ActionDelete, ActionRestore:
		if strings.TrimSpace(id) == "" {
			return validation("Task id is required for %s", action)
		}
	case ActionDeleteAll, ActionRestoreAll:
	default:
		return validation("Invalid action type %q", action)
	}

	switch action {
	case ActionDelete:
		filter, err := s.scoped(scope, id)
		if err != nil {
			return err
		}
		return s.deletePermanently(ctx, filter, true)
	case ActionDeleteAll:
		return s.deletePermanently(ctx, bulk, false)
	case ActionRestore:
		filter, err := s.scoped(scope, id)
		if err != nil {
			return err
		}
		matched, err := s.tasks.SetTrashed(ctx, filter, false)
		if err != nil {
			return dependency("Failed to restore task", err)
		}
		if matched == 0 {
			return notFound(msgTaskNotFound)
		}
	case ActionRestoreAll:
		matched, err := s.tasks.SetTrashed(ctx, bulk, false)
		if err != nil {
			return dependency("Failed to restore tasks", err)
		}
		logging.Logger.Infof("Event ID: TASKS_RESTORED, Description: %d task(s) restored by %s", matched, scope.AccountID)
	}
	return nil
}

// deletePermanently removes the matching tasks and then, best effort, their asset files.
func (s *TaskService) deletePermanently(ctx context.Context, filter repositories.TaskFilter, single bool) error {
	doomed, err := s.tasks.Find(ctx, filter, 0)
	if err != nil {
		return dependency("Failed to delete task", err)
	}
	if single && len(doomed) == 0 {
		return notFound(msgTaskNotFound)
	}

	removed, err := s.tasks.Delete(ctx, filter)
	if err != nil {
		return dependency("Failed to delete task", err)
	}
	if single && removed == 0 {
		return notFound(msgTaskNotFound)
	}
	logging.Logger.Infof("Event ID: TASKS_DELETED, Description: %d task(s) permanently deleted", removed)

	for _, task := range doomed {
		for _, asset := range task.Assets {
			if err := s.files.Remove(asset.StorageLocation); err != nil {
				logging.Logger.Warnf("Event ID: ASSET_FILE_CLEANUP_FAILED, Description: Failed to remove %s of deleted task %s: %v",
					asset.StorageLocation, task.ID.Hex(), err)
			}
		}
	}
	return nil
}

// TaskQuery holds the list filters accepted from the client.
type TaskQuery struct {
	Stage     string
	IsTrashed bool
	Search    string
}

// GetTasks lists tasks in scope, newest first.
func (s *TaskService) GetTasks(ctx context.Context, scope models.Scope, q TaskQuery) ([]models.Task, error) {
	filter := repositories.TaskFilter{Scope: scope, Trashed: &q.IsTrashed, Search: strings.TrimSpace(q.Search)}
	if strings.TrimSpace(q.Stage) != "" {
		stage, err := models.ParseStage(q.Stage)
		if err != nil {
			return nil, validation("Invalid stage %q", q.Stage)
		}
		filter.Stage = stage
	}

	tasks, err := s.tasks.Find(ctx, filter, 0)
	if err != nil {
		return nil, dependency("Failed to fetch tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// GetTaskByID returns the task with team members and activity authors resolved.
func (s *TaskService) GetTaskByID(ctx context.Context, scope models.Scope, id string) (*models.TaskView, error) {
	filter, err := s.scoped(scope, id)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindOne(ctx, filter)
	if err != nil {
		return nil, storeError(err, "Failed to fetch task")
	}

	ids := append([]string{}, task.Team...)
	for _, a := range task.Activities {
		ids = append(ids, a.By)
	}
	accounts, err := s.accounts.Lookup(ctx, uniqueTeam(ids))
	if err != nil {
		return nil, dependency("Failed to resolve task members", err)
	}

	return NewTaskView(task, accounts), nil
}

// NewTaskView projects a task for display. Team members and activity authors found in
// accounts are resolved; the rest keep only their id.
func NewTaskView(task *models.Task, accounts map[string]models.AccountSummary) *models.TaskView {
	view := &models.TaskView{
		ID:          task.ID.Hex(),
		Title:       task.Title,
		Description: task.Description,
		Date:        task.Date,
		Priority:    task.Priority,
		Stage:       task.Stage,
		Team:        make([]models.MemberView, 0, len(task.Team)),
		Activities:  make([]models.ActivityView, len(task.Activities)),
		SubTasks:    append([]models.SubTask{}, task.SubTasks...),
		Assets:      append([]models.Asset{}, task.Assets...),
		IsTrashed:   task.IsTrashed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	for _, id := range task.Team {
		member := models.MemberView{ID: id}
		if account, ok := accounts[id]; ok {
			member.Name = account.Name
			member.Title = account.Title
			member.Role = account.Role
			member.Email = account.Email
		}
		view.Team = append(view.Team, member)
	}
	for i, a := range task.Activities {
		view.Activities[i] = models.ActivityView{
			ID:       a.ID.Hex(),
			Type:     a.Type,
			Activity: a.Activity,
			Date:     a.Date,
			By:       models.MemberView{ID: a.By, Name: accounts[a.By].Name},
		}
	}
	return view
}
