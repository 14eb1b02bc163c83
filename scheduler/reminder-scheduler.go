package scheduler

import (
	"context"
	"fmt"
	"math"
	"time"

	"taskify-project/microservices/tasks-service/classifier"
	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/models"

	"github.com/robfig/cron/v3"
)

// TaskSource yields the tasks a sweep evaluates.
type TaskSource interface {
	FindReminderCandidates(ctx context.Context) ([]models.Task, error)
}

// Notifier delivers one reminder about task to accountID.
type Notifier interface {
	SendReminder(ctx context.Context, accountID string, task *models.Task) error
}

// Summary describes one sweep.
type Summary struct {
	Evaluated int `json:"evaluated"`
	Reminded  int `json:"reminded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// DaysRemaining is the whole number of days from now until deadline, rounded down.
// Deadlines in the past give negative values.
func DaysRemaining(deadline, now time.Time) int {
	return int(math.Floor(deadline.Sub(now).Hours() / 24))
}

// ShouldRemind applies the reminder window of each cadence.
func ShouldRemind(cadence classifier.Cadence, daysRemaining int) bool {
	switch cadence {
	case classifier.Immediate:
		return daysRemaining <= 1
	case classifier.Daily:
		return daysRemaining <= 7
	case classifier.Weekly:
		return daysRemaining <= 30
	}
	return false
}

// ReminderScheduler owns the cron instance that runs reminder sweeps. Overlapping firings
// are skipped so at most one sweep runs at a time.
type ReminderScheduler struct {
	cron            *cron.Cron
	tasks           TaskSource
	classifier      classifier.Classifier
	notifier        Notifier
	classifyTimeout time.Duration
	now             func() time.Time
}

func NewReminderScheduler(schedule string, location *time.Location, tasks TaskSource, cl classifier.Classifier, notifier Notifier, classifyTimeout time.Duration) (*ReminderScheduler, error) {
	if location == nil {
		location = time.Local
	}
	logger := cron.PrintfLogger(logging.Logger)

	s := &ReminderScheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		tasks:           tasks,
		classifier:      cl,
		notifier:        notifier,
		classifyTimeout: classifyTimeout,
		now:             time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *ReminderScheduler) Start() {
	s.cron.Start()
	logging.Logger.Info("Event ID: REMINDER_SCHEDULER_STARTED, Description: Reminder scheduler started")
}

// Stop halts future firings. The returned context is done once a running sweep has finished.
func (s *ReminderScheduler) Stop() context.Context {
	logging.Logger.Info("Event ID: REMINDER_SCHEDULER_STOPPING, Description: Reminder scheduler stopping")
	return s.cron.Stop()
}

func (s *ReminderScheduler) run() {
	if _, err := s.Sweep(context.Background()); err != nil {
		logging.Logger.Errorf("Event ID: REMINDER_SWEEP_FAILED, Description: %v", err)
	}
}

// Sweep evaluates every candidate task once. A failure on one task is logged and counted
// without stopping the sweep.
func (s *ReminderScheduler) Sweep(ctx context.Context) (Summary, error) {
	var summary Summary

	tasks, err := s.tasks.FindReminderCandidates(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	for i := range tasks {
		task := &tasks[i]
		summary.Evaluated++

		reminded, err := s.evaluate(ctx, task)
		switch {
		case err != nil:
			summary.Failed++
			logging.Logger.WithField("taskId", task.ID.Hex()).
				Errorf("Event ID: REMINDER_TASK_FAILED, Description: %v", err)
		case reminded:
			summary.Reminded++
		case len(task.Team) == 0:
			summary.Skipped++
		}
	}

	logging.Logger.Infof("Event ID: REMINDER_SWEEP_DONE, Description: evaluated=%d reminded=%d skipped=%d failed=%d",
		summary.Evaluated, summary.Reminded, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *ReminderScheduler) evaluate(ctx context.Context, task *models.Task) (bool, error) {
	if len(task.Team) == 0 {
		logging.Logger.WithField("taskId", task.ID.Hex()).
			Warn("Event ID: REMINDER_TASK_SKIPPED, Description: Task has no team to remind")
		return false, nil
	}

	classifyCtx := ctx
	if s.classifyTimeout > 0 {
		var cancel context.CancelFunc
		classifyCtx, cancel = context.WithTimeout(ctx, s.classifyTimeout)
		defer cancel()
	}
	cadence, err := s.classifier.Classify(classifyCtx, task.Description, string(task.Priority), task.Date)
	if err != nil {
		return false, err
	}

	days := DaysRemaining(task.Date, s.now())
	if !ShouldRemind(cadence, days) {
		return false, nil
	}
	if err := s.notifier.SendReminder(ctx, task.Team[0], task); err != nil {
		return false, err
	}
	logging.Logger.Infof("Event ID: REMINDER_SENT, Description: Reminder for task %s sent to %s (%s, %d day(s) left)",
		task.ID.Hex(), task.Team[0], cadence, days)
	return true, nil
}
