package services

import (
	"context"
	"fmt"
	"testing"

	"taskify-project/microservices/tasks-service/models"
	"taskify-project/microservices/tasks-service/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Empty(t *testing.T) {
	f := newFixture(t)
	dashboard := NewDashboardService(f.tasks, repositories.NewMemoryAccountDirectory())

	summary, err := dashboard.Summary(context.Background(), member)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalTasks)
	assert.NotNil(t, summary.Tasks)
	assert.Empty(t, summary.Tasks)
	assert.NotNil(t, summary.GraphData)
	assert.Empty(t, summary.GraphData)
	assert.NotNil(t, summary.Last10Task)
	assert.Empty(t, summary.Last10Task)
	assert.NotNil(t, summary.Users)
	assert.Empty(t, summary.Users)
}

func TestDashboard_Aggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dashboard := NewDashboardService(f.tasks, f.accounts)

	create := func(title, stage, priority string, team ...string) *models.Task {
		task, err := f.taskService.CreateTask(ctx, admin, TaskInput{Title: title, Stage: stage, Priority: priority, Team: team})
		require.NoError(t, err)
		return task
	}
	create("a", "todo", "high", "u1")
	create("b", "completed", "normal", "u1")
	create("c", "todo", "high", "u2")
	trashed := create("d", "todo", "medium", "u1")
	create("e", "in progress", "normal", "u1")
	require.NoError(t, f.taskService.TrashTask(ctx, admin, trashed.ID.Hex()))

	summary, err := dashboard.Summary(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalTasks)
	assert.Equal(t, map[models.TaskStage]int{models.StageTodo: 1, models.StageCompleted: 1, models.StageInProgress: 1}, summary.Tasks)
	assert.Equal(t, []GraphPoint{{Name: "normal", Total: 2}, {Name: "high", Total: 1}}, summary.GraphData)
	require.Len(t, summary.Last10Task, 3)
	assert.Equal(t, "e", summary.Last10Task[0].Title)
	assert.Equal(t, "Una", summary.Last10Task[0].Team[0].Name)
	assert.Empty(t, summary.Users, "members do not see accounts")

	summary, err = dashboard.Summary(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalTasks)
	assert.Equal(t, 2, summary.Tasks[models.StageTodo])
	assert.Equal(t, []GraphPoint{{Name: "normal", Total: 2}, {Name: "high", Total: 2}}, summary.GraphData)
	require.Len(t, summary.Users, 3)
	assert.Equal(t, "u2", summary.Users[0].ID, "newest accounts first")
}

func TestDashboard_LastTenOnly(t *testing.T) {
	f := newFixture(t)
	dashboard := NewDashboardService(f.tasks, f.accounts)
	for i := 0; i < 12; i++ {
		f.create(t, fmt.Sprintf("task-%02d", i), "u1")
	}

	summary, err := dashboard.Summary(context.Background(), member)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalTasks)
	require.Len(t, summary.Last10Task, 10)
	assert.Equal(t, "task-11", summary.Last10Task[0].Title)
	assert.Equal(t, "task-02", summary.Last10Task[9].Title)
}
