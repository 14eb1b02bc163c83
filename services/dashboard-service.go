package services

import (
	"context"

	"taskify-project/microservices/tasks-service/models"
	"taskify-project/microservices/tasks-service/repositories"
)

const (
	dashboardRecentTasks = 10
	dashboardRecentUsers = 10
)

type GraphPoint struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

type DashboardSummary struct {
	TotalTasks int                      `json:"totalTasks"`
	Tasks      map[models.TaskStage]int `json:"tasks"`
	GraphData  []GraphPoint             `json:"graphData"`
	Last10Task []models.TaskView        `json:"last10Task"`
	Users      []models.AccountSummary  `json:"users"`
}

type DashboardService struct {
	tasks    repositories.TaskStore
	accounts repositories.AccountDirectory
}

func NewDashboardService(tasks repositories.TaskStore, accounts repositories.AccountDirectory) *DashboardService {
	return &DashboardService{tasks: tasks, accounts: accounts}
}

// Summary aggregates the caller's non-trashed tasks. Priority totals appear in the order
// each priority is first seen in the newest-first task list.
func (s *DashboardService) Summary(ctx context.Context, scope models.Scope) (*DashboardSummary, error) {
	trashed := false
	tasks, err := s.tasks.Find(ctx, repositories.TaskFilter{Scope: scope, Trashed: &trashed}, 0)
	if err != nil {
		return nil, dependency("Failed to load dashboard", err)
	}

	summary := &DashboardSummary{
		TotalTasks: len(tasks),
		Tasks:      map[models.TaskStage]int{},
		GraphData:  []GraphPoint{},
		Last10Task: []models.TaskView{},
		Users:      []models.AccountSummary{},
	}

	position := map[models.TaskPriority]int{}
	for _, task := range tasks {
		summary.Tasks[task.Stage]++
		i, ok := position[task.Priority]
		if !ok {
			i = len(summary.GraphData)
			position[task.Priority] = i
			summary.GraphData = append(summary.GraphData, GraphPoint{Name: string(task.Priority)})
		}
		summary.GraphData[i].Total++
	}

	recent := tasks
	if len(recent) > dashboardRecentTasks {
		recent = recent[:dashboardRecentTasks]
	}
	if len(recent) > 0 {
		var ids []string
		for _, task := range recent {
			ids = append(ids, task.Team...)
		}
		accounts, err := s.accounts.Lookup(ctx, uniqueTeam(ids))
		if err != nil {
			return nil, dependency("Failed to resolve task members", err)
		}
		for i := range recent {
			summary.Last10Task = append(summary.Last10Task, *NewTaskView(&recent[i], accounts))
		}
	}

	if scope.IsAdmin {
		users, err := s.accounts.RecentActive(ctx, dashboardRecentUsers)
		if err != nil {
			return nil, dependency("Failed to load users", err)
		}
		if users != nil {
			summary.Users = users
		}
	}
	return summary, nil
}
