package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/taskboard/internal/domain"
	"github.com/Skotchmaster/taskboard/internal/models"
)

func assertConsistent(t *testing.T, task *models.Task) {
	t.Helper()
	assert.Equal(t, task.Status == domain.StatusCompleted, task.Completed())
}

func TestTaskService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")
	env.register(t, "bob", "secret")
	projectID := env.project(t, "alice", "Home")

	task, err := env.Tasks.Create(ctx, projectID, "alice", TaskPatch{Title: ptr("Dishes"), Section: ptr("kitchen")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotStarted, task.Status)
	assert.False(t, task.Completed())
	assert.Equal(t, projectID, task.ProjectID)

	_, err = env.Tasks.Create(ctx, projectID, "bob", TaskPatch{Title: ptr("Intrude")})
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)

	_, err = env.Tasks.Create(ctx, projectID, "alice", TaskPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	tasks, err := env.Tasks.List(ctx, projectID, "alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Dishes", tasks[0].Title)

	_, err = env.Tasks.List(ctx, projectID, "bob")
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
}

func TestTaskService_CycleStatus_ClosesAfterThree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")
	projectID := env.project(t, "alice", "Home")
	taskID := env.task(t, "alice", projectID, "Laundry")

	want := []domain.TaskStatus{domain.StatusInProgress, domain.StatusCompleted, domain.StatusNotStarted}
	for _, status := range want {
		task, err := env.Tasks.CycleStatus(ctx, projectID, taskID, "alice")
		require.NoError(t, err)
		assert.Equal(t, status, task.Status)
		assertConsistent(t, task)
	}

	stored, err := env.Tasks.Get(ctx, projectID, taskID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotStarted, stored.Status)
}

func TestTaskService_Toggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")
	projectID := env.project(t, "alice", "Home")
	taskID := env.task(t, "alice", projectID, "Laundry")

	task, err := env.Tasks.Toggle(ctx, projectID, taskID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, task.Status)
	assertConsistent(t, task)

	task, err = env.Tasks.Toggle(ctx, projectID, taskID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotStarted, task.Status)
	assertConsistent(t, task)

	_, err = env.Tasks.CycleStatus(ctx, projectID, taskID, "alice")
	require.NoError(t, err)
	task, err = env.Tasks.Toggle(ctx, projectID, taskID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, task.Status)
}

func TestTaskService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")
	env.register(t, "bob", "secret")
	projectID := env.project(t, "alice", "Home")
	taskID := env.task(t, "alice", projectID, "Laundry")

	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		patch      TaskPatch
		wantStatus domain.TaskStatus
	}{
		{name: "status in progress", patch: TaskPatch{Status: ptr("in_progress")}, wantStatus: domain.StatusInProgress},
		{name: "completed flag", patch: TaskPatch{Completed: ptr(true)}, wantStatus: domain.StatusCompleted},
		{name: "uncompleted flag", patch: TaskPatch{Completed: ptr(false)}, wantStatus: domain.StatusNotStarted},
		{name: "completed wins over status", patch: TaskPatch{Status: ptr("IN_PROGRESS"), Completed: ptr(true)}, wantStatus: domain.StatusCompleted},
		{name: "fields only", patch: TaskPatch{Title: ptr("Wash"), DueDate: &due}, wantStatus: domain.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := env.Tasks.Update(ctx, projectID, taskID, "alice", tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, task.Status)
			assertConsistent(t, task)
		})
	}

	stored, err := env.Tasks.Get(ctx, projectID, taskID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Wash", stored.Title)
	require.NotNil(t, stored.DueDate)
	assert.Equal(t, "2026-03-14", stored.DueDate.Format("2006-01-02"))

	_, err = env.Tasks.Update(ctx, projectID, taskID, "alice", TaskPatch{Status: ptr("DONE")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Tasks.Update(ctx, projectID, taskID, "alice", TaskPatch{Title: ptr(" ")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Tasks.Update(ctx, projectID, taskID, "bob", TaskPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
}

func TestTaskService_UpdateDueDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")
	projectID := env.project(t, "alice", "Home")
	taskID := env.task(t, "alice", projectID, "Taxes")

	due := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	task, err := env.Tasks.UpdateDueDate(ctx, projectID, taskID, "alice", &due)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "Taxes", task.Title)

	task, err = env.Tasks.UpdateDueDate(ctx, projectID, taskID, "alice", nil)
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)
}

func TestTaskService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	spy := &cleanerSpy{}
	env.Tasks.Attachments = spy
	env.register(t, "alice", "secret")
	env.register(t, "bob", "secret")
	projectID := env.project(t, "alice", "Home")
	taskID := env.task(t, "alice", projectID, "Dishes")

	assert.ErrorIs(t, env.Tasks.Delete(ctx, projectID, taskID, "bob"), ErrNotFoundOrUnauthorized)

	require.NoError(t, env.Tasks.Delete(ctx, projectID, taskID, "alice"))
	assert.Equal(t, [][2]uint{{projectID, taskID}}, spy.tasks)

	assert.ErrorIs(t, env.Tasks.Delete(ctx, projectID, taskID, "alice"), ErrNotFoundOrUnauthorized)
}
