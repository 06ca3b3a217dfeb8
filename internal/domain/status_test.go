package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []TaskStatus{StatusNotStarted, StatusInProgress, StatusCompleted}

func TestTaskStatus_Next(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusInProgress, StatusNotStarted.Next())
	assert.Equal(t, StatusCompleted, StatusInProgress.Next())
	assert.Equal(t, StatusNotStarted, StatusCompleted.Next())
	assert.Equal(t, StatusNotStarted, TaskStatus("ARCHIVED").Next())
	assert.Equal(t, StatusNotStarted, TaskStatus("").Next())
}

func TestTaskStatus_CycleIsClosed(t *testing.T) {
	t.Parallel()

	for _, start := range allStatuses {
		s := start
		for i := 0; i < 3; i++ {
			s = s.Next()
			assert.Equal(t, s == StatusCompleted, s.Completed())
		}
		assert.Equal(t, start, s)
	}
}

func TestTaskStatus_WithCompleted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from      TaskStatus
		completed bool
		want      TaskStatus
	}{
		{StatusNotStarted, true, StatusCompleted},
		{StatusInProgress, true, StatusCompleted},
		{StatusCompleted, true, StatusCompleted},
		{StatusNotStarted, false, StatusNotStarted},
		{StatusInProgress, false, StatusInProgress},
		{StatusCompleted, false, StatusNotStarted},
		{TaskStatus("bogus"), false, StatusNotStarted},
	}

	for _, tt := range tests {
		got := tt.from.WithCompleted(tt.completed)
		assert.Equal(t, tt.want, got, "%s with completed=%v", tt.from, tt.completed)
		assert.Equal(t, tt.completed, got.Completed())
	}
}

func TestParseTaskStatus(t *testing.T) {
	t.Parallel()

	s, err := ParseTaskStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseTaskStatus("DONE")
	require.Error(t, err)
}

func TestTaskStatus_ScanAndValue(t *testing.T) {
	t.Parallel()

	var s TaskStatus
	require.NoError(t, s.Scan([]byte("COMPLETED")))
	assert.Equal(t, StatusCompleted, s)

	require.NoError(t, s.Scan("garbage"))
	assert.Equal(t, StatusNotStarted, s)

	require.Error(t, s.Scan(42))

	v, err := StatusInProgress.Value()
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", v)
}
