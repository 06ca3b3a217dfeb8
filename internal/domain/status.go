package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type TaskStatus string

const (
	StatusNotStarted TaskStatus = "NOT_STARTED"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

var statusCycle = map[TaskStatus]TaskStatus{
	StatusNotStarted: StatusInProgress,
	StatusInProgress: StatusCompleted,
	StatusCompleted:  StatusNotStarted,
}

func (s TaskStatus) Valid() bool {
	_, ok := statusCycle[s]
	return ok
}

// Next returns the following status in the cycle. Unknown values restart at NOT_STARTED.
func (s TaskStatus) Next() TaskStatus {
	if next, ok := statusCycle[s]; ok {
		return next
	}
	return StatusNotStarted
}

func (s TaskStatus) Completed() bool {
	return s == StatusCompleted
}

// WithCompleted maps a completed flag onto a status. Marking an unfinished
// task as not completed keeps its current progress.
func (s TaskStatus) WithCompleted(completed bool) TaskStatus {
	switch {
	case completed:
		return StatusCompleted
	case s == StatusCompleted || !s.Valid():
		return StatusNotStarted
	default:
		return s
	}
}

func ParseTaskStatus(v string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", v)
	}
	return s, nil
}

func (s TaskStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return string(StatusNotStarted), nil
	}
	return string(s), nil
}

func (s *TaskStatus) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		raw = ""
	default:
		return fmt.Errorf("scan task status: unsupported type %T", src)
	}
	*s = TaskStatus(raw)
	if !s.Valid() {
		*s = StatusNotStarted
	}
	return nil
}
