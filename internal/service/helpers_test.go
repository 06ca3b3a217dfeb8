package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/taskboard/internal/db"
	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/hash"
	"github.com/Skotchmaster/taskboard/internal/repo"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

var testSecret = []byte("test-jwt-secret-0123456789abcdef-0123456789abcdef")

type testEnv struct {
	Repo     *repo.GormRepo
	Events   *events.Recorder
	Auth     *AuthService
	Guard    *Guard
	Projects *ProjectService
	Tasks    *TaskService
}

func newTestCodec(t *testing.T, opts ...tokens.Option) *tokens.Codec {
	t.Helper()
	codec, err := tokens.NewCodec(testSecret, 15*time.Minute, 7*24*time.Hour, opts...)
	require.NoError(t, err)
	return codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(db.OpenTest(t))
	rec := &events.Recorder{}
	guard := &Guard{Repo: r}

	return &testEnv{
		Repo:   r,
		Events: rec,
		Guard:  guard,
		Auth: &AuthService{
			Repo:      r,
			Tokens:    newTestCodec(t),
			Passwords: hash.Bcrypt{Cost: bcrypt.MinCost},
			Digests:   hash.SHA256{},
			Events:    rec,
		},
		Projects: &ProjectService{Repo: r, Guard: guard, Events: rec},
		Tasks:    &TaskService{Repo: r, Guard: guard, Events: rec},
	}
}

func (e *testEnv) register(t *testing.T, username, password string) {
	t.Helper()
	require.NoError(t, e.Auth.Register(context.Background(), username, password))
}

func (e *testEnv) project(t *testing.T, owner, title string) uint {
	t.Helper()
	p, err := e.Projects.Create(context.Background(), owner, ProjectPatch{Title: &title})
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) task(t *testing.T, owner string, projectID uint, title string) uint {
	t.Helper()
	task, err := e.Tasks.Create(context.Background(), projectID, owner, TaskPatch{Title: &title})
	require.NoError(t, err)
	return task.ID
}

func ptr[T any](v T) *T { return &v }
