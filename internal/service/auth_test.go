package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Auth.Register(ctx, "alice", "secret"))

	u, err := env.Repo.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, u.Enabled)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.Equal(t, []string{"ROLE_USER"}, u.RoleNames())

	err = env.Auth.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, []string{"user_registered"}, env.Events.Types())
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty username", username: "", password: "secret"},
		{name: "blank username", username: "   ", password: "secret"},
		{name: "empty password", username: "user", password: ""},
		{name: "password longer than bcrypt accepts", username: "user", password: string(make([]byte, 80))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.Auth.Register(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_EnsureUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.Auth.EnsureUser(ctx, "seed", "seed-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.Auth.EnsureUser(ctx, "seed", "seed-pass")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAuthService_Login_SubjectRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "secret")

	res, err := env.Auth.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	access, err := env.Auth.Tokens.ParseKind(res.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice", access.Subject)

	refresh, err := env.Auth.Tokens.ParseKind(res.RefreshToken, tokens.KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", refresh.Subject)

	assert.True(t, res.RefreshExp.After(res.AccessExp))
}

func TestAuthService_Login_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")
	env.register(t, "disabled", "secret")

	require.NoError(t, env.Repo.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", "disabled").Update("enabled", false).Error)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "empty username", username: "", password: "secret", wantErr: ErrValidation},
		{name: "empty password", username: "alice", password: "", wantErr: ErrValidation},
		{name: "unknown user", username: "bob", password: "secret", wantErr: ErrInvalidCredentials},
		{name: "wrong password", username: "alice", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "disabled user", username: "disabled", password: "secret", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.Auth.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")

	first, err := env.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	second, err := env.Auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = env.Auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleToken)

	third, err := env.Auth.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, third.AccessToken)
}

func TestAuthService_Login_InvalidatesPreviousSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")

	first, err := env.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	second, err := env.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = env.Auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleToken)

	_, err = env.Auth.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_Refresh_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")

	pair, err := env.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	ghost, err := env.Auth.Tokens.Issue("ghost", tokens.KindRefresh)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := env.Auth.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("access token", func(t *testing.T) {
		_, err := env.Auth.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
	t.Run("unknown subject", func(t *testing.T) {
		_, err := env.Auth.Refresh(ctx, ghost.Value)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
	t.Run("validly signed but never stored", func(t *testing.T) {
		tok, err := env.Auth.Tokens.Issue("alice", tokens.KindRefresh)
		require.NoError(t, err)
		_, err = env.Auth.Refresh(ctx, tok.Value)
		assert.ErrorIs(t, err, ErrStaleToken)
	})
}

func TestAuthService_Refresh_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")

	past := newTestCodec(t, tokens.WithClock(func() time.Time {
		return time.Now().Add(-30 * 24 * time.Hour)
	}))
	old, err := past.Issue("alice", tokens.KindRefresh)
	require.NoError(t, err)

	_, err = env.Auth.Refresh(ctx, old.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Refresh_ConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")

	pair, err := env.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	const workers = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = env.Auth.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, stale int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrStaleToken):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, stale)
}

func TestAuthService_LogOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "secret")

	pair, err := env.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	assert.ErrorIs(t, env.Auth.LogOut(ctx, pair.RefreshToken), ErrInvalidTokenType)
	assert.ErrorIs(t, env.Auth.LogOut(ctx, "garbage"), ErrInvalidToken)

	require.NoError(t, env.Auth.LogOut(ctx, pair.AccessToken))

	u, err := env.Repo.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, u.RefreshTokenHash)

	_, err = env.Auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleToken)

	// Logging out twice is harmless.
	assert.NoError(t, env.Auth.LogOut(ctx, pair.AccessToken))
}

func TestAuthService_LogOut_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	tok, err := env.Auth.Tokens.Issue("ghost", tokens.KindAccess)
	require.NoError(t, err)

	assert.ErrorIs(t, env.Auth.LogOut(context.Background(), tok.Value), ErrUserNotFound)
}

func TestAuthService_FullSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "user@gmail.com", "1234")

	pair, err := env.Auth.Login(ctx, "user@gmail.com", "1234")
	require.NoError(t, err)

	claims, err := env.Auth.Tokens.ParseKind(pair.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user@gmail.com", claims.Subject)

	next, err := env.Auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, env.Auth.LogOut(ctx, next.AccessToken))

	_, err = env.Auth.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleToken)

	assert.Equal(t,
		[]string{"user_registered", "user_signed_in", "token_refreshed", "user_logged_out"},
		env.Events.Types())
}

func TestAuthService_PublishFailureDoesNotFailLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "secret")
	env.Events.Err = errors.New("broker unavailable")

	res, err := env.Auth.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}
