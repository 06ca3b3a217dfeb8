package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/hash"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUserIfNotExists(ctx context.Context, u *models.User, roles ...string) error
	SetRefreshDigest(ctx context.Context, userID uint, digest *string) error
	RotateRefreshDigest(ctx context.Context, userID uint, expected, next string) error
}

// AuthService issues, rotates and revokes token pairs. The only session
// state is the refresh digest stored on the user row.
type AuthService struct {
	Repo      CredentialStore
	Tokens    *tokens.Codec
	Passwords hash.Hasher
	Digests   hash.Hasher
	Events    events.Publisher
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (h *AuthService) publish(ctx context.Context, typ, username string) {
	if h.Events == nil {
		return
	}
	ev := events.Event{Type: typ, Username: username, At: time.Now().UTC()}
	if err := h.Events.PublishEvent(ctx, events.TopicUser, username, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}

func (h *AuthService) Register(ctx context.Context, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	pwHash, err := h.Passwords.Hash(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
		Enabled:      true,
	}
	if err := h.Repo.CreateUserIfNotExists(ctx, &user, models.DefaultRole); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return ErrConflict
		}
		l.Error("register_error", "status", 500, "error", err)
		return fmt.Errorf("create user: %w", err)
	}

	h.publish(ctx, "user_registered", username)
	return nil
}

// EnsureUser creates the user when missing and reports whether it did.
func (h *AuthService) EnsureUser(ctx context.Context, username, password string) (bool, error) {
	err := h.Register(ctx, username, password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrConflict):
		return false, nil
	default:
		return false, err
	}
}

func (h *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := h.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.Enabled || !h.Passwords.Verify(password, user.PasswordHash) {
		l.Warn("login_failed", "reason", "invalid username or password")
		return nil, ErrInvalidCredentials
	}

	res, digest, err := h.issuePair(user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	// Overwriting the digest is what ends any previous session.
	if err := h.Repo.SetRefreshDigest(ctx, user.ID, &digest); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh digest", "error", err)
		return nil, fmt.Errorf("store refresh digest: %w", err)
	}

	h.publish(ctx, "user_signed_in", user.Username)
	return res, nil
}

func (h *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := h.Tokens.ParseKind(refreshToken, tokens.KindRefresh)
	if err != nil {
		l.Warn("refresh_failed", "reason", "invalid refresh token", "error", err)
		return nil, err
	}
	l = l.With("username", claims.Subject)

	user, err := h.Repo.FindUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "reason", "user not found")
			return nil, ErrUserNotFound
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.Enabled {
		l.Warn("refresh_failed", "reason", "user disabled")
		return nil, ErrUserNotFound
	}

	if user.RefreshTokenHash == nil || !h.Digests.Verify(refreshToken, *user.RefreshTokenHash) {
		l.Warn("refresh_failed", "reason", "refresh token superseded or revoked")
		return nil, ErrStaleToken
	}

	res, digest, err := h.issuePair(user.Username)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	if err := h.Repo.RotateRefreshDigest(ctx, user.ID, *user.RefreshTokenHash, digest); err != nil {
		if errors.Is(err, repo.ErrDigestMismatch) {
			l.Warn("refresh_failed", "reason", "lost rotation race")
			return nil, ErrStaleToken
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot rotate refresh digest", "error", err)
		return nil, fmt.Errorf("rotate refresh digest: %w", err)
	}

	h.publish(ctx, "token_refreshed", user.Username)
	return res, nil
}

// LogOut clears the stored refresh digest, ending the session on every device.
func (h *AuthService) LogOut(ctx context.Context, accessToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := h.Tokens.ParseKind(accessToken, tokens.KindAccess)
	if err != nil {
		l.Warn("logout_failed", "reason", "invalid access token", "error", err)
		return err
	}

	user, err := h.Repo.FindUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := h.Repo.SetRefreshDigest(ctx, user.ID, nil); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return fmt.Errorf("clear refresh digest: %w", err)
	}

	h.publish(ctx, "user_logged_out", user.Username)
	return nil
}

func (h *AuthService) issuePair(username string) (*LoginResult, string, error) {
	access, err := h.Tokens.Issue(username, tokens.KindAccess)
	if err != nil {
		return nil, "", err
	}
	refresh, err := h.Tokens.Issue(username, tokens.KindRefresh)
	if err != nil {
		return nil, "", err
	}
	digest, err := h.Digests.Hash(refresh.Value)
	if err != nil {
		return nil, "", fmt.Errorf("digest refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		AccessExp:    access.ExpiresAt,
		RefreshExp:   refresh.ExpiresAt,
	}, digest, nil
}
