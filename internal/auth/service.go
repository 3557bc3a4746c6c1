// Package auth はユーザー認証とセッション管理を提供する。
// パスワードはbcryptでハッシュ化し、ログイン状態は不透明な
// セッションIDで参照する（トークンに情報を埋め込まない）。
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/akhbar/internal/model"
	"github.com/hitoshi/akhbar/internal/repository"
)

const (
	// minPasswordLength は登録時に要求する最小パスワード長。
	minPasswordLength = 6
	// bcryptCost はパスワードハッシュのコストパラメータ。
	bcryptCost = 10
)

// Service はユーザー認証とセッション管理を提供する。
type Service struct {
	users         repository.UserRepository
	sessions      repository.SessionRepository
	sessionMaxAge time.Duration
	adminUsername string
	adminPassword string
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// adminUsername/adminPasswordは管理者ログイン専用の運用資格情報で、
// 一般ユーザーのログインとは独立に照合される。
func NewService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	sessionMaxAge time.Duration,
	adminUsername string,
	adminPassword string,
) *Service {
	return &Service{
		users:         users,
		sessions:      sessions,
		sessionMaxAge: sessionMaxAge,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Register は新規ユーザーを登録し、セッションを発行する。
// パスワードが6文字未満の場合、ユーザー名が使用済みの場合はAPIErrorを返す。
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	if len(password) < minPasswordLength {
		return nil, nil, model.NewPasswordTooShortError()
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check username availability: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewUsernameTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:                      uuid.NewString(),
		Username:                username,
		PasswordHash:            string(hash),
		NotificationPreferences: model.DefaultNotificationPreferences(),
		CreatedAt:               s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login はユーザー名とパスワードを照合し、セッションを発行する。
// ユーザーの存在有無とパスワード不一致は区別せず、同一のエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// AdminLogin は運用資格情報を照合し、管理者ユーザーのセッションを発行する。
// 管理者ユーザー行が未作成の場合は初回ログイン時に作成する。
// セッションは通常ユーザーと同じ仕組みで管理され、権限はusers.is_adminで判定する。
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	if username != s.adminUsername || password != s.adminPassword {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	user, err := s.users.FindByUsername(ctx, s.adminUsername)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find admin user: %w", err)
	}
	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), bcryptCost)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		user = &model.User{
			ID:                      uuid.NewString(),
			Username:                s.adminUsername,
			PasswordHash:            string(hash),
			IsAdmin:                 true,
			NotificationPreferences: model.DefaultNotificationPreferences(),
			CreatedAt:               s.now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("failed to create admin user: %w", err)
		}
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout はセッションを破棄する。存在しないセッションIDでもエラーとしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CurrentUser はセッションIDから現在のユーザーを取得する。
// セッションが無効・期限切れの場合、ユーザーが削除済みの場合はnilを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session user: %w", err)
	}
	return user, nil
}

// createSession は新しいセッションを発行して永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	now := s.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionMaxAge),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}
