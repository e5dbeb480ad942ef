// Package auth はパスワード認証、トークン発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/repository"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 8

// SignupInput はサインアップの入力値。
type SignupInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Session はサインアップ・ログイン成功時に返すトークンとユーザー。
type Session struct {
	Token string
	User  *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users      repository.UserRepository
	tokens     *TokenManager
	bcryptCost int
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, tokens *TokenManager, bcryptCost int) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Signup はアカウントを作成し、トークンを発行する。
// 署名鍵が未設定の場合はアカウントを作成せずに設定エラーを返す。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	var fields []model.FieldError
	if in.FirstName == "" {
		fields = append(fields, model.FieldError{Field: "firstName", Message: "is required"})
	}
	if in.LastName == "" {
		fields = append(fields, model.FieldError{Field: "lastName", Message: "is required"})
	}
	if f, ok := model.CheckMaxLength("firstName", in.FirstName, model.MaxUserNameLength); !ok {
		fields = append(fields, f)
	}
	if f, ok := model.CheckMaxLength("lastName", in.LastName, model.MaxUserNameLength); !ok {
		fields = append(fields, f)
	}
	email, ok := NormalizeEmail(in.Email)
	if !ok {
		fields = append(fields, model.FieldError{Field: "email", Message: "must be a valid email"})
	} else if f, ok := model.CheckMaxLength("email", email, model.MaxEmailLength); !ok {
		fields = append(fields, f)
	}
	if f, ok := checkPassword(in.Password); !ok {
		fields = append(fields, f)
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}
	if in.Password != in.ConfirmPassword {
		return nil, model.NewPasswordMismatchError()
	}

	if !s.tokens.HasSigningKey() {
		slog.Error("signup rejected: token signing key is not configured")
		return nil, model.NewConfigurationError()
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyRegisteredError()
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 同時サインアップで事前チェックをすり抜けた場合
		if errors.Is(err, model.ErrDuplicate) {
			return nil, model.NewEmailAlreadyRegisteredError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user signed up", slog.Int64("user_id", user.ID))
	return &Session{Token: token, User: user}, nil
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
// メール未登録とパスワード不一致は区別せずに同じエラーを返す。
func (s *Service) Login(ctx context.Context, rawEmail, password string) (*Session, error) {
	var fields []model.FieldError
	email, ok := NormalizeEmail(rawEmail)
	if !ok {
		fields = append(fields, model.FieldError{Field: "email", Message: "must be a valid email"})
	}
	if password == "" {
		fields = append(fields, model.FieldError{Field: "password", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return &Session{Token: token, User: user}, nil
}

// CurrentUser は認証済みユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

func (s *Service) issue(user *model.User) (string, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if errors.Is(err, ErrSigningKeyMissing) {
		slog.Error("token issuance failed", slog.String("error", err.Error()))
		return "", model.NewConfigurationError()
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// NormalizeEmail はメールアドレスを検証し、前後の空白を除いて小文字化する。
// 表示名付きの形式（"Name <a@b>"）は受け付けない。
func NormalizeEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}

func checkPassword(p string) (model.FieldError, bool) {
	switch {
	case len([]rune(p)) < MinPasswordLength:
		return model.FieldError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}, false
	case len(p) > MaxPasswordBytes:
		return model.FieldError{Field: "password", Message: fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)}, false
	}
	return model.FieldError{}, true
}
