package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/studyabroad/internal/model"
)

// ErrSigningKeyMissing は署名鍵が未設定のままトークンを発行しようとした場合のエラー。
var ErrSigningKeyMissing = errors.New("token signing key is not configured")

// Status はトークン検証の結果種別。
type Status int

const (
	// StatusAbsent はトークンが提示されなかったことを示す。
	StatusAbsent Status = iota
	// StatusValid は署名・有効期限ともに正しいことを示す。
	StatusValid
	// StatusExpired は署名は正しいが有効期限を過ぎていることを示す。
	StatusExpired
	// StatusInvalid は署名不一致、形式不正、必須クレーム欠落などを示す。
	StatusInvalid
)

// String はメトリクスラベルやログ出力用の名前を返す。
func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result はAuthenticateの結果。IdentityはStatusValidの場合のみ設定される。
type Result struct {
	Status   Status
	Identity model.Identity
}

// Claims はトークンに含めるクレーム。
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager はHS256署名のベアラートークンを発行・検証する。
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager はTokenManagerを生成する。
// ttlが0以下の場合は7日とする。secretが空でも生成できるが、発行は常に失敗する。
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// HasSigningKey は署名鍵が設定されているかを返す。
func (m *TokenManager) HasSigningKey() bool {
	return len(m.secret) > 0
}

// Issue はユーザーIDとメールアドレスを含むトークンを発行する。
func (m *TokenManager) Issue(userID int64, email string) (string, error) {
	if !m.HasSigningKey() {
		return "", ErrSigningKeyMissing
	}

	now := m.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate はトークンを検証して結果を返す。エラーは返さない。
// 期限切れの判定は署名検証に成功したトークンに対してのみ行われる。
func (m *TokenManager) Authenticate(token string) Result {
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Status: StatusAbsent}
	}
	if !m.HasSigningKey() {
		slog.Warn("token presented but signing key is not configured")
		return Result{Status: StatusInvalid}
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Result{Status: StatusExpired}
		}
		return Result{Status: StatusInvalid}
	}

	if claims.UserID <= 0 {
		return Result{Status: StatusInvalid}
	}

	return Result{
		Status: StatusValid,
		Identity: model.Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
		},
	}
}
