// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/studyabroad/internal/auth"
	"github.com/hitoshi/studyabroad/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証主体を格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenAuthenticator はベアラートークンの検証に必要なインターフェース。
// auth.TokenManagerが実装する。
type TokenAuthenticator interface {
	Authenticate(token string) auth.Result
}

// AuthOutcomeRecorder はトークン検証結果の記録先。metrics.Collectorが実装する。
type AuthOutcomeRecorder interface {
	RecordAuthOutcome(outcome string)
}

// Authenticator は必須認証と任意認証の2つのミドルウェアを提供する。
// どちらも同じトークン検証を使い、結果の扱いだけが異なる。
type Authenticator struct {
	tokens   TokenAuthenticator
	recorder AuthOutcomeRecorder
}

// NewAuthenticator はAuthenticatorを生成する。recorderはnilでもよい。
func NewAuthenticator(tokens TokenAuthenticator, recorder AuthOutcomeRecorder) *Authenticator {
	return &Authenticator{tokens: tokens, recorder: recorder}
}

func (a *Authenticator) authenticate(r *http.Request) auth.Result {
	res := a.tokens.Authenticate(bearerToken(r))
	if a.recorder != nil {
		a.recorder.RecordAuthOutcome(res.Status.String())
	}
	return res
}

// RequireAuth は有効なトークンを必須とするミドルウェア。
// 期限切れはTOKEN_EXPIRED、欠落と不正はUNAUTHORIZEDで401を返す。
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := a.authenticate(r)

		switch res.Status {
		case auth.StatusValid:
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), res.Identity)))
			return
		case auth.StatusExpired:
			slog.Info("request rejected: token expired",
				slog.String("path", r.URL.Path),
			)
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenExpiredError())
		default:
			slog.Info("request rejected: authentication required",
				slog.String("path", r.URL.Path),
				slog.String("reason", res.Status.String()),
			)
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		}
	})
}

// OptionalAuth はトークンが有効な場合だけ認証主体を注入するミドルウェア。
// 欠落・不正・期限切れはすべて匿名として扱い、拒否しない。
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := a.authenticate(r)
		if res.Status == auth.StatusValid {
			r = r.WithContext(withIdentity(r.Context(), res.Identity))
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名は大文字小文字を区別しない。Bearer以外のスキームは未提示とみなす。
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func withIdentity(ctx context.Context, id model.Identity) context.Context {
	annotateUserID(ctx, id.UserID)
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext はリクエストコンテキストから認証主体を取得する。
// 匿名リクエストではfalseを返す。
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok || id.UserID <= 0 {
		return model.Identity{}, false
	}
	return id, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// RequireAuthを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (int64, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return id.UserID, nil
}

// ContextWithIdentity はコンテキストに認証主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, id model.Identity) context.Context {
	return withIdentity(ctx, id)
}
