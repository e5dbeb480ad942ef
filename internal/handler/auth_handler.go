package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/studyabroad/internal/auth"
	"github.com/hitoshi/studyabroad/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// AuthMetrics はサインアップ・ログイン結果の記録先。
type AuthMetrics interface {
	RecordSignup()
	RecordLogin(success bool)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetrics
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetrics) *AuthHandler {
	return &AuthHandler{service: service, metrics: metrics}
}

type signupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup はアカウントを作成してトークンを返す。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.service.Signup(r.Context(), auth.SignupInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSignup()
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: sess.Token, User: toUserResponse(sess.User)})
}

// Login はメールアドレスとパスワードで認証してトークンを返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if h.metrics != nil {
		h.metrics.RecordLogin(err == nil)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, User: toUserResponse(sess.User)})
}

// Me はログインユーザーの情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
