package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/profile"
	"github.com/hitoshi/studyabroad/internal/query"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Create(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error)
	Mine(ctx context.Context, userID int64) (*model.Profile, error)
	ReplaceMine(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error)
	Patch(ctx context.Context, userID, profileID int64, patch model.ProfilePatch) (*model.Profile, error)
	List(ctx context.Context, fs query.FilterSet) ([]*model.Profile, error)
	Get(ctx context.Context, profileID int64) (*profile.Detail, error)
}

// ProfileHandler はプロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// profileRequest はプロフィール作成・更新リクエストのボディ。
// 部分更新で「未指定」と「空」を区別するため全てポインタで受ける。
type profileRequest struct {
	Name       *string  `json:"name"`
	University *string  `json:"university"`
	City       *string  `json:"city"`
	Country    *string  `json:"country"`
	Term       *string  `json:"term"`
	Budget     *float64 `json:"budget"`
	Currency   *string  `json:"currency"`
	Language   *string  `json:"language"`
	Summary    *string  `json:"summary"`
	Rating     *int     `json:"rating"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (req profileRequest) input() model.ProfileInput {
	return model.ProfileInput{
		Name:       deref(req.Name),
		University: deref(req.University),
		City:       deref(req.City),
		Country:    deref(req.Country),
		Term:       deref(req.Term),
		Budget:     req.Budget,
		Currency:   deref(req.Currency),
		Language:   deref(req.Language),
		Summary:    deref(req.Summary),
		Rating:     req.Rating,
	}
}

func (req profileRequest) patch() model.ProfilePatch {
	return model.ProfilePatch{
		Name:       req.Name,
		University: req.University,
		City:       req.City,
		Country:    req.Country,
		Term:       req.Term,
		Budget:     req.Budget,
		Currency:   req.Currency,
		Language:   req.Language,
		Summary:    req.Summary,
		Rating:     req.Rating,
	}
}

// Create はログインユーザーのプロフィールを作成する。
// POST /profiles
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), userID, req.input())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

// Mine はログインユーザーのプロフィールを返す。
// GET /profiles/me
func (h *ProfileHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Mine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// ReplaceMine はログインユーザーのプロフィールを全体更新する。
// PUT /profiles/me
func (h *ProfileHandler) ReplaceMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.ReplaceMine(r.Context(), userID, req.input())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// Patch はプロフィールを部分更新する。所有者のみ。
// PATCH /profiles/{id}
func (h *ProfileHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Patch(r.Context(), userID, id, req.patch())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// List はフィルタ条件に一致するプロフィール一覧を返す。
// GET /profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context(), query.FromValues(r.URL.Query()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make([]profileResponse, len(rows))
	for i, p := range rows {
		out[i] = toProfileResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "rows": out})
}

// Get はプロフィール詳細を投稿付きで返す。
// GET /profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	posts := make([]postResponse, len(d.Posts))
	for i, p := range d.Posts {
		posts[i] = toPostResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": toProfileResponse(d.Profile),
		"posts":   posts,
	})
}
