package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, userID, profileID int64, title, body string) (*model.Post, error)
	AddImages(ctx context.Context, userID, postID int64, urls []string) ([]model.PostImage, error)
	List(ctx context.Context, fs query.FilterSet) ([]*model.PostWithProfile, error)
}

// PostHandler は投稿のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type addImagesRequest struct {
	URLs []string `json:"urls"`
}

// Create はプロフィールに投稿を追加する。
// POST /profiles/{id}/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	profileID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), userID, profileID, req.Title, req.Body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(p))
}

// AddImages は投稿に保存済み画像のURLを登録する。
// POST /posts/{id}/images
func (h *PostHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req addImagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	images, err := h.service.AddImages(r.Context(), userID, postID, req.URLs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"images": toImageResponses(images)})
}

// List はフィルタ条件に一致する投稿一覧を返す。
// GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context(), query.FromValues(r.URL.Query()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make([]postListItem, len(rows))
	for i, p := range rows {
		out[i] = postListItem{
			ID:         p.ID,
			ProfileID:  p.ProfileID,
			Title:      p.Title,
			Body:       p.Body,
			CreatedAt:  p.CreatedAt,
			University: p.University,
			City:       optional(p.City),
			Term:       p.Term,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "rows": out})
}
