package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/studyabroad/internal/catalog"
	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
)

// CatalogServiceInterface は大学・コースハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListUniversities(ctx context.Context, fs query.FilterSet) ([]*model.University, error)
	University(ctx context.Context, id int64) (*catalog.UniversityDetail, error)
	ReviewUniversity(ctx context.Context, userID, universityID int64, rating int, text string) (*model.UniversityReview, error)
	ListCourses(ctx context.Context, fs query.FilterSet) ([]*model.Course, error)
	Course(ctx context.Context, id int64) (*catalog.CourseDetail, error)
	ReviewCourse(ctx context.Context, userID, courseID int64, in catalog.CourseReviewInput) (*model.CourseReview, error)
}

// CatalogHandler は大学・コースカタログのHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// 評価値は未指定を0として受け、サービス層の範囲チェックで弾く。
type universityReviewRequest struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

type courseReviewRequest struct {
	Rating       int    `json:"rating"`
	Enjoyability int    `json:"enjoyability"`
	Difficulty   int    `json:"difficulty"`
	ReviewText   string `json:"review_text"`
}

// ListUniversities は大学一覧を返す。
// GET /universities
func (h *CatalogHandler) ListUniversities(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListUniversities(r.Context(), query.FromValues(r.URL.Query()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make([]universityResponse, len(rows))
	for i, u := range rows {
		out[i] = toUniversityResponse(u)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "universities": out})
}

// GetUniversity は大学詳細をレビュー・コース・平均評価付きで返す。
// GET /universities/{id}
func (h *CatalogHandler) GetUniversity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.service.University(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	reviews := make([]universityReviewResponse, len(d.Reviews))
	for i, rv := range d.Reviews {
		reviews[i] = toUniversityReviewResponse(rv)
	}
	courses := make([]courseResponse, len(d.Courses))
	for i, c := range d.Courses {
		courses[i] = toCourseResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"university":    toUniversityResponse(d.University),
		"reviews":       reviews,
		"courses":       courses,
		"averageRating": d.AverageRating,
	})
}

// ReviewUniversity は大学レビューを投稿する。
// POST /universities/{id}/reviews
func (h *CatalogHandler) ReviewUniversity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req universityReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rv, err := h.service.ReviewUniversity(r.Context(), userID, id, req.Rating, req.ReviewText)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUniversityReviewResponse(rv))
}

// ListCourses はコース一覧を返す。
// GET /courses
func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListCourses(r.Context(), query.FromValues(r.URL.Query()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make([]courseResponse, len(rows))
	for i, c := range rows {
		out[i] = toCourseResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "courses": out})
}

// GetCourse はコース詳細をレビュー・平均値付きで返す。
// GET /courses/{id}
func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.service.Course(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	reviews := make([]courseReviewResponse, len(d.Reviews))
	for i, rv := range d.Reviews {
		reviews[i] = toCourseReviewResponse(rv)
	}
	avg := courseAveragesResponse{}
	if d.Averages != nil {
		avg = courseAveragesResponse{
			Rating:       d.Averages.Rating,
			Enjoyability: d.Averages.Enjoyability,
			Difficulty:   d.Averages.Difficulty,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course":   toCourseResponse(d.Course),
		"reviews":  reviews,
		"averages": avg,
	})
}

// ReviewCourse はコースレビューを投稿する。
// POST /courses/{id}/reviews
func (h *CatalogHandler) ReviewCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req courseReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rv, err := h.service.ReviewCourse(r.Context(), userID, id, catalog.CourseReviewInput{
		Rating:       req.Rating,
		Enjoyability: req.Enjoyability,
		Difficulty:   req.Difficulty,
		ReviewText:   req.ReviewText,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCourseReviewResponse(rv))
}
