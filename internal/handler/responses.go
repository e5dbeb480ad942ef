package handler

import (
	"time"

	"github.com/hitoshi/studyabroad/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。クライアント互換のためcamelCase。
type userResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type profileResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	University string    `json:"university"`
	City       *string   `json:"city"`
	Country    *string   `json:"country"`
	Term       string    `json:"term"`
	Budget     *float64  `json:"budget"`
	Currency   *string   `json:"currency"`
	Language   *string   `json:"language"`
	Summary    *string   `json:"summary"`
	Rating     *int      `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

type imageResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type postResponse struct {
	ID        int64           `json:"id"`
	ProfileID int64           `json:"profile_id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	CreatedAt time.Time       `json:"created_at"`
	Images    []imageResponse `json:"images"`
}

type postListItem struct {
	ID         int64     `json:"id"`
	ProfileID  int64     `json:"profile_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	University string    `json:"university"`
	City       *string   `json:"city"`
	Term       string    `json:"term"`
}

type universityResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	City        *string   `json:"city"`
	Country     *string   `json:"country"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type courseResponse struct {
	ID             int64     `json:"id"`
	UniversityID   int64     `json:"university_id"`
	SubjectName    string    `json:"subject_name"`
	CourseCode     *string   `json:"course_code"`
	Description    *string   `json:"description"`
	UniversityName string    `json:"university_name"`
	City           *string   `json:"city"`
	Country        *string   `json:"country"`
	CreatedAt      time.Time `json:"created_at"`
}

type universityReviewResponse struct {
	ID           int64     `json:"id"`
	UniversityID int64     `json:"university_id"`
	UserID       int64     `json:"user_id"`
	Rating       int       `json:"rating"`
	ReviewText   *string   `json:"review_text"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type courseReviewResponse struct {
	ID           int64     `json:"id"`
	CourseID     int64     `json:"course_id"`
	UserID       int64     `json:"user_id"`
	Rating       int       `json:"rating"`
	Enjoyability int       `json:"enjoyability"`
	Difficulty   int       `json:"difficulty"`
	ReviewText   *string   `json:"review_text"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type courseAveragesResponse struct {
	Rating       *float64 `json:"rating"`
	Enjoyability *float64 `json:"enjoyability"`
	Difficulty   *float64 `json:"difficulty"`
}

// optional は空文字列をJSONのnullとして返すためのヘルパー。
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		Name:       p.Name,
		University: p.University,
		City:       optional(p.City),
		Country:    optional(p.Country),
		Term:       p.Term,
		Budget:     p.Budget,
		Currency:   optional(p.Currency),
		Language:   optional(p.Language),
		Summary:    optional(p.Summary),
		Rating:     p.Rating,
		CreatedAt:  p.CreatedAt,
	}
}

func toImageResponses(images []model.PostImage) []imageResponse {
	out := make([]imageResponse, len(images))
	for i, img := range images {
		out[i] = imageResponse{ID: img.ID, PostID: img.PostID, URL: img.URL, CreatedAt: img.CreatedAt}
	}
	return out
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		ProfileID: p.ProfileID,
		Title:     p.Title,
		Body:      p.Body,
		CreatedAt: p.CreatedAt,
		Images:    toImageResponses(p.Images),
	}
}

func toUniversityResponse(u *model.University) universityResponse {
	return universityResponse{
		ID:          u.ID,
		Name:        u.Name,
		City:        optional(u.City),
		Country:     optional(u.Country),
		Description: optional(u.Description),
		CreatedAt:   u.CreatedAt,
	}
}

func toCourseResponse(c *model.Course) courseResponse {
	return courseResponse{
		ID:             c.ID,
		UniversityID:   c.UniversityID,
		SubjectName:    c.SubjectName,
		CourseCode:     optional(c.CourseCode),
		Description:    optional(c.Description),
		UniversityName: c.UniversityName,
		City:           optional(c.City),
		Country:        optional(c.Country),
		CreatedAt:      c.CreatedAt,
	}
}

func toUniversityReviewResponse(r *model.UniversityReview) universityReviewResponse {
	return universityReviewResponse{
		ID:           r.ID,
		UniversityID: r.UniversityID,
		UserID:       r.UserID,
		Rating:       r.Rating,
		ReviewText:   optional(r.ReviewText),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		CreatedAt:    r.CreatedAt,
	}
}

func toCourseReviewResponse(r *model.CourseReview) courseReviewResponse {
	return courseReviewResponse{
		ID:           r.ID,
		CourseID:     r.CourseID,
		UserID:       r.UserID,
		Rating:       r.Rating,
		Enjoyability: r.Enjoyability,
		Difficulty:   r.Difficulty,
		ReviewText:   optional(r.ReviewText),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		CreatedAt:    r.CreatedAt,
	}
}
