// Package catalog は大学・コースのカタログとレビューのドメインロジックを提供する。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
	"github.com/hitoshi/studyabroad/internal/repository"
	"github.com/hitoshi/studyabroad/internal/security"
)

// レビュー対象の種別。メトリクスのラベルにも使う。
const (
	TargetUniversity = "university"
	TargetCourse     = "course"
)

// ReviewRecorder はレビュー投稿の記録先。metrics.Collectorが実装する。
type ReviewRecorder interface {
	RecordReview(target string)
}

// UniversityDetail は大学詳細画面用の集約。
type UniversityDetail struct {
	University    *model.University
	Reviews       []*model.UniversityReview
	Courses       []*model.Course
	AverageRating *float64
}

// CourseDetail はコース詳細画面用の集約。
type CourseDetail struct {
	Course   *model.Course
	Reviews  []*model.CourseReview
	Averages *model.CourseAverages
}

// CourseReviewInput はコースレビューの入力値。各評価は1〜5。
type CourseReviewInput struct {
	Rating       int
	Enjoyability int
	Difficulty   int
	ReviewText   string
}

// Service はカタログのサービス層。
type Service struct {
	universities repository.UniversityRepository
	courses      repository.CourseRepository
	reviews      repository.ReviewRepository
	sanitizer    security.TextSanitizer
	recorder     ReviewRecorder
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	universities repository.UniversityRepository,
	courses repository.CourseRepository,
	reviews repository.ReviewRepository,
	sanitizer security.TextSanitizer,
	recorder ReviewRecorder,
) *Service {
	return &Service{
		universities: universities,
		courses:      courses,
		reviews:      reviews,
		sanitizer:    sanitizer,
		recorder:     recorder,
	}
}

// ListUniversities はフィルタ条件に一致する大学を返す。
func (s *Service) ListUniversities(ctx context.Context, fs query.FilterSet) ([]*model.University, error) {
	q, err := query.Build(query.Universities, fs)
	if err != nil {
		return nil, err
	}
	rows, err := s.universities.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("大学一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// University は大学とそのレビュー・コース・平均評価を返す。
// 大学の存在確認後、付随データは並行に取得する。
func (s *Service) University(ctx context.Context, id int64) (*UniversityDetail, error) {
	u, err := s.universities.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("大学の取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUniversityNotFoundError()
	}

	d := &UniversityDetail{University: u}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.reviews.ListUniversityReviews(gctx, id)
		if err != nil {
			return fmt.Errorf("大学レビューの取得に失敗しました: %w", err)
		}
		d.Reviews = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.courses.ListByUniversity(gctx, id)
		if err != nil {
			return fmt.Errorf("コース一覧の取得に失敗しました: %w", err)
		}
		d.Courses = rows
		return nil
	})
	g.Go(func() error {
		avg, err := s.universities.AverageRating(gctx, id)
		if err != nil {
			return fmt.Errorf("平均評価の取得に失敗しました: %w", err)
		}
		d.AverageRating = avg
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// ReviewUniversity は大学レビューを投稿する。同じユーザーの再投稿は上書きになる。
func (s *Service) ReviewUniversity(ctx context.Context, userID, universityID int64, rating int, text string) (*model.UniversityReview, error) {
	if f, ok := checkScore("rating", rating); !ok {
		return nil, model.NewValidationError(f)
	}

	review := &model.UniversityReview{
		UniversityID: universityID,
		UserID:       userID,
		Rating:       rating,
		ReviewText:   s.sanitizer.Sanitize(text),
	}
	err := s.reviews.UpsertUniversityReview(ctx, review)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.NewUniversityNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("大学レビューの保存に失敗しました: %w", err)
	}

	s.record(TargetUniversity)
	slog.Info("university review saved",
		slog.Int64("user_id", userID),
		slog.Int64("university_id", universityID),
	)
	return review, nil
}

// ListCourses はフィルタ条件に一致するコースを大学情報付きで返す。
func (s *Service) ListCourses(ctx context.Context, fs query.FilterSet) ([]*model.Course, error) {
	q, err := query.Build(query.Courses, fs)
	if err != nil {
		return nil, err
	}
	rows, err := s.courses.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("コース一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// Course はコースとそのレビュー・平均値を返す。
func (s *Service) Course(ctx context.Context, id int64) (*CourseDetail, error) {
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("コースの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCourseNotFoundError()
	}

	d := &CourseDetail{Course: c}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.reviews.ListCourseReviews(gctx, id)
		if err != nil {
			return fmt.Errorf("コースレビューの取得に失敗しました: %w", err)
		}
		d.Reviews = rows
		return nil
	})
	g.Go(func() error {
		avg, err := s.courses.Averages(gctx, id)
		if err != nil {
			return fmt.Errorf("コース平均値の取得に失敗しました: %w", err)
		}
		d.Averages = avg
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.Averages == nil {
		d.Averages = &model.CourseAverages{}
	}
	return d, nil
}

// ReviewCourse はコースレビューを投稿する。同じユーザーの再投稿は上書きになる。
func (s *Service) ReviewCourse(ctx context.Context, userID, courseID int64, in CourseReviewInput) (*model.CourseReview, error) {
	var fields []model.FieldError
	for _, sc := range []struct {
		name  string
		value int
	}{
		{"rating", in.Rating},
		{"enjoyability", in.Enjoyability},
		{"difficulty", in.Difficulty},
	} {
		if f, ok := checkScore(sc.name, sc.value); !ok {
			fields = append(fields, f)
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	review := &model.CourseReview{
		CourseID:     courseID,
		UserID:       userID,
		Rating:       in.Rating,
		Enjoyability: in.Enjoyability,
		Difficulty:   in.Difficulty,
		ReviewText:   s.sanitizer.Sanitize(in.ReviewText),
	}
	err := s.reviews.UpsertCourseReview(ctx, review)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.NewCourseNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("コースレビューの保存に失敗しました: %w", err)
	}

	s.record(TargetCourse)
	slog.Info("course review saved",
		slog.Int64("user_id", userID),
		slog.Int64("course_id", courseID),
	)
	return review, nil
}

func (s *Service) record(target string) {
	if s.recorder != nil {
		s.recorder.RecordReview(target)
	}
}

func checkScore(field string, v int) (model.FieldError, bool) {
	if v < 1 || v > 5 {
		return model.FieldError{Field: field, Message: "must be an integer between 1 and 5"}, false
	}
	return model.FieldError{}, true
}
