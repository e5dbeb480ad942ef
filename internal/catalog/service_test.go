package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
	"github.com/hitoshi/studyabroad/internal/repository"
	"github.com/hitoshi/studyabroad/internal/security"
)

// --- モック ---

type mockUniversityRepo struct {
	findByIDFn      func(ctx context.Context, id int64) (*model.University, error)
	listFn          func(ctx context.Context, q query.Query) ([]*model.University, error)
	averageRatingFn func(ctx context.Context, id int64) (*float64, error)
}

func (m *mockUniversityRepo) FindByID(ctx context.Context, id int64) (*model.University, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUniversityRepo) List(ctx context.Context, q query.Query) ([]*model.University, error) {
	return m.listFn(ctx, q)
}
func (m *mockUniversityRepo) AverageRating(ctx context.Context, id int64) (*float64, error) {
	if m.averageRatingFn != nil {
		return m.averageRatingFn(ctx, id)
	}
	return nil, nil
}

type mockCourseRepo struct {
	findByIDFn         func(ctx context.Context, id int64) (*model.Course, error)
	listByUniversityFn func(ctx context.Context, universityID int64) ([]*model.Course, error)
	listFn             func(ctx context.Context, q query.Query) ([]*model.Course, error)
	averagesFn         func(ctx context.Context, id int64) (*model.CourseAverages, error)
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockCourseRepo) ListByUniversity(ctx context.Context, universityID int64) ([]*model.Course, error) {
	if m.listByUniversityFn != nil {
		return m.listByUniversityFn(ctx, universityID)
	}
	return nil, nil
}
func (m *mockCourseRepo) List(ctx context.Context, q query.Query) ([]*model.Course, error) {
	return m.listFn(ctx, q)
}
func (m *mockCourseRepo) Averages(ctx context.Context, id int64) (*model.CourseAverages, error) {
	if m.averagesFn != nil {
		return m.averagesFn(ctx, id)
	}
	return nil, nil
}

type mockReviewRepo struct {
	upsertUniversityFn func(ctx context.Context, review *model.UniversityReview) error
	listUniversityFn   func(ctx context.Context, universityID int64) ([]*model.UniversityReview, error)
	upsertCourseFn     func(ctx context.Context, review *model.CourseReview) error
	listCourseFn       func(ctx context.Context, courseID int64) ([]*model.CourseReview, error)
}

func (m *mockReviewRepo) UpsertUniversityReview(ctx context.Context, review *model.UniversityReview) error {
	return m.upsertUniversityFn(ctx, review)
}
func (m *mockReviewRepo) ListUniversityReviews(ctx context.Context, universityID int64) ([]*model.UniversityReview, error) {
	if m.listUniversityFn != nil {
		return m.listUniversityFn(ctx, universityID)
	}
	return nil, nil
}
func (m *mockReviewRepo) UpsertCourseReview(ctx context.Context, review *model.CourseReview) error {
	return m.upsertCourseFn(ctx, review)
}
func (m *mockReviewRepo) ListCourseReviews(ctx context.Context, courseID int64) ([]*model.CourseReview, error) {
	if m.listCourseFn != nil {
		return m.listCourseFn(ctx, courseID)
	}
	return nil, nil
}

type mockRecorder struct {
	targets []string
}

func (m *mockRecorder) RecordReview(target string) { m.targets = append(m.targets, target) }

var (
	_ repository.UniversityRepository = (*mockUniversityRepo)(nil)
	_ repository.CourseRepository     = (*mockCourseRepo)(nil)
	_ repository.ReviewRepository     = (*mockReviewRepo)(nil)
)

type fixture struct {
	universities *mockUniversityRepo
	courses      *mockCourseRepo
	reviews      *mockReviewRepo
	recorder     *mockRecorder
}

func newFixture() *fixture {
	return &fixture{
		universities: &mockUniversityRepo{},
		courses:      &mockCourseRepo{},
		reviews:      &mockReviewRepo{},
		recorder:     &mockRecorder{},
	}
}

func (f *fixture) service() *Service {
	return NewService(f.universities, f.courses, f.reviews, security.NewTextSanitizer(), f.recorder)
}

func apiCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	return apiErr.Code
}

// --- 大学 ---

func TestUniversity_AggregatesDetail(t *testing.T) {
	f := newFixture()
	avg := 4.5
	f.universities.findByIDFn = func(ctx context.Context, id int64) (*model.University, error) {
		return &model.University{ID: id, Name: "UW"}, nil
	}
	f.universities.averageRatingFn = func(ctx context.Context, id int64) (*float64, error) { return &avg, nil }
	f.reviews.listUniversityFn = func(ctx context.Context, id int64) ([]*model.UniversityReview, error) {
		return []*model.UniversityReview{{ID: 1, Rating: 5}, {ID: 2, Rating: 4}}, nil
	}
	f.courses.listByUniversityFn = func(ctx context.Context, id int64) ([]*model.Course, error) {
		return []*model.Course{{ID: 3, UniversityID: id}}, nil
	}

	d, err := f.service().University(context.Background(), 1)
	if err != nil {
		t.Fatalf("University: %v", err)
	}
	if d.University.Name != "UW" || len(d.Reviews) != 2 || len(d.Courses) != 1 {
		t.Errorf("detail = %+v", d)
	}
	if d.AverageRating == nil || *d.AverageRating != 4.5 {
		t.Errorf("average = %v, want 4.5", d.AverageRating)
	}
}

func TestUniversity_NotFound(t *testing.T) {
	f := newFixture()
	f.universities.findByIDFn = func(ctx context.Context, id int64) (*model.University, error) { return nil, nil }

	_, err := f.service().University(context.Background(), 9)
	if code := apiCode(t, err); code != model.ErrCodeUniversityNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUniversityNotFound)
	}
}

func TestUniversity_PartialFailure(t *testing.T) {
	f := newFixture()
	dbErr := errors.New("timeout")
	f.universities.findByIDFn = func(ctx context.Context, id int64) (*model.University, error) {
		return &model.University{ID: id}, nil
	}
	f.courses.listByUniversityFn = func(ctx context.Context, id int64) ([]*model.Course, error) { return nil, dbErr }

	_, err := f.service().University(context.Background(), 1)
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestReviewUniversity(t *testing.T) {
	f := newFixture()
	var saved *model.UniversityReview
	f.reviews.upsertUniversityFn = func(ctx context.Context, review *model.UniversityReview) error {
		saved = review
		review.ID = 11
		return nil
	}

	r, err := f.service().ReviewUniversity(context.Background(), 2, 1, 5, "<script>x</script>Loved it")
	if err != nil {
		t.Fatalf("ReviewUniversity: %v", err)
	}
	if r.ID != 11 || saved.UserID != 2 || saved.UniversityID != 1 {
		t.Errorf("review = %+v", saved)
	}
	if saved.ReviewText != "Loved it" {
		t.Errorf("review text = %q, want sanitized", saved.ReviewText)
	}
	if len(f.recorder.targets) != 1 || f.recorder.targets[0] != TargetUniversity {
		t.Errorf("recorded = %v", f.recorder.targets)
	}
}

func TestReviewUniversity_RatingOutOfRange(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		f := newFixture()
		f.reviews.upsertUniversityFn = func(ctx context.Context, review *model.UniversityReview) error {
			t.Fatal("upsert should not be called")
			return nil
		}
		_, err := f.service().ReviewUniversity(context.Background(), 1, 1, rating, "")
		if code := apiCode(t, err); code != model.ErrCodeValidation {
			t.Errorf("rating %d: code = %q, want %q", rating, code, model.ErrCodeValidation)
		}
		if len(f.recorder.targets) != 0 {
			t.Error("rejected review should not be recorded")
		}
	}
}

func TestReviewUniversity_UnknownUniversity(t *testing.T) {
	f := newFixture()
	f.reviews.upsertUniversityFn = func(ctx context.Context, review *model.UniversityReview) error { return model.ErrNotFound }

	_, err := f.service().ReviewUniversity(context.Background(), 1, 404, 3, "")
	if code := apiCode(t, err); code != model.ErrCodeUniversityNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUniversityNotFound)
	}
}

func TestListUniversities(t *testing.T) {
	f := newFixture()
	f.universities.listFn = func(ctx context.Context, q query.Query) ([]*model.University, error) {
		return []*model.University{{ID: 1}, {ID: 2}}, nil
	}
	rows, err := f.service().ListUniversities(context.Background(), query.FilterSet{"search": "wash"})
	if err != nil || len(rows) != 2 {
		t.Errorf("ListUniversities = (%v, %v)", rows, err)
	}
}

// --- コース ---

func TestCourse_DefaultsAveragesWhenNoReviews(t *testing.T) {
	f := newFixture()
	f.courses.findByIDFn = func(ctx context.Context, id int64) (*model.Course, error) {
		return &model.Course{ID: id, SubjectName: "Econ"}, nil
	}

	d, err := f.service().Course(context.Background(), 4)
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if d.Averages == nil || d.Averages.Rating != nil {
		t.Errorf("averages = %+v, want empty", d.Averages)
	}
}

func TestCourse_NotFound(t *testing.T) {
	f := newFixture()
	f.courses.findByIDFn = func(ctx context.Context, id int64) (*model.Course, error) { return nil, nil }

	_, err := f.service().Course(context.Background(), 4)
	if code := apiCode(t, err); code != model.ErrCodeCourseNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeCourseNotFound)
	}
}

func TestReviewCourse_ValidatesAllScores(t *testing.T) {
	f := newFixture()
	_, err := f.service().ReviewCourse(context.Background(), 1, 1, CourseReviewInput{Rating: 3, Enjoyability: 0, Difficulty: 7})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(apiErr.Fields) != 2 || apiErr.Fields[0].Field != "enjoyability" || apiErr.Fields[1].Field != "difficulty" {
		t.Errorf("fields = %+v", apiErr.Fields)
	}
}

func TestReviewCourse_Success(t *testing.T) {
	f := newFixture()
	f.reviews.upsertCourseFn = func(ctx context.Context, review *model.CourseReview) error { return nil }

	r, err := f.service().ReviewCourse(context.Background(), 1, 2, CourseReviewInput{Rating: 4, Enjoyability: 5, Difficulty: 2})
	if err != nil {
		t.Fatalf("ReviewCourse: %v", err)
	}
	if r.CourseID != 2 || r.Difficulty != 2 {
		t.Errorf("review = %+v", r)
	}
	if len(f.recorder.targets) != 1 || f.recorder.targets[0] != TargetCourse {
		t.Errorf("recorded = %v", f.recorder.targets)
	}
}

func TestListCourses_InvalidUniversityID(t *testing.T) {
	f := newFixture()
	_, err := f.service().ListCourses(context.Background(), query.FilterSet{"university_id": "abc"})
	if code := apiCode(t, err); code != model.ErrCodeInvalidFilter {
		t.Errorf("code = %q, want %q", code, model.ErrCodeInvalidFilter)
	}
}
