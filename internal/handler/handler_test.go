package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/studyabroad/internal/auth"
	"github.com/hitoshi/studyabroad/internal/catalog"
	"github.com/hitoshi/studyabroad/internal/middleware"
	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/post"
	"github.com/hitoshi/studyabroad/internal/profile"
	"github.com/hitoshi/studyabroad/internal/query"
)

// --- モック定義 ---

type mockAuthService struct {
	signupFn      func(ctx context.Context, in auth.SignupInput) (*auth.Session, error)
	loginFn       func(ctx context.Context, email, password string) (*auth.Session, error)
	currentUserFn func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockAuthService) Signup(ctx context.Context, in auth.SignupInput) (*auth.Session, error) {
	return m.signupFn(ctx, in)
}
func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return m.loginFn(ctx, email, password)
}
func (m *mockAuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	return m.currentUserFn(ctx, userID)
}

type mockProfileService struct {
	createFn      func(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error)
	mineFn        func(ctx context.Context, userID int64) (*model.Profile, error)
	replaceMineFn func(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error)
	patchFn       func(ctx context.Context, userID, profileID int64, patch model.ProfilePatch) (*model.Profile, error)
	listFn        func(ctx context.Context, fs query.FilterSet) ([]*model.Profile, error)
	getFn         func(ctx context.Context, profileID int64) (*profile.Detail, error)
}

func (m *mockProfileService) Create(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error) {
	return m.createFn(ctx, userID, in)
}
func (m *mockProfileService) Mine(ctx context.Context, userID int64) (*model.Profile, error) {
	return m.mineFn(ctx, userID)
}
func (m *mockProfileService) ReplaceMine(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error) {
	return m.replaceMineFn(ctx, userID, in)
}
func (m *mockProfileService) Patch(ctx context.Context, userID, profileID int64, patch model.ProfilePatch) (*model.Profile, error) {
	return m.patchFn(ctx, userID, profileID, patch)
}
func (m *mockProfileService) List(ctx context.Context, fs query.FilterSet) ([]*model.Profile, error) {
	return m.listFn(ctx, fs)
}
func (m *mockProfileService) Get(ctx context.Context, profileID int64) (*profile.Detail, error) {
	return m.getFn(ctx, profileID)
}

type mockPostService struct {
	createFn    func(ctx context.Context, userID, profileID int64, title, body string) (*model.Post, error)
	addImagesFn func(ctx context.Context, userID, postID int64, urls []string) ([]model.PostImage, error)
	listFn      func(ctx context.Context, fs query.FilterSet) ([]*model.PostWithProfile, error)
}

func (m *mockPostService) Create(ctx context.Context, userID, profileID int64, title, body string) (*model.Post, error) {
	return m.createFn(ctx, userID, profileID, title, body)
}
func (m *mockPostService) AddImages(ctx context.Context, userID, postID int64, urls []string) ([]model.PostImage, error) {
	return m.addImagesFn(ctx, userID, postID, urls)
}
func (m *mockPostService) List(ctx context.Context, fs query.FilterSet) ([]*model.PostWithProfile, error) {
	return m.listFn(ctx, fs)
}

type mockCatalogService struct {
	listUniversitiesFn func(ctx context.Context, fs query.FilterSet) ([]*model.University, error)
	universityFn       func(ctx context.Context, id int64) (*catalog.UniversityDetail, error)
	reviewUniversityFn func(ctx context.Context, userID, universityID int64, rating int, text string) (*model.UniversityReview, error)
	listCoursesFn      func(ctx context.Context, fs query.FilterSet) ([]*model.Course, error)
	courseFn           func(ctx context.Context, id int64) (*catalog.CourseDetail, error)
	reviewCourseFn     func(ctx context.Context, userID, courseID int64, in catalog.CourseReviewInput) (*model.CourseReview, error)
}

func (m *mockCatalogService) ListUniversities(ctx context.Context, fs query.FilterSet) ([]*model.University, error) {
	return m.listUniversitiesFn(ctx, fs)
}
func (m *mockCatalogService) University(ctx context.Context, id int64) (*catalog.UniversityDetail, error) {
	return m.universityFn(ctx, id)
}
func (m *mockCatalogService) ReviewUniversity(ctx context.Context, userID, universityID int64, rating int, text string) (*model.UniversityReview, error) {
	return m.reviewUniversityFn(ctx, userID, universityID, rating, text)
}
func (m *mockCatalogService) ListCourses(ctx context.Context, fs query.FilterSet) ([]*model.Course, error) {
	return m.listCoursesFn(ctx, fs)
}
func (m *mockCatalogService) Course(ctx context.Context, id int64) (*catalog.CourseDetail, error) {
	return m.courseFn(ctx, id)
}
func (m *mockCatalogService) ReviewCourse(ctx context.Context, userID, courseID int64, in catalog.CourseReviewInput) (*model.CourseReview, error) {
	return m.reviewCourseFn(ctx, userID, courseID, in)
}

type mockHealthChecker struct {
	pingErr error
	now     time.Time
	nowErr  error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error { return m.pingErr }
func (m *mockHealthChecker) Now(ctx context.Context) (time.Time, error) {
	return m.now, m.nowErr
}

type recordingAuthMetrics struct {
	mu      sync.Mutex
	signups int
	logins  []bool
}

func (m *recordingAuthMetrics) RecordSignup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signups++
}
func (m *recordingAuthMetrics) RecordLogin(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, success)
}

var (
	_ AuthServiceInterface    = (*auth.Service)(nil)
	_ ProfileServiceInterface = (*profile.Service)(nil)
	_ PostServiceInterface    = (*post.Service)(nil)
	_ CatalogServiceInterface = (*catalog.Service)(nil)
	_ AuthServiceInterface    = (*mockAuthService)(nil)
	_ ProfileServiceInterface = (*mockProfileService)(nil)
	_ PostServiceInterface    = (*mockPostService)(nil)
	_ CatalogServiceInterface = (*mockCatalogService)(nil)
	_ HealthChecker           = (*mockHealthChecker)(nil)
)

// --- ヘルパー ---

// newJSONRequest はJSONボディ付きのリクエストを生成する。
func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withUser は認証ミドルウェアを通過した状態のリクエストを返す。
func withUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), model.Identity{UserID: userID, Email: "u@example.com"}))
}

// withURLParam はchiのURLパラメータを設定したリクエストを返す。
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v\nraw: %s", err, w.Body.String())
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, wantStatus, w.Body.String())
	}
	var body middleware.ErrorResponseBody
	decodeBody(t, w, &body)
	if body.Code != wantCode {
		t.Errorf("code = %q, want %q", body.Code, wantCode)
	}
}
