// Package post はプロフィール投稿と投稿画像のドメインロジックを提供する。
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
	"github.com/hitoshi/studyabroad/internal/repository"
	"github.com/hitoshi/studyabroad/internal/security"
)

// 1リクエストで登録できる画像URLの上限。
const MaxImagesPerRequest = 10

// maxImageURLLength はDBに保存する画像URLの最大長。
const maxImageURLLength = 2048

// Service は投稿のサービス層。
type Service struct {
	posts     repository.PostRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(posts repository.PostRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{posts: posts, sanitizer: sanitizer}
}

// Create はプロフィールに投稿を追加する。プロフィールの所有者のみ投稿できる。
// 所有者確認と挿入はリポジトリ側で1文として実行される。
func (s *Service) Create(ctx context.Context, userID, profileID int64, title, body string) (*model.Post, error) {
	title = s.sanitizer.Sanitize(title)
	body = s.sanitizer.Sanitize(body)

	var fields []model.FieldError
	if title == "" {
		fields = append(fields, model.FieldError{Field: "title", Message: "is required"})
	} else if f, ok := model.CheckMaxLength("title", title, model.MaxTextLength); !ok {
		fields = append(fields, f)
	}
	if body == "" {
		fields = append(fields, model.FieldError{Field: "body", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	p, err := s.posts.CreateOwned(ctx, profileID, userID, title, body)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, model.NewProfileNotFoundError()
	case errors.Is(err, model.ErrNotOwner):
		slog.Warn("post rejected: not profile owner",
			slog.Int64("user_id", userID),
			slog.Int64("profile_id", profileID),
		)
		return nil, model.NewForbiddenError("Not allowed to post to this profile.")
	case err != nil:
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	p.Images = []model.PostImage{}
	return p, nil
}

// AddImages は投稿に画像URLを登録する。投稿の所有者のみ登録できる。
// URLは外部アップロードストアが返した公開パス（/から始まる相対パス）かhttpsのURL。
func (s *Service) AddImages(ctx context.Context, userID, postID int64, urls []string) ([]model.PostImage, error) {
	cleaned, fields := validateImageURLs(urls)
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	images, err := s.posts.AddImagesOwned(ctx, postID, userID, cleaned)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, model.NewPostNotFoundError()
	case errors.Is(err, model.ErrNotOwner):
		slog.Warn("post images rejected: not post owner",
			slog.Int64("user_id", userID),
			slog.Int64("post_id", postID),
		)
		return nil, model.NewForbiddenError("Not allowed to add images to this post.")
	case err != nil:
		return nil, fmt.Errorf("投稿画像の登録に失敗しました: %w", err)
	}
	return images, nil
}

// List はフィルタ条件に一致する投稿を投稿者プロフィール付きで新しい順に返す。
func (s *Service) List(ctx context.Context, fs query.FilterSet) ([]*model.PostWithProfile, error) {
	q, err := query.Build(query.Posts, fs)
	if err != nil {
		return nil, err
	}
	rows, err := s.posts.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}

func validateImageURLs(urls []string) ([]string, []model.FieldError) {
	if len(urls) == 0 {
		return nil, []model.FieldError{{Field: "urls", Message: "at least one image url is required"}}
	}
	if len(urls) > MaxImagesPerRequest {
		return nil, []model.FieldError{{Field: "urls", Message: fmt.Sprintf("at most %d images per request", MaxImagesPerRequest)}}
	}

	cleaned := make([]string, 0, len(urls))
	var fields []model.FieldError
	for i, raw := range urls {
		u := strings.TrimSpace(raw)
		if !isAcceptableImageURL(u) {
			fields = append(fields, model.FieldError{
				Field:   fmt.Sprintf("urls[%d]", i),
				Message: "must be an absolute path or a public https URL",
			})
			continue
		}
		cleaned = append(cleaned, u)
	}
	return cleaned, fields
}

// isAcceptableImageURL はストア済み画像の参照として受け付けられるURLかを判定する。
func isAcceptableImageURL(raw string) bool {
	if raw == "" || len(raw) > maxImageURLLength {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	switch {
	case u.Scheme == "" && u.Host == "":
		// プロトコル相対（//host）やパストラバーサルは拒否
		if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
			return false
		}
		return path.Clean(u.Path) == u.Path && !strings.Contains(u.Path, "..")
	case u.Scheme == "https":
		return u.Host != "" && u.User == nil && security.CheckPublicHost(u.Hostname()) == nil
	default:
		return false
	}
}
