// Package profile は留学プロフィールのドメインロジックを提供する。
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
	"github.com/hitoshi/studyabroad/internal/repository"
	"github.com/hitoshi/studyabroad/internal/security"
)

// Detail はプロフィール詳細画面用の集約。投稿は画像付きで新しい順。
type Detail struct {
	Profile *model.Profile
	Posts   []*model.Post
}

// Service はプロフィールのサービス層。
// 作成・取得・全体更新・部分更新・一覧のビジネスロジックを提供する。
type Service struct {
	profiles  repository.ProfileRepository
	posts     repository.PostRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	profiles repository.ProfileRepository,
	posts repository.PostRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		profiles:  profiles,
		posts:     posts,
		sanitizer: sanitizer,
	}
}

// Create はユーザーのプロフィールを作成する。
// 既にプロフィールがある場合は既存IDを含むPROFILE_ALREADY_EXISTSを返す。
func (s *Service) Create(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error) {
	in = s.normalizeInput(in)
	if fields := validateInput(in); len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	existing, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("既存プロフィールの確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewProfileAlreadyExistsError(existing.ID)
	}

	p, err := s.profiles.Create(ctx, userID, in)
	if errors.Is(err, model.ErrDuplicate) {
		// 確認後に並行リクエストが先に作成した場合
		var id int64
		if winner, ferr := s.profiles.FindByUserID(ctx, userID); ferr == nil && winner != nil {
			id = winner.ID
		}
		return nil, model.NewProfileAlreadyExistsError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの作成に失敗しました: %w", err)
	}

	slog.Info("profile created",
		slog.Int64("user_id", userID),
		slog.Int64("profile_id", p.ID),
	)
	return p, nil
}

// Mine はログインユーザー自身のプロフィールを返す。
func (s *Service) Mine(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError()
	}
	return p, nil
}

// ReplaceMine はログインユーザーのプロフィールの編集可能項目をすべて置き換える。
// 省略された任意項目はクリアされる。
func (s *Service) ReplaceMine(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error) {
	in = s.normalizeInput(in)
	if fields := validateInput(in); len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	p, err := s.profiles.ReplaceByUserID(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError()
	}
	return p, nil
}

// Patch は指定プロフィールの部分更新を行う。所有者のみ更新できる。
func (s *Service) Patch(ctx context.Context, userID, profileID int64, patch model.ProfilePatch) (*model.Profile, error) {
	if patch.IsEmpty() {
		return nil, model.NewNoUpdatableFieldsError()
	}
	patch = s.normalizePatch(patch)
	if fields := validatePatch(patch); len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	p, err := s.profiles.PatchOwned(ctx, profileID, userID, patch)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, model.NewProfileNotFoundError()
	case errors.Is(err, model.ErrNotOwner):
		slog.Warn("profile patch rejected: not owner",
			slog.Int64("user_id", userID),
			slog.Int64("profile_id", profileID),
		)
		return nil, model.NewForbiddenError("Not allowed to edit this profile.")
	case err != nil:
		return nil, fmt.Errorf("プロフィールの部分更新に失敗しました: %w", err)
	}
	return p, nil
}

// List はフィルタ条件に一致するプロフィールを新しい順に返す。
func (s *Service) List(ctx context.Context, fs query.FilterSet) ([]*model.Profile, error) {
	q, err := query.Build(query.Profiles, fs)
	if err != nil {
		return nil, err
	}
	rows, err := s.profiles.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("プロフィール一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// Get はプロフィールと、その投稿を画像付きで返す。
func (s *Service) Get(ctx context.Context, profileID int64) (*Detail, error) {
	p, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError()
	}

	posts, err := s.posts.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return &Detail{Profile: p, Posts: posts}, nil
}

func (s *Service) normalizeInput(in model.ProfileInput) model.ProfileInput {
	in.Name = strings.TrimSpace(in.Name)
	in.University = strings.TrimSpace(in.University)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	in.Term = strings.TrimSpace(in.Term)
	in.Currency = strings.TrimSpace(in.Currency)
	in.Language = strings.TrimSpace(in.Language)
	in.Summary = s.sanitizer.Sanitize(in.Summary)
	return in
}

func (s *Service) normalizePatch(p model.ProfilePatch) model.ProfilePatch {
	for _, f := range []**string{&p.Name, &p.University, &p.City, &p.Country, &p.Term, &p.Currency, &p.Language} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	if p.Summary != nil {
		v := s.sanitizer.Sanitize(*p.Summary)
		p.Summary = &v
	}
	return p
}

func validateInput(in model.ProfileInput) []model.FieldError {
	var fields []model.FieldError
	if in.Name == "" {
		fields = append(fields, required("name"))
	}
	if in.University == "" {
		fields = append(fields, required("university"))
	}
	if in.Term == "" {
		fields = append(fields, required("term"))
	}
	fields = append(fields, checkLengths([]lengthCheck{
		{"name", &in.Name, model.MaxTextLength},
		{"university", &in.University, model.MaxTextLength},
		{"city", &in.City, model.MaxTextLength},
		{"country", &in.Country, model.MaxTextLength},
		{"term", &in.Term, model.MaxShortTextLength},
		{"currency", &in.Currency, model.MaxCurrencyLength},
		{"language", &in.Language, model.MaxShortTextLength},
	})...)
	return append(fields, validateNumbers(in.Budget, in.Rating)...)
}

func validatePatch(p model.ProfilePatch) []model.FieldError {
	var fields []model.FieldError
	if p.Name != nil && *p.Name == "" {
		fields = append(fields, required("name"))
	}
	if p.University != nil && *p.University == "" {
		fields = append(fields, required("university"))
	}
	if p.Term != nil && *p.Term == "" {
		fields = append(fields, required("term"))
	}
	fields = append(fields, checkLengths([]lengthCheck{
		{"name", p.Name, model.MaxTextLength},
		{"university", p.University, model.MaxTextLength},
		{"city", p.City, model.MaxTextLength},
		{"country", p.Country, model.MaxTextLength},
		{"term", p.Term, model.MaxShortTextLength},
		{"currency", p.Currency, model.MaxCurrencyLength},
		{"language", p.Language, model.MaxShortTextLength},
	})...)
	return append(fields, validateNumbers(p.Budget, p.Rating)...)
}

// lengthCheck は文字列項目と列の上限文字数の組。valueがnilの項目は検査しない。
type lengthCheck struct {
	field string
	value *string
	max   int
}

func checkLengths(checks []lengthCheck) []model.FieldError {
	var fields []model.FieldError
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if f, ok := model.CheckMaxLength(c.field, *c.value, c.max); !ok {
			fields = append(fields, f)
		}
	}
	return fields
}

func validateNumbers(budget *float64, rating *int) []model.FieldError {
	var fields []model.FieldError
	if budget != nil && *budget < 0 {
		fields = append(fields, model.FieldError{Field: "budget", Message: "must be zero or greater"})
	}
	if budget != nil && *budget >= model.MaxBudget {
		fields = append(fields, model.FieldError{Field: "budget", Message: "must be less than 10000000000"})
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		fields = append(fields, model.FieldError{Field: "rating", Message: "must be between 1 and 5"})
	}
	return fields
}

func required(field string) model.FieldError {
	return model.FieldError{Field: field, Message: "is required"}
}
