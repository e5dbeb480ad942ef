// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
	// メールアドレスが重複する場合はmodel.ErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
}

// ProfileRepository はプロフィールの永続化インターフェース。
type ProfileRepository interface {
	// Create はユーザーのプロフィールを作成する。
	// 既に存在する場合はmodel.ErrDuplicateを返す。
	Create(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error)

	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Profile, error)

	// FindByUserID はユーザーのプロフィールを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID int64) (*model.Profile, error)

	// ReplaceByUserID はユーザーのプロフィールの編集可能項目をすべて置き換える。
	// プロフィールがない場合はnilを返す。
	ReplaceByUserID(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error)

	// PatchOwned は所有者確認と部分更新を1文で行う。
	// 存在しない場合はmodel.ErrNotFound、所有者でない場合はmodel.ErrNotOwnerを返す。
	PatchOwned(ctx context.Context, id, userID int64, patch model.ProfilePatch) (*model.Profile, error)

	// List は組み立て済みの一覧クエリを実行する。
	List(ctx context.Context, q query.Query) ([]*model.Profile, error)
}

// PostRepository は投稿と投稿画像の永続化インターフェース。
type PostRepository interface {
	// CreateOwned はプロフィール所有者確認と投稿作成を1文で行う。
	// プロフィールが存在しない場合はmodel.ErrNotFound、所有者でない場合はmodel.ErrNotOwnerを返す。
	CreateOwned(ctx context.Context, profileID, userID int64, title, body string) (*model.Post, error)

	// AddImagesOwned は投稿の所有者確認と画像レコード作成を同一トランザクションで行う。
	AddImagesOwned(ctx context.Context, postID, userID int64, urls []string) ([]model.PostImage, error)

	// ListByProfile はプロフィールの投稿を画像付きで新しい順に返す。
	ListByProfile(ctx context.Context, profileID int64) ([]*model.Post, error)

	// List は組み立て済みの一覧クエリを実行する。
	List(ctx context.Context, q query.Query) ([]*model.PostWithProfile, error)
}

// UniversityRepository は大学カタログの永続化インターフェース。
type UniversityRepository interface {
	// FindByID は指定IDの大学を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.University, error)

	// List は組み立て済みの一覧クエリを実行する。
	List(ctx context.Context, q query.Query) ([]*model.University, error)

	// AverageRating は大学レビューの平均評価を返す。レビューがない場合はnilを返す。
	AverageRating(ctx context.Context, id int64) (*float64, error)
}

// CourseRepository はコースの永続化インターフェース。
type CourseRepository interface {
	// FindByID は指定IDのコースを大学情報付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Course, error)

	// ListByUniversity は大学に属するコースを返す。
	ListByUniversity(ctx context.Context, universityID int64) ([]*model.Course, error)

	// List は組み立て済みの一覧クエリを実行する。
	List(ctx context.Context, q query.Query) ([]*model.Course, error)

	// Averages はコースレビューの平均値を返す。
	Averages(ctx context.Context, id int64) (*model.CourseAverages, error)
}

// ReviewRepository は大学・コースレビューの永続化インターフェース。
// レビューは(対象, ユーザー)ごとに1件で、再投稿は上書きになる。
type ReviewRepository interface {
	// UpsertUniversityReview は大学レビューを作成または更新する。
	// 大学が存在しない場合はmodel.ErrNotFoundを返す。
	UpsertUniversityReview(ctx context.Context, review *model.UniversityReview) error

	// ListUniversityReviews は大学レビューを投稿者名付きで新しい順に返す。
	ListUniversityReviews(ctx context.Context, universityID int64) ([]*model.UniversityReview, error)

	// UpsertCourseReview はコースレビューを作成または更新する。
	// コースが存在しない場合はmodel.ErrNotFoundを返す。
	UpsertCourseReview(ctx context.Context, review *model.CourseReview) error

	// ListCourseReviews はコースレビューを投稿者名付きで新しい順に返す。
	ListCourseReviews(ctx context.Context, courseID int64) ([]*model.CourseReview, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
