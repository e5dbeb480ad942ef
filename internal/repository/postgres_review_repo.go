package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/studyabroad/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// UpsertUniversityReview は(大学, ユーザー)の一意制約でUPSERTする。
// 対象の大学が存在しない場合は外部キー違反をmodel.ErrNotFoundに変換する。
func (r *PostgresReviewRepo) UpsertUniversityReview(ctx context.Context, review *model.UniversityReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO university_reviews (university_id, user_id, rating, review_text)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (university_id, user_id) DO UPDATE
		 SET rating = EXCLUDED.rating, review_text = EXCLUDED.review_text, created_at = now()
		 RETURNING id, created_at`,
		review.UniversityID, review.UserID, review.Rating, nullString(review.ReviewText),
	).Scan(&review.ID, &review.CreatedAt)
	if isForeignKeyViolation(err) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upsert university review: %w", err)
	}
	return nil
}

// ListUniversityReviews は大学レビューを新しい順に返す。
func (r *PostgresReviewRepo) ListUniversityReviews(ctx context.Context, universityID int64) ([]*model.UniversityReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ur.id, ur.university_id, ur.user_id, ur.rating, COALESCE(ur.review_text, ''),
			u.first_name, u.last_name, ur.created_at
		 FROM university_reviews ur
		 JOIN users u ON u.id = ur.user_id
		 WHERE ur.university_id = $1
		 ORDER BY ur.created_at DESC`,
		universityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list university reviews: %w", err)
	}
	defer rows.Close()

	list := make([]*model.UniversityReview, 0)
	for rows.Next() {
		rv := &model.UniversityReview{}
		if err := rows.Scan(
			&rv.ID, &rv.UniversityID, &rv.UserID, &rv.Rating, &rv.ReviewText,
			&rv.FirstName, &rv.LastName, &rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan university review: %w", err)
		}
		list = append(list, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate university reviews: %w", err)
	}
	return list, nil
}

// UpsertCourseReview は(コース, ユーザー)の一意制約でUPSERTする。
func (r *PostgresReviewRepo) UpsertCourseReview(ctx context.Context, review *model.CourseReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO course_reviews (course_id, user_id, rating, enjoyability, difficulty, review_text)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (course_id, user_id) DO UPDATE
		 SET rating = EXCLUDED.rating, enjoyability = EXCLUDED.enjoyability,
			difficulty = EXCLUDED.difficulty, review_text = EXCLUDED.review_text, created_at = now()
		 RETURNING id, created_at`,
		review.CourseID, review.UserID, review.Rating, review.Enjoyability, review.Difficulty,
		nullString(review.ReviewText),
	).Scan(&review.ID, &review.CreatedAt)
	if isForeignKeyViolation(err) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upsert course review: %w", err)
	}
	return nil
}

// ListCourseReviews はコースレビューを新しい順に返す。
func (r *PostgresReviewRepo) ListCourseReviews(ctx context.Context, courseID int64) ([]*model.CourseReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cr.id, cr.course_id, cr.user_id, cr.rating, cr.enjoyability, cr.difficulty,
			COALESCE(cr.review_text, ''), u.first_name, u.last_name, cr.created_at
		 FROM course_reviews cr
		 JOIN users u ON u.id = cr.user_id
		 WHERE cr.course_id = $1
		 ORDER BY cr.created_at DESC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list course reviews: %w", err)
	}
	defer rows.Close()

	list := make([]*model.CourseReview, 0)
	for rows.Next() {
		rv := &model.CourseReview{}
		if err := rows.Scan(
			&rv.ID, &rv.CourseID, &rv.UserID, &rv.Rating, &rv.Enjoyability, &rv.Difficulty,
			&rv.ReviewText, &rv.FirstName, &rv.LastName, &rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan course review: %w", err)
		}
		list = append(list, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate course reviews: %w", err)
	}
	return list, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
