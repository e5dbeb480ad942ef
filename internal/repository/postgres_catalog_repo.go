package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
)

// PostgresUniversityRepo はPostgreSQLを使用した大学リポジトリ。
type PostgresUniversityRepo struct {
	db *sql.DB
}

// NewPostgresUniversityRepo はPostgresUniversityRepoを生成する。
func NewPostgresUniversityRepo(db *sql.DB) *PostgresUniversityRepo {
	return &PostgresUniversityRepo{db: db}
}

func scanUniversity(s rowScanner) (*model.University, error) {
	u := &model.University{}
	if err := s.Scan(&u.ID, &u.Name, &u.City, &u.Country, &u.Description, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID は指定IDの大学を取得する。見つからない場合はnilを返す。
func (r *PostgresUniversityRepo) FindByID(ctx context.Context, id int64) (*model.University, error) {
	u, err := scanUniversity(r.db.QueryRowContext(ctx,
		`SELECT `+query.UniversityColumns+` FROM universities WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find university by ID: %w", err)
	}
	return u, nil
}

// List は組み立て済みの一覧クエリを実行する。
func (r *PostgresUniversityRepo) List(ctx context.Context, q query.Query) ([]*model.University, error) {
	rows, err := r.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list universities: %w", err)
	}
	defer rows.Close()

	list := make([]*model.University, 0)
	for rows.Next() {
		u, err := scanUniversity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan university: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate universities: %w", err)
	}
	return list, nil
}

// AverageRating は大学レビューの平均評価を返す。レビューがない場合はnilを返す。
func (r *PostgresUniversityRepo) AverageRating(ctx context.Context, id int64) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx,
		`SELECT AVG(rating)::float8 FROM university_reviews WHERE university_id = $1`, id,
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to compute university rating: %w", err)
	}
	return nullFloatPtr(avg), nil
}

// PostgresCourseRepo はPostgreSQLを使用したコースリポジトリ。
type PostgresCourseRepo struct {
	db *sql.DB
}

// NewPostgresCourseRepo はPostgresCourseRepoを生成する。
func NewPostgresCourseRepo(db *sql.DB) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: db}
}

func scanCourse(s rowScanner) (*model.Course, error) {
	c := &model.Course{}
	err := s.Scan(
		&c.ID, &c.UniversityID, &c.SubjectName, &c.CourseCode, &c.Description,
		&c.UniversityName, &c.City, &c.Country, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresCourseRepo) queryCourses(ctx context.Context, stmt string, args ...any) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// FindByID は指定IDのコースを取得する。見つからない場合はnilを返す。
func (r *PostgresCourseRepo) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		`SELECT `+query.CourseColumns+query.CourseFrom+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find course by ID: %w", err)
	}
	return c, nil
}

// ListByUniversity は大学に属するコースを科目名順に返す。
func (r *PostgresCourseRepo) ListByUniversity(ctx context.Context, universityID int64) ([]*model.Course, error) {
	list, err := r.queryCourses(ctx,
		`SELECT `+query.CourseColumns+query.CourseFrom+` WHERE c.university_id = $1 ORDER BY c.subject_name`,
		universityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses by university: %w", err)
	}
	return list, nil
}

// List は組み立て済みの一覧クエリを実行する。
func (r *PostgresCourseRepo) List(ctx context.Context, q query.Query) ([]*model.Course, error) {
	list, err := r.queryCourses(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return list, nil
}

// Averages はコースレビューの各評価軸の平均値を返す。
func (r *PostgresCourseRepo) Averages(ctx context.Context, id int64) (*model.CourseAverages, error) {
	var rating, enjoy, diff sql.NullFloat64
	if err := r.db.QueryRowContext(ctx,
		`SELECT AVG(rating)::float8, AVG(enjoyability)::float8, AVG(difficulty)::float8
		 FROM course_reviews WHERE course_id = $1`, id,
	).Scan(&rating, &enjoy, &diff); err != nil {
		return nil, fmt.Errorf("failed to compute course averages: %w", err)
	}
	return &model.CourseAverages{
		Rating:       nullFloatPtr(rating),
		Enjoyability: nullFloatPtr(enjoy),
		Difficulty:   nullFloatPtr(diff),
	}, nil
}

// compile-time interface check
var (
	_ UniversityRepository = (*PostgresUniversityRepo)(nil)
	_ CourseRepository     = (*PostgresCourseRepo)(nil)
)
