package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// scanProfile はquery.ProfileColumnsの列順でスキャンする。
func scanProfile(s rowScanner) (*model.Profile, error) {
	p := &model.Profile{}
	var (
		budget sql.NullFloat64
		rating sql.NullInt64
	)
	err := s.Scan(
		&p.ID, &p.UserID, &p.Name, &p.University, &p.City, &p.Country,
		&p.Term, &budget, &p.Currency, &p.Language, &p.Summary,
		&rating, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Budget = nullFloatPtr(budget)
	p.Rating = nullIntPtr(rating)
	return p, nil
}

func (r *PostgresProfileRepo) findOne(ctx context.Context, where string, arg any) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+query.ProfileColumns+` FROM profiles WHERE `+where+` = $1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// Create はユーザーのプロフィールを作成する。
// user_idの一意制約により、同時リクエストでも2件目は作成されない。
func (r *PostgresProfileRepo) Create(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, name, university, city, country, term, budget, currency, language, summary, rating)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+query.ProfileColumns,
		userID, in.Name, in.University, nullString(in.City), nullString(in.Country), in.Term,
		in.Budget, nullString(in.Currency), nullString(in.Language), nullString(in.Summary), in.Rating,
	))
	if isUniqueViolation(err) {
		return nil, model.ErrDuplicate
	}
	if isValueOutOfRange(err) {
		return nil, fmt.Errorf("failed to insert profile: %w: %v", model.ErrValueOutOfRange, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return p, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id int64) (*model.Profile, error) {
	p, err := r.findOne(ctx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return p, nil
}

// FindByUserID はユーザーのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := r.findOne(ctx, "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by user ID: %w", err)
	}
	return p, nil
}

// ReplaceByUserID は編集可能項目をすべて置き換える。空の任意項目はNULLになる。
func (r *PostgresProfileRepo) ReplaceByUserID(ctx context.Context, userID int64, in model.ProfileInput) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`UPDATE profiles SET
			name = $2, university = $3, city = $4, country = $5, term = $6,
			budget = $7, currency = $8, language = $9, summary = $10, rating = $11
		 WHERE user_id = $1
		 RETURNING `+query.ProfileColumns,
		userID, in.Name, in.University, nullString(in.City), nullString(in.Country), in.Term,
		in.Budget, nullString(in.Currency), nullString(in.Language), nullString(in.Summary), in.Rating,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if isValueOutOfRange(err) {
		return nil, fmt.Errorf("failed to replace profile: %w: %v", model.ErrValueOutOfRange, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace profile: %w", err)
	}
	return p, nil
}

// PatchOwned は指定されたフィールドだけを更新する。
// 所有者条件をUPDATEのWHEREに含め、確認と更新の間に競合が入らないようにする。
func (r *PostgresProfileRepo) PatchOwned(ctx context.Context, id, userID int64, patch model.ProfilePatch) (*model.Profile, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.University != nil {
		set("university", *patch.University)
	}
	if patch.City != nil {
		set("city", nullString(*patch.City))
	}
	if patch.Country != nil {
		set("country", nullString(*patch.Country))
	}
	if patch.Term != nil {
		set("term", *patch.Term)
	}
	if patch.Budget != nil {
		set("budget", *patch.Budget)
	}
	if patch.Currency != nil {
		set("currency", nullString(*patch.Currency))
	}
	if patch.Language != nil {
		set("language", nullString(*patch.Language))
	}
	if patch.Summary != nil {
		set("summary", nullString(*patch.Summary))
	}
	if patch.Rating != nil {
		set("rating", *patch.Rating)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no fields to update for profile %d", id)
	}

	args = append(args, id, userID)
	stmt := fmt.Sprintf(
		`UPDATE profiles SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), query.ProfileColumns,
	)

	p, err := scanProfile(r.db.QueryRowContext(ctx, stmt, args...))
	if err == nil {
		return p, nil
	}
	if isValueOutOfRange(err) {
		return nil, fmt.Errorf("failed to patch profile: %w: %v", model.ErrValueOutOfRange, err)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to patch profile: %w", err)
	}

	// 更新対象がなかった理由を判定する
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check profile existence: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}
	return nil, model.ErrNotOwner
}

// List は組み立て済みの一覧クエリを実行する。
func (r *PostgresProfileRepo) List(ctx context.Context, q query.Query) ([]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*model.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
